package search

import (
	"sort"
	"strings"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

const (
	ContextBefore   = 300
	ContextAfter    = 700
	MaxContextLines = 9
	Ellipsis        = "…"
)

// ExtractContext returns the part of pageText around the earliest match of
// any matched term: ContextBefore runes before it, ContextAfter runes after,
// at most MaxContextLines lines. Lines holding a matched term win when lines
// have to be dropped. An ellipsis marks each side where text was cut.
func ExtractContext(pageText string, matched []string) string {
	runes := []rune(pageText)

	anchor := -1
	for _, term := range matched {
		spans := document.FindAll(pageText, term)
		if len(spans) > 0 && (anchor < 0 || spans[0].Start < anchor) {
			anchor = spans[0].Start
		}
	}
	if anchor < 0 {
		lines := strings.Split(pageText, "\n")
		if len(lines) > MaxContextLines {
			lines = lines[:MaxContextLines]
		}
		return strings.Join(lines, "\n")
	}

	start := max(0, anchor-ContextBefore)
	end := min(len(runes), anchor+ContextAfter)
	window := string(runes[start:end])
	lines := strings.Split(window, "\n")

	// Line holding the anchor, counted inside the window.
	anchorLine := strings.Count(string(runes[start:anchor]), "\n")

	cutBefore, cutAfter := start > 0, end < len(runes)
	if len(lines) > MaxContextLines {
		keep := pickLines(lines, matched, anchorLine)
		cutBefore = cutBefore || keep[0] > 0
		cutAfter = cutAfter || keep[len(keep)-1] < len(lines)-1
		picked := make([]string, len(keep))
		for i, idx := range keep {
			picked[i] = lines[idx]
		}
		lines = picked
	}

	out := strings.Join(lines, "\n")
	if cutBefore {
		out = Ellipsis + out
	}
	if cutAfter {
		out += Ellipsis
	}
	return out
}

// pickLines chooses MaxContextLines line indexes: lines with a matched term
// first, then the lines closest to the anchor. The result is sorted.
func pickLines(lines, matched []string, anchorLine int) []int {
	chosen := make(map[int]bool, MaxContextLines)
	if anchorLine < len(lines) {
		chosen[anchorLine] = true
	}
	for i, line := range lines {
		if len(chosen) >= MaxContextLines {
			break
		}
		for _, term := range matched {
			if document.Contains(line, term) {
				chosen[i] = true
				break
			}
		}
	}
	for dist := 1; len(chosen) < MaxContextLines && dist < len(lines); dist++ {
		for _, i := range []int{anchorLine + dist, anchorLine - dist} {
			if i >= 0 && i < len(lines) && len(chosen) < MaxContextLines {
				chosen[i] = true
			}
		}
	}

	keep := make([]int, 0, len(chosen))
	for i := range chosen {
		keep = append(keep, i)
	}
	sort.Ints(keep)
	return keep
}
