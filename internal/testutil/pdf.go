package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Fixture layout: every page is A4, text starts at (LeftMargin, TopBaseline)
// in Helvetica FontSize with Leading between baselines. Each glyph advances
// GlyphWidth/1000 * FontSize.
const (
	PageWidth   = 595.0
	PageHeight  = 842.0
	LeftMargin  = 72.0
	TopBaseline = 770.0
	FontSize    = 12.0
	Leading     = 16.0
	GlyphWidth  = 500
)

// TestingT is the subset of testing.T used by fixture helpers.
type TestingT interface {
	Helper()
	TempDir() string
	Fatalf(format string, args ...any)
}

// PDF builds a minimal, valid PDF with one page per argument. Lines within a
// page are separated by '\n'. Text is encoded WinAnsi so umlauts survive.
func PDF(pages ...string) []byte {
	var objects []string

	// 1: catalog, 2: pages, 3: font; then page/content pairs.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
	)
	for i, text := range pages {
		content := contentStream(text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				PageWidth, PageHeight, 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WritePDF writes a fixture PDF into a temp dir and returns its path.
func WritePDF(t TestingT, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, PDF(pages...), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// PageOf returns n pages of filler text with extra placed on page at (1-based).
func PageOf(n, at int, extra string) []string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("Seite %d\nAllgemeine Hinweise zur Ausschreibung.", i+1)
		if i+1 == at {
			pages[i] += "\n" + extra
		}
	}
	return pages
}

// LineOrigin returns the baseline origin of a 0-based line on a fixture page.
func LineOrigin(line int) (x, y float64) {
	return LeftMargin, TopBaseline - float64(line)*Leading
}

func fontObject() string {
	widths := make([]string, 256-32)
	for i := range widths {
		widths[i] = fmt.Sprint(GlyphWidth)
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 255 /Widths [%s] >>",
		strings.Join(widths, " "))
}

func contentStream(text string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT\n/F1 %g Tf\n%g TL\n%g %g Td\n", FontSize, Leading, LeftMargin, TopBaseline)
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escape(line))
	}
	sb.WriteString("ET")
	return sb.String()
}

func escape(s string) string {
	encoded, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(s)
	if err != nil {
		encoded = s
	}
	var sb strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x80:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
