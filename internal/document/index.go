package document

// posting records where a token starts: page index and rune offset.
type posting struct {
	page   int
	offset int
}

// Index maps lowercased word tokens to their positions in the document.
// It is built once per document; term lookups never rescan page text
// unless the term starts with a non-word rune.
type Index struct {
	postings map[string][]posting
	pages    [][]rune // lowercased page runes
}

func buildIndex(pages []*Page) *Index {
	idx := &Index{
		postings: make(map[string][]posting),
		pages:    make([][]rune, len(pages)),
	}
	for pi, p := range pages {
		lowered := lowerRuneSlice([]rune(p.Text))
		idx.pages[pi] = lowered
		for i := 0; i < len(lowered); {
			if !IsWordRune(lowered[i]) {
				i++
				continue
			}
			j := i
			for j < len(lowered) && IsWordRune(lowered[j]) {
				j++
			}
			tok := string(lowered[i:j])
			idx.postings[tok] = append(idx.postings[tok], posting{page: pi, offset: i})
			i = j
		}
	}
	return idx
}

// Tokens returns the number of distinct tokens in the index.
func (idx *Index) Tokens() int {
	return len(idx.postings)
}

// lookup returns all matches of term per page index, ordered by page then offset.
func (idx *Index) lookup(term string) map[int][]Span {
	norm := []rune(NormalizeTerm(term))
	if len(norm) == 0 {
		return nil
	}
	out := make(map[int][]Span)

	if !IsWordRune(norm[0]) {
		for pi, page := range idx.pages {
			if spans := findAllLowered(page, norm); len(spans) > 0 {
				out[pi] = spans
			}
		}
		return out
	}

	first := 0
	for first < len(norm) && IsWordRune(norm[first]) {
		first++
	}
	head := string(norm[:first])

	lastEnd := make(map[int]int)
	for _, post := range idx.postings[head] {
		page := idx.pages[post.page]
		if end, ok := lastEnd[post.page]; ok && post.offset < end {
			continue
		}
		end, ok := matchAt(page, post.offset, norm)
		if !ok {
			continue
		}
		span := Span{Start: post.offset, End: end}
		if !boundaryOK(page, span, norm) {
			continue
		}
		out[post.page] = append(out[post.page], span)
		lastEnd[post.page] = end
	}
	return out
}
