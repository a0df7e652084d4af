package expand

import (
	"fmt"
	"strings"
)

const expandSystem = `You expand search queries for product documents such as tenders,
price lists and data sheets in the lighting and electrical trade.
Return related terms a document matching the query would likely contain:
synonyms, German and English variants, abbreviations and closely related concepts.
Do not repeat the query terms. Keep each term short (one to three words).`

const salesFocus = `Focus on commercial vocabulary: prices, discounts, certifications,
target use and customer benefits.`

const technicalFocus = `Focus on technical vocabulary: specifications, standards,
installation, IP ratings, luminous flux and electrical values.`

const keywordSystem = `You build keyword lists for classifying documents in the lighting
and electrical trade. Return single words or short phrases exactly as they would
appear in a German or English document. No explanations.`

const categorySystem = `You label product mentions. Answer with the product category in
one or two words (for example "Downlight" or "Präsenzmelder"), or an empty string
if the text names no product.`

const quantitySystem = `You read order positions. Return the number of units the text
asks for as an integer between 0 and 9999, or null if it states none.`

func expandPrompt(query string, p Perspective, limit int) (string, string) {
	focus := technicalFocus
	if p == Sales {
		focus = salesFocus
	}
	user := fmt.Sprintf("Query: %s\n\nReturn at most %d terms.", query, limit)
	return expandSystem + "\n\n" + focus, user
}

func keywordPrompt(category string, seed []string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", category)
	if len(seed) > 0 {
		fmt.Fprintf(&b, "Existing keywords: %s\n", strings.Join(seed, ", "))
		b.WriteString("Add keywords that are missing from this list.\n")
	}
	fmt.Fprintf(&b, "\nReturn %d keywords.", n)
	return b.String()
}

func snippetPrompt(snippet string) string {
	return "Text:\n" + snippet
}
