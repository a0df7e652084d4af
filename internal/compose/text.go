package compose

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// winAnsi encodes s for a WinAnsiEncoding font and escapes it for use inside
// a PDF string literal. Runes outside the code page become '?'.
func winAnsi(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	raw, err := enc.String(s)
	if err != nil {
		raw = strings.Map(func(r rune) rune {
			if r < 0x80 {
				return r
			}
			return '?'
		}, s)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n' || c == '\r' || c == '\t':
			b.WriteByte(' ')
		case c >= 0x80 || c < 0x20:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// textString returns s as a PDF text string: UTF-16BE with byte order mark,
// hex encoded, so titles keep every rune.
func textString(s string) types.HexLiteral {
	enc := xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewEncoder()
	raw, err := enc.String(s)
	if err != nil {
		return types.HexLiteral(hex.EncodeToString([]byte(s)))
	}
	return types.HexLiteral(hex.EncodeToString([]byte(raw)))
}

// decodeTextString reverses textString and accepts plain literals.
func decodeTextString(o types.Object) string {
	var raw []byte
	switch v := o.(type) {
	case types.HexLiteral:
		b, err := hex.DecodeString(string(v))
		if err != nil {
			return ""
		}
		raw = b
	case types.StringLiteral:
		raw = []byte(v)
	default:
		return ""
	}
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec := xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM).NewDecoder()
		s, err := dec.Bytes(raw)
		if err == nil {
			return string(s)
		}
	}
	return string(raw)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
