package document

import (
	"reflect"
	"testing"
)

func TestFindAll(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want []Span
	}{
		{"single word", "Die LED Leuchte", "led", []Span{{4, 7}}},
		{"no partial word", "LEDs und Ledermappe", "led", nil},
		{"word boundary punctuation", "(LED), led.", "LED", []Span{{1, 4}, {7, 10}}},
		{"underscore is word rune", "led_panel led", "led", []Span{{10, 13}}},
		{"digits are word runes", "IP65 IP 65", "ip", []Span{{5, 7}}},
		{"umlaut", "Größe: GRÖSSE größe", "größe", []Span{{0, 5}, {14, 19}}},
		{"phrase", "Not stück und Notstück", "Not stück", []Span{{0, 9}}},
		{"phrase across whitespace run", "Not \n  stück", "not stück", []Span{{0, 12}}},
		{"phrase needs exact words", "Not stücke", "not stück", nil},
		{"term with symbol", "Gewicht 5 kg, 5kg", "5 kg", []Span{{8, 12}}},
		{"empty term", "anything", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindAll(tt.text, tt.term)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindAll(%q, %q) = %v, want %v", tt.text, tt.term, got, tt.want)
			}
		})
	}
}

func TestNormalizeTerm(t *testing.T) {
	if got := NormalizeTerm("  Not \t Stück "); got != "not stück" {
		t.Errorf("NormalizeTerm() = %q", got)
	}
}

func TestContains(t *testing.T) {
	if !Contains("Feuchtraum-Leuchte", "feuchtraum") {
		t.Error("hyphen should act as a word boundary")
	}
	if Contains("Feuchtraumleuchte", "feuchtraum") {
		t.Error("compound word must not match a prefix")
	}
}
