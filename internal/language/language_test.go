package language

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{" es ", "es"},
		// 3-letter codes convert
		{"spa", "es"},
		{"fre", "fr"},
		{"ger", "de"},
		{"por", "pt"},
		// Word forms
		{"Spanish", "es"},
		{"français", "fr"},
		// Regional tags collapse to the base language
		{"pt-BR", "pt"},
		{"es_MX", "es"},
		{"fr-CA", "fr"},
		// Known to x/text but not the table
		{"tr", "tr"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "  ", "not a language", "12"} {
		if _, err := Normalize(input); err == nil {
			t.Errorf("Normalize(%q) expected error", input)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"spa", "Spanish"},
		{"pt", "Portuguese"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"EN", "eng", "es", "bogus value", "pt-BR"})
	want := []string{"en", "es", "pt"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList = %v, want %v", got, want)
		}
	}
}
