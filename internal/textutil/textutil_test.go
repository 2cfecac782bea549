package textutil

import "testing"

var englishIndicators = []string{"the", "and", "of", "that", "with", "this", "is", "are", "was", "from", "which", "for", "have", "their"}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case and spacing", "  The   Universal FATHER ", "the universal father"},
		{"accented", "ÉPOQUE", "époque"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.in); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstWords(t *testing.T) {
	got, ok := FirstWords("the life of jesus christ", 3)
	if !ok || got != "the life of" {
		t.Fatalf("FirstWords = %q, %v", got, ok)
	}
	if _, ok := FirstWords("two words", 3); ok {
		t.Fatal("expected false for short input")
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain passthrough", "No markup  here", "No markup here"},
		{"inline tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"paragraphs separated", "<p>One</p><p>Two</p>", "One Two"},
		{"entities", "Faith &amp; Hope", "Faith & Hope"},
		{"entities with markup", "<em>Faith &amp; Hope</em>", "Faith & Hope"},
		{"script removed", "<div>Text<script>alert(1)</script></div>", "Text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 10); got != "short" {
		t.Fatalf("Snippet = %q", got)
	}
	if got := Snippet("ñandú ñandú ñandú", 5); got != "ñandú..." {
		t.Fatalf("Snippet = %q", got)
	}
	if got := Snippet("anything", 0); got != "" {
		t.Fatalf("Snippet with zero limit = %q", got)
	}
}

func TestDetectorThreshold(t *testing.T) {
	d := NewDetector(englishIndicators, 3)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"three occurrences", "El Padre and the Hijo and", true},
		{"two occurrences", "El Padre and the Hijo", false},
		{"repeated word counts each time", "the the the", true},
		{"case insensitive", "THE Father AND The Son", true},
		{"translated text", "El Padre Universal es el primero", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.LooksUntranslated(tt.text); got != tt.want {
				t.Errorf("LooksUntranslated(%q) = %v, want %v (count %d)", tt.text, got, tt.want, d.Count(tt.text))
			}
		})
	}
}

func TestDetectorIsGap(t *testing.T) {
	d := NewDetector(englishIndicators, 3)
	if !d.IsGap("   ") {
		t.Fatal("blank value should be a gap")
	}
	if !d.IsGap("The nature of the Father and his love") {
		t.Fatal("english text should be a gap")
	}
	if d.IsGap("La naturaleza del Padre") {
		t.Fatal("translated text should not be a gap")
	}
}

func TestNilDetector(t *testing.T) {
	var d *Detector
	if d.LooksUntranslated("the and of that") {
		t.Fatal("nil detector should never flag")
	}
	if d.Count("the") != 0 || d.Threshold() != 0 {
		t.Fatal("nil detector should report zero")
	}
}
