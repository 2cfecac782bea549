package schema

import (
	"strings"
	"testing"
)

func TestNormalizePaperArray(t *testing.T) {
	doc := `[
		{"paper_number": 1, "title": "The Universal Father", "short_form": "<p>God is <b>first</b></p>"},
		{"paper_number": "2", "name": "The Nature of God", "longSummary": "Long text"},
		{"paper_number": 1, "title": "Duplicate"},
		{"title": "No number"},
		{"paper_number": "abc", "title": "Bad number"},
		"not an object",
		{"paper_number": 3}
	]`
	result, err := Normalize([]byte(doc), ShapePaperArray)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := strings.Join(result.Keys(), ","); got != "paper_1,paper_2" {
		t.Fatalf("keys = %s", got)
	}
	first := result.Entries["paper_1"]
	if first.Title != "The Universal Father" || first.ShortForm != "God is first" {
		t.Fatalf("paper_1 = %+v", first)
	}
	second := result.Entries["paper_2"]
	if second.Title != "The Nature of God" || second.LongForm != "Long text" {
		t.Fatalf("paper_2 = %+v", second)
	}
	if len(result.Warnings) != 5 {
		t.Fatalf("expected 5 warnings, got %d: %v", len(result.Warnings), result.Warnings)
	}
}

func TestNormalizeSlugObjectAliases(t *testing.T) {
	doc := `{
		"topic/prayer": {"title": "Prayer", "tagline": "On prayer", "card": "Card text", "summary": "Full"},
		"event/baptism": {"name": "Baptism", "episodeCard": "Baptism card", "long_form": "Long"},
		"empty": {"unrelated": "field"},
		" ": {"title": "Blank key"}
	}`
	result, err := Normalize([]byte(doc), ShapeSlugObject)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	prayer := result.Entries["topic/prayer"]
	want := Entry{Key: "topic/prayer", Title: "Prayer", Logline: "On prayer", ShortForm: "Card text", LongForm: "Full"}
	if prayer != want {
		t.Fatalf("topic/prayer = %+v, want %+v", prayer, want)
	}
	baptism := result.Entries["event/baptism"]
	if baptism.Title != "Baptism" || baptism.ShortForm != "Baptism card" || baptism.LongForm != "Long" {
		t.Fatalf("event/baptism = %+v", baptism)
	}
	if len(result.Entries) != 2 || len(result.Warnings) != 2 {
		t.Fatalf("entries=%d warnings=%v", len(result.Entries), result.Warnings)
	}
}

func TestNormalizeSummaryKeyOverride(t *testing.T) {
	doc := `{
		"outer-1": {"summaryKey": "topic/faith", "shortSummary": "Faith card"},
		"topic/hope": {"longForm": "Hope summary"}
	}`
	result, err := Normalize([]byte(doc), ShapeSummaryKey)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, ok := result.Entries["outer-1"]; ok {
		t.Fatal("inner summaryKey should replace outer key")
	}
	if result.Entries["topic/faith"].ShortForm != "Faith card" {
		t.Fatalf("topic/faith = %+v", result.Entries["topic/faith"])
	}
	if result.Entries["topic/hope"].LongForm != "Hope summary" {
		t.Fatalf("topic/hope = %+v", result.Entries["topic/hope"])
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		shape Shape
	}{
		{"unparseable", `{`, ShapeSlugObject},
		{"array expected", `{}`, ShapePaperArray},
		{"object expected", `[]`, ShapeSummaryKey},
		{"tree shape", `{}`, ShapeTree},
		{"unknown shape", `{}`, Shape("csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize([]byte(tt.doc), tt.shape); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	if shape, err := ParseShape(" Paper_Array "); err != nil || shape != ShapePaperArray {
		t.Fatalf("ParseShape = %q, %v", shape, err)
	}
	if _, err := ParseShape("xml"); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}
