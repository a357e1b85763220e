package scrape

import "testing"

func TestMatcherEmptySetPassesEverything(t *testing.T) {
	m := NewMatcher(nil)
	if !m.IsRelevant("anything") {
		t.Error("empty keyword set must pass all content")
	}
	if !m.IsRelevant("") {
		t.Error("empty keyword set must pass empty text")
	}
}

func TestMatcherSubstring(t *testing.T) {
	m := NewMatcher([]string{"ozon"})

	if !m.IsRelevant("Ozon launches a new logistics hub") {
		t.Error("expected case-insensitive match")
	}
	if m.IsRelevant("weather today") {
		t.Error("expected no match for unrelated text")
	}
}

func TestMatcherNormalizesKeywords(t *testing.T) {
	m := NewMatcher([]string{"  Marketplace ", "", "E-Commerce"})

	if !m.IsRelevant("the marketplace grew 20%") {
		t.Error("expected trimmed lower-cased keyword to match")
	}
	if !m.IsRelevant("new e-commerce rules") {
		t.Error("expected second keyword to match")
	}
	if m.IsRelevant("nothing related") {
		t.Error("blank keyword must not match everything")
	}
}
