package database

import "testing"

func TestAddKeyword(t *testing.T) {
	db := openTestDB(t)

	added, err := db.AddKeyword("Ozon")
	if err != nil || !added {
		t.Fatalf("expected add to succeed, got %v/%v", added, err)
	}
	// Lower-cased on the way in, so the same word is a no-op.
	added, err = db.AddKeyword("ozon")
	if err != nil || added {
		t.Fatalf("expected duplicate add to report false, got %v/%v", added, err)
	}

	keywords, _ := db.ListKeywords()
	if len(keywords) != 1 || keywords[0] != "ozon" {
		t.Errorf("unexpected keywords: %v", keywords)
	}
}

func TestAddKeywordIgnoresEmpty(t *testing.T) {
	db := openTestDB(t)
	added, err := db.AddKeyword("   ")
	if err != nil || added {
		t.Errorf("expected blank keyword to be ignored, got %v/%v", added, err)
	}
}

func TestRemoveKeyword(t *testing.T) {
	db := openTestDB(t)
	db.AddKeyword("marketplace")

	removed, err := db.RemoveKeyword("MARKETPLACE")
	if err != nil || !removed {
		t.Fatalf("expected remove to succeed, got %v/%v", removed, err)
	}
	removed, err = db.RemoveKeyword("marketplace")
	if err != nil || removed {
		t.Fatalf("expected second remove to report false, got %v/%v", removed, err)
	}
}

func TestListKeywordsSorted(t *testing.T) {
	db := openTestDB(t)
	for _, kw := range []string{"wildberries", "amazon", "ozon"} {
		db.AddKeyword(kw)
	}

	keywords, err := db.ListKeywords()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	want := []string{"amazon", "ozon", "wildberries"}
	for i, kw := range want {
		if keywords[i] != kw {
			t.Fatalf("expected sorted %v, got %v", want, keywords)
		}
	}
}

func TestSeedKeywords(t *testing.T) {
	db := openTestDB(t)

	if err := db.SeedKeywords([]string{"ozon", "amazon"}); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	keywords, _ := db.ListKeywords()
	if len(keywords) != 2 {
		t.Fatalf("expected 2 seeded keywords, got %d", len(keywords))
	}

	// Second seed is a no-op even after the user empties the store.
	db.RemoveKeyword("ozon")
	db.RemoveKeyword("amazon")
	if err := db.SeedKeywords([]string{"ozon", "amazon"}); err != nil {
		t.Fatalf("reseeding: %v", err)
	}
	keywords, _ = db.ListKeywords()
	if len(keywords) != 0 {
		t.Errorf("store was reseeded: %v", keywords)
	}
}

func TestSeedKeywordsSkipsNonEmptyStore(t *testing.T) {
	db := openTestDB(t)
	db.AddKeyword("custom")

	if err := db.SeedKeywords([]string{"ozon"}); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	keywords, _ := db.ListKeywords()
	if len(keywords) != 1 || keywords[0] != "custom" {
		t.Errorf("non-empty store was reseeded: %v", keywords)
	}
}
