package search

import (
	"testing"

	"creditflow/internal/model"
)

func testAssets() []model.Asset {
	return []model.Asset{
		{Ticker: "VALE28", ISIN: "BRVALEDBS028", Issuer: "Vale S.A."},
		{Ticker: "PETR30", ISIN: "BRPETRDBS030", Issuer: "Petrobras"},
		{Ticker: "ENGI26", ISIN: "BRENGIDBS026", Issuer: "Energisa"},
		{Ticker: "LREN29", ISIN: "BRLRENDBS029", Issuer: "Lojas Renner"},
	}
}

func newTestIndex() *Index {
	return NewIndex(testAssets(), 0.3, 8)
}

func TestQueryExactTicker(t *testing.T) {
	idx := newTestIndex()

	matches := idx.Query("VALE28")
	if len(matches) == 0 {
		t.Fatal("expected a match")
	}
	if matches[0].Asset.Ticker != "VALE28" {
		t.Errorf("expected VALE28 first, got %s", matches[0].Asset.Ticker)
	}
	if matches[0].Score != 1 {
		t.Errorf("exact match should score 1, got %v", matches[0].Score)
	}
	if matches[0].Field != "ticker" {
		t.Errorf("expected ticker field, got %s", matches[0].Field)
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	idx := newTestIndex()

	matches := idx.Query("vale28")
	if len(matches) == 0 || matches[0].Asset.Ticker != "VALE28" {
		t.Error("lowercase query should match the uppercase ticker")
	}
}

func TestQueryPrefix(t *testing.T) {
	idx := newTestIndex()

	matches := idx.Query("petr")
	if len(matches) == 0 {
		t.Fatal("prefix query should match")
	}
	if matches[0].Asset.Ticker != "PETR30" {
		t.Errorf("expected PETR30 first, got %s", matches[0].Asset.Ticker)
	}
}

func TestQueryIssuerName(t *testing.T) {
	idx := newTestIndex()

	matches := idx.Query("petrobras")
	if len(matches) == 0 {
		t.Fatal("issuer query should match")
	}
	if matches[0].Asset.Ticker != "PETR30" {
		t.Errorf("expected PETR30, got %s", matches[0].Asset.Ticker)
	}
	if matches[0].Field != "issuer" {
		t.Errorf("expected issuer field, got %s", matches[0].Field)
	}
}

func TestQueryMisspelling(t *testing.T) {
	idx := newTestIndex()

	// One substitution within a nine-letter word stays inside the 0.3
	// distance threshold.
	matches := idx.Query("petrobraz")
	if len(matches) == 0 {
		t.Fatal("a close misspelling should still match")
	}
	if matches[0].Asset.Ticker != "PETR30" {
		t.Errorf("expected PETR30, got %s", matches[0].Asset.Ticker)
	}
}

func TestQueryNoMatchBeyondThreshold(t *testing.T) {
	idx := newTestIndex()

	if matches := idx.Query("zzzzzzzz"); len(matches) != 0 {
		t.Errorf("garbage query should not match, got %d hits", len(matches))
	}
}

func TestQueryEmpty(t *testing.T) {
	idx := newTestIndex()

	if matches := idx.Query("   "); matches != nil {
		t.Error("blank query should match nothing")
	}
}

func TestQueryLimit(t *testing.T) {
	assets := make([]model.Asset, 20)
	for i := range assets {
		assets[i] = model.Asset{Ticker: "AAA11", Issuer: "Same Issuer"}
	}
	idx := NewIndex(assets, 0.3, 8)

	if matches := idx.Query("AAA11"); len(matches) != 8 {
		t.Errorf("result list should cap at the limit, got %d", len(matches))
	}
}

func TestQueryISIN(t *testing.T) {
	idx := newTestIndex()

	matches := idx.Query("BRENGIDBS026")
	if len(matches) == 0 || matches[0].Asset.Ticker != "ENGI26" {
		t.Error("full ISIN should match its asset")
	}
	if matches[0].Field != "isin" {
		t.Errorf("expected isin field, got %s", matches[0].Field)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"petrobras", "petrobraz", 1},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
