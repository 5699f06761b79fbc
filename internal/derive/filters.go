package derive

import (
	"sort"
	"strings"

	"creditflow/internal/coerce"
	"creditflow/internal/model"
)

// The filter dimensions cascade in a fixed order: a selection in one dimension
// narrows the option sets of every later dimension, and changing an earlier
// dimension invalidates everything selected after it.
const (
	DimIndexer = "indexer"
	DimIssuer  = "issuer"
	DimTicker  = "ticker"
	DimRating  = "rating"
)

var dimensionOrder = []string{DimIndexer, DimIssuer, DimTicker, DimRating}

// Selections is one concrete filter state. Empty slices mean "no restriction"
// for that dimension. The spread range applies independently of the cascade.
type Selections struct {
	Indexers []string `json:"indexers"`
	Issuers  []string `json:"issuers"`
	Tickers  []string `json:"tickers"`
	Ratings  []string `json:"ratings"`

	SpreadMin *float64 `json:"spread_min,omitempty"`
	SpreadMax *float64 `json:"spread_max,omitempty"`
}

func (s *Selections) values(dim string) []string {
	switch dim {
	case DimIndexer:
		return s.Indexers
	case DimIssuer:
		return s.Issuers
	case DimTicker:
		return s.Tickers
	case DimRating:
		return s.Ratings
	}
	return nil
}

func (s *Selections) clear(dim string) {
	switch dim {
	case DimIndexer:
		s.Indexers = nil
	case DimIssuer:
		s.Issuers = nil
	case DimTicker:
		s.Tickers = nil
	case DimRating:
		s.Ratings = nil
	}
}

func dimValue(a model.Asset, dim string) string {
	switch dim {
	case DimIndexer:
		return a.Indexer
	case DimIssuer:
		return a.Issuer
	case DimTicker:
		return a.Ticker
	case DimRating:
		return a.Rating
	}
	return ""
}

// ResetDownstream clears every dimension after the one that changed and
// returns the adjusted state.
func ResetDownstream(sel Selections, changed string) Selections {
	seen := false
	for _, dim := range dimensionOrder {
		if seen {
			sel.clear(dim)
		}
		if dim == changed {
			seen = true
		}
	}
	return sel
}

// Options holds the selectable values per dimension for a given state.
type Options struct {
	Indexers []string `json:"indexers"`
	Issuers  []string `json:"issuers"`
	Tickers  []string `json:"tickers"`
	Ratings  []string `json:"ratings"`
}

// FilterOptions computes the option set of each dimension: the distinct values
// present among live assets after applying every selection in an EARLIER
// dimension. A dimension's own selection never narrows its own options.
func (e *Engine) FilterOptions(sel Selections) Options {
	live := e.LiveAssets()
	var opts Options
	for i, dim := range dimensionOrder {
		narrowed := live
		for _, earlier := range dimensionOrder[:i] {
			narrowed = filterByDim(narrowed, earlier, sel.values(earlier))
		}
		values := distinctValues(narrowed, dim)
		switch dim {
		case DimIndexer:
			opts.Indexers = values
		case DimIssuer:
			opts.Issuers = values
		case DimTicker:
			opts.Tickers = values
		case DimRating:
			opts.Ratings = values
		}
	}
	return opts
}

// FilterAssets applies the full selection state, every dimension plus the
// spread range, over live assets. An active spread range excludes assets whose
// spread does not parse.
func (e *Engine) FilterAssets(sel Selections) []model.Asset {
	assets := e.LiveAssets()
	for _, dim := range dimensionOrder {
		assets = filterByDim(assets, dim, sel.values(dim))
	}
	if sel.SpreadMin == nil && sel.SpreadMax == nil {
		return assets
	}

	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		spread, ok := coerce.Number(a.Spread)
		if !ok {
			continue
		}
		if sel.SpreadMin != nil && spread < *sel.SpreadMin {
			continue
		}
		if sel.SpreadMax != nil && spread > *sel.SpreadMax {
			continue
		}
		out = append(out, a)
	}
	return out
}

func filterByDim(assets []model.Asset, dim string, selected []string) []model.Asset {
	if len(selected) == 0 {
		return assets
	}
	want := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		want[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		if _, ok := want[strings.ToLower(strings.TrimSpace(dimValue(a, dim)))]; ok {
			out = append(out, a)
		}
	}
	return out
}

func distinctValues(assets []model.Asset, dim string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, a := range assets {
		v := strings.TrimSpace(dimValue(a, dim))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
