// Package derive computes analytics over one immutable snapshot. Every
// operation is a pure read; records whose numeric or date fields fail coercion
// are skipped by the operation that needs the field but still count toward
// plain cardinalities.
package derive

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"creditflow/internal/coerce"
	"creditflow/internal/model"
)

// Engine binds derivation operations to a snapshot. Build one per snapshot;
// it holds no mutable state beyond lazily built indexes.
type Engine struct {
	snap   *model.Snapshot
	active map[string]struct{}

	pricesByTicker map[string][]model.PriceObservation
}

func New(snap *model.Snapshot, activeStatuses []string) *Engine {
	active := make(map[string]struct{}, len(activeStatuses))
	for _, s := range activeStatuses {
		active[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	byTicker := make(map[string][]model.PriceObservation)
	for _, p := range snap.Prices {
		byTicker[p.Ticker] = append(byTicker[p.Ticker], p)
	}

	return &Engine{
		snap:           snap,
		active:         active,
		pricesByTicker: byTicker,
	}
}

func (e *Engine) Snapshot() *model.Snapshot {
	return e.snap
}

// PriceSeries returns a ticker's observations in input order.
func (e *Engine) PriceSeries(ticker string) []model.PriceObservation {
	return e.pricesByTicker[ticker]
}

// LatestPrice returns the observation with the greatest parsed date for a
// ticker. Observations with an unparseable date are ignored. On a date tie
// the observation later in input order wins.
func (e *Engine) LatestPrice(ticker string) (model.PriceObservation, bool) {
	var (
		best     model.PriceObservation
		bestDate int64
		found    bool
	)
	for _, p := range e.pricesByTicker[ticker] {
		d, ok := coerce.Date(p.Date)
		if !ok {
			continue
		}
		if ts := d.Unix(); !found || ts >= bestDate {
			best, bestDate, found = p, ts, true
		}
	}
	return best, found
}

// SpreadEntry is one row of the top-spreads board, joined against the asset
// master.
type SpreadEntry struct {
	Ticker string  `json:"ticker"`
	Issuer string  `json:"issuer"`
	Type   string  `json:"type"`
	Spread float64 `json:"spread"`
	YTM    float64 `json:"ytm,omitempty"`
	Date   string  `json:"date"`
}

// TopSpreads ranks tickers by the spread of their latest observation,
// descending, and keeps the first n. The sort is stable so equal spreads
// preserve asset-master order.
func (e *Engine) TopSpreads(n int) []SpreadEntry {
	entries := make([]SpreadEntry, 0, len(e.snap.Assets))
	for _, a := range e.snap.Assets {
		p, ok := e.LatestPrice(a.Ticker)
		if !ok {
			continue
		}
		spread, ok := coerce.Number(p.Spread)
		if !ok {
			continue
		}
		entry := SpreadEntry{
			Ticker: a.Ticker,
			Issuer: a.Issuer,
			Type:   a.Type,
			Spread: spread,
			Date:   p.Date,
		}
		if ytm, ok := coerce.Number(p.YTM); ok {
			entry.YTM = ytm
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Spread > entries[j].Spread
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// DurationBand is one histogram bucket over duration in years.
type DurationBand struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// durationBands are half-open [min, max) intervals in years; the last band is
// unbounded above.
var durationBands = []struct {
	label    string
	min, max float64
}{
	{"0-1", 0, 1},
	{"1-2", 1, 2},
	{"2-4", 2, 4},
	{"4-6", 4, 6},
	{"6-10", 6, 10},
	{"10+", 10, -1},
}

// DurationHistogram buckets assets by duration in years (duration days / 365).
// Assets whose duration does not parse fall outside every band but still count
// toward the returned total.
func (e *Engine) DurationHistogram() ([]DurationBand, int) {
	bands := make([]DurationBand, len(durationBands))
	for i, b := range durationBands {
		bands[i].Label = b.label
	}
	for _, a := range e.snap.Assets {
		years, ok := durationYears(a)
		if !ok {
			continue
		}
		for i, b := range durationBands {
			if years >= b.min && (b.max < 0 || years < b.max) {
				bands[i].Count++
				break
			}
		}
	}
	return bands, len(e.snap.Assets)
}

func durationYears(a model.Asset) (float64, bool) {
	days, ok := coerce.Number(a.DurationDays)
	if !ok || days < 0 {
		return 0, false
	}
	return days / 365, true
}

// LiveAssets returns assets whose maturity date is today or later. Assets with
// an unparseable maturity date are excluded.
func (e *Engine) LiveAssets() []model.Asset {
	today := coerce.Today()
	live := make([]model.Asset, 0, len(e.snap.Assets))
	for _, a := range e.snap.Assets {
		m, ok := coerce.Date(a.MaturityDate)
		if !ok {
			continue
		}
		if !m.Before(today) {
			live = append(live, a)
		}
	}
	return live
}

// LiveVolume sums the outstanding volume of live assets as an exact decimal.
func (e *Engine) LiveVolume() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.LiveAssets() {
		if v, ok := coerce.Decimal(a.Volume); ok {
			total = total.Add(v)
		}
	}
	return total
}

// AverageDuration returns the mean duration in years over live assets with a
// parseable duration.
func (e *Engine) AverageDuration() (float64, bool) {
	var sum float64
	var n int
	for _, a := range e.LiveAssets() {
		if years, ok := durationYears(a); ok {
			sum += years
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// BreakdownEntry is one slice of a categorical breakdown. Percent is an
// integer share of the total, rounded half up independently per entry, so the
// column may not sum to exactly 100.
type BreakdownEntry struct {
	Value   string `json:"value"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Breakdown counts assets per distinct value of the selected field.
// Entries are ordered by descending count, then value. Empty field values are
// grouped under "—".
func (e *Engine) Breakdown(field func(model.Asset) string) []BreakdownEntry {
	counts := make(map[string]int)
	total := 0
	for _, a := range e.snap.Assets {
		v := strings.TrimSpace(field(a))
		if v == "" {
			v = "—"
		}
		counts[v]++
		total++
	}
	if total == 0 {
		return nil
	}

	entries := make([]BreakdownEntry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, BreakdownEntry{
			Value:   v,
			Count:   c,
			Percent: roundHalfUp(float64(c) * 100 / float64(total)),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}

func roundHalfUp(x float64) int {
	return int(x + 0.5)
}

// UpcomingEvents returns calendar events dated today or later, ascending by
// date. Events with an unparseable date are dropped.
func (e *Engine) UpcomingEvents(n int) []model.CalendarEvent {
	today := coerce.Today()
	type dated struct {
		ev model.CalendarEvent
		ts int64
	}
	upcoming := make([]dated, 0, len(e.snap.Calendar))
	for _, ev := range e.snap.Calendar {
		d, ok := coerce.Date(ev.EventDate)
		if !ok || d.Before(today) {
			continue
		}
		upcoming = append(upcoming, dated{ev, d.Unix()})
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].ts < upcoming[j].ts })

	if n > 0 && len(upcoming) > n {
		upcoming = upcoming[:n]
	}
	out := make([]model.CalendarEvent, len(upcoming))
	for i, d := range upcoming {
		out[i] = d.ev
	}
	return out
}

// ActiveOffers filters offers to the configured active status set, compared
// case-insensitively. The full unfiltered listing is the snapshot's Offers
// slice.
func (e *Engine) ActiveOffers() []model.Offer {
	out := make([]model.Offer, 0, len(e.snap.Offers))
	for _, o := range e.snap.Offers {
		if _, ok := e.active[strings.ToLower(strings.TrimSpace(o.Status))]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Per-ticker joins for the asset detail surface.

func (e *Engine) AssetOffers(ticker string) []model.Offer {
	var out []model.Offer
	for _, o := range e.snap.Offers {
		if o.Ticker == ticker {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) AssetEvents(ticker string) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range e.snap.Calendar {
		if ev.Ticker == ticker {
			out = append(out, ev)
		}
	}
	return out
}

func (e *Engine) AssetDocuments(ticker string) []model.DocumentRef {
	var out []model.DocumentRef
	for _, d := range e.snap.Documents {
		if d.Ticker == ticker {
			out = append(out, d)
		}
	}
	return out
}

// ScatterPoint positions one asset on the duration/spread plane.
type ScatterPoint struct {
	Ticker        string  `json:"ticker"`
	Issuer        string  `json:"issuer"`
	DurationYears float64 `json:"duration_years"`
	Spread        float64 `json:"spread"`
}

// ScatterPoints maps live assets into duration/spread coordinates, dropping
// assets where either axis fails to parse.
func (e *Engine) ScatterPoints() []ScatterPoint {
	var out []ScatterPoint
	for _, a := range e.LiveAssets() {
		years, ok := durationYears(a)
		if !ok {
			continue
		}
		spread, ok := coerce.Number(a.Spread)
		if !ok {
			continue
		}
		out = append(out, ScatterPoint{
			Ticker:        a.Ticker,
			Issuer:        a.Issuer,
			DurationYears: years,
			Spread:        spread,
		})
	}
	return out
}
