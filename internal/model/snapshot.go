package model

import "time"

// Resource names used across the loader, metrics and API layers.
const (
	ResourceAssets    = "assets"
	ResourcePrices    = "prices"
	ResourceOffers    = "offers"
	ResourceCalendar  = "calendar"
	ResourceDocuments = "documents"
	ResourceMetadata  = "metadata"
)

// LoadResult records the outcome of one resource load attempt. A degraded
// resource settled to an empty collection instead of failing the cycle.
type LoadResult struct {
	Resource string `json:"resource"`
	Rows     int    `json:"rows"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// Snapshot is one complete, immutable set of loaded resources. Consumers must
// never mutate it; a reload replaces the snapshot wholesale.
type Snapshot struct {
	ID       string    `json:"id"`
	LoadedAt time.Time `json:"loaded_at"`

	Assets    []Asset            `json:"assets"`
	Prices    []PriceObservation `json:"prices"`
	Offers    []Offer            `json:"offers"`
	Calendar  []CalendarEvent    `json:"calendar"`
	Documents []DocumentRef      `json:"documents"`
	Metadata  Metadata           `json:"metadata"`

	Results []LoadResult `json:"results"`

	// Warning is set when the asset master settled empty after a successful
	// load attempt. The snapshot is still usable.
	Warning string `json:"warning,omitempty"`
}

// AssetByTicker returns the asset master row for a ticker.
func (s *Snapshot) AssetByTicker(ticker string) (Asset, bool) {
	for _, a := range s.Assets {
		if a.Ticker == ticker {
			return a, true
		}
	}
	return Asset{}, false
}

// Counts reports the number of rows loaded per resource.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		ResourceAssets:    len(s.Assets),
		ResourcePrices:    len(s.Prices),
		ResourceOffers:    len(s.Offers),
		ResourceCalendar:  len(s.Calendar),
		ResourceDocuments: len(s.Documents),
	}
}
