package model

// Typed records for each ingested resource. Fields hold the raw string values
// from the source files; numeric and date interpretation happens lazily in the
// derivation layer because the same field can be read in more than one way
// (duration as raw days or derived years, spread as fraction or percent).

// Asset is one row of the asset master resource. Ticker is the natural key
// shared by every other resource.
type Asset struct {
	Ticker       string `json:"ticker"`
	ISIN         string `json:"isin"`
	Issuer       string `json:"issuer"`
	Type         string `json:"type"`
	Sector       string `json:"sector"`
	Indexer      string `json:"indexer"`
	Coupon       string `json:"coupon"`
	Currency     string `json:"currency"`
	IssueDate    string `json:"issue_date"`
	MaturityDate string `json:"maturity_date"`
	Rating       string `json:"rating"`
	Seniority    string `json:"seniority"`
	Guarantee    string `json:"guarantee"`
	Spread       string `json:"spread"`
	DurationDays string `json:"duration"`
	Volume       string `json:"volume"`
}

// PriceObservation is one row of the price history resource, one per
// (ticker, date).
type PriceObservation struct {
	Ticker   string `json:"ticker"`
	Date     string `json:"date"`
	Price    string `json:"price"`
	YTM      string `json:"ytm"`
	Spread   string `json:"spread"`
	Duration string `json:"duration"`
	Volume   string `json:"volume_traded"`
}

// Offer is a primary-market issuance event.
type Offer struct {
	Ticker    string `json:"ticker"`
	Issuer    string `json:"issuer"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	OpenDate  string `json:"open_date"`
	CloseDate string `json:"close_date"`
	Volume    string `json:"volume"`
	DocURL    string `json:"doc_url"`
}

// CalendarEvent is a scheduled corporate action for a ticker.
type CalendarEvent struct {
	Ticker    string `json:"ticker"`
	EventDate string `json:"event_date"`
	EventType string `json:"event_type"`
	Amount    string `json:"amount"`
	Notes     string `json:"notes"`
}

// DocumentRef is an external link associated with a ticker.
type DocumentRef struct {
	Ticker  string `json:"ticker"`
	DocName string `json:"doc_name"`
	DocType string `json:"doc_type"`
	URL     string `json:"url"`
}

// Metadata describes the freshness of a snapshot as a whole.
type Metadata struct {
	LastUpdated string `json:"last_updated"`
	Source      string `json:"source"`
	Synthesized bool   `json:"synthesized,omitempty"`
}
