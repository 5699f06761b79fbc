// Package export renders snapshot data into downloadable formats. The CSV
// writers emit raw field values exactly as loaded; coercion is a read-side
// concern and exports stay faithful to the source.
package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"creditflow/internal/model"
)

var priceHeader = []string{"ticker", "date", "price", "ytm", "spread", "duration"}

// PriceCSV renders one ticker's price series in input order.
func PriceCSV(series []model.PriceObservation) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(priceHeader)
	for _, p := range series {
		w.Write([]string{p.Ticker, p.Date, p.Price, p.YTM, p.Spread, p.Duration})
	}
	w.Flush()
	return buf.Bytes()
}

var assetHeader = []string{
	"ticker", "isin", "issuer", "type", "sector", "indexer", "coupon",
	"currency", "issue_date", "maturity_date", "rating", "seniority",
	"guarantee", "spread", "duration", "volume",
}

// AssetTableCSV renders the asset table with every field quoted, so values
// holding Brazilian-formatted numbers survive a spreadsheet import intact.
func AssetTableCSV(assets []model.Asset) []byte {
	var b strings.Builder
	writeQuotedRow(&b, assetHeader)
	for _, a := range assets {
		writeQuotedRow(&b, []string{
			a.Ticker, a.ISIN, a.Issuer, a.Type, a.Sector, a.Indexer, a.Coupon,
			a.Currency, a.IssueDate, a.MaturityDate, a.Rating, a.Seniority,
			a.Guarantee, a.Spread, a.DurationDays, a.Volume,
		})
	}
	return []byte(b.String())
}

// writeQuotedRow quotes every field unconditionally, unlike encoding/csv
// which quotes only when required.
func writeQuotedRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
