package loader

import (
	"creditflow/internal/model"
	"creditflow/internal/parser"
)

// The published data files have gone through a few header revisions
// (English and Portuguese column names coexist across deployments), so each
// field is looked up under its known aliases, first match wins.

func pick(row parser.Row, names ...string) string {
	for _, name := range names {
		if v := row.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func toAsset(row parser.Row) model.Asset {
	return model.Asset{
		Ticker:       pick(row, "ticker"),
		ISIN:         pick(row, "isin"),
		Issuer:       pick(row, "issuer", "issuer_name", "debtor"),
		Type:         pick(row, "type", "asset_type"),
		Sector:       pick(row, "sector"),
		Indexer:      pick(row, "indexer", "indexador", "coupon_type"),
		Coupon:       pick(row, "coupon", "taxa"),
		Currency:     pick(row, "currency"),
		IssueDate:    pick(row, "issue_date", "dt_emissao"),
		MaturityDate: pick(row, "maturity_date", "vencimento"),
		Rating:       pick(row, "rating", "rating_fitch"),
		Seniority:    pick(row, "seniority"),
		Guarantee:    pick(row, "guarantee"),
		Spread:       pick(row, "spread", "spread_over_ref"),
		DurationDays: pick(row, "duration"),
		Volume:       pick(row, "volume"),
	}
}

func toPrice(row parser.Row) model.PriceObservation {
	return model.PriceObservation{
		Ticker:   pick(row, "ticker"),
		Date:     pick(row, "date"),
		Price:    pick(row, "price"),
		YTM:      pick(row, "ytm", "yield"),
		Spread:   pick(row, "spread", "spread_over_ref"),
		Duration: pick(row, "duration"),
		Volume:   pick(row, "volume_traded", "volume"),
	}
}

func toOffer(row parser.Row) model.Offer {
	return model.Offer{
		Ticker:    pick(row, "ticker"),
		Issuer:    pick(row, "issuer", "issuer_name", "debtor"),
		Status:    pick(row, "status"),
		Type:      pick(row, "type", "offer_type"),
		OpenDate:  pick(row, "open_date", "date"),
		CloseDate: pick(row, "close_date"),
		Volume:    pick(row, "volume", "amount_offered"),
		DocURL:    pick(row, "doc_url", "prospectus_url"),
	}
}

func toEvent(row parser.Row) model.CalendarEvent {
	return model.CalendarEvent{
		Ticker:    pick(row, "ticker"),
		EventDate: pick(row, "event_date"),
		EventType: pick(row, "event_type"),
		Amount:    pick(row, "amount"),
		Notes:     pick(row, "notes"),
	}
}

func toDocument(row parser.Row) model.DocumentRef {
	return model.DocumentRef{
		Ticker:  pick(row, "ticker"),
		DocName: pick(row, "doc_name", "doc_title"),
		DocType: pick(row, "doc_type"),
		URL:     pick(row, "url", "doc_url"),
	}
}
