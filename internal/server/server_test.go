package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	appconfig "creditflow/config"
	"creditflow/internal/loader"
	"creditflow/internal/source"
	"creditflow/internal/watchlist"
)

const (
	fixtureAssetsCSV = "ticker,isin,issuer,type,sector,indexer,maturity_date,rating,spread,duration,volume\n" +
		"VALE28,BRVALEDBS028,Vale S.A.,debenture,Mining,IPCA+,2031-06-15,AAA,1.85,912,\"1.000.000,00\"\n" +
		"PETR30,BRPETRDBS030,Petrobras,debenture,Oil & Gas,CDI+,2032-01-10,AA+,2.10,1825,\"2.500.000,00\"\n"

	fixturePricesCSV = "ticker,date,price,ytm,spread,duration\n" +
		"VALE28,2026-08-27,101.32,6.45,1.85,912\n" +
		"VALE28,2026-08-28,101.40,6.42,1.83,911\n"

	fixtureOffersCSV = "ticker,status,open_date\nVALE28,Em Aberto,2026-08-01\nPETR30,Encerrada,2025-01-01\n"

	fixtureCalendarCSV = "ticker,event_type,event_date\nVALE28,coupon,2030-12-15\n"

	fixtureDocumentsCSV = "ticker,doc_name,doc_url\nVALE28,Escritura,https://docs.example.com/v.pdf\n"

	fixtureMetadataJSON = `{"last_updated":"2026-08-28T09:00:00Z","source":"b3"}`
)

func fixtureOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"/data/assets_master.csv": fixtureAssetsCSV,
		"/data/prices.csv":        fixturePricesCSV,
		"/data/offers.csv":        fixtureOffersCSV,
		"/data/calendar.csv":      fixtureCalendarCSV,
		"/data/documents.csv":     fixtureDocumentsCSV,
		"/data/metadata.json":     fixtureMetadataJSON,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testServer wires a full stack over the fixture origin. When loaded is false
// the store stays empty so the 503 shell can be exercised.
func testServer(t *testing.T, loaded bool) (*Server, *loader.Manager) {
	t.Helper()
	origin := fixtureOrigin(t)

	src := source.NewHTTPSource(origin.URL, 5*time.Second, 0, 0)
	resources := appconfig.ResourcesConfig{
		Assets:    "data/assets_master.csv",
		Prices:    "data/prices.csv",
		Offers:    "data/offers.csv",
		Calendar:  "data/calendar.csv",
		Documents: "data/documents.csv",
		Metadata:  "data/metadata.json",
	}
	mgr := loader.NewManager(loader.New(src, resources, 5*time.Second), loader.NewStore(), 0)
	if loaded {
		if _, err := mgr.Reload(context.Background()); err != nil {
			t.Fatalf("initial load failed: %v", err)
		}
	}

	watch, err := watchlist.Open(filepath.Join(t.TempDir(), "watchlist.json"))
	if err != nil {
		t.Fatalf("watchlist open failed: %v", err)
	}

	srv := NewServer(
		appconfig.ServerConfig{Address: ":0", ShutdownTimeout: time.Second},
		mgr,
		watch,
		appconfig.OffersConfig{ActiveStatuses: []string{"Em Aberto", "Planejada"}},
		appconfig.SearchConfig{Threshold: 0.3, MaxResults: 8},
		true,
	)
	return srv, mgr
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	router := srv.buildRouter()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

func TestAPIUnavailableBeforeFirstLoad(t *testing.T) {
	srv, _ := testServer(t, false)

	for _, path := range []string{"/api/snapshot", "/api/assets", "/api/dashboard", "/api/search?q=x"} {
		if w := doRequest(srv, http.MethodGet, path, ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503 before first load, got %d", path, w.Code)
		}
	}

	// healthz stays reachable and reports the unloaded state.
	w := doRequest(srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz should answer 200, got %d", w.Code)
	}
	if resp := decodeJSON(t, w); resp["loaded"] != false {
		t.Error("healthz should report loaded=false")
	}
}

func TestSnapshotSummary(t *testing.T) {
	srv, _ := testServer(t, true)

	w := doRequest(srv, http.MethodGet, "/api/snapshot", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeJSON(t, w)
	counts, ok := resp["counts"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing counts: %v", resp)
	}
	if counts["assets"] != float64(2) {
		t.Errorf("expected 2 assets, got %v", counts["assets"])
	}
}

func TestAssetsFilterParams(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/assets?indexer=IPCA%2B", ""))
	if resp["count"] != float64(1) {
		t.Errorf("expected 1 IPCA+ asset, got %v", resp["count"])
	}

	resp = decodeJSON(t, doRequest(srv, http.MethodGet, "/api/assets?spread_min=2.0", ""))
	if resp["count"] != float64(1) {
		t.Errorf("expected 1 asset above 2.0 spread, got %v", resp["count"])
	}
}

func TestAssetDetail(t *testing.T) {
	srv, _ := testServer(t, true)

	w := doRequest(srv, http.MethodGet, "/api/assets/VALE28", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeJSON(t, w)
	if _, ok := resp["latest_price"]; !ok {
		t.Error("detail should include the latest price")
	}
	if _, ok := resp["documents"]; !ok {
		t.Error("detail should include documents")
	}

	if w := doRequest(srv, http.MethodGet, "/api/assets/NOPE99", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown ticker should 404, got %d", w.Code)
	}
}

func TestPricesCSVExport(t *testing.T) {
	srv, _ := testServer(t, true)

	w := doRequest(srv, http.MethodGet, "/api/assets/VALE28/prices.csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "ticker,date,price,ytm,spread,duration\n") {
		t.Errorf("unexpected CSV header: %q", w.Body.String())
	}
}

func TestPricesParquetExport(t *testing.T) {
	srv, _ := testServer(t, true)

	w := doRequest(srv, http.MethodGet, "/api/assets/VALE28/prices.parquet", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "PAR1") {
		t.Error("parquet export should start with the PAR1 magic")
	}
}

func TestDashboardShape(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/dashboard", ""))
	for _, key := range []string{"live_count", "live_volume", "duration_histogram", "breakdowns", "top_spreads", "scatter"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("dashboard missing %q", key)
		}
	}
	if resp["live_count"] != float64(2) {
		t.Errorf("expected 2 live assets, got %v", resp["live_count"])
	}
}

func TestTopSpreadsParam(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/top-spreads?n=1", ""))
	list, ok := resp["top_spreads"].([]interface{})
	if !ok {
		t.Fatalf("missing top_spreads: %v", resp)
	}
	if len(list) != 1 {
		t.Errorf("n=1 should cap the list, got %d", len(list))
	}
}

func TestOffersActiveFilter(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/offers", ""))
	if resp["count"] != float64(2) {
		t.Errorf("unfiltered offers should list everything, got %v", resp["count"])
	}

	resp = decodeJSON(t, doRequest(srv, http.MethodGet, "/api/offers?active=true", ""))
	if resp["count"] != float64(1) {
		t.Errorf("active filter should drop closed offers, got %v", resp["count"])
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/search?q=vale", ""))
	matches, ok := resp["matches"].([]interface{})
	if !ok || len(matches) == 0 {
		t.Fatalf("expected matches for 'vale': %v", resp)
	}
	first := matches[0].(map[string]interface{})
	asset := first["asset"].(map[string]interface{})
	if asset["ticker"] != "VALE28" {
		t.Errorf("expected VALE28 first, got %v", asset["ticker"])
	}
}

func TestWatchlistHTTPRoundTrip(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodPost, "/api/watchlist/VALE28", ""))
	if resp["watched"] != true {
		t.Fatalf("toggle on failed: %v", resp)
	}

	resp = decodeJSON(t, doRequest(srv, http.MethodGet, "/api/watchlist", ""))
	list, ok := resp["watchlist"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("expected 1 watchlist entry: %v", resp)
	}
	entry := list[0].(map[string]interface{})
	if entry["resolved"] != true {
		t.Error("VALE28 should resolve against the master")
	}

	resp = decodeJSON(t, doRequest(srv, http.MethodPost, "/api/watchlist/VALE28", ""))
	if resp["watched"] != false {
		t.Error("second toggle should remove the ticker")
	}
}

func TestWatchlistImportAndExport(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodPost, "/api/watchlist/import", "ticker\nVALE28\nPETR30\n"))
	if resp["added"] != float64(2) {
		t.Fatalf("expected 2 added, got %v", resp["added"])
	}

	w := doRequest(srv, http.MethodGet, "/api/watchlist.csv", "")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if w.Body.String() != "ticker\nVALE28\nPETR30\n" {
		t.Errorf("unexpected export: %q", w.Body.String())
	}
}

func TestReloadEndpoint(t *testing.T) {
	srv, mgr := testServer(t, true)
	before := mgr.Current().ID

	w := doRequest(srv, http.MethodPost, "/api/reload", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reload failed: %d %s", w.Code, w.Body.String())
	}
	if mgr.Current().ID == before {
		t.Error("reload should publish a fresh snapshot")
	}
}

func TestAssetsCSVExport(t *testing.T) {
	srv, _ := testServer(t, true)

	w := doRequest(srv, http.MethodGet, "/api/assets.csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), `"ticker","isin"`) {
		t.Errorf("asset export should quote every field: %q", w.Body.String())
	}
}

func TestFiltersCascadeOverHTTP(t *testing.T) {
	srv, _ := testServer(t, true)

	resp := decodeJSON(t, doRequest(srv, http.MethodGet, "/api/filters?indexer=IPCA%2B&ticker=PETR30&changed=indexer", ""))
	sel := resp["selections"].(map[string]interface{})
	if sel["tickers"] != nil {
		t.Errorf("changing the indexer should clear the ticker selection: %v", sel)
	}
	opts := resp["options"].(map[string]interface{})
	issuers, _ := opts["issuers"].([]interface{})
	if len(issuers) != 1 {
		t.Errorf("IPCA+ selection should narrow issuers to Vale, got %v", issuers)
	}
}
