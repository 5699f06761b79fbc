package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"creditflow/internal/derive"
	"creditflow/internal/export"
	"creditflow/internal/model"
)

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.manager.Current()
	resp := gin.H{"status": "ok", "loaded": snap != nil}
	if snap != nil {
		resp["snapshot_id"] = snap.ID
		resp["loaded_at"] = snap.LoadedAt
	}
	if err := s.manager.LastError(); err != nil {
		resp["last_build_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	_, _, snap := s.state()
	c.JSON(http.StatusOK, gin.H{
		"id":        snap.ID,
		"loaded_at": snap.LoadedAt,
		"counts":    snap.Counts(),
		"metadata":  snap.Metadata,
		"results":   snap.Results,
		"warning":   snap.Warning,
	})
}

// selectionsFromQuery reads the filter parameters shared by the asset list
// and export endpoints. Multi-value dimensions accept comma-separated values.
func selectionsFromQuery(c *gin.Context) derive.Selections {
	sel := derive.Selections{
		Indexers: splitParam(c.Query("indexer")),
		Issuers:  splitParam(c.Query("issuer")),
		Tickers:  splitParam(c.Query("ticker")),
		Ratings:  splitParam(c.Query("rating")),
	}
	if v, err := strconv.ParseFloat(c.Query("spread_min"), 64); err == nil {
		sel.SpreadMin = &v
	}
	if v, err := strconv.ParseFloat(c.Query("spread_max"), 64); err == nil {
		sel.SpreadMax = &v
	}
	return sel
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleAssets(c *gin.Context) {
	engine, _, _ := s.state()
	assets := engine.FilterAssets(selectionsFromQuery(c))
	c.JSON(http.StatusOK, gin.H{"assets": assets, "count": len(assets)})
}

func (s *Server) handleAssetsCSV(c *gin.Context) {
	engine, _, _ := s.state()
	assets := engine.FilterAssets(selectionsFromQuery(c))
	c.Header("Content-Disposition", `attachment; filename="assets.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", export.AssetTableCSV(assets))
}

func (s *Server) handleAssetDetail(c *gin.Context) {
	engine, _, snap := s.state()
	ticker := c.Param("ticker")

	asset, ok := snap.AssetByTicker(ticker)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown ticker"})
		return
	}

	resp := gin.H{
		"asset":     asset,
		"offers":    engine.AssetOffers(ticker),
		"events":    engine.AssetEvents(ticker),
		"documents": engine.AssetDocuments(ticker),
		"watchlist": s.watch.Contains(ticker),
	}
	if latest, ok := engine.LatestPrice(ticker); ok {
		resp["latest_price"] = latest
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePrices(c *gin.Context) {
	engine, _, _ := s.state()
	series := engine.PriceSeries(c.Param("ticker"))
	c.JSON(http.StatusOK, gin.H{"prices": series, "count": len(series)})
}

func (s *Server) handlePricesCSV(c *gin.Context) {
	engine, _, _ := s.state()
	ticker := c.Param("ticker")
	c.Header("Content-Disposition", `attachment; filename="`+ticker+`-prices.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", export.PriceCSV(engine.PriceSeries(ticker)))
}

func (s *Server) handlePricesParquet(c *gin.Context) {
	engine, _, _ := s.state()
	ticker := c.Param("ticker")

	data, err := export.PriceParquet(engine.PriceSeries(ticker))
	if err != nil {
		s.log.WithComponent("server").WithError(err).Error("parquet export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ticker+`-prices.parquet"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleDashboard(c *gin.Context) {
	engine, _, snap := s.state()

	bands, total := engine.DurationHistogram()
	resp := gin.H{
		"live_count":  len(engine.LiveAssets()),
		"total_count": len(snap.Assets),
		"live_volume": engine.LiveVolume().StringFixed(2),
		"duration_histogram": gin.H{
			"bands": bands,
			"total": total,
		},
		"breakdowns": gin.H{
			"indexer": engine.Breakdown(func(a model.Asset) string { return a.Indexer }),
			"type":    engine.Breakdown(func(a model.Asset) string { return a.Type }),
			"rating":  engine.Breakdown(func(a model.Asset) string { return a.Rating }),
			"sector":  engine.Breakdown(func(a model.Asset) string { return a.Sector }),
		},
		"scatter":     engine.ScatterPoints(),
		"top_spreads": engine.TopSpreads(5),
		"warning":     snap.Warning,
	}
	if avg, ok := engine.AverageDuration(); ok {
		resp["average_duration_years"] = avg
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFilters(c *gin.Context) {
	engine, _, _ := s.state()
	sel := selectionsFromQuery(c)
	if changed := c.Query("changed"); changed != "" {
		sel = derive.ResetDownstream(sel, changed)
	}
	c.JSON(http.StatusOK, gin.H{
		"selections": sel,
		"options":    engine.FilterOptions(sel),
	})
}

func (s *Server) handleTopSpreads(c *gin.Context) {
	engine, _, _ := s.state()
	n := 5
	if v, err := strconv.Atoi(c.Query("n")); err == nil && v > 0 {
		n = v
	}
	c.JSON(http.StatusOK, gin.H{"top_spreads": engine.TopSpreads(n)})
}

func (s *Server) handleOffers(c *gin.Context) {
	engine, _, snap := s.state()
	var offers []model.Offer
	if c.Query("active") == "true" {
		offers = engine.ActiveOffers()
	} else {
		offers = snap.Offers
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers, "count": len(offers)})
}

func (s *Server) handleCalendar(c *gin.Context) {
	engine, _, _ := s.state()
	n := 0
	if v, err := strconv.Atoi(c.Query("n")); err == nil && v > 0 {
		n = v
	}
	events := engine.UpcomingEvents(n)
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (s *Server) handleSearch(c *gin.Context) {
	_, index, _ := s.state()
	q := c.Query("q")
	matches := index.Query(q)
	c.JSON(http.StatusOK, gin.H{"query": q, "matches": matches})
}

func (s *Server) handleWatchlist(c *gin.Context) {
	_, _, snap := s.state()
	c.JSON(http.StatusOK, gin.H{"watchlist": s.watch.Resolve(snap)})
}

func (s *Server) handleWatchlistCSV(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="watchlist.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", s.watch.ExportCSV())
}

func (s *Server) handleWatchlistToggle(c *gin.Context) {
	ticker := c.Param("ticker")
	on, err := s.watch.Toggle(ticker)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "watched": on})
}

func (s *Server) handleWatchlistRemove(c *gin.Context) {
	ticker := c.Param("ticker")
	if err := s.watch.Remove(ticker); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "watched": false})
}

func (s *Server) handleWatchlistImport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	added, err := s.watch.Import(string(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "watchlist": s.watch.List()})
}

func (s *Server) handleReload(c *gin.Context) {
	snap, err := s.manager.Reload(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot_id": snap.ID, "counts": snap.Counts()})
}
