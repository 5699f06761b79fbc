// Package server hosts the Gin-powered HTTP API over the current snapshot.
// Until the first snapshot settles every /api route answers 503; after that a
// failed rebuild leaves the previous snapshot in place.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	appconfig "creditflow/config"
	"creditflow/internal/derive"
	"creditflow/internal/loader"
	"creditflow/internal/metrics"
	"creditflow/internal/model"
	"creditflow/internal/search"
	"creditflow/internal/watchlist"
	"creditflow/logger"
)

type Server struct {
	cfg       appconfig.ServerConfig
	manager   *loader.Manager
	watch     *watchlist.Store
	active    []string
	searchCfg appconfig.SearchConfig
	metricsOn bool
	log       *logger.Log

	httpServer *http.Server

	// engine and index are rebuilt lazily when the snapshot changes.
	stateMu sync.Mutex
	stateID string
	engine  *derive.Engine
	index   *search.Index
}

func NewServer(cfg appconfig.ServerConfig, manager *loader.Manager, watch *watchlist.Store,
	offers appconfig.OffersConfig, searchCfg appconfig.SearchConfig, metricsOn bool) *Server {
	return &Server{
		cfg:       cfg,
		manager:   manager,
		watch:     watch,
		active:    offers.ActiveStatuses,
		searchCfg: searchCfg,
		metricsOn: metricsOn,
		log:       logger.GetLogger(),
	}
}

// state returns the derivation engine and search index for the current
// snapshot, rebuilding both when a new snapshot has been published. Returns
// nils before the first snapshot.
func (s *Server) state() (*derive.Engine, *search.Index, *model.Snapshot) {
	snap := s.manager.Current()
	if snap == nil {
		return nil, nil, nil
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.stateID != snap.ID {
		s.engine = derive.New(snap, s.active)
		s.index = search.NewIndex(snap.Assets, s.searchCfg.Threshold, s.searchCfg.MaxResults)
		s.stateID = snap.ID
	}
	return s.engine, s.index, snap
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	if s.metricsOn {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api")
	api.Use(s.requireSnapshot())
	{
		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/assets", s.handleAssets)
		api.GET("/assets.csv", s.handleAssetsCSV)
		api.GET("/assets/:ticker", s.handleAssetDetail)
		api.GET("/assets/:ticker/prices", s.handlePrices)
		api.GET("/assets/:ticker/prices.csv", s.handlePricesCSV)
		api.GET("/assets/:ticker/prices.parquet", s.handlePricesParquet)
		api.GET("/dashboard", s.handleDashboard)
		api.GET("/filters", s.handleFilters)
		api.GET("/top-spreads", s.handleTopSpreads)
		api.GET("/offers", s.handleOffers)
		api.GET("/calendar", s.handleCalendar)
		api.GET("/search", s.handleSearch)
		api.GET("/watchlist", s.handleWatchlist)
		api.GET("/watchlist.csv", s.handleWatchlistCSV)
		api.POST("/watchlist/import", s.handleWatchlistImport)
		api.POST("/watchlist/:ticker", s.handleWatchlistToggle)
		api.DELETE("/watchlist/:ticker", s.handleWatchlistRemove)
		api.POST("/reload", s.handleReload)
	}

	return router
}

// requireSnapshot rejects API calls with 503 until the first snapshot is
// published.
func (s *Server) requireSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.manager.Current() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "snapshot not loaded yet",
			})
			return
		}
		c.Next()
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.WithComponent("server").WithFields(logger.Fields{
		"address": s.cfg.Address,
	}).Info("http server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}
