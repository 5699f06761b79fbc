// Package loader retrieves the fixed set of static resources, parses them and
// assembles immutable snapshots. Every individual resource degrades to an
// empty collection on failure, so a snapshot build can only fail on an
// unexpected fault, never on a missing or corrupt file.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "creditflow/config"
	"creditflow/internal/metrics"
	"creditflow/internal/model"
	"creditflow/internal/parser"
	"creditflow/internal/source"
	"creditflow/logger"
)

// Loader fetches resources from a source and builds snapshots.
type Loader struct {
	src       source.Source
	resources appconfig.ResourcesConfig
	timeout   time.Duration
	log       *logger.Log
}

func New(src source.Source, resources appconfig.ResourcesConfig, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		src:       src,
		resources: resources,
		timeout:   timeout,
		log:       logger.GetLogger(),
	}
}

// loadRows fetches and parses one tabular resource. Any failure settles to an
// empty row set with a degraded result; errors never propagate upward.
func (l *Loader) loadRows(ctx context.Context, resource, path string) ([]parser.Row, model.LoadResult) {
	log := l.log.WithComponent("loader").WithFields(logger.Fields{"resource": resource})

	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	raw, err := l.src.Fetch(fetchCtx, path)
	if err != nil {
		log.WithError(err).Warn("resource fetch failed, degrading to empty")
		result := model.LoadResult{Resource: resource, Degraded: true, Reason: err.Error()}
		metrics.RecordLoad(resource, 0, true)
		return nil, result
	}

	rows := parser.Parse(raw)
	if rows == nil {
		log.Warn("resource content not parseable, degrading to empty")
		result := model.LoadResult{Resource: resource, Degraded: true, Reason: "content not parseable"}
		metrics.RecordLoad(resource, 0, true)
		return nil, result
	}

	log.WithFields(logger.Fields{"rows": len(rows)}).Debug("resource loaded")
	metrics.RecordLoad(resource, len(rows), false)
	return rows, model.LoadResult{Resource: resource, Rows: len(rows)}
}

// loadMetadata fetches the metadata JSON document. On any failure a record
// stamped with the current time is synthesized so the snapshot always carries
// a freshness indicator.
func (l *Loader) loadMetadata(ctx context.Context) (model.Metadata, model.LoadResult) {
	log := l.log.WithComponent("loader").WithFields(logger.Fields{"resource": model.ResourceMetadata})

	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	fallback := model.Metadata{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Synthesized: true,
	}

	raw, err := l.src.Fetch(fetchCtx, l.resources.Metadata)
	if err != nil {
		log.WithError(err).Warn("metadata fetch failed, synthesizing")
		metrics.RecordLoad(model.ResourceMetadata, 0, true)
		return fallback, model.LoadResult{Resource: model.ResourceMetadata, Degraded: true, Reason: err.Error()}
	}

	var meta model.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil || meta.LastUpdated == "" {
		log.Warn("metadata not parseable, synthesizing")
		metrics.RecordLoad(model.ResourceMetadata, 0, true)
		return fallback, model.LoadResult{Resource: model.ResourceMetadata, Degraded: true, Reason: "content not parseable"}
	}

	metrics.RecordLoad(model.ResourceMetadata, 1, false)
	return meta, model.LoadResult{Resource: model.ResourceMetadata, Rows: 1}
}

// BuildSnapshot fetches every resource concurrently, waits for all of them to
// settle and assembles one snapshot. The returned error is reserved for the
// critical path (an unexpected fault inside the build); partial resource
// failure is reported through the snapshot's load results instead.
func (l *Loader) BuildSnapshot(ctx context.Context) (snap *model.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = fmt.Errorf("snapshot build fault: %v", r)
			metrics.RecordBuild("critical")
			l.log.WithComponent("loader").WithFields(logger.Fields{"panic": fmt.Sprint(r)}).
				Error("critical failure during snapshot assembly")
		}
	}()

	start := time.Now()
	snap = &model.Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: time.Now().UTC(),
	}

	var (
		wg          sync.WaitGroup
		assetRows   []parser.Row
		priceRows   []parser.Row
		offerRows   []parser.Row
		eventRows   []parser.Row
		docRows     []parser.Row
		results     [6]model.LoadResult
		buildFaults []interface{}
		faultMu     sync.Mutex
	)

	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					faultMu.Lock()
					buildFaults = append(buildFaults, r)
					faultMu.Unlock()
				}
			}()
			fn()
		}()
	}

	run(func() { assetRows, results[0] = l.loadRows(ctx, model.ResourceAssets, l.resources.Assets) })
	run(func() { priceRows, results[1] = l.loadRows(ctx, model.ResourcePrices, l.resources.Prices) })
	run(func() { offerRows, results[2] = l.loadRows(ctx, model.ResourceOffers, l.resources.Offers) })
	run(func() { eventRows, results[3] = l.loadRows(ctx, model.ResourceCalendar, l.resources.Calendar) })
	run(func() { docRows, results[4] = l.loadRows(ctx, model.ResourceDocuments, l.resources.Documents) })
	run(func() { snap.Metadata, results[5] = l.loadMetadata(ctx) })

	wg.Wait()

	if len(buildFaults) > 0 {
		panic(buildFaults[0])
	}

	snap.Assets = make([]model.Asset, 0, len(assetRows))
	for _, row := range assetRows {
		snap.Assets = append(snap.Assets, toAsset(row))
	}
	snap.Prices = make([]model.PriceObservation, 0, len(priceRows))
	for _, row := range priceRows {
		snap.Prices = append(snap.Prices, toPrice(row))
	}
	snap.Offers = make([]model.Offer, 0, len(offerRows))
	for _, row := range offerRows {
		snap.Offers = append(snap.Offers, toOffer(row))
	}
	snap.Calendar = make([]model.CalendarEvent, 0, len(eventRows))
	for _, row := range eventRows {
		snap.Calendar = append(snap.Calendar, toEvent(row))
	}
	snap.Documents = make([]model.DocumentRef, 0, len(docRows))
	for _, row := range docRows {
		snap.Documents = append(snap.Documents, toDocument(row))
	}
	snap.Results = results[:]

	if len(snap.Assets) == 0 {
		snap.Warning = "no assets loaded; check the asset master resource"
	}

	l.log.WithComponent("loader").WithFields(logger.Fields{
		"snapshot_id": snap.ID,
		"assets":      len(snap.Assets),
		"prices":      len(snap.Prices),
		"offers":      len(snap.Offers),
		"calendar":    len(snap.Calendar),
		"documents":   len(snap.Documents),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("snapshot assembled")

	return snap, nil
}
