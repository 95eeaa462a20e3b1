package sightings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/events"
	"github.com/tphakala/birdwatch-go/internal/observability/metrics"
)

// enrichTimeout bounds the best-effort enrichment call so a slow weather
// provider cannot stall recording.
const enrichTimeout = 5 * time.Second

// Config tunes the tracker.
type Config struct {
	// RareSpeciesMaxCount flags a species as rare while its lifetime count
	// is strictly below this. Zero means DefaultRareSpeciesMaxCount.
	RareSpeciesMaxCount int
}

// Tracker owns the sighting state. All mutation goes through
// RecordSighting, which serializes the read-modify-persist sequence.
type Tracker struct {
	cfg   Config
	store *StateStore

	enrich    Enricher
	notifier  Notifier
	publisher Publisher
	bus       *events.Bus
	metrics   *metrics.TrackerMetrics

	mu            sync.RWMutex
	sightings     []BirdSighting
	lifeList      map[string]struct{}
	speciesCounts map[string]int // lifetime totals, active + archived
	lastUpdated   time.Time
}

// New loads persisted state and builds a tracker. The enricher, notifier,
// publisher, event bus and metrics are all optional; nil disables them.
func New(cfg Config, store *StateStore, enrich Enricher, notifier Notifier, publisher Publisher, bus *events.Bus, m *metrics.TrackerMetrics) *Tracker {
	if cfg.RareSpeciesMaxCount <= 0 {
		cfg.RareSpeciesMaxCount = DefaultRareSpeciesMaxCount
	}

	state := store.Load()

	t := &Tracker{
		cfg:           cfg,
		store:         store,
		enrich:        enrich,
		notifier:      notifier,
		publisher:     publisher,
		bus:           bus,
		metrics:       m,
		sightings:     state.Sightings,
		lifeList:      make(map[string]struct{}, len(state.LifeList)),
		speciesCounts: state.SpeciesCounts,
		lastUpdated:   state.LastUpdated,
	}
	for _, species := range state.LifeList {
		t.lifeList[species] = struct{}{}
	}

	// Counts predate the speciesCounts field in older state files; rebuild
	// them from the active window when absent.
	if len(t.speciesCounts) == 0 && len(t.sightings) > 0 {
		for i := range t.sightings {
			t.speciesCounts[t.sightings[i].Species]++
		}
	}

	trackerLogger.Info("sighting tracker loaded",
		"active_sightings", len(t.sightings),
		"life_list", len(t.lifeList),
	)
	t.updateGauges()
	return t
}

// RecordSighting is the single ingestion point. It assigns an id, attempts
// best-effort enrichment and notification, appends the record, updates the
// life list, archives aged-out records and persists synchronously. Save
// failures are logged, never propagated; in-memory state stays
// authoritative.
func (t *Tracker) RecordSighting(ctx context.Context, data SightingData) (BirdSighting, error) {
	if data.Species == "" {
		return BirdSighting{}, errors.Newf("sighting species must not be empty").
			Component("sightings").
			Category(errors.CategoryValidation).
			Build()
	}

	sighting := BirdSighting{
		ID:             uuid.New().String(),
		Species:        data.Species,
		ScientificName: data.ScientificName,
		Confidence:     data.Confidence,
		Timestamp:      data.Timestamp,
		Clip:           data.Clip,
		Snapshot:       data.Snapshot,
		Notes:          data.Notes,
	}
	if sighting.Timestamp.IsZero() {
		sighting.Timestamp = time.Now()
	}

	if t.enrich != nil {
		enrichCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
		if err := t.enrich.Enrich(enrichCtx, &sighting); err != nil {
			trackerLogger.Debug("enrichment skipped", "species", sighting.Species, "error", err)
		}
		cancel()
	}

	t.mu.Lock()

	_, known := t.lifeList[sighting.Species]
	isNew := !known
	isRare := t.speciesCounts[sighting.Species] < t.cfg.RareSpeciesMaxCount

	t.sightings = append(t.sightings, sighting)
	t.lifeList[sighting.Species] = struct{}{}
	t.speciesCounts[sighting.Species]++

	t.archiveIfNeeded()
	t.persist()
	t.updateGauges()

	t.mu.Unlock()

	trackerLogger.Info("sighting recorded",
		"species", sighting.Species,
		"confidence", sighting.Confidence,
		"new_species", isNew,
		"rare", isRare,
	)
	if t.metrics != nil {
		t.metrics.RecordSighting(sightingKind(isNew, isRare))
	}

	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, sighting.Species, sighting.Confidence, isNew, isRare); err != nil {
			trackerLogger.Warn("sighting notification failed", "species", sighting.Species, "error", err)
		}
	}
	if t.publisher != nil {
		if err := t.publisher.PublishSighting(ctx, &sighting); err != nil {
			trackerLogger.Warn("sighting publication failed", "species", sighting.Species, "error", err)
		}
	}
	if t.bus != nil {
		t.bus.TryPublish(events.NewEvent(events.KindSighting, sighting))
	}

	return sighting, nil
}

func sightingKind(isNew, isRare bool) string {
	switch {
	case isNew:
		return "new_species"
	case isRare:
		return "rare"
	default:
		return "regular"
	}
}

// archiveIfNeeded evicts the oldest records once the active window exceeds
// MaxSightings. On archive write failure the records stay active so no
// data is lost. Caller holds t.mu.
func (t *Tracker) archiveIfNeeded() {
	if len(t.sightings) <= MaxSightings {
		return
	}

	batch := make([]BirdSighting, SightingsPerFile)
	copy(batch, t.sightings[:SightingsPerFile])

	if err := t.store.AppendArchive(batch); err != nil {
		trackerLogger.Error("archival failed, records kept active", "error", err)
		if t.metrics != nil {
			t.metrics.RecordArchive("error")
		}
		return
	}

	t.sightings = append(t.sightings[:0], t.sightings[SightingsPerFile:]...)
	trackerLogger.Info("archived oldest sightings",
		"archived", len(batch),
		"archive", ArchiveName(batch[0].Timestamp),
		"active_remaining", len(t.sightings),
	)
	if t.metrics != nil {
		t.metrics.RecordArchive("success")
	}
}

// persist saves the full state, logging failure without propagating it.
// Caller holds t.mu.
func (t *Tracker) persist() {
	start := time.Now()
	err := t.store.Save(t.snapshotLocked())
	if t.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		t.metrics.RecordSave(status, time.Since(start).Seconds())
	}
	if err != nil {
		trackerLogger.Error("failed to persist tracker state", "error", err)
		return
	}
	t.lastUpdated = time.Now()
}

// snapshotLocked builds the persisted document. Caller holds t.mu.
func (t *Tracker) snapshotLocked() *State {
	lifeList := make([]string, 0, len(t.lifeList))
	for species := range t.lifeList {
		lifeList = append(lifeList, species)
	}
	sort.Strings(lifeList)

	return &State{
		Sightings:     t.sightings,
		LifeList:      lifeList,
		SpeciesCounts: t.speciesCounts,
	}
}

func (t *Tracker) updateGauges() {
	if t.metrics != nil {
		t.metrics.UpdateStateGauges(len(t.sightings), len(t.lifeList))
	}
}
