package sightings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *StateStore) {
	t.Helper()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "sightings.json"), dir)
	return New(Config{}, store, nil, nil, nil, nil, nil), store
}

func record(t *testing.T, tr *Tracker, species string, confidence float64, ts time.Time) BirdSighting {
	t.Helper()
	s, err := tr.RecordSighting(context.Background(), SightingData{
		Species:    species,
		Confidence: confidence,
		Timestamp:  ts,
	})
	require.NoError(t, err)
	return s
}

func TestRecordSightingAssignsIDAndGrowsLifeList(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)

	s := record(t, tr, "Blue Jay", 0.9, time.Now())
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, []string{"Blue Jay"}, tr.LifeList())

	// same species again: life list unchanged
	record(t, tr, "Blue Jay", 0.8, time.Now())
	assert.Equal(t, []string{"Blue Jay"}, tr.LifeList())
	assert.Equal(t, 1, tr.SpeciesSeen())

	record(t, tr, "Northern Cardinal", 0.7, time.Now())
	assert.Equal(t, []string{"Blue Jay", "Northern Cardinal"}, tr.LifeList())
}

func TestRecordSightingRejectsEmptySpecies(t *testing.T) {
	t.Parallel()
	tr, _ := newTestTracker(t)

	_, err := tr.RecordSighting(context.Background(), SightingData{Confidence: 0.9})
	assert.Error(t, err)
	assert.Zero(t, tr.ActiveCount())
}

func TestStatePersistsAcrossReload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "sightings.json"), dir)

	tr := New(Config{}, store, nil, nil, nil, nil, nil)
	record(t, tr, "Blue Jay", 0.9, time.Now())
	record(t, tr, "Northern Cardinal", 0.7, time.Now())

	reloaded := New(Config{}, store, nil, nil, nil, nil, nil)
	assert.Equal(t, 2, reloaded.ActiveCount())
	assert.Equal(t, []string{"Blue Jay", "Northern Cardinal"}, reloaded.LifeList())
}

func TestCorruptStateFallsBackToEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "sightings.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{not json"), 0o644))

	tr := New(Config{}, NewStateStore(statePath, dir), nil, nil, nil, nil, nil)
	assert.Zero(t, tr.ActiveCount())
	assert.Empty(t, tr.LifeList())
}

func TestSaveFailureNeverPropagates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// state path under a regular file: every save fails
	store := NewStateStore(filepath.Join(blocker, "sightings.json"), dir)
	tr := New(Config{}, store, nil, nil, nil, nil, nil)

	s, err := tr.RecordSighting(context.Background(), SightingData{Species: "Blue Jay", Confidence: 0.9})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	// in-memory state stays authoritative
	assert.Equal(t, 1, tr.ActiveCount())
}

func TestArchivalConservesRecordsAndLifeList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	statePath := filepath.Join(dir, "sightings.json")
	store := NewStateStore(statePath, dir)

	// seed a full active window: the oldest thousand in January, the rest
	// in February
	state := &State{SpeciesCounts: make(map[string]int)}
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < MaxSightings; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		if i >= SightingsPerFile {
			ts = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
		}
		species := "Blue Jay"
		if i == 0 {
			species = "Bohemian Waxwing" // only sighting of it, in the evicted batch
		}
		state.Sightings = append(state.Sightings, BirdSighting{
			ID: "seed", Species: species, Confidence: 0.9, Timestamp: ts,
		})
		state.SpeciesCounts[species]++
	}
	state.LifeList = []string{"Blue Jay", "Bohemian Waxwing"}
	require.NoError(t, store.Save(state))

	tr := New(Config{}, store, nil, nil, nil, nil, nil)
	require.Equal(t, MaxSightings, tr.ActiveCount())

	record(t, tr, "Northern Cardinal", 0.8, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	// exactly SightingsPerFile oldest records moved out
	assert.Equal(t, MaxSightings+1-SightingsPerFile, tr.ActiveCount())

	// archive named for the first evicted record's month
	archived, err := store.LoadArchive(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, archived, SightingsPerFile)

	// total record count conserved
	assert.Equal(t, MaxSightings+1, tr.ActiveCount()+len(archived))

	// life list never shrinks, even though every Bohemian Waxwing sighting
	// was archived
	assert.Contains(t, tr.LifeList(), "Bohemian Waxwing")
}

func TestArchiveMergesExistingMonth(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "sightings.json"), dir)

	jan := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendArchive([]BirdSighting{{ID: "a", Species: "Blue Jay", Timestamp: jan}}))
	require.NoError(t, store.AppendArchive([]BirdSighting{{ID: "b", Species: "Blue Jay", Timestamp: jan.Add(time.Hour)}}))

	archived, err := store.LoadArchive(jan)
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, "a", archived[0].ID)
	assert.Equal(t, "b", archived[1].ID)
}

func TestRareAndNewFlags(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "sightings.json"), dir)

	notifier := &recordingNotifier{}
	tr := New(Config{RareSpeciesMaxCount: 3}, store, nil, notifier, nil, nil, nil)

	for i := 0; i < 4; i++ {
		record(t, tr, "Blue Jay", 0.9, time.Now())
	}

	require.Len(t, notifier.calls, 4)
	assert.True(t, notifier.calls[0].isNew)
	assert.True(t, notifier.calls[0].isRare) // lifetime count 0 before first
	assert.False(t, notifier.calls[1].isNew)
	assert.True(t, notifier.calls[2].isRare) // count 2 before third
	assert.False(t, notifier.calls[3].isRare) // count 3 before fourth
}

type notifyCall struct {
	species       string
	isNew, isRare bool
}

type recordingNotifier struct {
	calls []notifyCall
}

func (n *recordingNotifier) Notify(_ context.Context, species string, _ float64, isNew, isRare bool) error {
	n.calls = append(n.calls, notifyCall{species: species, isNew: isNew, isRare: isRare})
	return nil
}

// failingEnricher always errors; recording must proceed undecorated.
type failingEnricher struct{}

func (failingEnricher) Enrich(context.Context, *BirdSighting) error {
	return os.ErrDeadlineExceeded
}

func TestEnrichmentFailureYieldsUndecoratedSighting(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStateStore(filepath.Join(dir, "sightings.json"), dir)
	tr := New(Config{}, store, failingEnricher{}, nil, nil, nil, nil)

	s := record(t, tr, "Blue Jay", 0.9, time.Now())
	assert.Nil(t, s.Weather)
}
