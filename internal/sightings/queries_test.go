package sightings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTracker(t *testing.T) *Tracker {
	t.Helper()
	dir := t.TempDir()
	tr := New(Config{}, NewStateStore(filepath.Join(dir, "sightings.json"), dir), nil, nil, nil, nil, nil)

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	record(t, tr, "Blue Jay", 0.8, day.Add(7*time.Hour))
	record(t, tr, "Blue Jay", 0.6, day.Add(7*time.Hour+30*time.Minute))
	record(t, tr, "Blue Jay", 0.9, day.Add(18*time.Hour))
	record(t, tr, "Northern Cardinal", 0.7, day.Add(8*time.Hour))
	record(t, tr, "House Sparrow", 0.55, day.AddDate(0, 0, 1).Add(9*time.Hour))
	return tr
}

func TestSpeciesStatsBlueJay(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	stats, ok := tr.SpeciesStats("blue jay") // case-insensitive
	require.True(t, ok)
	assert.Equal(t, "Blue Jay", stats.Species)
	assert.Equal(t, 3, stats.TotalSightings)
	assert.InDelta(t, 0.7667, stats.AverageConfidence, 0.0001)
	assert.Equal(t, 7, stats.PeakHour) // two sightings at 07, one at 18
	assert.Equal(t, 3, stats.MonthlyCounts[7]) // all in August
	assert.True(t, stats.FirstSeen.Before(stats.LastSeen))
}

func TestSpeciesStatsUnknownSpecies(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	_, ok := tr.SpeciesStats("Emperor Penguin")
	assert.False(t, ok)
}

func TestDailyStats(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	stats := tr.DailyStats(day)
	assert.Equal(t, 4, stats.TotalSightings)
	assert.Equal(t, 2, stats.UniqueSpecies)
	require.Len(t, stats.SpeciesRanking, 2)
	assert.Equal(t, SpeciesCount{Species: "Blue Jay", Count: 3}, stats.SpeciesRanking[0])
	assert.Equal(t, SpeciesCount{Species: "Northern Cardinal", Count: 1}, stats.SpeciesRanking[1])
}

func TestDailyStatsEmptyDay(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	stats := tr.DailyStats(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, stats.TotalSightings)
	assert.Zero(t, stats.UniqueSpecies)
	assert.Empty(t, stats.SpeciesRanking)
}

func TestRecentSightingsMostRecentFirst(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	recent := tr.RecentSightings(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "House Sparrow", recent[0].Species)
	assert.Equal(t, "Northern Cardinal", recent[1].Species)

	// n beyond the window returns everything
	assert.Len(t, tr.RecentSightings(100), 5)
}

func TestSightingsByDayAndSpecies(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	assert.Len(t, tr.SightingsByDay(day), 1)

	byName := tr.SightingsBySpecies("BLUE JAY")
	assert.Len(t, byName, 3)
}

func TestTopSpecies(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	top := tr.TopSpecies(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Blue Jay", top[0].Species)
	assert.Equal(t, 3, top[0].Count)
}

func TestActivityHeatmap(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	heatmap := tr.ActivityHeatmap()
	// 2026-08-29 is a Saturday
	assert.Equal(t, 2, heatmap[time.Saturday][7])
	assert.Equal(t, 1, heatmap[time.Saturday][18])
	assert.Equal(t, 1, heatmap[time.Sunday][9])
}

func TestSearch(t *testing.T) {
	t.Parallel()
	tr := seededTracker(t)

	assert.Len(t, tr.Search("jay", SearchOptions{}), 3)
	assert.Len(t, tr.Search("jay", SearchOptions{MinConfidence: 0.7}), 2)

	from := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	results := tr.Search("", SearchOptions{From: from})
	require.Len(t, results, 1)
	assert.Equal(t, "House Sparrow", results[0].Species)

	assert.Empty(t, tr.Search("penguin", SearchOptions{}))
}
