package sightings

import (
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SpeciesCount pairs a species with a sighting count, used in rankings.
type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// SpeciesStats is the derived per-species summary over the active window.
type SpeciesStats struct {
	Species           string    `json:"species"`
	TotalSightings    int       `json:"totalSightings"`
	FirstSeen         time.Time `json:"firstSeen"`
	LastSeen          time.Time `json:"lastSeen"`
	AverageConfidence float64   `json:"averageConfidence"`
	PeakHour          int       `json:"peakHour"`      // hour-of-day with the most sightings
	MonthlyCounts     [12]int   `json:"monthlyCounts"` // January..December buckets
}

// DailyStats is the derived per-day summary.
type DailyStats struct {
	Date           time.Time      `json:"date"`
	TotalSightings int            `json:"totalSightings"`
	UniqueSpecies  int            `json:"uniqueSpecies"`
	SpeciesRanking []SpeciesCount `json:"speciesRanking"` // by count, descending
}

// SearchOptions filters free-text search results. Zero values disable a
// filter.
type SearchOptions struct {
	From          time.Time
	To            time.Time
	MinConfidence float64
}

// LifeList returns the sorted set of distinct species ever recorded.
func (t *Tracker) LifeList() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]string, 0, len(t.lifeList))
	for species := range t.lifeList {
		list = append(list, species)
	}
	sort.Strings(list)
	return list
}

// SpeciesSeen returns the life list size.
func (t *Tracker) SpeciesSeen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.lifeList)
}

// RecentSightings returns up to n sightings, most recent first.
func (t *Tracker) RecentSightings(n int) []BirdSighting {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || n > len(t.sightings) {
		n = len(t.sightings)
	}
	recent := make([]BirdSighting, 0, n)
	for i := len(t.sightings) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, t.sightings[i])
	}
	return recent
}

// SightingsByDay returns the sightings on the given calendar day, in
// recording order.
func (t *Tracker) SightingsByDay(day time.Time) []BirdSighting {
	t.mu.RLock()
	defer t.mu.RUnlock()

	y, m, d := day.Date()
	var matched []BirdSighting
	for i := range t.sightings {
		sy, sm, sd := t.sightings[i].Timestamp.Date()
		if sy == y && sm == m && sd == d {
			matched = append(matched, t.sightings[i])
		}
	}
	return matched
}

// SightingsBySpecies returns the sightings of one species, matched
// case-insensitively, in recording order.
func (t *Tracker) SightingsBySpecies(species string) []BirdSighting {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bySpeciesLocked(species)
}

func (t *Tracker) bySpeciesLocked(species string) []BirdSighting {
	var matched []BirdSighting
	for i := range t.sightings {
		if strings.EqualFold(t.sightings[i].Species, species) {
			matched = append(matched, t.sightings[i])
		}
	}
	return matched
}

// SpeciesStats derives the per-species summary from the active window.
// The second return is false when the species has no active sightings.
func (t *Tracker) SpeciesStats(species string) (SpeciesStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	matched := t.bySpeciesLocked(species)
	if len(matched) == 0 {
		return SpeciesStats{}, false
	}

	stats := SpeciesStats{
		Species:        matched[0].Species,
		TotalSightings: len(matched),
		FirstSeen:      matched[0].Timestamp,
		LastSeen:       matched[0].Timestamp,
	}

	confidences := make([]float64, 0, len(matched))
	var hourCounts [24]int
	for i := range matched {
		s := &matched[i]
		if s.Timestamp.Before(stats.FirstSeen) {
			stats.FirstSeen = s.Timestamp
		}
		if s.Timestamp.After(stats.LastSeen) {
			stats.LastSeen = s.Timestamp
		}
		confidences = append(confidences, s.Confidence)
		hourCounts[s.Timestamp.Hour()]++
		stats.MonthlyCounts[int(s.Timestamp.Month())-1]++
	}

	stats.AverageConfidence = stat.Mean(confidences, nil)

	// peak hour by mode, earliest hour wins ties
	for hour, count := range hourCounts {
		if count > hourCounts[stats.PeakHour] {
			stats.PeakHour = hour
		}
	}
	return stats, true
}

// DailyStats derives the per-day summary. A day with no sightings yields
// zero counts and an empty ranking.
func (t *Tracker) DailyStats(day time.Time) DailyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	y, m, d := day.Date()
	counts := make(map[string]int)
	total := 0
	for i := range t.sightings {
		sy, sm, sd := t.sightings[i].Timestamp.Date()
		if sy == y && sm == m && sd == d {
			counts[t.sightings[i].Species]++
			total++
		}
	}

	return DailyStats{
		Date:           time.Date(y, m, d, 0, 0, 0, 0, day.Location()),
		TotalSightings: total,
		UniqueSpecies:  len(counts),
		SpeciesRanking: rankCounts(counts, 0),
	}
}

// TopSpecies returns up to n species ranked by lifetime count, archived
// records included.
func (t *Tracker) TopSpecies(n int) []SpeciesCount {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return rankCounts(t.speciesCounts, n)
}

// rankCounts sorts a count map descending, species name ascending on ties.
// limit <= 0 means no limit.
func rankCounts(counts map[string]int, limit int) []SpeciesCount {
	ranking := make([]SpeciesCount, 0, len(counts))
	for species, count := range counts {
		ranking = append(ranking, SpeciesCount{Species: species, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Species < ranking[j].Species
	})
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// ActivityHeatmap buckets active sightings by day-of-week (Sunday first)
// and hour-of-day.
func (t *Tracker) ActivityHeatmap() [7][24]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var heatmap [7][24]int
	for i := range t.sightings {
		ts := t.sightings[i].Timestamp
		heatmap[int(ts.Weekday())][ts.Hour()]++
	}
	return heatmap
}

// Search matches the query as a case-insensitive substring of the species
// or scientific name, then applies the optional filters. Results are in
// recording order.
func (t *Tracker) Search(query string, opts SearchOptions) []BirdSighting {
	t.mu.RLock()
	defer t.mu.RUnlock()

	needle := strings.ToLower(query)
	var matched []BirdSighting
	for i := range t.sightings {
		s := &t.sightings[i]
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Species), needle) &&
			!strings.Contains(strings.ToLower(s.ScientificName), needle) {
			continue
		}
		if !opts.From.IsZero() && s.Timestamp.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && s.Timestamp.After(opts.To) {
			continue
		}
		if s.Confidence < opts.MinConfidence {
			continue
		}
		matched = append(matched, *s)
	}
	return matched
}

// ActiveCount returns the size of the active window.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sightings)
}
