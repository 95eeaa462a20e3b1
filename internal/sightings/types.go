// Package sightings is the durable system of record for the watcher. It
// ingests accepted detections, maintains the life list and derived
// statistics, and archives aged-out records to month-keyed files.
package sightings

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/birdwatch-go/internal/logging"
)

const (
	// MaxSightings bounds the active window; older records are archived
	// once the window exceeds it.
	MaxSightings = 10000

	// SightingsPerFile is how many of the oldest records move to the
	// archive per eviction.
	SightingsPerFile = 1000

	// DefaultRareSpeciesMaxCount flags a species as rare while its lifetime
	// count is strictly below this.
	DefaultRareSpeciesMaxCount = 3
)

// Package-level logger for the sighting tracker
var (
	trackerLogger   *slog.Logger
	trackerLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	trackerLevelVar.Set(slog.LevelInfo)

	trackerLogger, _, err = logging.NewFileLogger("logs/sightings.log", "sightings", trackerLevelVar)
	if err != nil {
		logging.Error("Failed to initialize sightings file logger", "error", err)
		trackerLogger = logging.DiscardLogger("sightings", trackerLevelVar)
	}
}

// WeatherInfo is the optional weather snapshot attached to a sighting by
// the enrichment collaborator.
type WeatherInfo struct {
	Temperature float64 `json:"temperature"`         // degrees Celsius
	WindSpeed   float64 `json:"windSpeed"`           // meters per second
	Humidity    int     `json:"humidity"`            // percent
	Pressure    int     `json:"pressure"`            // hPa
	Condition   string  `json:"condition,omitempty"` // description
	Icon        string  `json:"icon,omitempty"`      // provider icon code
	TimeOfDay   string  `json:"timeOfDay,omitempty"` // dawn, day, dusk or night
}

// BirdSighting is one recorded observation. Immutable once appended.
type BirdSighting struct {
	ID             string       `json:"id"`
	Species        string       `json:"species"`
	ScientificName string       `json:"scientificName,omitempty"`
	Confidence     float64      `json:"confidence"` // 0-1
	Timestamp      time.Time    `json:"timestamp"`
	Clip           string       `json:"clip,omitempty"`
	Snapshot       string       `json:"snapshot,omitempty"`
	Weather        *WeatherInfo `json:"weather,omitempty"`
	Notes          string       `json:"notes,omitempty"`
}

// SightingData is the caller-supplied part of a sighting.
type SightingData struct {
	Species        string
	ScientificName string
	Confidence     float64
	Timestamp      time.Time // zero means now
	Clip           string
	Snapshot       string
	Notes          string
}

// State is the persisted tracker document. SpeciesCounts carries lifetime
// per-species totals across archival so rarity checks and top-N rankings
// survive eviction.
type State struct {
	Sightings     []BirdSighting `json:"sightings"`
	LifeList      []string       `json:"lifeList"`
	LastUpdated   time.Time      `json:"lastUpdated"`
	SpeciesCounts map[string]int `json:"speciesCounts,omitempty"`
}

// Enricher decorates a sighting with best-effort context such as weather.
// Errors leave the sighting undecorated and never block recording.
type Enricher interface {
	Enrich(ctx context.Context, sighting *BirdSighting) error
}

// Notifier delivers best-effort new/rare species alerts.
type Notifier interface {
	Notify(ctx context.Context, species string, confidence float64, isNew, isRare bool) error
}

// Publisher forwards recorded sightings downstream, best-effort.
type Publisher interface {
	PublishSighting(ctx context.Context, sighting *BirdSighting) error
}
