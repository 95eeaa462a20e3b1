package weather

import (
	"context"

	"github.com/tphakala/birdwatch-go/internal/sightings"
	"github.com/tphakala/birdwatch-go/internal/suncalc"
)

// SightingEnricher attaches a current-conditions snapshot and the daylight
// phase to sightings. It satisfies the tracker's Enricher interface.
type SightingEnricher struct {
	service *Service
	sun     *suncalc.SunCalc // optional, nil skips the time-of-day tag
}

// NewSightingEnricher returns an enricher backed by the weather service.
func NewSightingEnricher(service *Service, sun *suncalc.SunCalc) *SightingEnricher {
	return &SightingEnricher{service: service, sun: sun}
}

// Enrich decorates the sighting in place. On error the sighting is left
// undecorated and the caller is expected to swallow the error.
func (e *SightingEnricher) Enrich(ctx context.Context, sighting *sightings.BirdSighting) error {
	data, err := e.service.Current(ctx)
	if err != nil {
		return err
	}

	info := &sightings.WeatherInfo{
		Temperature: data.Temperature.Current,
		WindSpeed:   data.Wind.Speed,
		Humidity:    data.Humidity,
		Pressure:    data.Pressure,
		Condition:   data.Description,
		Icon:        data.Icon,
	}
	if e.sun != nil {
		info.TimeOfDay = string(e.sun.TimeOfDay(sighting.Timestamp))
	}
	sighting.Weather = info
	return nil
}
