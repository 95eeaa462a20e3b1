package notification

import (
	"context"
	"fmt"
)

// SightingNotifier turns sighting milestones into detection notifications.
// It satisfies the sightings tracker's notifier contract.
type SightingNotifier struct {
	service *Service
}

// NewSightingNotifier creates a notifier backed by the given service
func NewSightingNotifier(service *Service) *SightingNotifier {
	return &SightingNotifier{service: service}
}

// Notify creates a detection notification for a recorded sighting.
// New species and rare sightings get high priority. Errors never propagate
// back to the tracker; Notify always returns nil.
func (sn *SightingNotifier) Notify(ctx context.Context, species string, confidence float64, isNew, isRare bool) error {
	_ = ctx
	if sn.service == nil {
		return nil
	}

	priority := PriorityMedium
	title := "Bird sighting"
	switch {
	case isNew:
		priority = PriorityHigh
		title = "New species spotted!"
	case isRare:
		priority = PriorityHigh
		title = "Rare visitor"
	}

	n := NewNotification(TypeDetection, priority,
		title,
		fmt.Sprintf("%s detected with %.0f%% confidence", species, confidence*100)).
		WithComponent("sightings").
		WithMetadata("species", species).
		WithMetadata("confidence", confidence).
		WithMetadata("new_species", isNew).
		WithMetadata("rare", isRare)

	sn.service.Create(n)
	return nil
}
