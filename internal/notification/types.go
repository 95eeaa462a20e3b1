// Package notification manages watcher alerts: new and rare species,
// warnings and system status. Notifications are kept in a capped in-memory
// store, broadcast to subscribers and pushed to external services through
// shoutrrr.
package notification

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/birdwatch-go/internal/logging"
)

// Type represents the category of a notification
type Type string

const (
	// TypeError indicates a system error notification
	TypeError Type = "error"
	// TypeWarning indicates a warning notification
	TypeWarning Type = "warning"
	// TypeInfo indicates an informational notification
	TypeInfo Type = "info"
	// TypeDetection indicates a bird detection notification
	TypeDetection Type = "detection"
	// TypeSystem indicates a system status notification
	TypeSystem Type = "system"
)

// Priority represents the urgency level of a notification
type Priority string

const (
	// PriorityHigh indicates important but not urgent
	PriorityHigh Priority = "high"
	// PriorityMedium indicates normal priority
	PriorityMedium Priority = "medium"
	// PriorityLow indicates low priority/informational
	PriorityLow Priority = "low"
)

// Package-level logger for the notification service
var (
	notifLogger   *slog.Logger
	notifLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	notifLevelVar.Set(slog.LevelInfo)

	notifLogger, _, err = logging.NewFileLogger("logs/notification.log", "notification", notifLevelVar)
	if err != nil {
		logging.Error("Failed to initialize notification file logger", "error", err)
		notifLogger = logging.DiscardLogger("notification", notifLevelVar)
	}
}

// Notification represents a single notification event
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewNotification creates a new notification with a unique ID and timestamp
func NewNotification(notifType Type, priority Priority, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Type:      notifType,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithComponent sets the component field and returns the notification for chaining
func (n *Notification) WithComponent(component string) *Notification {
	n.Component = component
	return n
}

// WithMetadata attaches one metadata value and returns the notification for chaining
func (n *Notification) WithMetadata(key string, value any) *Notification {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
	return n
}
