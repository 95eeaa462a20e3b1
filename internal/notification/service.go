package notification

import (
	"context"
	"sync"
	"time"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/observability/metrics"
)

const (
	// defaultMaxStored bounds the in-memory notification store when
	// no limit is configured
	defaultMaxStored = 1000

	// subscriberBufferSize is the channel depth for each subscriber
	subscriberBufferSize = 16

	// pushTimeout bounds a single push delivery attempt
	pushTimeout = 30 * time.Second
)

// Provider delivers notifications to an external push service
type Provider interface {
	// Name returns a short identifier for logging and metrics
	Name() string
	// Send delivers a notification, returning an error on failure
	Send(ctx context.Context, n *Notification) error
}

// Service stores notifications, broadcasts them to subscribers and pushes
// them to external providers subject to rate limiting.
type Service struct {
	mu        sync.RWMutex
	stored    []*Notification
	maxStored int

	subMu       sync.Mutex
	subscribers map[chan *Notification]struct{}

	providers []Provider
	limiter   *RateLimiter
	metrics   *metrics.NotificationMetrics

	wg sync.WaitGroup
}

// NewService creates a notification service from the given settings.
// Providers are optional; without any, notifications are stored and
// broadcast only.
func NewService(settings *conf.NotificationSettings, m *metrics.NotificationMetrics, providers ...Provider) *Service {
	maxStored := defaultMaxStored
	if settings != nil && settings.MaxStored > 0 {
		maxStored = settings.MaxStored
	}
	return &Service{
		maxStored:   maxStored,
		subscribers: make(map[chan *Notification]struct{}),
		providers:   providers,
		limiter:     NewRateLimiter(DefaultRateLimiterConfig()),
		metrics:     m,
	}
}

// Create stores a notification, broadcasts it and schedules push delivery
func (s *Service) Create(n *Notification) {
	if n == nil {
		return
	}

	s.mu.Lock()
	s.stored = append(s.stored, n)
	if len(s.stored) > s.maxStored {
		// Drop oldest entries to stay within the cap
		s.stored = s.stored[len(s.stored)-s.maxStored:]
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordNotificationCreated(string(n.Type), string(n.Priority))
	}

	notifLogger.Info("notification created",
		"id", n.ID,
		"type", n.Type,
		"priority", n.Priority,
		"title", n.Title)

	s.broadcast(n)
	s.push(n)
}

// List returns stored notifications, most recent first
func (s *Service) List() []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Notification, 0, len(s.stored))
	for i := len(s.stored) - 1; i >= 0; i-- {
		out = append(out, s.stored[i])
	}
	return out
}

// Subscribe returns a channel receiving future notifications. Slow
// subscribers miss notifications rather than blocking the service.
func (s *Service) Subscribe() chan *Notification {
	ch := make(chan *Notification, subscriberBufferSize)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (s *Service) Unsubscribe(ch chan *Notification) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Shutdown waits for in-flight push deliveries to finish
func (s *Service) Shutdown() {
	s.wg.Wait()
}

func (s *Service) broadcast(n *Notification) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- n:
		default:
			// subscriber not keeping up
		}
	}
}

// push delivers the notification to each provider in a tracked goroutine,
// skipping delivery entirely when the rate limit is exceeded
func (s *Service) push(n *Notification) {
	if len(s.providers) == 0 {
		return
	}

	if !s.limiter.Allow() {
		if s.metrics != nil {
			s.metrics.RecordRateLimited()
		}
		notifLogger.Warn("push delivery rate limited", "id", n.ID, "title", n.Title)
		return
	}

	for _, p := range s.providers {
		s.wg.Add(1)
		go func(p Provider) {
			defer s.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			defer cancel()

			start := time.Now()
			err := p.Send(ctx, n)
			elapsed := time.Since(start)

			status := "success"
			if err != nil {
				status = "error"
				notifLogger.Error("push delivery failed",
					"provider", p.Name(),
					"id", n.ID,
					"error", err)
			} else {
				notifLogger.Debug("push delivered",
					"provider", p.Name(),
					"id", n.ID,
					"duration_ms", elapsed.Milliseconds())
			}
			if s.metrics != nil {
				s.metrics.RecordPushDelivery(status, elapsed.Seconds())
			}
		}(p)
	}
}
