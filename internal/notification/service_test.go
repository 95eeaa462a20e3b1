package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdwatch-go/internal/conf"
)

// recordingProvider captures notifications handed to Send
type recordingProvider struct {
	mu   sync.Mutex
	sent []*Notification
}

func (r *recordingProvider) Name() string { return "recording" }

func (r *recordingProvider) Send(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingProvider) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestCreateStoresAndLists(t *testing.T) {
	t.Parallel()

	svc := NewService(&conf.NotificationSettings{MaxStored: 10}, nil)

	first := NewNotification(TypeInfo, PriorityLow, "first", "hello")
	second := NewNotification(TypeWarning, PriorityMedium, "second", "world")
	svc.Create(first)
	svc.Create(second)

	list := svc.List()
	require.Len(t, list, 2)
	// Most recent first
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
	assert.NotEmpty(t, list[0].ID)
	assert.False(t, list[0].Timestamp.IsZero())
}

func TestStoreCapDropsOldest(t *testing.T) {
	t.Parallel()

	svc := NewService(&conf.NotificationSettings{MaxStored: 3}, nil)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		svc.Create(NewNotification(TypeInfo, PriorityLow, title, ""))
	}

	list := svc.List()
	require.Len(t, list, 3)
	assert.Equal(t, "e", list[0].Title)
	assert.Equal(t, "c", list[2].Title)
}

func TestSubscribeReceivesNotifications(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil)
	ch := svc.Subscribe()
	defer svc.Unsubscribe(ch)

	svc.Create(NewNotification(TypeSystem, PriorityLow, "status", "running"))

	select {
	case n := <-ch:
		assert.Equal(t, "status", n.Title)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil)
	ch := svc.Subscribe()
	svc.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Second unsubscribe is a no-op
	svc.Unsubscribe(ch)
}

func TestPushDeliversToProvider(t *testing.T) {
	t.Parallel()

	provider := &recordingProvider{}
	svc := NewService(nil, nil, provider)

	svc.Create(NewNotification(TypeDetection, PriorityHigh, "New species spotted!", "Blue Jay"))
	svc.Shutdown()

	require.Equal(t, 1, provider.count())
	assert.Equal(t, "Blue Jay", provider.sent[0].Message)
}

func TestRateLimiterBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimiterConfig{
		MaxPerInterval: 60,
		Interval:       time.Minute,
		Burst:          3,
	})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(), "allow within burst %d", i)
	}
	assert.False(t, rl.Allow(), "deny once burst is spent")
}

func TestSightingNotifierPriorities(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, nil)
	sn := NewSightingNotifier(svc)

	require.NoError(t, sn.Notify(context.Background(), "Blue Jay", 0.92, true, true))
	require.NoError(t, sn.Notify(context.Background(), "House Sparrow", 0.70, false, true))
	require.NoError(t, sn.Notify(context.Background(), "American Robin", 0.85, false, false))

	list := svc.List()
	require.Len(t, list, 3)

	// list is most recent first
	assert.Equal(t, PriorityMedium, list[0].Priority)
	assert.Equal(t, "Bird sighting", list[0].Title)
	assert.Equal(t, PriorityHigh, list[1].Priority)
	assert.Equal(t, "Rare visitor", list[1].Title)
	assert.Equal(t, PriorityHigh, list[2].Priority)
	assert.Equal(t, "New species spotted!", list[2].Title)
	assert.Equal(t, TypeDetection, list[2].Type)
	assert.Equal(t, "Blue Jay", list[2].Metadata["species"])
}
