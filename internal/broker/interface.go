package broker

import (
	"context"
	"sync"
	"time"

	"github.com/Baaaki/storefront/internal/models"
)

// OrdersChannel is the Redis channel order events are published on.
const OrdersChannel = "orders:events"

type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// OrderEvent describes a change to one order. Order is nil for deletes.
type OrderEvent struct {
	Type      EventType              `json:"type"`
	OrderID   int64                  `json:"order_id"`
	UserID    int64                  `json:"user_id"`
	Order     *models.PopulatedOrder `json:"order,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Publisher sends order events to every subscriber.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// Subscriber hands out independent subscriptions to order events.
type Subscriber interface {
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription delivers events on C until Close is called or the broker
// shuts down, after which C is closed. A consumer that stops reading does
// not keep the forwarding goroutine alive once Close is called.
type Subscription struct {
	C <-chan OrderEvent

	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	closeErr error
	close    func() error
}

func newSubscription(c <-chan OrderEvent, closeFn func() error) *Subscription {
	return &Subscription{
		C:       c,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		close:   closeFn,
	}
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.closeErr = s.close()
	})
	return s.closeErr
}

// NoopPublisher drops every event. It is used when Redis is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
