package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/meridianchain/mrdn/logx"
)

type SubscriberID string

type subscriber struct {
	id      SubscriberID
	channel chan TransactionEvent
}

// EventBus fans transaction lifecycle events out to subscribers. Slow
// subscribers lose events rather than stall the publisher.
type EventBus struct {
	subscribers map[SubscriberID]*subscriber
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[SubscriberID]*subscriber)}
}

func (eb *EventBus) Subscribe() (SubscriberID, chan TransactionEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := SubscriberID(uuid.Must(uuid.NewV7()).String())
	ch := make(chan TransactionEvent, 50)
	eb.subscribers[id] = &subscriber{id: id, channel: ch}

	logx.Info("EVENTBUS", fmt.Sprintf("subscribed to transaction events | subscriber_id=%s | total=%d", id, len(eb.subscribers)))
	return id, ch
}

func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if sub, ok := eb.subscribers[id]; ok {
		close(sub.channel)
		delete(eb.subscribers, id)
	}
}

func (eb *EventBus) Publish(event TransactionEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, sub := range eb.subscribers {
		select {
		case sub.channel <- event:
		default:
			logx.Warn("EVENTBUS", "dropping event for slow subscriber ", string(sub.id))
		}
	}
}
