package events

import (
	"testing"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()
	defer bus.Unsubscribe(id)

	bus.Publish(NewTransactionEvent(TxApplied, "123", "1M"))

	event := <-ch
	if event.Kind != TxApplied || event.TxID != "123" || event.Sender != "1M" {
		t.Errorf("event = %+v", event)
	}
	if event.At.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	id, ch := bus.Subscribe()
	bus.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus()
	id, _ := bus.Subscribe()
	defer bus.Unsubscribe(id)

	// Fill the buffer past capacity; Publish must not block.
	for i := 0; i < 100; i++ {
		bus.Publish(NewTransactionRejected("1", "1M", "invalid_fee", "invalid transaction fee"))
	}
}
