package events

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(10, testLogger())
	go bus.Start()
	defer bus.Stop()

	sub := bus.Subscribe(10)
	defer bus.Unsubscribe(sub)

	sent := Event{
		Type:      EventOfferSent,
		Timestamp: time.Now(),
		MAC:       "00:0b:82:01:fc:42",
		XID:       0xDEADBEEF,
		MsgType:   "DHCPDISCOVER",
	}
	bus.Publish(sent)

	select {
	case got := <-sub:
		if got.Type != EventOfferSent {
			t.Errorf("Type = %s, want %s", got.Type, EventOfferSent)
		}
		if got.XID != 0xDEADBEEF {
			t.Errorf("XID = 0x%08X", got.XID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus(10, testLogger())
	go bus.Start()
	defer bus.Stop()

	sub1 := bus.Subscribe(10)
	sub2 := bus.Subscribe(10)
	defer bus.Unsubscribe(sub1)
	defer bus.Unsubscribe(sub2)

	bus.Publish(Event{Type: EventDropped, Timestamp: time.Now(), Reason: "mac_mismatch"})

	for i, sub := range []chan Event{sub1, sub2} {
		select {
		case evt := <-sub:
			if evt.Reason != "mac_mismatch" {
				t.Errorf("subscriber %d: Reason = %q", i, evt.Reason)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBusPublishFullBufferDoesNotBlock(t *testing.T) {
	bus := NewBus(1, testLogger())
	// No Start: nothing drains the channel.

	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Type: EventAckSent})
		bus.Publish(Event{Type: EventAckSent})
		bus.Publish(Event{Type: EventAckSent})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(10, testLogger())
	sub := bus.Subscribe(10)
	bus.Unsubscribe(sub)

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("received an event from an unsubscribed channel")
		}
	default:
		t.Error("unsubscribed channel is not closed")
	}
}
