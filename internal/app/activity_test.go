package app

import (
	"testing"
	"time"
)

func TestActivityHubFanOut(t *testing.T) {
	hub := NewActivityHub()
	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	hub.Publish(ActivityEvent{Type: EventAnswerRecorded, UserID: "u1"})

	for _, ch := range []<-chan ActivityEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != EventAnswerRecorded || ev.UserID != "u1" {
				t.Fatalf("event = %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive the event")
		}
	}

	cancel1()
	if _, ok := <-ch1; ok {
		t.Fatalf("cancelled channel should be closed")
	}

	// Publishing after a cancel must not panic or block.
	hub.Publish(ActivityEvent{Type: EventRewardCredited})
	select {
	case ev := <-ch2:
		if ev.Type != EventRewardCredited {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("remaining subscriber starved")
	}
}

func TestActivityHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewActivityHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	// Overflow the buffer; publishers must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(ActivityEvent{Type: EventAnswerRecorded})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received == 0 || received > 16 {
				t.Fatalf("received %d events, want 1..16", received)
			}
			return
		}
	}
}

func TestNilHubPublishIsSafe(t *testing.T) {
	var hub *ActivityHub
	hub.Publish(ActivityEvent{Type: EventAnswerRecorded})
}
