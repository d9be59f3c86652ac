package notify

import (
	"testing"
	"time"
)

func TestPublishAppliesDefaultDuration(t *testing.T) {
	c := NewCenter()
	var got Toast
	c.Subscribe(func(tt Toast) { got = tt })

	c.Success("saved")
	if got.Message != "saved" || got.IsError || got.Duration != DefaultDuration {
		t.Fatalf("toast=%+v", got)
	}

	c.Publish(Toast{Message: "slow", Duration: 10 * time.Second})
	if got.Duration != 10*time.Second {
		t.Fatalf("duration=%v", got.Duration)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := NewCenter()
	var count int
	h := c.Subscribe(func(Toast) { count++ })

	c.Error("boom")
	c.Unsubscribe(h)
	c.Error("boom again")
	if count != 1 {
		t.Fatalf("count=%d", count)
	}
}

func TestDistinctHandles(t *testing.T) {
	c := NewCenter()
	h1 := c.Subscribe(func(Toast) {})
	h2 := c.Subscribe(func(Toast) {})
	if h1 == h2 {
		t.Fatalf("handles collide: %q", h1)
	}
}
