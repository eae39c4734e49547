package cafef

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestIdleTracker(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := newIdleTracker(clock.now)

	tr.observe(&network.EventRequestWillBeSent{RequestID: "1"})
	tr.observe(&network.EventRequestWillBeSent{RequestID: "2"})
	clock.t = clock.t.Add(time.Second)
	if tr.idle(networkIdleWindow) {
		t.Fatal("requests in flight, should not be idle")
	}

	tr.observe(&network.EventLoadingFinished{RequestID: "1"})
	tr.observe(&network.EventLoadingFailed{RequestID: "2"})
	if tr.idle(networkIdleWindow) {
		t.Fatal("idle window not elapsed yet")
	}
	clock.t = clock.t.Add(networkIdleWindow)
	if !tr.idle(networkIdleWindow) {
		t.Fatal("expected idle")
	}

	// unrelated events do not reset the window
	tr.observe("something else")
	if !tr.idle(networkIdleWindow) {
		t.Fatal("unrelated event reset idle state")
	}
}

func TestIdleTrackerWaitTimeout(t *testing.T) {
	tr := newIdleTracker(time.Now)
	tr.observe(&network.EventRequestWillBeSent{RequestID: "stuck"})
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := tr.waitIdle(ctx, networkIdleWindow); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestChromeRendererUnavailable(t *testing.T) {
	r := NewChromeRenderer("/nonexistent/chrome-for-tests", "", time.Second, 0)
	_, err := r.Render(context.Background(), "http://127.0.0.1/")
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Fatalf("expected ErrRendererUnavailable, got %v", err)
	}
}
