package cafef

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ErrRendererUnavailable is returned when no headless browser can be launched
// on this machine. It is distinct from navigation and timeout failures.
var ErrRendererUnavailable = errors.New("headless browser unavailable")

// Renderer returns the fully rendered HTML of a JS-driven page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

const (
	DefaultRenderTimeout = 45 * time.Second
	DefaultRenderSettle  = 2 * time.Second
	networkIdleWindow    = 500 * time.Millisecond
)

// chromeCandidates are looked up on PATH when no executable is configured.
var chromeCandidates = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// ChromeRenderer renders pages with a headless Chrome driven by chromedp.
// Each Render launches its own browser and tears it down before returning.
type ChromeRenderer struct {
	ExecPath  string
	UserAgent string
	Timeout   time.Duration // navigation + network idle
	Settle    time.Duration // extra wait for lazy content
}

// NewChromeRenderer creates a renderer; zero durations take the defaults.
func NewChromeRenderer(execPath, userAgent string, timeout, settle time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	if settle < 0 {
		settle = DefaultRenderSettle
	}
	return &ChromeRenderer{ExecPath: execPath, UserAgent: userAgent, Timeout: timeout, Settle: settle}
}

func (r *ChromeRenderer) lookExec() (string, error) {
	if r.ExecPath != "" {
		p, err := exec.LookPath(r.ExecPath)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrRendererUnavailable, r.ExecPath, err)
		}
		return p, nil
	}
	for _, c := range chromeCandidates {
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no chrome executable found (set CHROME_PATH)", ErrRendererUnavailable)
}

// Render loads url, waits for network idle plus the settle delay and returns
// the outer HTML of the document.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	path, err := r.lookExec()
	if err != nil {
		return "", err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(path))
	if r.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// first Run starts the browser; it must not carry the navigation timeout
	if err := chromedp.Run(browserCtx); err != nil {
		return "", fmt.Errorf("%w: launch %s: %v", ErrRendererUnavailable, path, err)
	}

	tracker := newIdleTracker(time.Now)
	chromedp.ListenTarget(browserCtx, tracker.observe)

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.Timeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, network.Enable(), chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := tracker.waitIdle(navCtx, networkIdleWindow); err != nil {
		return "", fmt.Errorf("wait network idle %s: %w", url, err)
	}

	if err := sleepCtx(browserCtx, r.Settle); err != nil {
		return "", err
	}
	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture html %s: %w", url, err)
	}
	return html, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// idleTracker counts in-flight requests from CDP network events.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	last     time.Time
	now      func() time.Time
}

func newIdleTracker(now func() time.Time) *idleTracker {
	return &idleTracker{inflight: make(map[network.RequestID]struct{}), last: now(), now: now}
}

func (t *idleTracker) observe(ev any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.last = t.now()
}

// idle reports whether nothing is in flight and no event arrived within window.
func (t *idleTracker) idle(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.last) >= window
}

func (t *idleTracker) waitIdle(ctx context.Context, window time.Duration) error {
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if t.idle(window) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}
