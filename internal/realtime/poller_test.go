package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vn-data/internal/model"
	"vn-data/internal/saver"
	"vn-data/internal/slogx"
)

func quoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/VIC":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"price": 41.25, "volume": 1200, "nested": {"x": 1}, "symbol": "ignored"}`))
		case "/quote/ACV":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>ACV - Cảng hàng không</title></head><body><span class="price"> 98.5 </span></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPollerAppendsOneRowPerSymbolPerCycle(t *testing.T) {
	srv := quoteServer(t)
	dir := t.TempDir()
	p := NewPoller(Options{
		URLTemplate: srv.URL + "/quote/{symbol}",
		Interval:    time.Millisecond,
		Iterations:  3,
		OutDir:      dir,
	}, slogx.Nop())
	p.now = func() time.Time { return time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC) }

	cycles := p.Run(context.Background(), []string{"VIC", "ACV", "MISSING"})
	if cycles != 3 {
		t.Fatalf("cycles = %d, want 3", cycles)
	}

	vic, err := saver.ReadTable(saver.RealtimePath(dir, "VIC"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(vic.Columns, ","); got != "timestamp,symbol,price,volume" {
		t.Errorf("VIC columns = %s", got)
	}
	if vic.Len() != 3 {
		t.Errorf("VIC rows = %d, want 3", vic.Len())
	}
	if vic.Rows[0][0] != "2024-01-02T02:00:00Z" || vic.Rows[0][1] != "VIC" || vic.Rows[0][2] != "41.25" {
		t.Errorf("VIC row = %v", vic.Rows[0])
	}

	acv, err := saver.ReadTable(saver.RealtimePath(dir, "ACV"))
	if err != nil {
		t.Fatal(err)
	}
	if acv.Len() != 3 || acv.Cell(0, acv.Index("price")) != "98.5" {
		t.Errorf("ACV table = %+v", acv)
	}

	if _, err := os.Stat(filepath.Join(dir, "MISSING_realtime.csv")); !os.IsNotExist(err) {
		t.Error("failed symbol must not create a file")
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	srv := quoteServer(t)
	p := NewPoller(Options{
		URLTemplate: srv.URL + "/quote/{symbol}",
		Interval:    time.Hour,
		OutDir:      t.TempDir(),
	}, slogx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- p.Run(ctx, []string{"VIC"}) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("cycles = %d, want 1", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ctype string
		want  string
	}{
		{"json by content type", `{"b":2,"a":"x"}`, "application/json", "a=x;b=2"},
		{"json by body", `  {"last": 10.5}`, "text/plain", "last=10.5"},
		{"html", `<title>T</title><div data-field="price">7</div>`, "text/html", "title=T;price=7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ExtractFields([]byte(tt.body), tt.ctype, DefaultSelector)
			if err != nil {
				t.Fatal(err)
			}
			var parts []string
			for _, f := range fields {
				parts = append(parts, f.Name+"="+strings.TrimSpace(model.FormatValue(f.Value)))
			}
			if got := strings.Join(parts, ";"); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewPollerInterval(t *testing.T) {
	tests := []struct {
		name       string
		interval   time.Duration
		iterations int
		want       time.Duration
	}{
		{"zero bounded", 0, 3, 0},
		{"zero unbounded", 0, 0, DefaultInterval},
		{"negative", -time.Second, 2, DefaultInterval},
		{"explicit", 5 * time.Second, 0, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoller(Options{Interval: tt.interval, Iterations: tt.iterations}, nil)
			if p.opts.Interval != tt.want {
				t.Errorf("interval = %v, want %v", p.opts.Interval, tt.want)
			}
		})
	}
}
