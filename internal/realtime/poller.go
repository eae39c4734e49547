package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"vn-data/internal/model"
	"vn-data/internal/provider"
	"vn-data/internal/saver"
	"vn-data/internal/slogx"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultTimeout  = 20 * time.Second
	// DefaultSelector picks the quote element on typical price pages.
	DefaultSelector = "#price, .price, [data-field=price]"
)

// Options configures a Poller.
type Options struct {
	URLTemplate string        // "{symbol}" is substituted
	Interval    time.Duration // pause between cycles
	Iterations  int           // 0 = until ctx is cancelled
	OutDir      string
	Selector    string // CSS selector of the price element on HTML pages
	Timeout     time.Duration
	Headers     provider.Headers
	ProxyURL    string
}

// Poller fetches one row per symbol per cycle and appends it to the
// symbol's realtime CSV.
type Poller struct {
	opts Options
	rest *resty.Client
	log  *slog.Logger
	now  func() time.Time
}

// NewPoller creates a Poller. A zero interval is only kept for a bounded
// number of iterations; unbounded runs fall back to DefaultInterval.
func NewPoller(opts Options, logger *slog.Logger) *Poller {
	if opts.Interval < 0 || (opts.Interval == 0 && opts.Iterations <= 0) {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	return &Poller{
		opts: opts,
		rest: provider.NewRESTClient(provider.ClientOptions{
			Timeout:  opts.Timeout,
			Headers:  opts.Headers,
			ProxyURL: opts.ProxyURL,
		}),
		log: slogx.OrNop(logger),
		now: time.Now,
	}
}

// Run polls symbols until Iterations cycles are done or ctx is cancelled.
// It returns the number of completed cycles; cancellation is not an error.
func (p *Poller) Run(ctx context.Context, symbols []string) int {
	cycles := 0
	for p.opts.Iterations <= 0 || cycles < p.opts.Iterations {
		if ctx.Err() != nil {
			break
		}
		n := p.PollOnce(ctx, symbols)
		cycles++
		p.log.Info("poll cycle done", "cycle", cycles, "rows", n, "symbols", len(symbols))
		if p.opts.Iterations > 0 && cycles >= p.opts.Iterations {
			break
		}
		if !sleep(ctx, p.opts.Interval) {
			break
		}
	}
	return cycles
}

// PollOnce fetches every symbol once and returns the number of rows appended.
// Failed symbols are logged and skipped for this cycle.
func (p *Poller) PollOnce(ctx context.Context, symbols []string) int {
	appended := 0
	for _, s := range symbols {
		row, err := p.fetchRow(ctx, s)
		if err != nil {
			p.log.Warn("realtime fetch failed", "symbol", s, "error", err)
			continue
		}
		path, err := saver.AppendRealtime(s, row, p.opts.OutDir)
		if err != nil {
			p.log.Error("realtime append failed", "symbol", s, "error", err)
			continue
		}
		p.log.Debug("realtime row appended", "symbol", s, "path", path)
		appended++
	}
	return appended
}

func (p *Poller) fetchRow(ctx context.Context, symbol string) (*model.Table, error) {
	url := strings.ReplaceAll(p.opts.URLTemplate, "{symbol}", symbol)
	resp, err := p.rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if err := provider.CheckResponse(resp); err != nil {
		return nil, err
	}
	fields, err := ExtractFields(resp.Body(), resp.Header().Get("Content-Type"), p.opts.Selector)
	if err != nil {
		return nil, err
	}

	cols := []string{"timestamp", "symbol"}
	vals := []string{p.now().UTC().Format(time.RFC3339), symbol}
	for _, f := range fields {
		if f.Name == "timestamp" || f.Name == "symbol" {
			continue
		}
		cols = append(cols, f.Name)
		vals = append(vals, model.FormatValue(f.Value))
	}
	return &model.Table{Columns: cols, Rows: [][]string{vals}}, nil
}

// ExtractFields pulls row fields out of a quote response. JSON objects give
// their top-level scalar fields (sorted by key); HTML gives the page title and
// the text of the first element matching selector as "price".
func ExtractFields(body []byte, contentType, selector string) ([]model.Field, error) {
	trimmed := bytes.TrimSpace(body)
	if strings.Contains(contentType, "json") || bytes.HasPrefix(trimmed, []byte("{")) {
		return jsonFields(trimmed)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	price := strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
	return []model.Field{{Name: "title", Value: title}, {Name: "price", Value: price}}, nil
}

func jsonFields(body []byte) ([]model.Field, error) {
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]model.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, model.Field{Name: k, Value: obj[k]})
	}
	return fields, nil
}

// sleep waits d or until ctx is done; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
