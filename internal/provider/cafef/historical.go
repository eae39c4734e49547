package cafef

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vn-data/internal/model"
	"vn-data/internal/provider"
	"vn-data/internal/saver"
	"vn-data/internal/slogx"
)

const (
	// DefaultAPIURL is cafef's price history endpoint.
	DefaultAPIURL = "https://cafef.vn/du-lieu/Ajax/PageNew/DataHistory/PriceHistory.ashx"

	DefaultPageSize    = 1000
	DefaultMaxPages    = 10
	DefaultAPITimeout  = 30 * time.Second
	DefaultHTMLTimeout = 20 * time.Second
)

// Options configures a Fetcher.
type Options struct {
	APIURL      string
	PageSize    int
	MaxPages    int
	APITimeout  time.Duration
	HTMLTimeout time.Duration
	Headers     provider.Headers // User-Agent for every request, Referer for the API
	ProxyURL    string
}

func (o *Options) defaults() {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.APITimeout <= 0 {
		o.APITimeout = DefaultAPITimeout
	}
	if o.HTMLTimeout <= 0 {
		o.HTMLTimeout = DefaultHTMLTimeout
	}
}

// Request describes one historical fetch.
type Request struct {
	Symbol      string
	URLTemplate string // optional HTML fallback, "{symbol}" is substituted
	StartDate   string // DD/MM/YYYY, empty = all
	EndDate     string // DD/MM/YYYY, empty = all
}

// URL returns the templated fallback URL, or "" without a template.
func (r Request) URL() string {
	if r.URLTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(r.URLTemplate, "{symbol}", r.Symbol)
}

// Fetcher acquires historical OHLC tables from cafef through an ordered list
// of tiers: JSON API, static HTML table, rendered HTML table.
type Fetcher struct {
	opts     Options
	api      *resty.Client
	html     *resty.Client
	renderer Renderer
	saver    saver.PacketSaver
	log      *slog.Logger
}

// NewFetcher creates a Fetcher. renderer may be nil (render tier then reports
// ErrRendererUnavailable); ps nil means CSV.
func NewFetcher(opts Options, renderer Renderer, ps saver.PacketSaver, logger *slog.Logger) *Fetcher {
	opts.defaults()
	return &Fetcher{
		opts: opts,
		api: provider.NewRESTClient(provider.ClientOptions{
			Timeout:  opts.APITimeout,
			Headers:  provider.Headers{UserAgent: opts.Headers.UserAgent, Referer: opts.Headers.Referer},
			ProxyURL: opts.ProxyURL,
		}),
		html: provider.NewRESTClient(provider.ClientOptions{
			Timeout:  opts.HTMLTimeout,
			Headers:  provider.Headers{UserAgent: opts.Headers.UserAgent},
			ProxyURL: opts.ProxyURL,
		}),
		renderer: renderer,
		saver:    ps,
		log:      slogx.OrNop(logger),
	}
}

// GetName returns provider name
func (f *Fetcher) GetName() string { return "cafef" }

// SetPacketSaver replaces the output format of subsequent fetches.
func (f *Fetcher) SetPacketSaver(ps saver.PacketSaver) {
	f.saver = ps
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.api.GetClient().CloseIdleConnections()
	f.html.GetClient().CloseIdleConnections()
	return nil
}

// Acquire runs the tiers in order until one yields rows and returns the
// normalized table together with every tier result. The table is nil when
// all tiers came back empty, failed or skipped.
func (f *Fetcher) Acquire(ctx context.Context, req Request) (*model.Table, []TierResult) {
	at := &attempt{req: req, url: req.URL()}
	var results []TierResult
	for _, t := range f.tiers() {
		r := t.run(ctx, at)
		results = append(results, r)
		f.logTier(req.Symbol, r)
		if r.Outcome == OutcomeData {
			return Normalize(r.Table, f.log.With("symbol", req.Symbol)), results
		}
	}
	return nil, results
}

// Fetch acquires the symbol's history and saves it to outDir. found is false
// when no tier produced data; nothing is written then. The only error
// returned is a storage failure.
func (f *Fetcher) Fetch(ctx context.Context, req Request, outDir string) (path string, found bool, err error) {
	tbl, _ := f.Acquire(ctx, req)
	if tbl.Empty() {
		f.log.Info("no historical data", "symbol", req.Symbol)
		return "", false, nil
	}
	path, err = saver.SaveOHLC(f.saver, req.Symbol, tbl, outDir)
	if err != nil {
		return "", true, err
	}
	f.log.Info("saved historical", "symbol", req.Symbol, "rows", tbl.Len(), "path", path)
	return path, true, nil
}

// fetchAPI pages through PriceHistory.ashx. Paging stops when the cumulative
// row count reaches the reported total, a page is empty, or MaxPages is hit.
// Rows beyond the reported total are dropped. On a page error the rows
// gathered so far are returned along with the error.
func (f *Fetcher) fetchAPI(ctx context.Context, req Request) ([]map[string]any, error) {
	var all []map[string]any
	for page := 1; page <= f.opts.MaxPages; page++ {
		rows, total, err := f.fetchAPIPage(ctx, req, page)
		if err != nil {
			return all, fmt.Errorf("api page %d: %w", page, err)
		}
		f.log.Debug("api page", "symbol", req.Symbol, "page", page, "rows", len(rows), "total", total)
		if len(rows) == 0 {
			break
		}
		all = append(all, rows...)
		if int64(len(all)) >= total {
			if total > 0 {
				all = all[:total]
			}
			break
		}
	}
	return all, nil
}

func (f *Fetcher) fetchAPIPage(ctx context.Context, req Request, page int) ([]map[string]any, int64, error) {
	resp, err := f.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"Symbol":    req.Symbol,
			"StartDate": req.StartDate,
			"EndDate":   req.EndDate,
			"PageIndex": strconv.Itoa(page),
			"PageSize":  strconv.Itoa(f.opts.PageSize),
		}).
		Get(f.opts.APIURL)
	if err != nil {
		return nil, 0, err
	}
	if err := provider.CheckResponse(resp); err != nil {
		return nil, 0, err
	}
	var env historyEnvelope
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("parse JSON: %w", err)
	}
	return env.Data.Data, env.Data.TotalCount.Int64(), nil
}

func (f *Fetcher) fetchPage(ctx context.Context, url string) (string, error) {
	resp, err := f.html.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if err := provider.CheckResponse(resp); err != nil {
		return "", err
	}
	return resp.String(), nil
}
