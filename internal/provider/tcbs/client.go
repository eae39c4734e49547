package tcbs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vn-data/internal/model"
	"vn-data/internal/provider"
	"vn-data/internal/slogx"
)

const (
	// DefaultBaseURL is the public TCBS analysis API (no auth).
	DefaultBaseURL = "https://apipubaws.tcbs.com.vn/tcanalysis/v1"

	DefaultTimeout = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Headers  provider.Headers
	ProxyURL string
}

// Client fetches fundamental data from TCBS. Every category is fetched
// independently: a failure empties that category only.
type Client struct {
	baseURL string
	rest    *resty.Client
	log     *slog.Logger
}

// NewClient creates a TCBS client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Headers.Accept == "" {
		opts.Headers.Accept = "application/json"
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		rest: provider.NewRESTClient(provider.ClientOptions{
			Timeout:  opts.Timeout,
			Headers:  opts.Headers,
			ProxyURL: opts.ProxyURL,
		}),
		log: slogx.OrNop(logger),
	}
}

// GetName returns provider name
func (c *Client) GetName() string { return "tcbs" }

// Close releases idle connections.
func (c *Client) Close() error {
	c.rest.GetClient().CloseIdleConnections()
	return nil
}

func yearlyParam(yearly bool) string {
	if yearly {
		return "1"
	}
	return "0"
}

// Overview fetches the company overview (exchange, industry, shares...).
// Returns an empty record on any error.
func (c *Client) Overview(ctx context.Context, symbol string) model.Record {
	var rec model.Record
	if err := c.getJSON(ctx, fmt.Sprintf("/ticker/%s/overview", symbol), nil, &rec); err != nil {
		c.log.Warn("fetch failed", "symbol", symbol, "category", model.CategoryOverview, "error", err)
		return model.Record{}
	}
	if rec == nil {
		rec = model.Record{}
	}
	return rec
}

// Ratios fetches financial ratios (P/E, P/B, ROE, ROA, EPS...), in provider order.
func (c *Client) Ratios(ctx context.Context, symbol string, yearly bool) []model.Record {
	return c.statement(ctx, symbol, "financialratio", model.CategoryRatios, yearly)
}

// IncomeStatement fetches income statement records.
func (c *Client) IncomeStatement(ctx context.Context, symbol string, yearly bool) []model.Record {
	return c.statement(ctx, symbol, "incomestatement", model.CategoryIncome, yearly)
}

// BalanceSheet fetches balance sheet records.
func (c *Client) BalanceSheet(ctx context.Context, symbol string, yearly bool) []model.Record {
	return c.statement(ctx, symbol, "balancesheet", model.CategoryBalance, yearly)
}

// CashFlow fetches cash flow records.
func (c *Client) CashFlow(ctx context.Context, symbol string, yearly bool) []model.Record {
	return c.statement(ctx, symbol, "cashflow", model.CategoryCashflow, yearly)
}

func (c *Client) statement(ctx context.Context, symbol, endpoint, category string, yearly bool) []model.Record {
	var recs []model.Record
	params := map[string]string{"yearly": yearlyParam(yearly), "isAll": "true"}
	if err := c.getJSON(ctx, fmt.Sprintf("/finance/%s/%s", symbol, endpoint), params, &recs); err != nil {
		c.log.Warn("fetch failed", "symbol", symbol, "category", category, "error", err)
		return []model.Record{}
	}
	if recs == nil {
		recs = []model.Record{}
	}
	return recs
}

// FetchAll fetches every category sequentially.
func (c *Client) FetchAll(ctx context.Context, symbol string, yearly bool) *model.Fundamental {
	f := &model.Fundamental{
		Symbol:   symbol,
		Overview: c.Overview(ctx, symbol),
		Ratios:   c.Ratios(ctx, symbol, yearly),
		Income:   c.IncomeStatement(ctx, symbol, yearly),
		Balance:  c.BalanceSheet(ctx, symbol, yearly),
		Cashflow: c.CashFlow(ctx, symbol, yearly),
	}
	c.log.Debug("fundamental fetched", "symbol", symbol,
		"ratios", len(f.Ratios), "income", len(f.Income), "balance", len(f.Balance), "cashflow", len(f.Cashflow))
	return f
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.rest.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	if err := provider.CheckResponse(resp); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
