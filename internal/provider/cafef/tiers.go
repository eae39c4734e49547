package cafef

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vn-data/internal/model"
)

// Outcome tags the result of one acquisition tier.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // preconditions not met, tier not attempted
	OutcomeEmpty                  // tier ran but produced no rows
	OutcomeData                   // tier produced rows
	OutcomeFailed                 // network, parse or rendering error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeEmpty:
		return "empty"
	case OutcomeData:
		return "data"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Tier names.
const (
	TierAPI    = "api"
	TierHTML   = "html"
	TierRender = "render"
)

// TierResult is the tagged result of one tier.
type TierResult struct {
	Tier    string
	Outcome Outcome
	Table   *model.Table
	Err     error
}

// attempt carries state between the tiers of one symbol.
type attempt struct {
	req     Request
	url     string // templated fallback URL, "" without template
	fetched bool   // html tier downloaded the page
	rawHTML string
}

type tier interface {
	name() string
	run(ctx context.Context, at *attempt) TierResult
}

func (f *Fetcher) tiers() []tier {
	return []tier{apiTier{f}, htmlTier{f}, renderTier{f}}
}

func result(name string, t *model.Table, err error) TierResult {
	switch {
	case !t.Empty():
		return TierResult{Tier: name, Outcome: OutcomeData, Table: t, Err: err}
	case err != nil:
		return TierResult{Tier: name, Outcome: OutcomeFailed, Err: err}
	default:
		return TierResult{Tier: name, Outcome: OutcomeEmpty}
	}
}

type apiTier struct{ f *Fetcher }

func (apiTier) name() string { return TierAPI }

func (t apiTier) run(ctx context.Context, at *attempt) TierResult {
	rows, err := t.f.fetchAPI(ctx, at.req)
	if err != nil && len(rows) > 0 {
		// partial paging keeps what was gathered
		t.f.log.Warn("api paging stopped early", "symbol", at.req.Symbol, "rows", len(rows), "error", err)
	}
	if len(rows) == 0 {
		return result(t.name(), nil, err)
	}
	return result(t.name(), apiRowsTable(rows), err)
}

type htmlTier struct{ f *Fetcher }

func (htmlTier) name() string { return TierHTML }

func (t htmlTier) run(ctx context.Context, at *attempt) TierResult {
	if at.url == "" {
		return TierResult{Tier: t.name(), Outcome: OutcomeSkipped}
	}
	raw, err := t.f.fetchPage(ctx, at.url)
	if err != nil {
		return result(t.name(), nil, err)
	}
	at.fetched = true
	at.rawHTML = raw
	tbl, err := extractFromHTML(raw)
	return result(t.name(), tbl, err)
}

type renderTier struct{ f *Fetcher }

func (renderTier) name() string { return TierRender }

// run renders only when the static page downloaded fine but carries no
// date-shaped text at all, i.e. its content is produced client-side.
func (t renderTier) run(ctx context.Context, at *attempt) TierResult {
	if !at.fetched || looksLikeDate(at.rawHTML) {
		return TierResult{Tier: t.name(), Outcome: OutcomeSkipped}
	}
	if t.f.renderer == nil {
		return result(t.name(), nil, ErrRendererUnavailable)
	}
	rendered, err := t.f.renderer.Render(ctx, at.url)
	if err != nil {
		return result(t.name(), nil, err)
	}
	tbl, err := extractFromHTML(rendered)
	return result(t.name(), tbl, err)
}

func extractFromHTML(raw string) (*model.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return ExtractFirstDateTable(doc), nil
}

func (f *Fetcher) logTier(symbol string, r TierResult) {
	switch {
	case r.Outcome == OutcomeFailed && errors.Is(r.Err, ErrRendererUnavailable):
		f.log.Warn("renderer unavailable", "symbol", symbol, "tier", r.Tier, "error", r.Err)
	case r.Outcome == OutcomeFailed:
		f.log.Warn("tier failed", "symbol", symbol, "tier", r.Tier, "error", r.Err)
	case r.Outcome == OutcomeSkipped:
		f.log.Debug("tier skipped", "symbol", symbol, "tier", r.Tier)
	default:
		f.log.Info("tier done", "symbol", symbol, "tier", r.Tier, "outcome", r.Outcome.String(), "rows", r.Table.Len())
	}
}
