package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vn-data/internal/model"
	"vn-data/internal/provider/cafef"
	"vn-data/internal/slogx"
)

// HistoricalFetcher is satisfied by *cafef.Fetcher.
type HistoricalFetcher interface {
	Fetch(ctx context.Context, req cafef.Request, outDir string) (path string, found bool, err error)
}

// FundamentalFetcher is satisfied by *tcbs.Client.
type FundamentalFetcher interface {
	SaveFundamental(ctx context.Context, symbol, outDir string, yearly bool) (map[string]string, error)
	LatestRatios(ctx context.Context, symbol string, yearly bool) (model.RatioSnapshot, bool)
}

// Result is the outcome for one symbol, handed to the caller as soon as it is known.
type Result struct {
	Symbol string
	Found  bool
	Err    error

	Path   string               // historical output file
	Paths  map[string]string    // fundamental category → file
	Ratios *model.RatioSnapshot // set in latest mode
}

// Summary counts a finished run.
type Summary struct {
	Success int
	Failed  int
	Skipped int // not attempted because ctx was cancelled
}

// HistoricalJob holds the per-run parameters of a historical crawl.
type HistoricalJob struct {
	URLTemplate string
	StartDate   string
	EndDate     string
	OutDir      string
}

// FundamentalJob holds the per-run parameters of a fundamental crawl.
type FundamentalJob struct {
	OutDir string
	Yearly bool
	Latest bool // print the latest ratios instead of writing files
}

var errNoData = errors.New("no data")

// RunHistorical fetches symbols one by one. A failed symbol never aborts the run.
func RunHistorical(ctx context.Context, f HistoricalFetcher, symbols []string, job HistoricalJob, logger *slog.Logger, onResult func(Result)) Summary {
	return run(ctx, "historical", symbols, job.OutDir, logger, onResult, func(symbol string) Result {
		path, found, err := f.Fetch(ctx, cafef.Request{
			Symbol:      symbol,
			URLTemplate: job.URLTemplate,
			StartDate:   job.StartDate,
			EndDate:     job.EndDate,
		}, job.OutDir)
		return Result{Symbol: symbol, Found: found, Path: path, Err: err}
	})
}

// RunFundamental fetches TCBS data for symbols one by one.
func RunFundamental(ctx context.Context, f FundamentalFetcher, symbols []string, job FundamentalJob, logger *slog.Logger, onResult func(Result)) Summary {
	return run(ctx, "fundamental", symbols, job.OutDir, logger, onResult, func(symbol string) Result {
		if job.Latest {
			snap, found := f.LatestRatios(ctx, symbol, job.Yearly)
			r := Result{Symbol: symbol, Found: found}
			if found {
				r.Ratios = &snap
			}
			return r
		}
		paths, err := f.SaveFundamental(ctx, symbol, job.OutDir, job.Yearly)
		return Result{Symbol: symbol, Found: len(paths) > 0, Paths: paths, Err: err}
	})
}

func run(ctx context.Context, kind string, symbols []string, outDir string, logger *slog.Logger, onResult func(Result), fetch func(string) Result) Summary {
	logger = slogx.OrNop(logger)
	var sum Summary
	var successList []string
	var failedList []failedEntry
	defer func() {
		if len(successList) == 0 && len(failedList) == 0 {
			return
		}
		if err := writeRunReport(outDir, successList, failedList, logger); err != nil {
			logger.Warn("could not write run report", "error", err)
		}
	}()

	n := len(symbols)
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			sum.Skipped = n - i
			logger.Warn("run cancelled", "kind", kind, "skipped", sum.Skipped)
			break
		}
		logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, n, symbol), "kind", kind)
		r := fetch(symbol)
		switch {
		case r.Err != nil:
			sum.Failed++
			failedList = append(failedList, failedEntry{Symbol: symbol, Kind: kind, Reason: r.Err.Error()})
			logger.Error("crawl fail", "symbol", symbol, "kind", kind, "error", r.Err)
		case !r.Found:
			sum.Failed++
			failedList = append(failedList, failedEntry{Symbol: symbol, Kind: kind, Reason: errNoData.Error()})
			logger.Info("crawl empty", "symbol", symbol, "kind", kind)
		default:
			sum.Success++
			successList = appendSuccess(successList, symbol)
		}
		if onResult != nil {
			onResult(r)
		}
	}

	logger.Info("crawl done", "kind", kind, "success", sum.Success, "failed", sum.Failed)
	if len(failedList) > 0 {
		logger.Info("summary failed", "count", len(failedList), "reasons", joinFailedReasons(failedList))
	}
	return sum
}
