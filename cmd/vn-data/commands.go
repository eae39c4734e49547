package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/subcommands"

	"vn-data/internal/crawl"
	"vn-data/internal/model"
	"vn-data/internal/realtime"
	"vn-data/internal/saver"
	"vn-data/internal/symbols"
)

var errNoSymbols = errors.New("provide --symbol SYMBOL or --symbols-file FILE")

// symbolSource is the --symbol / --symbols-file pair shared by the crawl commands.
type symbolSource struct {
	symbol string
	file   string
}

func (s *symbolSource) register(f *flag.FlagSet) {
	f.StringVar(&s.symbol, "symbol", "", "single symbol to fetch (e.g. VIC, ACV)")
	f.StringVar(&s.file, "symbols-file", "", "file with symbols (.txt, .json or .csv)")
}

func (s *symbolSource) set() bool { return s.symbol != "" || s.file != "" }

// load returns --symbol followed by the file's symbols when both are given.
func (s *symbolSource) load() ([]string, error) {
	if !s.set() {
		return nil, errNoSymbols
	}
	var syms []string
	if s.symbol != "" {
		syms = append(syms, s.symbol)
	}
	if s.file != "" {
		fromFile, err := symbols.LoadFromFile(s.file)
		if err != nil {
			return nil, err
		}
		syms = append(syms, fromFile...)
	}
	return symbols.Normalize(syms), nil
}

// loadFileFirst uses the file alone when one is given.
func (s *symbolSource) loadFileFirst() ([]string, error) {
	if s.file != "" {
		return symbols.LoadFromFile(s.file)
	}
	return s.load()
}

func usageError(f *flag.FlagSet, err error) subcommands.ExitStatus {
	fmt.Fprintln(f.Output(), err)
	if f.Usage != nil {
		f.Usage()
	}
	return subcommands.ExitUsageError
}

type symbolsCmd struct {
	out      io.Writer
	fromFile string
	fromURL  string
}

func (*symbolsCmd) Name() string     { return "symbols" }
func (*symbolsCmd) Synopsis() string { return "list or fetch stock symbols" }
func (*symbolsCmd) Usage() string {
	return "symbols --from-file PATH | --from-url URL\n"
}

func (c *symbolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fromFile, "from-file", "", "path to a symbols file (.txt, .json or .csv)")
	f.StringVar(&c.fromURL, "from-url", "", "URL that lists components")
}

func (c *symbolsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	var (
		syms   []string
		err    error
		source string
	)
	switch {
	case c.fromFile != "":
		source = "file"
		syms, err = symbols.LoadFromFile(c.fromFile)
	case c.fromURL != "":
		a, st := initialize()
		if a == nil {
			return st
		}
		defer a.Close()
		source = "URL"
		syms, err = symbols.FetchFromURL(ctx, a.REST, c.fromURL)
	default:
		return usageError(f, errors.New("provide --from-file PATH or --from-url URL"))
	}
	if err != nil {
		slog.Error("failed to load symbols", "source", source, "error", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "Loaded %d symbols from %s\n", len(syms), source)
	for _, s := range syms {
		fmt.Fprintln(c.out, s)
	}
	return subcommands.ExitSuccess
}

type historicalCmd struct {
	out         io.Writer
	src         symbolSource
	urlTemplate string
	outDir      string
	start       string
	end         string
	format      string
}

func (*historicalCmd) Name() string     { return "historical" }
func (*historicalCmd) Synopsis() string { return "fetch historical OHLC data from cafef" }
func (*historicalCmd) Usage() string {
	return "historical --symbol S | --symbols-file F [--url-template T] [--outdir DIR] [--start DD/MM/YYYY] [--end DD/MM/YYYY] [--format csv|json|parquet]\n"
}

func (c *historicalCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f)
	f.StringVar(&c.urlTemplate, "url-template", "", "optional HTML fallback URL containing {symbol}")
	f.StringVar(&c.outDir, "outdir", "", "output directory (default $DATA_DIR/historical)")
	f.StringVar(&c.start, "start", "", "first day, DD/MM/YYYY")
	f.StringVar(&c.end, "end", "", "last day, DD/MM/YYYY")
	f.StringVar(&c.format, "format", "", "csv, json or parquet (default $SAVE_FORMAT)")
}

func (c *historicalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !c.src.set() {
		return usageError(f, errNoSymbols)
	}
	var ps saver.PacketSaver
	if c.format != "" {
		if ps = saver.NewPacketSaver(c.format); ps == nil {
			return usageError(f, fmt.Errorf("unsupported format %q", c.format))
		}
	}
	syms, err := c.src.load()
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		return subcommands.ExitFailure
	}

	a, st := initialize()
	if a == nil {
		return st
	}
	defer a.Close()
	if ps != nil {
		a.Historical.SetPacketSaver(ps)
	}
	outDir := c.outDir
	if outDir == "" {
		outDir = a.Config.HistoricalDir()
	}

	job := crawl.HistoricalJob{URLTemplate: c.urlTemplate, StartDate: c.start, EndDate: c.end, OutDir: outDir}
	crawl.RunHistorical(ctx, a.Historical, syms, job, a.Logger, func(r crawl.Result) {
		printHistorical(c.out, r)
	})
	return subcommands.ExitSuccess
}

func printHistorical(w io.Writer, r crawl.Result) {
	switch {
	case r.Err != nil:
		fmt.Fprintf(w, "Error fetching historical for %s: %v\n", r.Symbol, r.Err)
	case r.Found:
		fmt.Fprintf(w, "Saved historical for %s -> %s\n", r.Symbol, r.Path)
	default:
		fmt.Fprintf(w, "No historical data found for %s\n", r.Symbol)
	}
}

type fundamentalCmd struct {
	out       io.Writer
	src       symbolSource
	outDir    string
	latest    bool
	quarterly bool
}

func (*fundamentalCmd) Name() string { return "fundamental" }
func (*fundamentalCmd) Synopsis() string {
	return "fetch fundamental data (P/E, ROE, EPS, ...) from TCBS"
}
func (*fundamentalCmd) Usage() string {
	return "fundamental --symbol S | --symbols-file F [--outdir DIR] [--latest] [--quarterly]\n"
}

func (c *fundamentalCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f)
	f.StringVar(&c.outDir, "outdir", "", "output directory (default $DATA_DIR/fundamental)")
	f.BoolVar(&c.latest, "latest", false, "only print the latest ratios, do not write CSV")
	f.BoolVar(&c.quarterly, "quarterly", false, "quarterly instead of yearly reports")
}

func (c *fundamentalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !c.src.set() {
		return usageError(f, errNoSymbols)
	}
	syms, err := c.src.load()
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		return subcommands.ExitFailure
	}

	a, st := initialize()
	if a == nil {
		return st
	}
	defer a.Close()
	outDir := c.outDir
	if outDir == "" {
		outDir = a.Config.FundamentalDir()
	}

	job := crawl.FundamentalJob{OutDir: outDir, Yearly: !c.quarterly, Latest: c.latest}
	crawl.RunFundamental(ctx, a.Fundamental, syms, job, a.Logger, func(r crawl.Result) {
		printFundamental(c.out, r)
	})
	return subcommands.ExitSuccess
}

func printFundamental(w io.Writer, r crawl.Result) {
	switch {
	case r.Err != nil:
		fmt.Fprintf(w, "Error fetching fundamental for %s: %v\n", r.Symbol, r.Err)
	case !r.Found:
		fmt.Fprintf(w, "No fundamental data found for %s\n", r.Symbol)
	case r.Ratios != nil:
		fmt.Fprintf(w, "\n=== %s Latest Ratios ===\n", r.Symbol)
		for _, fld := range r.Ratios.Fields() {
			fmt.Fprintf(w, "  %s: %s\n", fld.Name, model.FormatValue(fld.Value))
		}
	default:
		fmt.Fprintf(w, "Saved fundamental for %s:\n", r.Symbol)
		for _, cat := range model.Categories {
			if p, ok := r.Paths[cat]; ok {
				fmt.Fprintf(w, "  %s -> %s\n", cat, p)
			}
		}
	}
}

type realtimeCmd struct {
	src         symbolSource
	urlTemplate string
	interval    int
	iterations  int
	outDir      string
	selector    string
}

func (*realtimeCmd) Name() string     { return "realtime" }
func (*realtimeCmd) Synopsis() string { return "poll realtime prices" }
func (*realtimeCmd) Usage() string {
	return "realtime --symbol S | --symbols-file F --url-template T [--interval 60] [--iterations N] [--outdir DIR] [--selector CSS]\n"
}

func (c *realtimeCmd) SetFlags(f *flag.FlagSet) {
	c.src.register(f)
	f.StringVar(&c.urlTemplate, "url-template", "", "quote URL containing {symbol} (required)")
	f.IntVar(&c.interval, "interval", int(realtime.DefaultInterval/time.Second), "seconds between polls")
	f.IntVar(&c.iterations, "iterations", 0, "stop after N cycles, 0 = until interrupted")
	f.StringVar(&c.outDir, "outdir", "", "output directory (default $DATA_DIR/realtime)")
	f.StringVar(&c.selector, "selector", realtime.DefaultSelector, "CSS selector of the price on HTML pages")
}

func (c *realtimeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if !c.src.set() {
		return usageError(f, errNoSymbols)
	}
	if c.urlTemplate == "" {
		return usageError(f, errors.New("--url-template is required"))
	}
	if c.interval < 0 || c.iterations < 0 {
		return usageError(f, errors.New("--interval and --iterations must not be negative"))
	}
	if c.interval == 0 && c.iterations == 0 {
		return usageError(f, errors.New("--interval 0 needs a bounded --iterations"))
	}
	syms, err := c.src.loadFileFirst()
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		return subcommands.ExitFailure
	}

	a, st := initialize()
	if a == nil {
		return st
	}
	defer a.Close()

	opts := a.Realtime
	opts.URLTemplate = c.urlTemplate
	opts.Interval = time.Duration(c.interval) * time.Second
	opts.Iterations = c.iterations
	opts.Selector = strings.TrimSpace(c.selector)
	if c.outDir != "" {
		opts.OutDir = c.outDir
	}
	cycles := realtime.NewPoller(opts, a.Logger.With("provider", "realtime")).Run(ctx, syms)
	slog.Info("realtime stopped", "cycles", cycles, "outdir", opts.OutDir)
	return subcommands.ExitSuccess
}
