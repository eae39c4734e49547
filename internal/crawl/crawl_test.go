package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vn-data/internal/model"
	"vn-data/internal/provider/cafef"
)

type fakeHistorical struct {
	calls []cafef.Request
	data  map[string]bool
	errs  map[string]error
}

func (f *fakeHistorical) Fetch(_ context.Context, req cafef.Request, outDir string) (string, bool, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Symbol]; err != nil {
		return "", true, err
	}
	if !f.data[req.Symbol] {
		return "", false, nil
	}
	return filepath.Join(outDir, req.Symbol+"_ohlc.csv"), true, nil
}

type fakeFundamental struct {
	saved  []string
	latest []string
}

func (f *fakeFundamental) SaveFundamental(_ context.Context, symbol, outDir string, yearly bool) (map[string]string, error) {
	f.saved = append(f.saved, symbol)
	if symbol == "ACV" {
		return map[string]string{"overview": filepath.Join(outDir, symbol, "overview.csv")}, nil
	}
	return map[string]string{}, nil
}

func (f *fakeFundamental) LatestRatios(_ context.Context, symbol string, yearly bool) (model.RatioSnapshot, bool) {
	f.latest = append(f.latest, symbol)
	if symbol != "ACV" {
		return model.RatioSnapshot{}, false
	}
	pe := 12.5
	return model.RatioSnapshot{Symbol: symbol, PE: &pe}, true
}

func readReport[T any](t *testing.T, path string) T {
	t.Helper()
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return v
}

func TestRunHistorical(t *testing.T) {
	dir := t.TempDir()
	f := &fakeHistorical{
		data: map[string]bool{"VIC": true, "FPT": true},
		errs: map[string]error{"HPG": errors.New("disk full")},
	}
	var results []Result
	job := HistoricalJob{URLTemplate: "https://x/{symbol}", StartDate: "01/01/2024", OutDir: dir}
	sum := RunHistorical(context.Background(), f, []string{"VIC", "HPG", "XYZ", "FPT"}, job, nil, func(r Result) {
		results = append(results, r)
	})

	if sum.Success != 2 || sum.Failed != 2 || sum.Skipped != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(f.calls) != 4 {
		t.Fatalf("fetch called %d times, want 4", len(f.calls))
	}
	if f.calls[0].URLTemplate != job.URLTemplate || f.calls[0].StartDate != "01/01/2024" {
		t.Errorf("request = %+v", f.calls[0])
	}
	if len(results) != 4 || results[0].Path != filepath.Join(dir, "VIC_ohlc.csv") {
		t.Errorf("results = %+v", results)
	}

	success := readReport[[]string](t, filepath.Join(dir, successReport))
	if strings.Join(success, ",") != "VIC,FPT" {
		t.Errorf("success report = %v", success)
	}
	failed := readReport[[]failedEntry](t, filepath.Join(dir, failedReport))
	want := []failedEntry{
		{Symbol: "HPG", Kind: "historical", Reason: "disk full"},
		{Symbol: "XYZ", Kind: "historical", Reason: "no data"},
	}
	if len(failed) != len(want) {
		t.Fatalf("failed report = %v", failed)
	}
	for i := range want {
		if failed[i] != want[i] {
			t.Errorf("failed[%d] = %+v, want %+v", i, failed[i], want[i])
		}
	}
}

func TestRunHistoricalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeHistorical{data: map[string]bool{"VIC": true}}
	sum := RunHistorical(ctx, f, []string{"VIC", "ACV", "FPT"}, HistoricalJob{OutDir: t.TempDir()}, nil, func(Result) {
		cancel()
	})
	if len(f.calls) != 1 {
		t.Errorf("fetch called %d times, want 1", len(f.calls))
	}
	if sum.Success != 1 || sum.Skipped != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunFundamental(t *testing.T) {
	tests := []struct {
		name       string
		latest     bool
		wantSaved  int
		wantLatest int
	}{
		{"save", false, 2, 0},
		{"latest", true, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFundamental{}
			var got []Result
			sum := RunFundamental(context.Background(), f, []string{"ACV", "ZZZ"},
				FundamentalJob{OutDir: t.TempDir(), Yearly: true, Latest: tt.latest}, nil,
				func(r Result) { got = append(got, r) })
			if len(f.saved) != tt.wantSaved || len(f.latest) != tt.wantLatest {
				t.Errorf("saved=%v latest=%v", f.saved, f.latest)
			}
			if sum.Success != 1 || sum.Failed != 1 {
				t.Errorf("summary = %+v", sum)
			}
			if !got[0].Found || got[1].Found {
				t.Errorf("found flags = %v, %v", got[0].Found, got[1].Found)
			}
			if tt.latest && (got[0].Ratios == nil || *got[0].Ratios.PE != 12.5) {
				t.Errorf("ratios = %+v", got[0].Ratios)
			}
			if !tt.latest && got[0].Paths["overview"] == "" {
				t.Errorf("paths = %v", got[0].Paths)
			}
		})
	}
}

func TestJoinFailedReasons(t *testing.T) {
	var many []failedEntry
	for _, s := range []string{"A01", "A02", "A03", "A04", "A05", "A06", "A07"} {
		many = append(many, failedEntry{Symbol: s, Reason: "no data"})
	}
	tests := []struct {
		name string
		in   []failedEntry
		want string
	}{
		{"empty", nil, ""},
		{"one", many[:1], "A01: no data"},
		{"five", many[:5], "A01: no data; A02: no data; A03: no data; A04: no data; A05: no data"},
		{"six", many[:6], "A01: no data; A02: no data; A03: no data; A04: no data; A05: no data (+1 more)"},
		{"truncated", many, "A01: no data; A02: no data; A03: no data; A04: no data; A05: no data (+2 more)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinFailedReasons(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
