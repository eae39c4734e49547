package symbols

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"vn-data/internal/provider"
)

// tickerPattern matches HOSE/HNX/UPCOM tickers (three characters, letter first).
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{2}$`)

// LoadFromFile reads a list of symbols from a file.
// Supported formats:
//   - .txt  : one symbol per line, '#' lines are treated as comments
//   - .json : JSON array of strings
//   - .csv  : first column; a header row is skipped when it is not ticker-shaped
func LoadFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var syms []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &syms); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".csv":
		syms, err = parseCSV(content)
		if err != nil {
			return nil, err
		}
	case ".txt", "":
		syms = parseText(string(content))
	default:
		return nil, fmt.Errorf("unsupported symbols file extension %q (use .txt, .json or .csv)", filepath.Ext(path))
	}

	out := Normalize(syms)
	slog.Debug("loaded symbols from file", "count", len(out), "path", path)
	return out, nil
}

// parseText parses one symbol per non-empty, non-comment line.
func parseText(s string) []string {
	var syms []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			syms = append(syms, line)
		}
	}
	return syms
}

func parseCSV(content []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	var syms []string
	for i, rec := range records {
		if len(rec) == 0 {
			continue
		}
		v := strings.ToUpper(strings.TrimSpace(rec[0]))
		if i == 0 && !tickerPattern.MatchString(v) {
			continue
		}
		syms = append(syms, v)
	}
	return syms, nil
}

// Normalize trims, uppercases and removes empty and duplicate symbols,
// keeping first-seen order.
func Normalize(syms []string) []string {
	seen := make(map[string]bool, len(syms))
	out := make([]string, 0, len(syms))
	for _, s := range syms {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FetchFromURL loads symbols from a URL. JSON arrays of strings or of objects
// carrying Symbol/symbol/ticker are accepted; anything else is parsed as HTML
// and ticker-shaped link and cell texts are collected.
func FetchFromURL(ctx context.Context, rest *resty.Client, url string) ([]string, error) {
	resp, err := rest.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if err := provider.CheckResponse(resp); err != nil {
		return nil, err
	}
	body := bytes.TrimSpace(resp.Body())
	if bytes.HasPrefix(body, []byte("[")) {
		return parseJSONList(body)
	}
	return parseHTML(body)
}

func parseJSONList(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	var syms []string
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			syms = append(syms, s)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		for _, k := range []string{"Symbol", "symbol", "ticker", "Ticker"} {
			if v, ok := obj[k].(string); ok {
				syms = append(syms, v)
				break
			}
		}
	}
	return Normalize(syms), nil
}

func parseHTML(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var syms []string
	doc.Find("a, td").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "td" && s.Find("a").Length() > 0 {
			// the link inside is visited on its own
			return
		}
		text := strings.TrimSpace(s.Text())
		if tickerPattern.MatchString(text) {
			syms = append(syms, text)
		}
	})
	return Normalize(syms), nil
}
