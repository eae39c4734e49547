package symbols

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vn-data/internal/provider"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"txt", "vn30.txt", "# VN30\nvic\n  ACV \n\nVIC\nfpt\n", "VIC,ACV,FPT"},
		{"json", "list.json", `["hpg", "VNM", "hpg"]`, "HPG,VNM"},
		{"csv with header", "list.csv", "symbol,name\nMWG,Thế Giới Di Động\nSSI,Chứng khoán SSI\n", "MWG,SSI"},
		{"csv without header", "list.csv", "MWG,x\nSSI,y\n", "MWG,SSI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFromFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(writeFile(t, "list.xlsx", "x")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestFetchFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			_, _ = w.Write([]byte(`[{"Symbol":"vic"},{"ticker":"ACV"},"fpt",{"other":1}]`))
		case "/html":
			_, _ = w.Write([]byte(`<table><tr><td><a href="/VIC">VIC</a></td><td>Vingroup</td></tr>
<tr><td>HPG</td><td>12,500</td></tr><tr><td><a>VIC</a></td></tr></table>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	rest := provider.NewRESTClient(provider.ClientOptions{})

	tests := []struct {
		path string
		want string
	}{
		{"/json", "VIC,ACV,FPT"},
		{"/html", "VIC,HPG"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FetchFromURL(context.Background(), rest, srv.URL+tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}

	if _, err := FetchFromURL(context.Background(), rest, srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
}
