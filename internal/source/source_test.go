package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHTTPSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/assets_master.csv" {
			w.Write([]byte("ticker\nABC11\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, 0, 0)

	body, err := src.Fetch(context.Background(), "data/assets_master.csv")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "ticker\nABC11\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHTTPSourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, 0, 0)
	_, err := src.Fetch(context.Background(), "data/missing.csv")
	if err == nil {
		t.Fatal("expected error on 404")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Errorf("expected StatusError 404, got %v", err)
	}
}

func TestHTTPSourceConnectionRefused(t *testing.T) {
	src := NewHTTPSource("http://127.0.0.1:1", time.Second, 0, 0)
	if _, err := src.Fetch(context.Background(), "x.csv"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "prices.csv"), []byte("ticker,date\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(dir)
	body, err := src.Fetch(context.Background(), "data/prices.csv")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "ticker,date\n" {
		t.Errorf("unexpected body %q", body)
	}

	if _, err := src.Fetch(context.Background(), "data/absent.csv"); err == nil {
		t.Error("expected error for absent file")
	}
}

func TestS3KeyJoining(t *testing.T) {
	cases := []struct {
		prefix, name, want string
	}{
		{"", "data/assets.csv", "data/assets.csv"},
		{"static", "data/assets.csv", "static/data/assets.csv"},
		{"/static/", "/data/assets.csv", "static/data/assets.csv"},
	}
	for _, c := range cases {
		s := &S3Source{prefix: strings.Trim(c.prefix, "/")}
		if got := s.Key(c.name); got != c.want {
			t.Errorf("Key(%q, %q) = %q, want %q", c.prefix, c.name, got, c.want)
		}
	}
}
