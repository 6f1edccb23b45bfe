package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/packd-dev/packd/internal/bundler"
)

type noopEngine struct{}

func (noopEngine) Compile(ctx context.Context, cfg *bundler.Config) (*bundler.Stats, error) {
	return &bundler.Stats{}, nil
}

func TestHTTPDevServerServesOutput(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "index.html"), []byte("<h1>hi</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewHTTPDevServer(noopEngine{}, &bundler.Config{OutputDir: out})
	if err := srv.Listen(ctx, "127.0.0.1", 0); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer srv.Close(context.Background())

	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/index.html")
	if err != nil {
		t.Fatalf("GET index.html: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "<h1>hi</h1>" {
		t.Errorf("GET index.html = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", resp.StatusCode)
	}
}

func TestHTTPDevServerBindFailure(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()

	first := NewHTTPDevServer(noopEngine{}, &bundler.Config{OutputDir: out})
	if err := first.Listen(ctx, "127.0.0.1", 0); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer first.Close(ctx)

	_, portStr, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}

	second := NewHTTPDevServer(noopEngine{}, &bundler.Config{OutputDir: out})
	if err := second.Listen(ctx, "127.0.0.1", port); err == nil {
		second.Close(ctx)
		t.Fatal("second Listen() succeeded on an occupied port")
	} else if !strings.Contains(err.Error(), "E131") {
		t.Errorf("expected E131, got: %v", err)
	}
}
