package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packd-dev/packd/internal/bundler"
	"github.com/packd-dev/packd/internal/errors"
)

// HTTPDevServer is the reference DevServer: it compiles the project with
// the injected engine and serves the output directory over HTTP, with a
// hot-reload WebSocket channel and a Prometheus metrics endpoint.
type HTTPDevServer struct {
	engine     bundler.Engine
	cfg        *bundler.Config
	reload     *ReloadServer
	metrics    *Metrics
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPDevServer creates a dev server over the given engine and bundler
// configuration.
func NewHTTPDevServer(engine bundler.Engine, cfg *bundler.Config) *HTTPDevServer {
	return &HTTPDevServer{
		engine:  engine,
		cfg:     cfg,
		reload:  NewReloadServer(),
		metrics: NewMetrics(),
	}
}

// Listen binds the server and starts serving in the background. The bind
// error, if any, is returned synchronously.
func (s *HTTPDevServer) Listen(ctx context.Context, host string, port int) error {
	// Initial compile so the first request sees output.
	s.compileOnce(ctx)

	// Rebuild-on-change when the engine supports watching.
	if watcher, ok := s.engine.(bundler.WatchEngine); ok {
		go s.watch(ctx, watcher)
	}

	router := chi.NewRouter()
	router.Get("/_packd/reload", s.reload.HandleWebSocket)
	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	router.Handle("/*", http.FileServer(http.Dir(s.cfg.OutputDir)))

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.New("E131").
			WithDetail("Could not bind " + addr + ": " + err.Error()).
			WithSuggestion("Is another server already listening on this port?").
			Wrap(err)
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: router}

	go func() {
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logError("Dev server stopped: %v", serveErr)
		}
	}()

	return nil
}

// Close shuts the server down, awaiting in-flight requests briefly.
func (s *HTTPDevServer) Close(ctx context.Context) error {
	s.reload.Close()

	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Addr returns the bound address, or "" before Listen.
func (s *HTTPDevServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// compileOnce runs a single compile pass and pushes the outcome to
// connected clients.
func (s *HTTPDevServer) compileOnce(ctx context.Context) {
	start := time.Now()
	stats, err := s.engine.Compile(ctx, s.cfg)
	s.handleBuild(stats, err, time.Since(start))
}

// watch subscribes to engine rebuilds until the context ends.
func (s *HTTPDevServer) watch(ctx context.Context, watcher bundler.WatchEngine) {
	err := watcher.Watch(ctx, s.cfg, func(stats *bundler.Stats, buildErr error) {
		s.handleBuild(stats, buildErr, 0)
	})
	if err != nil && ctx.Err() == nil {
		s.logError("Bundler watch failed: %v", err)
	}
}

// handleBuild classifies one rebuild and notifies clients. A failing
// rebuild is reported through the reload channel; it never terminates the
// server.
func (s *HTTPDevServer) handleBuild(stats *bundler.Stats, err error, elapsed time.Duration) {
	failed := err != nil || stats.HasErrors()
	if elapsed > 0 {
		s.metrics.RecordBuild(elapsed.Seconds(), failed)
	}
	s.metrics.SetReloadClients(s.reload.ClientCount())

	switch {
	case err != nil:
		s.logError("Compile failed: %v", err)
		s.reload.NotifyError(err.Error())
	case stats.HasErrors():
		s.logError("Compile failed:\n%s", strings.Join(stats.Errors, "\n"))
		s.reload.NotifyError(strings.Join(stats.Errors, "\n"))
	default:
		if stats.HasWarnings() {
			s.log("Compiled with %d warning(s)", len(stats.Warnings))
		} else if elapsed > 0 {
			s.log("Compiled in %s", elapsed.Round(time.Millisecond))
		}
		s.reload.ClearError()
		s.reload.NotifyReload()
	}
}

// log logs a timestamped message.
func (s *HTTPDevServer) log(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// logError logs a timestamped error message.
func (s *HTTPDevServer) logError(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "[%s] %s%s%s\n", timestamp, "\033[31m", fmt.Sprintf(format, args...), "\033[0m")
}
