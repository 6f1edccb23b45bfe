package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/packd-dev/packd/internal/browser"
	"github.com/packd-dev/packd/internal/bundler"
	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
	"github.com/packd-dev/packd/internal/ports"
	"github.com/packd-dev/packd/internal/settings"
)

const (
	// BindAddress is the fixed address the dev server binds to.
	BindAddress = "0.0.0.0"

	// DefaultPort is the default dev server port.
	DefaultPort = config.DefaultPort
)

// DevServer is the long-lived process component serving bundler output.
type DevServer interface {
	Listen(ctx context.Context, host string, port int) error
	Close(ctx context.Context) error
}

// Factory constructs a DevServer for a bundler configuration.
type Factory func(cfg *bundler.Config, environment *env.Environment) (DevServer, error)

// Handle describes the running dev server.
type Handle struct {
	URL      string
	Server   DevServer
	Port     int
	Protocol string
	Host     string
}

// StartOptions configure a Start call.
type StartOptions struct {
	// Env carries the environment derivation inputs.
	Env env.Options

	// PreferredPort overrides the manifest's preferred port when > 0.
	PreferredPort int

	// OnReady is invoked once after the bind attempt, with the bind
	// error if there was one.
	OnReady func(err error)
}

// Lifecycle owns the single dev-server instance for the process. The state
// cell lives in the struct, not at package level, so tests can run
// independent lifecycles. Start and Stop are serialized by a mutex; callers
// still should not start servers from concurrent goroutines, since the
// second call's no-op answer may describe a server that is mid-start.
type Lifecycle struct {
	mu     sync.Mutex
	handle *Handle

	store      settings.Store
	allocator  *ports.Allocator
	loadConfig func(projectRoot string) (*config.Config, error)
	factory    bundler.Factory
	newServer  Factory
	opener     browser.Opener
	lanHost    func() string
}

// Deps are the collaborators a Lifecycle needs. Zero fields get defaults.
type Deps struct {
	Store      settings.Store
	Allocator  *ports.Allocator
	LoadConfig func(projectRoot string) (*config.Config, error)
	Factory    bundler.Factory
	NewServer  Factory
	Opener     browser.Opener
	LANHost    func() string
}

// New creates a stopped Lifecycle.
func New(deps Deps) *Lifecycle {
	if deps.Store == nil {
		deps.Store = settings.NewFileStore()
	}
	if deps.Allocator == nil {
		deps.Allocator = ports.NewAllocator(nil)
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = config.Load
	}
	if deps.Factory == nil {
		deps.Factory = bundler.DefaultFactory
	}
	if deps.NewServer == nil {
		deps.NewServer = func(cfg *bundler.Config, environment *env.Environment) (DevServer, error) {
			return NewHTTPDevServer(bundler.NewExecEngine(), cfg), nil
		}
	}
	if deps.Opener == nil {
		deps.Opener = browser.SystemOpener{}
	}
	if deps.LANHost == nil {
		deps.LANHost = LANAddress
	}

	return &Lifecycle{
		store:      deps.Store,
		allocator:  deps.Allocator,
		loadConfig: deps.LoadConfig,
		factory:    deps.Factory,
		newServer:  deps.NewServer,
		opener:     deps.Opener,
		lanHost:    deps.LANHost,
	}
}

// Start derives the build environment, allocates a port, and brings up the
// dev server. When a server is already running it logs and returns a nil
// handle without touching the existing one: a deliberate no-op rather than
// an error, to avoid double-binding ports.
func (l *Lifecycle) Start(ctx context.Context, projectRoot string, opts StartOptions) (*Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != nil {
		l.logError("Dev server is already running at %s", l.handle.URL)
		return nil, nil
	}

	cfg, err := l.loadConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	environment, err := env.Derive(l.store, projectRoot, opts.Env)
	if err != nil {
		return nil, err
	}

	preferred := opts.PreferredPort
	if preferred <= 0 {
		preferred = cfg.Dev.Port
	}
	if preferred <= 0 {
		preferred = DefaultPort
	}

	port, err := l.allocator.Allocate(ctx, BindAddress, preferred)
	if err != nil {
		return nil, err
	}

	bundlerCfg, err := l.factory(cfg, environment)
	if err != nil {
		return nil, err
	}

	server, err := l.newServer(bundlerCfg, environment)
	if err != nil {
		return nil, err
	}

	listenErr := server.Listen(ctx, BindAddress, port)
	if listenErr != nil {
		// The server object exists even when the bind failed; the
		// collaborator contract keeps it alive, so the lifecycle
		// still transitions to running and Stop cleans it up.
		l.logError("Failed to bind %s:%d: %v", BindAddress, port, listenErr)
	}
	if opts.OnReady != nil {
		opts.OnReady(listenErr)
	}

	if err := l.store.Set(projectRoot, settings.Settings{ServerPort: settings.Int(port)}); err != nil {
		l.logError("Failed to persist server port: %v", err)
	}

	host := l.lanHost()
	handle := &Handle{
		URL:      composeURL(environment.Protocol(), host, port),
		Server:   server,
		Port:     port,
		Protocol: environment.Protocol(),
		Host:     host,
	}
	l.handle = handle

	l.log("Dev server running at %s", handle.URL)
	return handle, nil
}

// Stop closes the running server and clears the persisted port. Safe to
// call when already stopped, and safe to call repeatedly.
func (l *Lifecycle) Stop(ctx context.Context, projectRoot string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == nil {
		return nil
	}

	err := l.handle.Server.Close(ctx)
	l.handle = nil

	if clearErr := l.store.ClearServerPort(projectRoot); clearErr != nil {
		l.logError("Failed to clear persisted server port: %v", clearErr)
	}

	return err
}

// GetServer returns the current handle, or nil when stopped.
func (l *Lifecycle) GetServer(projectRoot string) *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == nil {
		l.log("Dev server is not running for %s", projectRoot)
		return nil
	}
	return l.handle
}

// GetURL returns the current dev server URL, or "" when stopped. The
// protocol is re-read from persisted settings rather than cached, so a
// settings change between calls is reflected.
func (l *Lifecycle) GetURL(projectRoot string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == nil {
		return ""
	}

	protocol := l.handle.Protocol
	if view, err := l.store.Read(projectRoot); err == nil {
		protocol = "http"
		if view.HTTPS {
			protocol = "https"
		}
	}

	return composeURL(protocol, l.handle.Host, l.handle.Port)
}

// Open ensures the server is running, then opens its URL in the system
// browser.
func (l *Lifecycle) Open(ctx context.Context, projectRoot string, opts StartOptions) error {
	if l.GetServer(projectRoot) == nil {
		if _, err := l.Start(ctx, projectRoot, opts); err != nil {
			return err
		}
	}

	url := l.GetURL(projectRoot)
	if url == "" {
		return nil
	}
	return l.opener.Open(url)
}

// composeURL builds a dev server URL.
func composeURL(protocol, host string, port int) string {
	return protocol + "://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// log logs a timestamped message.
func (l *Lifecycle) log(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// logError logs a timestamped error message.
func (l *Lifecycle) logError(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "[%s] %s%s%s\n", timestamp, "\033[31m", fmt.Sprintf(format, args...), "\033[0m")
}
