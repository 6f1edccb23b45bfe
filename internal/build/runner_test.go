package build

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/packd-dev/packd/internal/bundler"
	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
	"github.com/packd-dev/packd/internal/settings"
)

type stubEngine struct {
	stats *bundler.Stats
	err   error
	calls int
}

func (e *stubEngine) Compile(ctx context.Context, cfg *bundler.Config) (*bundler.Stats, error) {
	e.calls++
	return e.stats, e.err
}

// emptyError has no message, which the runner must propagate untouched.
type emptyError struct{}

func (emptyError) Error() string { return "" }

func testRunner(engine *stubEngine, ci string) *Runner {
	return NewRunner(Deps{
		Engine: engine,
		LoadConfig: func(projectRoot string) (*config.Config, error) {
			return config.New(), nil
		},
		CILookup: func() string { return ci },
	})
}

func TestRunCleanSuccess(t *testing.T) {
	engine := &stubEngine{stats: &bundler.Stats{}}
	r := testRunner(engine, "")

	result, err := r.Run(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result == nil || result.Stats == nil {
		t.Fatal("Run() returned nil result")
	}
	if engine.calls != 1 {
		t.Errorf("engine compiled %d times, want 1", engine.calls)
	}
}

func TestRunFirstErrorOnly(t *testing.T) {
	engine := &stubEngine{stats: &bundler.Stats{
		Errors: []string{"src/app.js:3:1: unexpected token", "src/app.js:9:1: cascade"},
	}}
	r := testRunner(engine, "")

	_, err := r.Run(context.Background(), t.TempDir(), Options{})
	if err == nil {
		t.Fatal("Run() succeeded, want build failure")
	}
	if !strings.Contains(err.Error(), "E110") {
		t.Errorf("expected E110, got: %v", err)
	}
	if !strings.Contains(err.Error(), "unexpected token") {
		t.Errorf("first error missing from %v", err)
	}
	if strings.Contains(err.Error(), "cascade") {
		t.Errorf("second error should be discarded, got: %v", err)
	}
}

func TestRunWarningsPassWithoutCI(t *testing.T) {
	engine := &stubEngine{stats: &bundler.Stats{Warnings: []string{"unused import"}}}
	r := testRunner(engine, "")

	if _, err := r.Run(context.Background(), t.TempDir(), Options{}); err != nil {
		t.Fatalf("Run() error = %v, want success with warnings", err)
	}
}

func TestRunWarningsFailOnCI(t *testing.T) {
	engine := &stubEngine{stats: &bundler.Stats{Warnings: []string{"unused import"}}}
	r := testRunner(engine, "true")

	_, err := r.Run(context.Background(), t.TempDir(), Options{})
	if err == nil {
		t.Fatal("Run() succeeded on CI with warnings, want failure")
	}
	if !strings.Contains(err.Error(), "E111") {
		t.Errorf("expected E111, got: %v", err)
	}
}

func TestRunEmptyEngineErrorPropagatesRaw(t *testing.T) {
	raw := emptyError{}
	engine := &stubEngine{err: raw}
	r := testRunner(engine, "")

	_, err := r.Run(context.Background(), t.TempDir(), Options{})
	if !errors.Is(err, raw) {
		t.Fatalf("Run() error = %#v, want the raw engine error", err)
	}
	if strings.Contains(err.Error(), "E110") {
		t.Errorf("empty-message error must not be decorated, got: %v", err)
	}
}

func TestRunEngineErrorWithMessage(t *testing.T) {
	engine := &stubEngine{err: errors.New("bundler crashed")}
	r := testRunner(engine, "")

	_, err := r.Run(context.Background(), t.TempDir(), Options{})
	if err == nil {
		t.Fatal("Run() succeeded, want failure")
	}
	if !strings.Contains(err.Error(), "E110") {
		t.Errorf("expected E110, got: %v", err)
	}
	if !strings.Contains(err.Error(), "bundler crashed") {
		t.Errorf("engine message missing from %v", err)
	}
}

func TestRunDerivesProductionEnvironment(t *testing.T) {
	store := settings.NewFileStore()
	engine := &stubEngine{stats: &bundler.Stats{}}
	r := NewRunner(Deps{
		Store:  store,
		Engine: engine,
		LoadConfig: func(projectRoot string) (*config.Config, error) {
			return config.New(), nil
		},
		Factory: func(cfg *config.Config, environment *env.Environment) (*bundler.Config, error) {
			if environment.Mode != env.ModeProduction {
				t.Errorf("Mode = %q, want production", environment.Mode)
			}
			if environment.Development {
				t.Error("Development = true, want false")
			}
			return bundler.DefaultFactory(cfg, environment)
		},
		CILookup: func() string { return "" },
	})

	_, err := r.Run(context.Background(), t.TempDir(), Options{
		Env: env.Options{Mode: env.ModeProduction},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunDoesNotPersistBuildMode(t *testing.T) {
	root := t.TempDir()
	store := settings.NewFileStore()
	r := NewRunner(Deps{
		Store:  store,
		Engine: &stubEngine{stats: &bundler.Stats{}},
		LoadConfig: func(projectRoot string) (*config.Config, error) {
			return config.New(), nil
		},
		CILookup: func() string { return "" },
	})

	_, err := r.Run(context.Background(), root, Options{
		Env: env.Options{Mode: env.ModeProduction},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// A later flagless derivation for the same root must still come up
	// in development mode.
	environment, err := env.Derive(store, root, env.Options{})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if environment.Mode != env.ModeDevelopment {
		t.Errorf("Mode after build = %q, want development", environment.Mode)
	}
	if !environment.Development {
		t.Error("Development = false after a production build")
	}
}

func TestCIEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"FALSE", false},
		{"False", false},
		{"true", true},
		{"1", true},
		{"yes", true},
	}
	for _, tt := range tests {
		if got := ciEnabled(tt.value); got != tt.want {
			t.Errorf("ciEnabled(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
