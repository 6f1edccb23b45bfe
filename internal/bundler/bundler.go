// Package bundler defines the boundary to the external bundling engine.
//
// The engine itself is opaque: packd hands it a configuration assembled
// from the derived build environment and receives compile stats (or an
// error) back. Everything here is an interface so tests and embedders can
// substitute fakes.
package bundler

import (
	"context"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
)

// Stats is the outcome of one compile pass.
type Stats struct {
	Errors   []string
	Warnings []string
}

// HasErrors reports whether the pass produced errors.
func (s *Stats) HasErrors() bool {
	return s != nil && len(s.Errors) > 0
}

// HasWarnings reports whether the pass produced warnings.
func (s *Stats) HasWarnings() bool {
	return s != nil && len(s.Warnings) > 0
}

// Config is the bundler-ready configuration object. Values carries the
// flattened build environment; the remaining fields tell the engine how
// and where to run.
type Config struct {
	// Command is the bundler executable.
	Command string

	// Args are arguments passed to the executable.
	Args []string

	// WorkDir is the project root the engine runs in.
	WorkDir string

	// SourceDir is the entry directory.
	SourceDir string

	// OutputDir receives the compiled assets.
	OutputDir string

	// Values is the flattened build environment, overrides included.
	Values map[string]any
}

// Factory turns an environment descriptor into a bundler configuration.
type Factory func(cfg *config.Config, environment *env.Environment) (*Config, error)

// Engine runs one compile pass to completion.
type Engine interface {
	Compile(ctx context.Context, cfg *Config) (*Stats, error)
}

// WatchEngine additionally supports dev-server mode: callback invoked on
// every rebuild until the context is cancelled.
type WatchEngine interface {
	Engine
	Watch(ctx context.Context, cfg *Config, onBuild func(*Stats, error)) error
}

// DefaultFactory assembles a Config from the project manifest and the
// derived environment.
func DefaultFactory(cfg *config.Config, environment *env.Environment) (*Config, error) {
	return &Config{
		Command:   cfg.Bundler.Command,
		Args:      cfg.Bundler.Args,
		WorkDir:   environment.ProjectRoot,
		SourceDir: cfg.SourcePath(),
		OutputDir: cfg.OutputPath(),
		Values:    environment.Values(),
	}, nil
}
