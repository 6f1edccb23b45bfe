package build

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/packd-dev/packd/internal/bundler"
	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
	"github.com/packd-dev/packd/internal/errors"
	"github.com/packd-dev/packd/internal/settings"
)

const tracerName = "packd/build"

// ciEnvVar is the variable consulted for CI detection.
const ciEnvVar = "CI"

// Result contains the build output.
type Result struct {
	// Duration is how long the compile pass took.
	Duration time.Duration

	// Stats is the engine's compile outcome.
	Stats *bundler.Stats
}

// Options configures a one-shot build.
type Options struct {
	// Env carries the environment derivation inputs.
	Env env.Options

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Deps are the collaborators a Runner needs. Zero fields get defaults.
type Deps struct {
	Store      settings.Store
	Engine     bundler.Engine
	Factory    bundler.Factory
	LoadConfig func(projectRoot string) (*config.Config, error)

	// CILookup overrides CI detection. Nil reads the CI variable from
	// the process environment.
	CILookup func() string
}

// Runner performs one-shot builds. The runner never touches the dev-server
// lifecycle: each Run is a single compile pass, classified and returned.
type Runner struct {
	store      settings.Store
	engine     bundler.Engine
	factory    bundler.Factory
	loadConfig func(projectRoot string) (*config.Config, error)
	ciLookup   func() string
}

// NewRunner creates a runner. The engine is required; everything else
// defaults.
func NewRunner(deps Deps) *Runner {
	if deps.Store == nil {
		deps.Store = settings.NewFileStore()
	}
	if deps.Engine == nil {
		deps.Engine = bundler.NewExecEngine()
	}
	if deps.Factory == nil {
		deps.Factory = bundler.DefaultFactory
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = config.Load
	}
	if deps.CILookup == nil {
		deps.CILookup = func() string { return os.Getenv(ciEnvVar) }
	}
	return &Runner{
		store:      deps.Store,
		engine:     deps.Engine,
		factory:    deps.Factory,
		loadConfig: deps.LoadConfig,
		ciLookup:   deps.CILookup,
	}
}

// Run derives the build environment, compiles exactly once, and classifies
// the outcome:
//
//  1. An engine error with no message propagates unchanged.
//  2. Compile errors fail the build with the first error only; later
//     errors are usually cascades of the first.
//  3. On CI, warnings escalate to a failure.
//  4. Otherwise warnings are printed and the build succeeds.
func (r *Runner) Run(ctx context.Context, projectRoot string, opts Options) (*Result, error) {
	progress(opts, "Loading project manifest...")
	cfg, err := r.loadConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	progress(opts, "Deriving build environment...")
	environment, err := env.Derive(r.store, projectRoot, opts.Env)
	if err != nil {
		return nil, err
	}

	bundlerCfg, err := r.factory(cfg, environment)
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "build.compile")
	span.SetAttributes(
		attribute.String("packd.project", cfg.Name),
		attribute.String("packd.mode", string(environment.Mode)),
	)
	defer span.End()

	progress(opts, "Compiling...")
	start := time.Now()
	stats, compileErr := r.engine.Compile(ctx, bundlerCfg)
	elapsed := time.Since(start)

	result := &Result{Duration: elapsed, Stats: stats}

	if failErr := r.classify(stats, compileErr); failErr != nil {
		span.RecordError(failErr)
		span.SetStatus(codes.Error, "build failed")
		return result, failErr
	}

	span.SetStatus(codes.Ok, "")
	if stats.HasWarnings() {
		progress(opts, fmt.Sprintf("Compiled with %d warning(s)", len(stats.Warnings)))
		for _, w := range stats.Warnings {
			fmt.Fprintln(os.Stderr, w)
		}
	} else {
		progress(opts, fmt.Sprintf("Compiled in %s", elapsed.Round(time.Millisecond)))
	}
	return result, nil
}

// classify applies the failure policy to one compile outcome.
func (r *Runner) classify(stats *bundler.Stats, compileErr error) error {
	if compileErr != nil && compileErr.Error() == "" {
		// No message to format; fail fast with the raw error.
		return compileErr
	}

	var buildErrors []string
	if stats != nil {
		buildErrors = stats.Errors
	}
	if compileErr != nil && len(buildErrors) == 0 {
		buildErrors = []string{compileErr.Error()}
	}

	if len(buildErrors) > 0 {
		first := buildErrors[0]
		return errors.New("E110").
			WithDetail(first).
			WithLocationFromMessage(first).
			Wrap(compileErr)
	}

	if ciEnabled(r.ciLookup()) && stats.HasWarnings() {
		return errors.New("E111").
			WithDetail(strings.Join(stats.Warnings, "\n")).
			WithSuggestion("Fix the warnings, or unset CI to build with warnings locally.")
	}

	return nil
}

// ciEnabled reports whether the CI variable value counts as truthy:
// anything non-empty except the literal string "false", case-insensitive.
func ciEnabled(v string) bool {
	return v != "" && !strings.EqualFold(v, "false")
}

func progress(opts Options, step string) {
	if opts.OnProgress != nil {
		opts.OnProgress(step)
	}
}
