// Package env derives the immutable build environment for a compile or
// serve session from layered sources: CLI options, persisted project
// settings, defaults, and a free-form override map.
package env

import (
	"os"
	"strings"

	"github.com/packd-dev/packd/internal/errors"
	"github.com/packd-dev/packd/internal/settings"
)

// Mode selects the bundler's optimization profile.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
	ModeTest        Mode = "test"
	ModeNone        Mode = "none"
)

// Valid reports whether m is one of the four recognized modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeDevelopment, ModeProduction, ModeTest, ModeNone:
		return true
	}
	return false
}

// Options are the caller-supplied inputs to Derive. Nil pointers mean
// "not supplied"; fallbacks apply.
type Options struct {
	// Mode overrides the mode derived from the persisted dev setting.
	// Ignored unless it is one of the four valid modes.
	Mode Mode

	// Dev, when set, is persisted to the settings store before the
	// merged view is read back.
	Dev *bool

	// HTTPS, when set, is persisted like Dev.
	HTTPS *bool

	// PWA enables web manifest and icon generation. Fallback: true.
	PWA *bool

	// Info enables verbose bundler diagnostics. Fallback: the host
	// capability probe (PACKD_DEBUG by default).
	Info *bool

	// Polyfill enables legacy-browser polyfills. Fallback: false.
	Polyfill *bool

	// Probe is the capability probe backing the Info fallback.
	// Nil uses DefaultProbe.
	Probe func() bool

	// Overrides is a free-form map spread last over the assembled
	// environment. Recognized boolean keys are validated; everything
	// wins over the computed values. This is an escape hatch, not a
	// field-by-field merge.
	Overrides map[string]any
}

// Environment is the derived, immutable build environment descriptor.
type Environment struct {
	ProjectRoot string
	Mode        Mode
	Development bool
	Production  bool
	HTTPS       bool
	PWA         bool
	Info        bool
	Polyfill    bool

	// Extra holds the caller's override map, spread last by Values.
	Extra map[string]any
}

// boolOptionKeys are the override keys that must carry boolean values.
var boolOptionKeys = []string{"dev", "https", "pwa", "info", "polyfill", "development"}

// DefaultProbe reports whether verbose diagnostics are enabled for the
// host environment (PACKD_DEBUG truthy unless literally "false").
func DefaultProbe() bool {
	return truthyEnv(os.Getenv("PACKD_DEBUG"))
}

// truthyEnv treats any non-empty value except case-insensitive "false"
// as true.
func truthyEnv(v string) bool {
	return v != "" && !strings.EqualFold(v, "false")
}

// ValidateBool resolves a possibly-unset boolean option. A nil value
// returns the fallback; bool and *bool pass through; anything else fails
// with an invalid-option error naming the option.
func ValidateBool(name string, supplied any, fallback bool) (bool, error) {
	switch v := supplied.(type) {
	case nil:
		return fallback, nil
	case bool:
		return v, nil
	case *bool:
		if v == nil {
			return fallback, nil
		}
		return *v, nil
	default:
		return false, errors.New("E101").
			WithDetail("Option \"" + name + "\" must be a boolean").
			WithSuggestion("Pass true or false for --" + name)
	}
}

// Derive merges CLI options, persisted settings, and defaults into one
// environment descriptor. Explicitly supplied dev/https values are written
// to the settings store before the merged view is read back, so the result
// always reflects them. Fails before any server is started.
func Derive(store settings.Store, projectRoot string, opts Options) (*Environment, error) {
	// Validate boolean override keys up front so we fail before
	// persisting anything further or touching a server.
	for _, key := range boolOptionKeys {
		if raw, ok := opts.Overrides[key]; ok {
			if _, err := ValidateBool(key, raw, false); err != nil {
				return nil, err
			}
		}
	}

	// Write-then-read-back: explicit values land in the store first so
	// the merged view below includes them.
	if opts.Dev != nil || opts.HTTPS != nil {
		if err := store.Set(projectRoot, settings.Settings{Dev: opts.Dev, HTTPS: opts.HTTPS}); err != nil {
			return nil, err
		}
	}

	view, err := store.Read(projectRoot)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if !mode.Valid() {
		if view.Dev {
			mode = ModeDevelopment
		} else {
			mode = ModeProduction
		}
	}

	probe := opts.Probe
	if probe == nil {
		probe = DefaultProbe
	}

	pwa, err := ValidateBool("pwa", opts.PWA, true)
	if err != nil {
		return nil, err
	}
	info, err := ValidateBool("info", opts.Info, probe())
	if err != nil {
		return nil, err
	}
	polyfill, err := ValidateBool("polyfill", opts.Polyfill, false)
	if err != nil {
		return nil, err
	}

	environment := &Environment{
		ProjectRoot: projectRoot,
		Mode:        mode,
		Development: mode == ModeDevelopment,
		Production:  mode != ModeDevelopment,
		HTTPS:       view.HTTPS,
		PWA:         pwa,
		Info:        info,
		Polyfill:    polyfill,
		Extra:       opts.Overrides,
	}
	environment.applyOverrides()

	return environment, nil
}

// applyOverrides folds recognized override keys into the typed fields so
// queries like the URL protocol agree with what the config factory sees.
// The full raw map still wins in Values.
func (e *Environment) applyOverrides() {
	if e.Extra == nil {
		return
	}
	if v, ok := e.Extra["https"].(bool); ok {
		e.HTTPS = v
	}
	if v, ok := e.Extra["pwa"].(bool); ok {
		e.PWA = v
	}
	if v, ok := e.Extra["info"].(bool); ok {
		e.Info = v
	}
	if v, ok := e.Extra["polyfill"].(bool); ok {
		e.Polyfill = v
	}
	// "dev" and "development" are synonyms; either flips both flags.
	if v, ok := e.Extra["dev"].(bool); ok {
		e.Development = v
		e.Production = !v
	}
	if v, ok := e.Extra["development"].(bool); ok {
		e.Development = v
		e.Production = !v
	}
	if v, ok := e.Extra["mode"]; ok {
		if m, ok := toMode(v); ok {
			e.Mode = m
		}
	}
}

func toMode(v any) (Mode, bool) {
	switch m := v.(type) {
	case Mode:
		if m.Valid() {
			return m, true
		}
	case string:
		if Mode(m).Valid() {
			return Mode(m), true
		}
	}
	return "", false
}

// Values assembles the environment as a flat map for the config factory,
// spreading the override map last so its entries win over every computed
// field.
func (e *Environment) Values() map[string]any {
	values := map[string]any{
		"projectRoot": e.ProjectRoot,
		"mode":        string(e.Mode),
		"development": e.Development,
		"production":  e.Production,
		"https":       e.HTTPS,
		"pwa":         e.PWA,
		"info":        e.Info,
		"polyfill":    e.Polyfill,
	}
	for key, value := range e.Extra {
		values[key] = value
	}
	return values
}

// Protocol returns the URL scheme implied by the environment.
func (e *Environment) Protocol() string {
	if e.HTTPS {
		return "https"
	}
	return "http"
}
