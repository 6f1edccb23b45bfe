package bundler

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/packd-dev/packd/internal/errors"
)

// ExecEngine runs an external bundler binary as a subprocess. It is the
// reference Engine implementation: one compile pass per Compile call,
// diagnostics recovered from JSON stats output when the bundler emits
// them, or from the raw process output otherwise.
type ExecEngine struct {
	// Env are additional environment variables for the subprocess.
	Env []string
}

// NewExecEngine creates an engine that shells out to the configured
// bundler command.
func NewExecEngine() *ExecEngine {
	return &ExecEngine{}
}

// Compile runs the bundler once and collects its diagnostics.
func (e *ExecEngine) Compile(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Command == "" {
		return nil, errors.Newf(errors.CategoryBuild, "no bundler command configured")
	}

	args := append([]string{}, cfg.Args...)
	if mode, ok := cfg.Values["mode"].(string); ok && mode != "" {
		args = append(args, "--mode", mode)
	}

	cmd := exec.CommandContext(ctx, cfg.Command, args...)
	cmd.Dir = cfg.WorkDir

	environ := os.Environ()
	if cfg.OutputDir != "" {
		environ = append(environ, "BUNDLE_OUTPUT="+cfg.OutputDir)
	}
	if cfg.SourceDir != "" {
		environ = append(environ, "BUNDLE_SOURCE="+cfg.SourceDir)
	}
	environ = append(environ, e.Env...)
	cmd.Env = environ

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	// Bundlers that emit JSON stats get parsed precisely. A non-zero
	// exit without a reported error still fails.
	if stats, ok := parseJSONStats(stdout.Bytes()); ok {
		if runErr != nil && !stats.HasErrors() {
			message := strings.TrimSpace(stderr.String())
			if message == "" {
				message = runErr.Error()
			}
			stats.Errors = append(stats.Errors, message)
		}
		return stats, nil
	}

	output := stderr.String()
	if output == "" {
		output = stdout.String()
	}

	stats := parseTextDiagnostics(output)
	if runErr != nil && !stats.HasErrors() {
		// Non-zero exit without parseable diagnostics: surface the
		// whole output as the error.
		message := strings.TrimSpace(output)
		if message == "" {
			message = runErr.Error()
		}
		stats.Errors = append(stats.Errors, message)
	}

	return stats, nil
}

// jsonStats mirrors the stats object most bundlers print with a
// --json flag.
type jsonStats struct {
	Errors   []jsonDiagnostic `json:"errors"`
	Warnings []jsonDiagnostic `json:"warnings"`
}

// jsonDiagnostic tolerates both plain strings and {message} objects.
type jsonDiagnostic struct {
	Message string
}

func (d *jsonDiagnostic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Message = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	d.Message = obj.Message
	return nil
}

func parseJSONStats(data []byte) (*Stats, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var raw jsonStats
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, false
	}

	stats := &Stats{}
	for _, d := range raw.Errors {
		if d.Message != "" {
			stats.Errors = append(stats.Errors, d.Message)
		}
	}
	for _, d := range raw.Warnings {
		if d.Message != "" {
			stats.Warnings = append(stats.Warnings, d.Message)
		}
	}
	return stats, true
}

// parseTextDiagnostics classifies plain-text bundler output line by line.
func parseTextDiagnostics(output string) *Stats {
	stats := &Stats{}
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "error"):
			stats.Errors = append(stats.Errors, strings.TrimSpace(trimPrefixFold(trimmed, "error", ":")))
		case strings.HasPrefix(lower, "warning"):
			stats.Warnings = append(stats.Warnings, strings.TrimSpace(trimPrefixFold(trimmed, "warning", ":")))
		}
	}
	return stats
}

// trimPrefixFold strips a case-insensitive prefix plus an optional
// separator from a diagnostic line.
func trimPrefixFold(s, prefix, sep string) string {
	rest := s[len(prefix):]
	rest = strings.TrimLeft(rest, " ")
	rest = strings.TrimPrefix(rest, sep)
	return rest
}
