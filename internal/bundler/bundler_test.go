package bundler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/packd-dev/packd/internal/config"
	"github.com/packd-dev/packd/internal/env"
)

func TestDefaultFactory(t *testing.T) {
	cfg := config.New()
	cfg.Bundler.Command = "npx"
	cfg.Bundler.Args = []string{"webpack"}

	environment := &env.Environment{
		ProjectRoot: "/proj",
		Mode:        env.ModeProduction,
		Production:  true,
		Extra:       map[string]any{"target": "web"},
	}

	bundlerCfg, err := DefaultFactory(cfg, environment)
	if err != nil {
		t.Fatalf("DefaultFactory error: %v", err)
	}

	if bundlerCfg.Command != "npx" {
		t.Errorf("Command = %q, want %q", bundlerCfg.Command, "npx")
	}
	if bundlerCfg.WorkDir != "/proj" {
		t.Errorf("WorkDir = %q, want %q", bundlerCfg.WorkDir, "/proj")
	}
	if bundlerCfg.Values["mode"] != "production" {
		t.Errorf("Values[mode] = %v, want production", bundlerCfg.Values["mode"])
	}
	if bundlerCfg.Values["target"] != "web" {
		t.Errorf("Values[target] = %v, want web", bundlerCfg.Values["target"])
	}
}

func TestStats_Predicates(t *testing.T) {
	var nilStats *Stats
	if nilStats.HasErrors() || nilStats.HasWarnings() {
		t.Error("nil stats have neither errors nor warnings")
	}

	stats := &Stats{Errors: []string{"boom"}}
	if !stats.HasErrors() {
		t.Error("HasErrors should be true")
	}
	if stats.HasWarnings() {
		t.Error("HasWarnings should be false")
	}
}

func TestParseJSONStats(t *testing.T) {
	data := []byte(`{"errors":[{"message":"Module not found"}],"warnings":["asset size limit"]}`)

	stats, ok := parseJSONStats(data)
	if !ok {
		t.Fatal("expected JSON stats to parse")
	}
	if len(stats.Errors) != 1 || stats.Errors[0] != "Module not found" {
		t.Errorf("Errors = %v", stats.Errors)
	}
	if len(stats.Warnings) != 1 || stats.Warnings[0] != "asset size limit" {
		t.Errorf("Warnings = %v", stats.Warnings)
	}
}

func TestParseJSONStats_NotJSON(t *testing.T) {
	if _, ok := parseJSONStats([]byte("plain text output")); ok {
		t.Error("plain text should not parse as JSON stats")
	}
	if _, ok := parseJSONStats(nil); ok {
		t.Error("empty output should not parse as JSON stats")
	}
}

func TestParseTextDiagnostics(t *testing.T) {
	output := `compiling...
ERROR: src/index.js:3:8: Module not found
warning: asset exceeds recommended size
done
`
	stats := parseTextDiagnostics(output)

	if len(stats.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1 entry", stats.Errors)
	}
	if stats.Errors[0] != "src/index.js:3:8: Module not found" {
		t.Errorf("Errors[0] = %q", stats.Errors[0])
	}
	if len(stats.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want 1 entry", stats.Warnings)
	}
	if stats.Warnings[0] != "asset exceeds recommended size" {
		t.Errorf("Warnings[0] = %q", stats.Warnings[0])
	}
}

func TestExecEngine_NoCommand(t *testing.T) {
	engine := NewExecEngine()
	_, err := engine.Compile(context.Background(), &Config{})
	if err == nil {
		t.Error("expected error for missing bundler command")
	}
}

func TestExecEngine_JSONStats(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh-based fixture")
	}
	tmpDir := t.TempDir()

	engine := NewExecEngine()
	stats, err := engine.Compile(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", `echo '{"errors":[],"warnings":["w1"]}'`},
		WorkDir: tmpDir,
		Values:  map[string]any{},
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if stats.HasErrors() {
		t.Errorf("Errors = %v, want none", stats.Errors)
	}
	if len(stats.Warnings) != 1 || stats.Warnings[0] != "w1" {
		t.Errorf("Warnings = %v", stats.Warnings)
	}
}

func TestExecEngine_JSONStatsNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh-based fixture")
	}
	tmpDir := t.TempDir()

	engine := NewExecEngine()
	stats, err := engine.Compile(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", `echo '{"errors":[],"warnings":[]}'; echo crashed after stats >&2; exit 1`},
		WorkDir: tmpDir,
		Values:  map[string]any{},
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !stats.HasErrors() {
		t.Fatal("non-zero exit with clean JSON stats should still yield an error")
	}
	if stats.Errors[0] != "crashed after stats" {
		t.Errorf("Errors = %v, want the stderr output", stats.Errors)
	}
}

func TestExecEngine_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh-based fixture")
	}
	tmpDir := t.TempDir()

	engine := NewExecEngine()
	stats, err := engine.Compile(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", "echo nothing useful >&2; exit 1"},
		WorkDir: tmpDir,
		Values:  map[string]any{},
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !stats.HasErrors() {
		t.Fatal("non-zero exit should yield at least one error")
	}
}

func TestExecEngine_PassesModeFlag(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh-based fixture")
	}
	tmpDir := t.TempDir()
	outFile := filepath.Join(tmpDir, "argv.txt")

	engine := NewExecEngine()
	_, err := engine.Compile(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", `echo "$@" > ` + outFile, "argv"},
		WorkDir: tmpDir,
		Values:  map[string]any{"mode": "production"},
	})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	recorded, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(recorded), "--mode production") {
		t.Errorf("argv = %q, want mode flag appended", string(recorded))
	}
}
