package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, want %q", cfg.Dev.Host, DefaultHost)
	}
	if cfg.Build.Output != DefaultOutput {
		t.Errorf("Build.Output = %q, want %q", cfg.Build.Output, DefaultOutput)
	}
	if cfg.Source != DefaultSourceDir {
		t.Errorf("Source = %q, want %q", cfg.Source, DefaultSourceDir)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Loading a missing manifest is an E141
	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "E141") {
		t.Errorf("Expected E141 error, got: %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "name": "myapp",
  "dev": {
    "port": 8080,
    "openBrowser": true
  },
  "build": {
    "output": "build",
    "minify": true
  },
  "bundler": {
    "command": "npx",
    "args": ["webpack"]
  },
  "deploy": {
    "bucket": "myapp-site",
    "prefix": "web"
  }
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "myapp" {
		t.Errorf("Name = %q, want %q", cfg.Name, "myapp")
	}
	if cfg.Dev.Port != 8080 {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, 8080)
	}
	if !cfg.Dev.OpenBrowser {
		t.Error("Dev.OpenBrowser should be true")
	}
	if cfg.Build.Output != "build" {
		t.Errorf("Build.Output = %q, want %q", cfg.Build.Output, "build")
	}
	if cfg.Bundler.Command != "npx" {
		t.Errorf("Bundler.Command = %q, want %q", cfg.Bundler.Command, "npx")
	}
	// Defaults still applied for absent fields
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, want default %q", cfg.Dev.Host, DefaultHost)
	}
	// Deploy prefix is normalized with a trailing slash
	if cfg.Deploy.Prefix != "web/" {
		t.Errorf("Deploy.Prefix = %q, want %q", cfg.Deploy.Prefix, "web/")
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E120") {
		t.Errorf("Expected E120 error, got: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Name = "roundtrip"
	cfg.Dev.Port = 9000

	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Name != "roundtrip" {
		t.Errorf("Name = %q, want %q", loaded.Name, "roundtrip")
	}
	if loaded.Dev.Port != 9000 {
		t.Errorf("Dev.Port = %d, want %d", loaded.Dev.Port, 9000)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.Dev.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range port should fail validation")
	}
}

func TestDevAddress(t *testing.T) {
	cfg := New()
	cfg.Dev.Host = "0.0.0.0"
	cfg.Dev.Port = 19006

	if got := cfg.DevAddress(); got != "0.0.0.0:19006" {
		t.Errorf("DevAddress() = %q, want %q", got, "0.0.0.0:19006")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	// Not found anywhere up the tree
	if _, err := FindProjectRoot(nested); err == nil {
		t.Error("expected error when no manifest exists")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	want, _ := filepath.EvalSymlinks(tmpDir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("FindProjectRoot = %q, want %q", got, want)
	}
}

func TestOutputPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(`{"build":{"output":"out"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(tmpDir, "out")
	if got := cfg.OutputPath(); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}
