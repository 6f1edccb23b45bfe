package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/packd-dev/packd/internal/errors"
)

const (
	// ConfigFileName is the name of the project manifest.
	ConfigFileName = "packd.json"

	// DefaultPort is the default development server port.
	DefaultPort = 19006

	// DefaultHost is the default development server bind address.
	DefaultHost = "0.0.0.0"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultSourceDir is the default bundler entry directory.
	DefaultSourceDir = "src"
)

// Config represents the complete packd.json manifest.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Source is the bundler entry directory.
	Source string `json:"source,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Build contains production bundling configuration.
	Build BuildConfig `json:"build,omitempty"`

	// Bundler contains the external bundling engine invocation.
	Bundler BundlerConfig `json:"bundler,omitempty"`

	// Deploy contains deployment configuration.
	Deploy DeployConfig `json:"deploy,omitempty"`

	// configPath stores the path where the manifest was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the preferred dev server port.
	Port int `json:"port,omitempty"`

	// Host is the bind address.
	Host string `json:"host,omitempty"`

	// OpenBrowser opens the browser automatically on start.
	OpenBrowser bool `json:"openBrowser,omitempty"`
}

// BuildConfig contains production bundling settings.
type BuildConfig struct {
	// Output is the output directory for bundles.
	Output string `json:"output,omitempty"`

	// Minify enables minification.
	Minify bool `json:"minify,omitempty"`

	// SourceMaps enables source map generation.
	SourceMaps bool `json:"sourceMaps,omitempty"`
}

// BundlerConfig describes how to invoke the external bundling engine.
type BundlerConfig struct {
	// Command is the bundler executable (e.g. "npx").
	Command string `json:"command,omitempty"`

	// Args are arguments passed before packd's own flags.
	Args []string `json:"args,omitempty"`
}

// DeployConfig contains deployment settings.
type DeployConfig struct {
	// Bucket is the S3 bucket receiving build output.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the object key prefix (e.g. "sites/myapp/").
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Source:  DefaultSourceDir,
		Dev: DevConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Build: BuildConfig{
			Output: DefaultOutput,
			Minify: true,
		},
	}
}

// Load reads the manifest from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the manifest from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No packd.json found in " + filepath.Dir(path)).
				WithSuggestion("Create a packd.json manifest at the project root")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse packd.json: " + err.Error()).
			WithSuggestion("Check that packd.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the manifest back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no manifest path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the manifest to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the manifest was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project root (the directory containing the manifest).
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
	if c.Source == "" {
		c.Source = DefaultSourceDir
	}
	if c.Deploy.Prefix != "" && c.Deploy.Prefix[len(c.Deploy.Prefix)-1] != '/' {
		c.Deploy.Prefix += "/"
	}
}

// Validate checks if the manifest is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E120").
			WithDetail("Port must be between 0 and 65535")
	}
	return nil
}

// DevAddress returns the bind address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Build.Output) {
		return c.Build.Output
	}
	return filepath.Join(c.Dir(), c.Build.Output)
}

// SourcePath returns the absolute path to the bundler entry directory.
func (c *Config) SourcePath() string {
	if filepath.IsAbs(c.Source) {
		return c.Source
	}
	return filepath.Join(c.Dir(), c.Source)
}

// Exists checks if a manifest exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing packd.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No packd.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the manifest from the current working directory,
// walking up to the project root.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
