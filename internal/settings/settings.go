// Package settings persists per-project developer settings under .packd/.
//
// Settings survive process restarts and are scoped to a project root. The
// store applies its own defaults for absent fields; callers never invent
// them. Writes are merge-writes: only the supplied fields change.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/packd-dev/packd/internal/errors"
)

const (
	// Dir is the per-project directory holding packd state.
	Dir = ".packd"

	// FileName is the settings file name inside Dir.
	FileName = "settings.json"
)

// Settings is a partial update: nil fields are left untouched by Set.
type Settings struct {
	// Dev selects development mode for derived build environments.
	Dev *bool `json:"dev,omitempty"`

	// HTTPS selects the https scheme for the dev server.
	HTTPS *bool `json:"https,omitempty"`

	// ServerPort is the port of the currently running dev server.
	// Cleared when the server stops.
	ServerPort *int `json:"serverPort,omitempty"`
}

// View is a fully-resolved read of the settings, with the store's defaults
// applied for absent fields.
type View struct {
	Dev        bool
	HTTPS      bool
	ServerPort int // 0 when no server port is recorded
}

// Store reads and merge-writes per-project settings.
type Store interface {
	Read(projectRoot string) (View, error)
	Set(projectRoot string, partial Settings) error
	ClearServerPort(projectRoot string) error
}

// FileStore persists settings as JSON at <root>/.packd/settings.json.
// The file is created lazily on first write. Read-modify-write cycles are
// serialized within the process; no cross-process guarantee is made.
type FileStore struct {
	mu sync.Mutex
}

// NewFileStore creates a file-backed settings store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Path returns the settings file path for a project root.
func (s *FileStore) Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Read returns the resolved settings for a project root. A missing file
// yields the defaults (dev=true, https=false, no port).
func (s *FileStore) Read(projectRoot string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.load(projectRoot)
	if err != nil {
		return View{}, err
	}
	return resolve(raw), nil
}

// Set merge-writes the supplied fields into the settings file.
func (s *FileStore) Set(projectRoot string, partial Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(projectRoot)
	if err != nil {
		return err
	}

	if partial.Dev != nil {
		current.Dev = partial.Dev
	}
	if partial.HTTPS != nil {
		current.HTTPS = partial.HTTPS
	}
	if partial.ServerPort != nil {
		current.ServerPort = partial.ServerPort
	}

	return s.save(projectRoot, current)
}

// ClearServerPort removes the recorded dev-server port.
func (s *FileStore) ClearServerPort(projectRoot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(projectRoot)
	if err != nil {
		return err
	}
	if current.ServerPort == nil {
		return nil
	}
	current.ServerPort = nil
	return s.save(projectRoot, current)
}

// load reads the raw settings file, returning zero Settings when absent.
func (s *FileStore) load(projectRoot string) (Settings, error) {
	var raw Settings

	data, err := os.ReadFile(s.Path(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return raw, errors.New("E121").Wrap(err)
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, errors.New("E121").
			WithDetail("Failed to parse " + s.Path(projectRoot) + ": " + err.Error()).
			WithSuggestion("Delete the file to reset settings to defaults")
	}

	return raw, nil
}

// save writes the raw settings file, creating .packd/ as needed.
func (s *FileStore) save(projectRoot string, raw Settings) error {
	path := s.Path(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.New("E121").Wrap(err)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return errors.New("E121").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E121").Wrap(err)
	}
	return nil
}

// resolve applies the store's defaults to a raw read.
func resolve(raw Settings) View {
	view := View{
		Dev:   true,
		HTTPS: false,
	}
	if raw.Dev != nil {
		view.Dev = *raw.Dev
	}
	if raw.HTTPS != nil {
		view.HTTPS = *raw.HTTPS
	}
	if raw.ServerPort != nil {
		view.ServerPort = *raw.ServerPort
	}
	return view
}

// Bool returns a pointer to b, for building partial updates.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for building partial updates.
func Int(n int) *int { return &n }
