package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
)

// RuntimeSettings are the values changeable over the API without a
// restart. They seed the upload form and drive the watch folder.
type RuntimeSettings struct {
	DefaultSourceLanguage string `json:"default_source_language"`
	DefaultTargetLanguage string `json:"default_target_language"`
	LineLengthCap         int    `json:"line_length_cap"`
}

// Validate checks the settings against the supported language set.
// The source side additionally accepts lang.Auto.
func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.DefaultSourceLanguage) == "" {
		return fmt.Errorf("default_source_language is required")
	}
	if _, _, err := lang.ParseSource(s.DefaultSourceLanguage); err != nil {
		return fmt.Errorf("invalid default_source_language: %w", err)
	}
	if strings.TrimSpace(s.DefaultTargetLanguage) == "" {
		return fmt.Errorf("default_target_language is required")
	}
	if _, err := lang.Parse(s.DefaultTargetLanguage); err != nil {
		return fmt.Errorf("invalid default_target_language: %w", err)
	}
	if s.LineLengthCap <= 0 {
		return fmt.Errorf("line_length_cap must be positive")
	}
	return nil
}

// DefaultPair resolves the stored defaults into a language pair plus
// the detection flag for the source side.
func (s RuntimeSettings) DefaultPair() (lang.Pair, bool, error) {
	source, detect, err := lang.ParseSource(s.DefaultSourceLanguage)
	if err != nil {
		return lang.Pair{}, false, err
	}
	target, err := lang.Parse(s.DefaultTargetLanguage)
	if err != nil {
		return lang.Pair{}, false, err
	}
	return lang.Pair{Source: source, Target: target}, detect, nil
}

// DefaultRuntimeSettings derives the initial settings from the
// environment configuration.
func (c *Config) DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		DefaultSourceLanguage: lang.Auto,
		DefaultTargetLanguage: string(lang.English),
		LineLengthCap:         c.LineLengthCap,
	}
}

// LoadRuntimeSettingsFile reads and decodes a settings file.
func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

// WriteRuntimeSettingsFile validates and writes settings atomically
// (tmp file + rename).
func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// RuntimeSettingsStore serializes reads and updates of the runtime
// settings and keeps the backing file in sync.
type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

// NewRuntimeSettingsStore wraps an already-loaded settings value.
func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

// OpenRuntimeSettingsStore loads the settings file at path, seeding it
// with defaults when it does not exist yet.
func OpenRuntimeSettingsStore(path string, defaults RuntimeSettings) (*RuntimeSettingsStore, error) {
	settings, err := LoadRuntimeSettingsFile(path)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		if err := WriteRuntimeSettingsFile(path, defaults); err != nil {
			return nil, err
		}
		settings = defaults
	default:
		return nil, err
	}
	return NewRuntimeSettingsStore(path, settings)
}

// Get returns the current settings.
func (s *RuntimeSettingsStore) Get() RuntimeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates next, persists it and makes it current.
func (s *RuntimeSettingsStore) Update(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
