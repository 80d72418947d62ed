// settings_store.go - Persisted user settings: TOML file and in-memory stores

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionDelay
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const SETTINGS_NAMESPACE = "audio_delay"

// Settings is the two-integer record the device persists.
type Settings struct {
	DelayMs      int
	SampleRateHz int
}

func DefaultSettings() Settings {
	return Settings{
		DelayMs:      DEFAULT_DELAY_MS,
		SampleRateHz: DEFAULT_SAMPLE_RATE,
	}
}

// Sanitize clamps the delay into range and replaces an unsupported rate with
// the default, so stored values can always be published.
func (s Settings) Sanitize() Settings {
	s.DelayMs = min(max(s.DelayMs, MIN_DELAY_MS), MAX_DELAY_MS)
	if _, ok := sampleRateOption(s.SampleRateHz); !ok {
		s.SampleRateHz = DEFAULT_SAMPLE_RATE
	}
	return s
}

// SettingsStore loads and saves Settings. Load reports found=false when
// nothing has been stored yet; that is not an error.
type SettingsStore interface {
	Load() (settings Settings, found bool, err error)
	Save(Settings) error
}

// LoadSettings reads the store, falling back to defaults when nothing is
// stored or the store cannot be read.
func LoadSettings(store SettingsStore, logger zerolog.Logger) Settings {
	stored, found, err := store.Load()
	if err != nil {
		logger.Error().Err(err).Msg("reading settings failed, using defaults")
		return DefaultSettings()
	}
	if !found {
		logger.Info().Int("delay_ms", DEFAULT_DELAY_MS).Int("sample_rate", DEFAULT_SAMPLE_RATE).
			Msg("no stored settings, using defaults")
		return DefaultSettings()
	}
	clean := stored.Sanitize()
	if clean != stored {
		logger.Warn().Int("delay_ms", stored.DelayMs).Int("sample_rate", stored.SampleRateHz).
			Msg("stored settings out of range, corrected")
	}
	logger.Info().Int("delay_ms", clean.DelayMs).Int("sample_rate", clean.SampleRateHz).Msg("settings loaded")
	return clean
}

type settingsDocument struct {
	AudioDelay *settingsRecord `toml:"audio_delay"`
}

// Missing keys fall back to their default individually.
type settingsRecord struct {
	DelayMs    *int `toml:"delay_ms"`
	SampleRate *int `toml:"sample_rate"`
}

// FileSettingsStore keeps settings in a TOML file under [audio_delay].
type FileSettingsStore struct {
	path string
}

func NewFileSettingsStore(path string) *FileSettingsStore {
	return &FileSettingsStore{path: path}
}

func (fs *FileSettingsStore) Path() string {
	return fs.path
}

func (fs *FileSettingsStore) Load() (Settings, bool, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), false, nil
		}
		return DefaultSettings(), false, fmt.Errorf("reading settings %s: %w", fs.path, err)
	}

	var doc settingsDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return DefaultSettings(), false, fmt.Errorf("parsing settings %s: %w", fs.path, err)
	}
	if doc.AudioDelay == nil {
		return DefaultSettings(), false, nil
	}

	settings := DefaultSettings()
	found := false
	if doc.AudioDelay.DelayMs != nil {
		settings.DelayMs = *doc.AudioDelay.DelayMs
		found = true
	}
	if doc.AudioDelay.SampleRate != nil {
		settings.SampleRateHz = *doc.AudioDelay.SampleRate
		found = true
	}
	return settings, found, nil
}

// Save writes the file atomically through a temp file in the same directory.
func (fs *FileSettingsStore) Save(s Settings) error {
	delay, rate := s.DelayMs, s.SampleRateHz
	data, err := toml.Marshal(settingsDocument{
		AudioDelay: &settingsRecord{DelayMs: &delay, SampleRate: &rate},
	})
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing settings %s: %w", fs.path, err)
	}
	return nil
}

// MemorySettingsStore keeps settings in memory; used when no file is given.
type MemorySettingsStore struct {
	mu       sync.Mutex
	settings Settings
	stored   bool
	saves    int
	saveErr  error
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{}
}

func (m *MemorySettingsStore) Load() (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stored {
		return DefaultSettings(), false, nil
	}
	return m.settings, true, nil
}

func (m *MemorySettingsStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = s
	m.stored = true
	m.saves++
	return nil
}

// FailSaves makes subsequent saves return err; nil restores normal behaviour.
func (m *MemorySettingsStore) FailSaves(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

// Saves returns the number of successful saves.
func (m *MemorySettingsStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
