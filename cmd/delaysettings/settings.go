package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

const (
	minDelayMs        = 0
	maxDelayMs        = 10000
	defaultDelayMs    = 30
	defaultSampleRate = 48000
)

var supportedRates = []int{44100, 48000, 96000, 192000}

// Settings mirrors the [audio_delay] table the device persists.
type Settings struct {
	DelayMs      int
	SampleRateHz int
}

func defaultSettings() Settings {
	return Settings{DelayMs: defaultDelayMs, SampleRateHz: defaultSampleRate}
}

// Check reports values the device would refuse or correct on load.
func (s Settings) Check() error {
	var errs []error
	if s.DelayMs < minDelayMs || s.DelayMs > maxDelayMs {
		errs = append(errs, fmt.Errorf("delay_ms %d outside %d-%d", s.DelayMs, minDelayMs, maxDelayMs))
	}
	if !slices.Contains(supportedRates, s.SampleRateHz) {
		errs = append(errs, fmt.Errorf("sample_rate %d not one of %v", s.SampleRateHz, supportedRates))
	}
	return errors.Join(errs...)
}

type document struct {
	AudioDelay *record `toml:"audio_delay"`
}

type record struct {
	DelayMs    *int `toml:"delay_ms"`
	SampleRate *int `toml:"sample_rate"`
}

// Load reads path. found is false when the file or the table is absent;
// missing keys take their defaults.
func Load(path string) (s Settings, found bool, err error) {
	s = defaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return s, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.AudioDelay == nil {
		return s, false, nil
	}
	if doc.AudioDelay.DelayMs != nil {
		s.DelayMs = *doc.AudioDelay.DelayMs
		found = true
	}
	if doc.AudioDelay.SampleRate != nil {
		s.SampleRateHz = *doc.AudioDelay.SampleRate
		found = true
	}
	return s, found, nil
}

// Validate parses path strictly: unknown keys and out-of-range values are
// reported together.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var errs []error
	var doc document
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		var strict *toml.StrictMissingError
		if !errors.As(err, &strict) {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		errs = append(errs, fmt.Errorf("unknown keys:\n%s", strict.String()))
	}
	if doc.AudioDelay == nil {
		return errors.Join(append(errs, errors.New("no [audio_delay] table"))...)
	}

	s, _, err := Load(path)
	if err != nil {
		return err
	}
	if err := s.Check(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Save replaces path atomically.
func Save(path string, s Settings) error {
	if err := s.Check(); err != nil {
		return err
	}
	delay, rate := s.DelayMs, s.SampleRateHz
	data, err := toml.Marshal(document{AudioDelay: &record{DelayMs: &delay, SampleRate: &rate}})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".delaysettings-*.toml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
