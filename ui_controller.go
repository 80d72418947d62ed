// ui_controller.go - Encoder-driven delay/sample-rate menu with auto-save on idle

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
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// UIMode is the navigation state of the front panel.
type UIMode uint8

const (
	ModeMain        UIMode = iota // Adjusting delay
	ModeMenu                      // Choosing a sample rate
	ModeMenuConfirm               // Showing the confirmed rate
)

func (m UIMode) String() string {
	switch m {
	case ModeMain:
		return "main"
	case ModeMenu:
		return "menu"
	case ModeMenuConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// DisplaySnapshot is everything a renderer needs to draw the panel.
type DisplaySnapshot struct {
	Mode          UIMode
	DelayMs       int
	SampleRateHz  int
	SelectedIndex int
	Confirmed     bool
}

// Renderer draws panel snapshots. Failures are logged by the caller only.
type Renderer interface {
	Render(DisplaySnapshot) error
}

// CodecConfigurator retunes the audio clocks for a new sample rate.
type CodecConfigurator interface {
	SetSampleRate(hz int) error
}

type UIControllerConfig struct {
	Reconfig *ReconfigChannel
	Store    SettingsStore
	Renderer Renderer          // optional
	Codec    CodecConfigurator // optional
	Logger   zerolog.Logger
	Metrics  *Metrics
}

// UIController owns the panel state. It is driven from a single control
// goroutine; nothing here is shared with the real-time loop except through
// the ReconfigChannel.
type UIController struct {
	mode            UIMode
	settings        Settings
	selected        int
	confirmed       bool
	dirty           bool
	saveFailing     bool
	runningRate     int
	lastInteraction time.Time

	reconfig *ReconfigChannel
	store    SettingsStore
	renderer Renderer
	codec    CodecConfigurator
	logger   zerolog.Logger
	metrics  *Metrics
}

// NewUIController starts in ModeMain with the given settings, as loaded by
// LoadSettings, and draws the first frame.
func NewUIController(cfg UIControllerConfig, initial Settings, now time.Time) *UIController {
	initial = initial.Sanitize()
	selected, _ := sampleRateOption(initial.SampleRateHz)
	u := &UIController{
		mode:            ModeMain,
		settings:        initial,
		selected:        selected,
		runningRate:     initial.SampleRateHz,
		lastInteraction: now,
		reconfig:        cfg.Reconfig,
		store:           cfg.Store,
		renderer:        cfg.Renderer,
		codec:           cfg.Codec,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
	}
	u.render()
	return u
}

// HandleEvent advances the state machine. The returned error is either a
// rejected config (errors.Is ErrInvalidArgument; settings left unchanged) or a
// codec refusal: the new rate is then kept as a setting only and the delay line
// stays on the rate the audio clock is running at.
func (u *UIController) HandleEvent(ev EncoderEvent, now time.Time) error {
	if ev == EventNone {
		return nil
	}
	u.lastInteraction = now
	u.metrics.UIEvent(ev)

	var err error
	switch u.mode {
	case ModeMain:
		switch ev {
		case EventRotateCW:
			err = u.adjustDelay(DELAY_STEP_MS)
		case EventRotateCCW:
			err = u.adjustDelay(-DELAY_STEP_MS)
		case EventPressed:
			u.selected, _ = sampleRateOption(u.settings.SampleRateHz)
			u.mode = ModeMenu
		}

	case ModeMenu:
		switch ev {
		case EventRotateCW:
			u.selected = (u.selected + 1) % RATE_OPTION_COUNT
		case EventRotateCCW:
			u.selected = (u.selected + RATE_OPTION_COUNT - 1) % RATE_OPTION_COUNT
		case EventPressed:
			next := u.settings
			next.SampleRateHz = sampleRateValue(u.selected)
			err = u.apply(next)
			if err == nil || !isRejection(err) {
				u.confirmed = true
				u.mode = ModeMenuConfirm
			}
		}

	case ModeMenuConfirm:
		u.confirmed = false
		u.mode = ModeMain
	}

	u.render()
	return err
}

func (u *UIController) adjustDelay(stepMs int) error {
	next := u.settings
	next.DelayMs = min(max(next.DelayMs+stepMs, MIN_DELAY_MS), MAX_DELAY_MS)
	if next.DelayMs == u.settings.DelayMs {
		return nil
	}
	return u.apply(next)
}

// apply validates next, retunes the codec on a rate change and publishes the
// delay at the rate the codec actually runs at. Only an accepted config is
// adopted and marked dirty.
func (u *UIController) apply(next Settings) error {
	if _, err := NewDelayConfig(next.SampleRateHz, next.DelayMs, u.reconfig.Capacity()); err != nil {
		u.metrics.PublishRejected()
		return u.rejected(next, err)
	}

	running := u.runningRate
	var codecErr error
	if next.SampleRateHz != u.settings.SampleRateHz {
		if codecErr = u.retune(next.SampleRateHz); codecErr == nil {
			running = next.SampleRateHz
		}
	}

	if err := u.reconfig.Publish(DelayConfig{SampleRateHz: running, DelayMs: next.DelayMs}); err != nil {
		return u.rejected(next, err)
	}
	u.runningRate = running
	u.settings = next
	u.dirty = true
	return codecErr
}

func (u *UIController) retune(hz int) error {
	if u.codec == nil {
		return nil
	}
	if err := u.codec.SetSampleRate(hz); err != nil {
		return fmt.Errorf("ui: codec set sample rate %d Hz: %w", hz, err)
	}
	return nil
}

func (u *UIController) rejected(next Settings, err error) error {
	u.logger.Warn().Err(err).Int("delay_ms", next.DelayMs).Int("sample_rate", next.SampleRateHz).
		Msg("config rejected, keeping previous settings")
	return fmt.Errorf("ui: publish config: %w", err)
}

// Tick runs the slow-loop housekeeping: once settings have been dirty and
// untouched for AUTO_SAVE_IDLE they are saved. It reports whether a save
// happened. A failed save keeps the settings dirty for the next tick.
func (u *UIController) Tick(now time.Time) bool {
	if !u.dirty || now.Sub(u.lastInteraction) < AUTO_SAVE_IDLE {
		return false
	}
	if err := u.save(); err != nil {
		return false
	}
	u.logger.Info().Int("delay_ms", u.settings.DelayMs).Int("sample_rate", u.settings.SampleRateHz).
		Msg("settings auto-saved")
	return true
}

// Flush saves pending changes immediately.
func (u *UIController) Flush() error {
	if !u.dirty {
		return nil
	}
	return u.save()
}

// Shutdown persists anything still pending before the device stops.
func (u *UIController) Shutdown() error {
	if err := u.Flush(); err != nil {
		return fmt.Errorf("ui: saving settings on shutdown: %w", err)
	}
	return nil
}

func (u *UIController) save() error {
	if err := u.store.Save(u.settings); err != nil {
		u.metrics.SaveFailed()
		// Only the first failure until the next successful save is an error.
		if u.saveFailing {
			u.logger.Debug().Err(err).Msg("settings save still failing")
		} else {
			u.logger.Error().Err(err).Msg("settings save failed")
		}
		u.saveFailing = true
		return err
	}
	u.dirty = false
	u.saveFailing = false
	u.metrics.SettingsSaved()
	return nil
}

func (u *UIController) render() {
	if u.renderer == nil {
		return
	}
	if err := u.renderer.Render(u.Snapshot()); err != nil {
		u.logger.Warn().Err(err).Msg("render failed")
	}
}

func (u *UIController) Snapshot() DisplaySnapshot {
	return DisplaySnapshot{
		Mode:          u.mode,
		DelayMs:       u.settings.DelayMs,
		SampleRateHz:  u.settings.SampleRateHz,
		SelectedIndex: u.selected,
		Confirmed:     u.confirmed,
	}
}

func (u *UIController) Mode() UIMode {
	return u.mode
}

func (u *UIController) Settings() Settings {
	return u.settings
}

func (u *UIController) SelectedIndex() int {
	return u.selected
}

// Dirty reports whether settings changed since the last successful save.
func (u *UIController) Dirty() bool {
	return u.dirty
}

// RunningRate is the sample rate last published to the delay line.
func (u *UIController) RunningRate() int {
	return u.runningRate
}

func (u *UIController) Confirmed() bool {
	return u.confirmed
}

func (u *UIController) LastInteraction() time.Time {
	return u.lastInteraction
}
