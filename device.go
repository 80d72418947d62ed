// device.go - Wires the delay line, reconfiguration channel, encoder and UI into one device

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
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DeviceConfig lists the collaborators a Device is built from. Zero values
// select the firmware defaults.
type DeviceConfig struct {
	Settings Settings
	Store    SettingsStore
	Renderer Renderer
	Codec    CodecConfigurator

	Pins           EncoderPins
	StepsPerDetent int
	PollInterval   time.Duration
	TickInterval   time.Duration

	Source    SampleSource
	Sink      SampleSink // nil when an output device pulls blocks itself
	BlockSize int
	Paced     bool

	Logger  zerolog.Logger
	Metrics *Metrics
}

// Device is the running delay unit: one real-time schedule and one control
// schedule sharing only the ReconfigChannel.
type Device struct {
	reconfig *ReconfigChannel
	engine   *DelayLine
	realtime *RealtimeLoop
	ui       *UIController
	events   *ControlEventSource

	sink  SampleSink
	paced bool
	tick  time.Duration

	base   zerolog.Logger
	logger zerolog.Logger
}

// NewDevice brings the engine up with a cleared buffer and the stored
// settings, retunes the codec to the start-up rate and draws the first frame.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	logger := cfg.Logger
	settings := cfg.Settings.Sanitize()

	reconfig := NewReconfigChannel(DELAY_BUFFER_SIZE, cfg.Metrics)
	engine := NewDelayLine(reconfig, cfg.Metrics)
	initial, err := NewDelayConfig(settings.SampleRateHz, settings.DelayMs, reconfig.Capacity())
	if err != nil {
		return nil, fmt.Errorf("device: initial config: %w", err)
	}
	if err := engine.Init(initial); err != nil {
		return nil, fmt.Errorf("device: delay line init: %w", err)
	}
	cfg.Metrics.ConfigAdopted(initial)

	if cfg.Codec != nil {
		if err := cfg.Codec.SetSampleRate(initial.SampleRateHz); err != nil {
			engine.Release()
			return nil, fmt.Errorf("device: codec start-up rate: %w", err)
		}
	}

	pins := cfg.Pins
	if pins == nil {
		pins = NewVirtualEncoder(1, cfg.PollInterval)
	}
	source := cfg.Source
	if source == nil {
		source = SilenceSource{}
	}

	d := &Device{
		reconfig: reconfig,
		engine:   engine,
		realtime: NewRealtimeLoop(engine, source, cfg.BlockSize, componentLogger(logger, "audio"), cfg.Metrics),
		events:   NewControlEventSource(pins, cfg.StepsPerDetent, cfg.PollInterval),
		sink:     cfg.Sink,
		paced:    cfg.Paced,
		tick:     cfg.TickInterval,
		base:     logger,
		logger:   componentLogger(logger, "delay"),
	}
	d.ui = NewUIController(UIControllerConfig{
		Reconfig: reconfig,
		Store:    cfg.Store,
		Renderer: cfg.Renderer,
		Codec:    cfg.Codec,
		Logger:   componentLogger(logger, "ui"),
		Metrics:  cfg.Metrics,
	}, settings, time.Now())

	d.logger.Info().Stringer("config", initial).Int("block", d.realtime.BlockSize()).Msg("delay line ready")
	return d, nil
}

// Run drives both schedules until ctx is cancelled or the sink-side audio
// source is exhausted. Pending settings are saved before it returns.
func (d *Device) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if d.sink != nil {
		g.Go(func() error {
			defer stop()
			return d.realtime.Run(ctx, d.sink, d.paced)
		})
	}
	g.Go(func() error {
		return RunControl(ctx, d.events, d.ui, d.tick, componentLogger(d.base, "encoder"))
	})
	return g.Wait()
}

// Close releases the ring buffer. Call only after Run has returned and any
// pulling output device has been closed.
func (d *Device) Close() {
	d.engine.Release()
}

func (d *Device) Realtime() *RealtimeLoop {
	return d.realtime
}

func (d *Device) Engine() *DelayLine {
	return d.engine
}

func (d *Device) Reconfig() *ReconfigChannel {
	return d.reconfig
}

// UI exposes the controller; it may only be inspected once Run has returned.
func (d *Device) UI() *UIController {
	return d.ui
}
