// main.go - Intuition Delay entry point: flags, collaborators and device lifecycle

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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

func boilerPlate(w io.Writer) {
	fmt.Fprintln(w, "\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Fprintln(w, "\nIntuition Delay: a single-channel real-time audio delay with rotary encoder control.")
	fmt.Fprintln(w, "(c) 2024 - 2026 Zayn Otley")
	fmt.Fprintln(w, "https://github.com/IntuitionAmiga/IntuitionDelay")
	fmt.Fprintln(w, "License: GPLv3 or later")
}

type options struct {
	settingsPath string
	audio        string
	input        string
	script       string
	source       string
	pcm          string
	record       string
	logLevel     string
	metricsAddr  string
	block        int
	detent       int
	loop         bool
	quiet        bool
}

func parseOptions(args []string, stdout io.Writer) (options, error) {
	var opts options

	flagSet := flag.NewFlagSet("intuition_delay", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.settingsPath, "settings", "", "Settings file (TOML); empty keeps settings in memory")
	flagSet.StringVar(&opts.audio, "audio", "oto", "Audio output: oto|headless")
	flagSet.StringVar(&opts.input, "input", "terminal", "Encoder input: terminal|window|script|none")
	flagSet.StringVar(&opts.script, "script", "", "Lua encoder script for -input script")
	flagSet.StringVar(&opts.source, "source", "click", "Input signal: click|silence|pcm")
	flagSet.StringVar(&opts.pcm, "pcm", "", "Raw s16le mono input file for -source pcm")
	flagSet.BoolVar(&opts.loop, "loop", false, "Loop the -pcm input")
	flagSet.StringVar(&opts.record, "record", "", "Write headless output to a raw s16le file")
	flagSet.IntVar(&opts.block, "block", AUDIO_BLOCK_SIZE, "Samples per audio block")
	flagSet.IntVar(&opts.detent, "detent", 1, "Quadrature transitions per encoder click (1 or 4)")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "Log level: trace|debug|info|warn|error")
	flagSet.StringVar(&opts.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flagSet.BoolVar(&opts.quiet, "quiet", false, "Skip the start-up banner")

	flagSet.Usage = func() {
		flagSet.SetOutput(stdout)
		fmt.Fprintln(stdout, "Usage: ./intuition_delay [-settings delay.toml] [-audio oto|headless] [-input terminal|window|script|none] [-source click|silence|pcm]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() > 0 {
		return opts, fmt.Errorf("unexpected argument %q", flagSet.Arg(0))
	}

	switch opts.audio {
	case "oto", "headless":
	default:
		return opts, fmt.Errorf("-audio %q: want oto or headless", opts.audio)
	}
	switch opts.input {
	case "terminal", "window", "none":
	case "script":
		if opts.script == "" {
			return opts, errors.New("-input script needs -script file.lua")
		}
	default:
		return opts, fmt.Errorf("-input %q: want terminal, window, script or none", opts.input)
	}
	switch opts.source {
	case "click", "silence":
	case "pcm":
		if opts.pcm == "" {
			return opts, errors.New("-source pcm needs -pcm file")
		}
	default:
		return opts, fmt.Errorf("-source %q: want click, silence or pcm", opts.source)
	}
	if opts.block < 1 || opts.block > DELAY_BUFFER_SIZE/2 {
		return opts, fmt.Errorf("-block %d out of range", opts.block)
	}
	if opts.detent < 1 {
		return opts, fmt.Errorf("-detent %d must be at least 1", opts.detent)
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if !opts.quiet {
		boilerPlate(stdout)
	}

	logOut := stderr
	if opts.input == "terminal" {
		logOut = crlfWriter{w: stderr}
	}
	logger, err := newLogger(logOut, opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runDevice(ctx, stop, opts, stdout, logger); err != nil {
		logger.Error().Err(err).Msg("device stopped with error")
		return 1
	}
	return 0
}

// runDevice builds the collaborators named by opts, runs the device until ctx
// ends and tears everything down in reverse order.
func runDevice(ctx context.Context, stop context.CancelFunc, opts options, stdout io.Writer, logger zerolog.Logger) error {
	metrics := NewMetrics()
	if opts.metricsAddr != "" {
		go func() {
			if err := ServeMetrics(ctx, opts.metricsAddr, metrics, componentLogger(logger, "metrics")); err != nil {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	var store SettingsStore = NewMemorySettingsStore()
	if opts.settingsPath != "" {
		store = NewFileSettingsStore(opts.settingsPath)
	}
	settings := LoadSettings(store, componentLogger(logger, "settings"))

	source, closeSource, err := openSource(opts, settings)
	if err != nil {
		return err
	}
	defer closeSource()

	// Encoder input.
	encoder := NewVirtualEncoder(opts.detent, ENCODER_POLL_INTERVAL)
	var pins EncoderPins = encoder
	switch opts.input {
	case "terminal":
		host := NewTerminalInput(encoder, stop, componentLogger(logger, "encoder"))
		if err := host.Start(); err != nil {
			return err
		}
		defer host.Stop()
	case "script":
		scriptSource, err := os.ReadFile(opts.script)
		if err != nil {
			return fmt.Errorf("reading encoder script: %w", err)
		}
		actions, err := CompileEncoderScript(string(scriptSource), ENCODER_POLL_INTERVAL)
		if err != nil {
			return err
		}
		scripted := NewScriptedPins(actions, opts.detent, ENCODER_POLL_INTERVAL)
		pins = scripted
		go stopWhenScriptDone(ctx, scripted, stop, logger)
	}

	// Display.
	oled := NewOLEDRenderer()
	renderers := Renderers{oled}
	if opts.input != "window" {
		renderers = append(renderers, NewTerminalRenderer(stdout))
	}

	cfg := DeviceConfig{
		Settings:       settings,
		Store:          store,
		Renderer:       renderers,
		Pins:           pins,
		StepsPerDetent: opts.detent,
		Source:         source,
		BlockSize:      opts.block,
		Logger:         logger,
		Metrics:        metrics,
	}

	// Audio output.
	var player *OtoPlayer
	if opts.audio == "oto" {
		player, err = NewOtoPlayer(settings.SampleRateHz, opts.block, componentLogger(logger, "audio"))
		if err != nil {
			logger.Warn().Err(err).Msg("audio output unavailable, running headless")
			player = nil
		}
	}
	if player != nil {
		cfg.Codec = player
	} else {
		cfg.Codec = &HeadlessCodec{}
		cfg.Paced = true
		if opts.record != "" {
			sink, err := CreatePCMFileSink(opts.record)
			if err != nil {
				return err
			}
			defer func() {
				if err := sink.Close(); err != nil {
					logger.Error().Err(err).Msg("closing recording")
				}
			}()
			cfg.Sink = sink
		} else {
			cfg.Sink = &DiscardSink{}
		}
	}

	device, err := NewDevice(cfg)
	if err != nil {
		if player != nil {
			player.Close()
		}
		return err
	}
	defer device.Close()

	if player != nil {
		player.SetupPlayer(device.Realtime())
		player.Start()
		defer player.Close()
		go func() {
			select {
			case <-player.Exhausted():
				logger.Info().Msg("input finished")
				stop()
			case <-ctx.Done():
			}
		}()
	}

	if opts.input != "window" {
		return device.Run(ctx)
	}

	// The window owns the main goroutine; the device runs beside it.
	done := make(chan error, 1)
	go func() {
		done <- device.Run(ctx)
	}()
	window := NewOLEDWindow(ctx, oled, encoder, stop, componentLogger(logger, "display"))
	winErr := window.Run()
	stop()
	return errors.Join(winErr, <-done)
}

func openSource(opts options, settings Settings) (SampleSource, func(), error) {
	switch opts.source {
	case "silence":
		return SilenceSource{}, func() {}, nil
	case "pcm":
		src, err := OpenPCMFileSource(opts.pcm, opts.loop)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		// Two clicks a second at the start-up rate.
		return NewClickSource(settings.SampleRateHz/2, CLICK_AMPLITUDE), func() {}, nil
	}
}

func stopWhenScriptDone(ctx context.Context, pins *ScriptedPins, stop context.CancelFunc, logger zerolog.Logger) {
	ticker := time.NewTicker(UI_TICK_INTERVAL)
	defer ticker.Stop()
	finished := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// One extra tick lets the control loop drain the final events.
			if finished {
				stop()
				return
			}
			if pins.Done() {
				logger.Info().Msg("encoder script finished")
				finished = true
			}
		}
	}
}
