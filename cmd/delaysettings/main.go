package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: delaysettings [-f delay.toml] show|set|reset|validate [options]\n\n")
	fmt.Fprintf(w, "Inspects and edits the settings file of the audio delay.\n\n")
	fmt.Fprintf(w, "Examples:\n")
	fmt.Fprintf(w, "  delaysettings show\n")
	fmt.Fprintf(w, "  delaysettings -f /etc/delay.toml set -delay 120 -rate 96000\n")
	fmt.Fprintf(w, "  delaysettings validate\n")
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("delaysettings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("f", "delay.toml", "Settings file")
	fs.Usage = func() {
		usage(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	var err error
	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "show":
		err = show(*path, stdout)
	case "set":
		err = set(*path, rest, stdout, stderr)
	case "reset":
		if err = Save(*path, defaultSettings()); err == nil {
			fmt.Fprintf(stdout, "%s reset to %d ms @ %d Hz\n", *path, defaultDelayMs, defaultSampleRate)
		}
	case "validate":
		if err = Validate(*path); err == nil {
			fmt.Fprintf(stdout, "%s: ok\n", *path)
		}
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func show(path string, w io.Writer) error {
	s, found, err := Load(path)
	if err != nil {
		return err
	}
	source := "stored"
	if !found {
		source = "defaults, nothing stored"
	}
	fmt.Fprintf(w, "delay_ms    = %d\nsample_rate = %d\n# %s\n", s.DelayMs, s.SampleRateHz, source)
	return nil
}

func set(path string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(stderr)
	delay := fs.Int("delay", -1, "Delay in milliseconds")
	rate := fs.Int("rate", -1, "Sample rate in Hz")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *delay < 0 && *rate < 0 {
		return errors.New("set needs -delay and/or -rate")
	}

	s, _, err := Load(path)
	if err != nil {
		return err
	}
	if *delay >= 0 {
		s.DelayMs = *delay
	}
	if *rate >= 0 {
		s.SampleRateHz = *rate
	}
	if err := Save(path, s); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d ms @ %d Hz\n", path, s.DelayMs, s.SampleRateHz)
	return nil
}
