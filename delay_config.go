// delay_config.go - Immutable delay configuration snapshot and error taxonomy

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
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCapacityExceeded = fmt.Errorf("%w: delay exceeds buffer capacity", ErrInvalidArgument)
	ErrInvalidConfig    = errors.New("invalid delay config")
	ErrNotInitialized   = errors.New("delay line not initialized")
	ErrUnderrun         = errors.New("audio underrun")
)

// DelayConfig is a validated snapshot of the delay parameters. Once published it
// is never modified; a change always produces a new value.
type DelayConfig struct {
	SampleRateHz int
	DelayMs      int
	DelaySamples int
}

// NewDelayConfig validates the rate and delay against the supported set and
// the given buffer capacity, and derives the delay in samples.
func NewDelayConfig(sampleRateHz, delayMs, capacity int) (DelayConfig, error) {
	if _, ok := sampleRateOption(sampleRateHz); !ok {
		return DelayConfig{}, fmt.Errorf("%w: unsupported sample rate %d Hz", ErrInvalidArgument, sampleRateHz)
	}
	if delayMs < MIN_DELAY_MS || delayMs > MAX_DELAY_MS {
		return DelayConfig{}, fmt.Errorf("%w: delay %d ms outside %d-%d ms",
			ErrInvalidArgument, delayMs, MIN_DELAY_MS, MAX_DELAY_MS)
	}
	samples := delaySamplesFor(delayMs, sampleRateHz)
	if samples >= capacity {
		return DelayConfig{}, fmt.Errorf("%w: %d samples (max %d)", ErrCapacityExceeded, samples, capacity-1)
	}
	return DelayConfig{
		SampleRateHz: sampleRateHz,
		DelayMs:      delayMs,
		DelaySamples: samples,
	}, nil
}

func (c DelayConfig) String() string {
	return fmt.Sprintf("%d ms @ %d Hz (%d samples)", c.DelayMs, c.SampleRateHz, c.DelaySamples)
}

// isRejection reports whether err is a validation failure that left state untouched.
func isRejection(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
