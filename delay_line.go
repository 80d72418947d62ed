// delay_line.go - Ring buffer delay line driven by the real-time audio loop

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

import "fmt"

// DelayLine reproduces its input after the configured number of samples.
//
// Process must only be called from the real-time loop. Init, Configure and
// Release are start-up/shutdown operations and must not overlap Process; live
// changes go through the ReconfigChannel.
type DelayLine struct {
	buffer     []int16
	writeIndex int
	readIndex  int
	active     DelayConfig

	reconfig *ReconfigChannel
	metrics  *Metrics
}

func NewDelayLine(reconfig *ReconfigChannel, metrics *Metrics) *DelayLine {
	return &DelayLine{
		reconfig: reconfig,
		metrics:  metrics,
	}
}

// Init allocates and clears the ring buffer and applies the initial config.
func (d *DelayLine) Init(initial DelayConfig) error {
	capacity := DELAY_BUFFER_SIZE
	if d.reconfig != nil {
		capacity = d.reconfig.Capacity()
	}
	if capacity <= 0 {
		return fmt.Errorf("%w: buffer capacity %d", ErrInvalidArgument, capacity)
	}
	if len(d.buffer) != capacity {
		d.buffer = make([]int16, capacity)
	} else {
		clear(d.buffer)
	}
	d.writeIndex = 0
	d.readIndex = 0
	return d.Configure(initial)
}

// Release drops the buffer. Process fails with ErrNotInitialized afterwards.
func (d *DelayLine) Release() {
	d.buffer = nil
	d.writeIndex = 0
	d.readIndex = 0
}

// Configure applies cfg directly, re-anchoring the read index to the current
// write index.
func (d *DelayLine) Configure(cfg DelayConfig) error {
	if d.buffer == nil {
		return ErrNotInitialized
	}
	if cfg.DelaySamples < 0 || cfg.DelaySamples >= len(d.buffer) {
		return fmt.Errorf("%w: %w: %d samples (capacity %d)",
			ErrInvalidConfig, ErrCapacityExceeded, cfg.DelaySamples, len(d.buffer))
	}
	d.adopt(cfg)
	return nil
}

// adopt skips validation: everything reaching it came through Configure or Publish.
// Old buffer contents are reinterpreted at the new offset.
func (d *DelayLine) adopt(cfg DelayConfig) {
	size := len(d.buffer)
	d.active = cfg
	d.readIndex = (d.writeIndex + size - cfg.DelaySamples) % size
}

// Process writes in to the ring and fills out with the delayed samples.
// A pending config is adopted once, before the first sample of the block.
func (d *DelayLine) Process(in, out []int16) error {
	if d.buffer == nil {
		return ErrNotInitialized
	}
	if len(in) != len(out) {
		return fmt.Errorf("%w: block length mismatch %d != %d", ErrInvalidArgument, len(in), len(out))
	}

	if d.reconfig != nil {
		if cfg, ok := d.reconfig.TryConsume(); ok {
			d.adopt(cfg)
			d.metrics.ConfigAdopted(cfg)
		}
	}

	buf := d.buffer
	size := len(buf)
	w, r := d.writeIndex, d.readIndex
	for i, sample := range in {
		buf[w] = sample
		out[i] = buf[r]
		w++
		if w == size {
			w = 0
		}
		r++
		if r == size {
			r = 0
		}
	}
	d.writeIndex, d.readIndex = w, r
	d.metrics.BlockProcessed()
	return nil
}

// Active returns the config currently in effect.
func (d *DelayLine) Active() DelayConfig {
	return d.active
}

// Indices returns the write and read positions.
func (d *DelayLine) Indices() (write, read int) {
	return d.writeIndex, d.readIndex
}

// Capacity returns the ring size, or 0 before Init.
func (d *DelayLine) Capacity() int {
	return len(d.buffer)
}

// Initialized reports whether the ring buffer is allocated.
func (d *DelayLine) Initialized() bool {
	return d.buffer != nil
}
