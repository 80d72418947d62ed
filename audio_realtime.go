// audio_realtime.go - Block scheduler that runs the delay line against an audio transport

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
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SampleSource fills dst with the next block of input. A short final block is
// zero padded; io.EOF means the source is exhausted.
type SampleSource interface {
	ReadBlock(dst []int16) error
}

// SampleSink accepts one block of output.
type SampleSink interface {
	WriteBlock(src []int16) error
}

// AudioTransport is a full-duplex block transport.
type AudioTransport interface {
	SampleSource
	SampleSink
}

// RealtimeLoop owns the delay line's real-time side. It either pushes blocks
// to a sink on its own schedule (Run) or is pulled by a device callback
// (PullBlock). Both paths only touch pre-allocated buffers.
type RealtimeLoop struct {
	engine    *DelayLine
	source    SampleSource
	blockSize int
	in        []int16
	out       []int16

	logger  zerolog.Logger
	metrics *Metrics

	// OnUnderrun, if set before Run, receives every ErrUnderrun report.
	OnUnderrun func(error)

	blocks    atomic.Uint64
	underruns atomic.Uint64
}

func NewRealtimeLoop(engine *DelayLine, source SampleSource, blockSize int, logger zerolog.Logger, metrics *Metrics) *RealtimeLoop {
	if blockSize <= 0 {
		blockSize = AUDIO_BLOCK_SIZE
	}
	return &RealtimeLoop{
		engine:    engine,
		source:    source,
		blockSize: blockSize,
		in:        make([]int16, blockSize),
		out:       make([]int16, blockSize),
		logger:    logger,
		metrics:   metrics,
	}
}

// block runs n <= blockSize samples through the delay line. The returned
// slice aliases the loop's output buffer.
func (rt *RealtimeLoop) block(n int) ([]int16, error) {
	in, out := rt.in[:n], rt.out[:n]
	if err := rt.source.ReadBlock(in); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		rt.metrics.TransportError()
		return nil, fmt.Errorf("audio: read block: %w", err)
	}
	if err := rt.engine.Process(in, out); err != nil {
		return nil, err
	}
	rt.blocks.Add(1)
	return out, nil
}

// PullBlock fills dst with processed audio, in blockSize chunks. On error dst
// is silenced and the error returned.
func (rt *RealtimeLoop) PullBlock(dst []int16) error {
	for len(dst) > 0 {
		n := min(len(dst), rt.blockSize)
		out, err := rt.block(n)
		if err != nil {
			clear(dst)
			return err
		}
		copy(dst, out)
		dst = dst[n:]
	}
	return nil
}

// Run moves blocks from the source through the delay line to sink until ctx
// is cancelled or the source is exhausted. When paced, blocks are clocked at
// the active sample rate. A block still running when the next one is due is
// reported as an underrun; it is not retried and the ticker drops the missed
// ticks.
func (rt *RealtimeLoop) Run(ctx context.Context, sink SampleSink, paced bool) error {
	var (
		ticker *time.Ticker
		period time.Duration
	)
	if paced {
		period = blockPeriod(rt.blockSize, rt.engine.Active().SampleRateHz)
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}

	for {
		var deadline time.Time
		if paced {
			select {
			case <-ctx.Done():
				return nil
			case tick := <-ticker.C:
				deadline = tick.Add(period)
			}
		} else if ctx.Err() != nil {
			return nil
		}

		out, err := rt.block(rt.blockSize)
		if errors.Is(err, io.EOF) {
			rt.logger.Info().Uint64("blocks", rt.blocks.Load()).Msg("audio source exhausted")
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.WriteBlock(out); err != nil {
			rt.metrics.TransportError()
			return fmt.Errorf("audio: write block: %w", err)
		}

		if !paced {
			continue
		}
		if now := time.Now(); now.After(deadline) {
			rt.underrun(now.Sub(deadline))
		}

		// A rate change adopted this block retimes the clock from the next one.
		if p := blockPeriod(rt.blockSize, rt.engine.Active().SampleRateHz); p != period {
			period = p
			ticker.Reset(period)
		}
	}
}

func (rt *RealtimeLoop) underrun(late time.Duration) {
	count := rt.underruns.Add(1)
	rt.metrics.Underrun()
	err := fmt.Errorf("%w: block %d late by %s", ErrUnderrun, rt.blocks.Load(), late)
	rt.logger.Warn().Err(err).Uint64("underruns", count).Msg("deadline missed")
	if rt.OnUnderrun != nil {
		rt.OnUnderrun(err)
	}
}

// Underruns returns the number of blocks that missed their deadline.
func (rt *RealtimeLoop) Underruns() uint64 {
	return rt.underruns.Load()
}

// Blocks returns the number of blocks processed.
func (rt *RealtimeLoop) Blocks() uint64 {
	return rt.blocks.Load()
}

func (rt *RealtimeLoop) BlockSize() int {
	return rt.blockSize
}

// blockPeriod is the wall-clock duration of one block at rate Hz.
func blockPeriod(blockSize, rate int) time.Duration {
	if rate <= 0 {
		rate = DEFAULT_SAMPLE_RATE
	}
	return time.Duration(blockSize) * time.Second / time.Duration(rate)
}
