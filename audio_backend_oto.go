//go:build !headless

// audio_backend_oto.go - OTO v3 audio output driving the real-time loop

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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"
)

// OtoPlayer is pulled by the oto mixer; its Read is the real-time schedule.
type OtoPlayer struct {
	ctx        *oto.Context
	player     *oto.Player
	rt         atomic.Pointer[RealtimeLoop] // Atomic for lock-free Read()
	sampleBuf  []int16                      // Pre-allocated sample buffer
	sampleRate int
	started    bool
	mutex      sync.Mutex // Only for setup/control operations

	logger    zerolog.Logger
	eofOnce   sync.Once
	exhausted chan struct{}
}

func NewOtoPlayer(sampleRate, blockSize int, logger zerolog.Logger) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   2 * blockPeriod(blockSize, sampleRate),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto context at %d Hz: %w", sampleRate, err)
	}
	<-ready

	return &OtoPlayer{
		ctx:        ctx,
		sampleRate: sampleRate,
		sampleBuf:  make([]int16, 4*blockSize),
		logger:     logger,
		exhausted:  make(chan struct{}),
	}, nil
}

func (op *OtoPlayer) SetupPlayer(rt *RealtimeLoop) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.rt.Store(rt)
	op.player = op.ctx.NewPlayer(op)
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	rt := op.rt.Load()
	if rt == nil {
		clear(p)
		return len(p), nil
	}

	numSamples := len(p) / 2
	// Grows only if oto asks for more than the pre-allocated size.
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]int16, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	if err := rt.PullBlock(samples); err != nil {
		if errors.Is(err, io.EOF) {
			op.eofOnce.Do(func() { close(op.exhausted) })
		} else {
			op.logger.Error().Err(err).Msg("audio block failed, output silenced")
		}
	}

	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(s))
	}
	clear(p[2*numSamples:])
	return len(p), nil
}

// Exhausted is closed once the input source runs out.
func (op *OtoPlayer) Exhausted() <-chan struct{} {
	return op.exhausted
}

// SetSampleRate succeeds only for the rate the context was opened at.
func (op *OtoPlayer) SetSampleRate(hz int) error {
	if hz == op.sampleRate {
		return nil
	}
	return fmt.Errorf("%w: output runs at %d Hz, %d Hz applies after restart", ErrCodecRateLocked, op.sampleRate, hz)
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		if err := op.player.Close(); err != nil {
			op.logger.Warn().Err(err).Msg("closing oto player")
		}
		op.player = nil
	}
	op.rt.Store(nil)
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
