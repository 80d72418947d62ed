// audio_source.go - Test-signal generators, raw PCM file input/output and sinks

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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

const (
	CLICK_AMPLITUDE = 12000
	CLICK_WIDTH     = 48 // Samples per click pulse
)

// ClickSource emits a short pulse every period samples, which makes the
// delay audible as a distinct echo.
type ClickSource struct {
	period    int
	width     int
	amplitude int16
	pos       int
}

func NewClickSource(period int, amplitude int16) *ClickSource {
	if period < 1 {
		period = 1
	}
	return &ClickSource{
		period:    period,
		width:     min(CLICK_WIDTH, period),
		amplitude: amplitude,
	}
}

func (c *ClickSource) ReadBlock(dst []int16) error {
	for i := range dst {
		if c.pos < c.width {
			// Alternate polarity so the pulse has no DC offset.
			if c.pos&1 == 0 {
				dst[i] = c.amplitude
			} else {
				dst[i] = -c.amplitude
			}
		} else {
			dst[i] = 0
		}
		c.pos++
		if c.pos == c.period {
			c.pos = 0
		}
	}
	return nil
}

type SilenceSource struct{}

func (SilenceSource) ReadBlock(dst []int16) error {
	clear(dst)
	return nil
}

// PCMFileSource reads raw signed 16-bit little-endian mono samples.
type PCMFileSource struct {
	f    *os.File
	r    *bufio.Reader
	loop bool
	raw  []byte
	done bool
}

func OpenPCMFileSource(path string, loop bool) (*PCMFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pcm input: %w", err)
	}
	return &PCMFileSource{
		f:    f,
		r:    bufio.NewReaderSize(f, 64*1024),
		loop: loop,
		raw:  make([]byte, 2*AUDIO_BLOCK_SIZE),
	}, nil
}

func (p *PCMFileSource) ReadBlock(dst []int16) error {
	if p.done {
		return io.EOF
	}
	if need := 2 * len(dst); len(p.raw) < need {
		p.raw = make([]byte, need)
	}
	raw := p.raw[:2*len(dst)]

	filled := 0
	for filled < len(raw) {
		n, err := p.r.Read(raw[filled:])
		filled += n
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading pcm input: %w", err)
		}
		if !p.loop || p.emptyFile() {
			p.done = true
			break
		}
		if _, err := p.f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewinding pcm input: %w", err)
		}
		p.r.Reset(p.f)
	}

	if filled < 2 {
		return io.EOF
	}
	samples := filled / 2
	for i := range samples {
		dst[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	clear(dst[samples:])
	return nil
}

func (p *PCMFileSource) emptyFile() bool {
	info, err := p.f.Stat()
	return err != nil || info.Size() < 2
}

func (p *PCMFileSource) Close() error {
	return p.f.Close()
}

// PCMFileSink writes raw signed 16-bit little-endian mono samples.
type PCMFileSink struct {
	f   *os.File
	w   *bufio.Writer
	raw []byte
}

func CreatePCMFileSink(path string) (*PCMFileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating pcm output: %w", err)
	}
	return &PCMFileSink{
		f:   f,
		w:   bufio.NewWriterSize(f, 64*1024),
		raw: make([]byte, 2*AUDIO_BLOCK_SIZE),
	}, nil
}

func (p *PCMFileSink) WriteBlock(src []int16) error {
	if need := 2 * len(src); len(p.raw) < need {
		p.raw = make([]byte, need)
	}
	raw := p.raw[:2*len(src)]
	for i, s := range src {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	_, err := p.w.Write(raw)
	return err
}

func (p *PCMFileSink) Close() error {
	flushErr := p.w.Flush()
	return errors.Join(flushErr, p.f.Close())
}

// DiscardSink drops output, counting samples and tracking the peak level.
type DiscardSink struct {
	samples atomic.Uint64
	peak    atomic.Int32
}

func (d *DiscardSink) WriteBlock(src []int16) error {
	peak := d.peak.Load()
	for _, s := range src {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		peak = max(peak, v)
	}
	d.peak.Store(peak)
	d.samples.Add(uint64(len(src)))
	return nil
}

func (d *DiscardSink) Samples() uint64 {
	return d.samples.Load()
}

func (d *DiscardSink) Peak() int32 {
	return d.peak.Load()
}
