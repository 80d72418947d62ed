package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampSource yields 1, 2, 3, ... and io.EOF after limit samples (0 = endless).
type rampSource struct {
	next  int
	limit int
}

func (r *rampSource) ReadBlock(dst []int16) error {
	if r.limit > 0 && r.next >= r.limit {
		return io.EOF
	}
	for i := range dst {
		if r.limit > 0 && r.next >= r.limit {
			dst[i] = 0
			continue
		}
		dst[i] = int16(r.next%30000 + 1)
		r.next++
	}
	return nil
}

type captureSink struct {
	mu      sync.Mutex
	samples []int16
	blocks  int
	delay   time.Duration
	err     error
}

func (c *captureSink) WriteBlock(src []int16) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.samples = append(c.samples, src...)
	c.blocks++
	return nil
}

func (c *captureSink) snapshot() ([]int16, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int16(nil), c.samples...), c.blocks
}

type failingSource struct{ err error }

func (f failingSource) ReadBlock([]int16) error { return f.err }

func newTestRealtime(t *testing.T, source SampleSource, blockSize, delayMs int, m *Metrics) *RealtimeLoop {
	t.Helper()
	d, _ := newTestDelayLine(t, 20000, SAMPLE_RATE_48K, delayMs)
	return NewRealtimeLoop(d, source, blockSize, zerolog.Nop(), m)
}

func TestRealtimeLoop_PullBlockChunks(t *testing.T) {
	rt := newTestRealtime(t, &rampSource{}, 256, 5, nil) // 240 samples
	dst := make([]int16, 1000)
	require.NoError(t, rt.PullBlock(dst))
	assert.Equal(t, uint64(4), rt.Blocks())

	for n := range dst {
		if n < 240 {
			assert.Zero(t, dst[n])
		} else {
			require.Equal(t, int16(n-240+1), dst[n], "sample %d", n)
		}
	}
}

func TestRealtimeLoop_PullBlockErrorSilences(t *testing.T) {
	m := NewMetrics()
	rt := newTestRealtime(t, failingSource{errors.New("adc overrun")}, 64, 1, m)
	dst := []int16{1, 2, 3}
	err := rt.PullBlock(dst)
	require.Error(t, err)
	assert.Equal(t, []int16{0, 0, 0}, dst)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transportErrors))
}

func TestRealtimeLoop_RunUntilSourceExhausted(t *testing.T) {
	sink := &captureSink{}
	rt := newTestRealtime(t, &rampSource{limit: 1000}, 100, 1, nil) // 48 samples
	require.NoError(t, rt.Run(context.Background(), sink, false))

	got, blocks := sink.snapshot()
	assert.Equal(t, 10, blocks)
	require.Len(t, got, 1000)
	assert.Equal(t, int16(1), got[48])
	assert.Equal(t, int16(1000-48), got[999])
}

func TestRealtimeLoop_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &captureSink{}
	rt := newTestRealtime(t, SilenceSource{}, 64, 1, nil)
	require.NoError(t, rt.Run(ctx, sink, true))
	require.NoError(t, rt.Run(ctx, sink, false))
	_, blocks := sink.snapshot()
	assert.Zero(t, blocks)
}

func TestRealtimeLoop_TransportErrorsReturned(t *testing.T) {
	rt := newTestRealtime(t, failingSource{errors.New("i2s dma")}, 64, 1, nil)
	err := rt.Run(context.Background(), &captureSink{}, false)
	assert.ErrorContains(t, err, "i2s dma")

	rt = newTestRealtime(t, SilenceSource{}, 64, 1, nil)
	err = rt.Run(context.Background(), &captureSink{err: errors.New("codec gone")}, false)
	assert.ErrorContains(t, err, "codec gone")
}

func TestRealtimeLoop_UnderrunReportedNotRetried(t *testing.T) {
	m := NewMetrics()
	// 48 samples at 48 kHz is a 1 ms deadline; the sink takes 3 ms per block.
	rt := newTestRealtime(t, SilenceSource{}, 48, 1, m)
	var mu sync.Mutex
	var reports []error
	rt.OnUnderrun = func(err error) {
		mu.Lock()
		reports = append(reports, err)
		mu.Unlock()
	}
	sink := &captureSink{delay: 3 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.NoError(t, rt.Run(ctx, sink, true))

	_, blocks := sink.snapshot()
	assert.Positive(t, rt.Underruns())
	assert.Equal(t, uint64(blocks), rt.Blocks(), "late blocks are delivered once, never replayed")
	assert.Equal(t, float64(rt.Underruns()), testutil.ToFloat64(m.underruns))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reports)
	assert.ErrorIs(t, reports[0], ErrUnderrun)
}

func TestRealtimeLoop_IdlePipelineHasNoUnderruns(t *testing.T) {
	m := NewMetrics()
	// 480 samples at 48 kHz gives each block 10 ms; silence costs nothing.
	rt := newTestRealtime(t, SilenceSource{}, 480, 1, m)
	sink := &captureSink{}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, rt.Run(ctx, sink, true))

	_, blocks := sink.snapshot()
	assert.Greater(t, blocks, 20)
	assert.Zero(t, rt.Underruns())
	assert.Zero(t, testutil.ToFloat64(m.underruns))
}

func TestBlockPeriod(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, blockPeriod(480, SAMPLE_RATE_48K))
	assert.Equal(t, time.Duration(1024)*time.Second/48000, blockPeriod(AUDIO_BLOCK_SIZE, SAMPLE_RATE_48K))
	assert.Equal(t, blockPeriod(96, DEFAULT_SAMPLE_RATE), blockPeriod(96, 0))
}
