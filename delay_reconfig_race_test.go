package main

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReconfigChannel_ConcurrentPublishProcess hammers Publish from the control
// side while the real-time side processes blocks. Every adopted config must be
// one that was published whole.
// Run with: go test -race -run TestReconfigChannel_ConcurrentPublishProcess -count=1
func TestReconfigChannel_ConcurrentPublishProcess(t *testing.T) {
	rc := NewReconfigChannel(DELAY_BUFFER_SIZE, NewMetrics())
	d := NewDelayLine(rc, nil)
	initial, err := NewDelayConfig(SAMPLE_RATE_48K, 30, rc.Capacity())
	require.NoError(t, err)
	require.NoError(t, d.Init(initial))

	var stop atomic.Bool
	var wg sync.WaitGroup
	wg.Go(func() {
		for i := 0; !stop.Load(); i++ {
			rate := sampleRateOptions[i%RATE_OPTION_COUNT]
			_ = rc.Publish(DelayConfig{SampleRateHz: rate, DelayMs: i % (MAX_DELAY_MS + 1)})
		}
	})

	in := make([]int16, 256)
	out := make([]int16, 256)
	for range 2000 {
		require.NoError(t, d.Process(in, out))
		active := d.Active()
		_, ok := sampleRateOption(active.SampleRateHz)
		assert.True(t, ok)
		assert.Equal(t, delaySamplesFor(active.DelayMs, active.SampleRateHz), active.DelaySamples)
		w, r := d.Indices()
		assert.Equal(t, active.DelaySamples, (w-r+DELAY_BUFFER_SIZE)%DELAY_BUFFER_SIZE)
	}
	stop.Store(true)
	wg.Wait()
}
