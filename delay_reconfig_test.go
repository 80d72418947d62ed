package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconfigChannel_EmptyConsume(t *testing.T) {
	rc := NewReconfigChannel(DELAY_BUFFER_SIZE, nil)
	_, ok := rc.TryConsume()
	assert.False(t, ok)
}

func TestReconfigChannel_LastWriterWins(t *testing.T) {
	rc := NewReconfigChannel(DELAY_BUFFER_SIZE, nil)
	require.NoError(t, rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 10}))
	require.NoError(t, rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_96K, DelayMs: 40}))

	cfg, ok := rc.TryConsume()
	require.True(t, ok)
	assert.Equal(t, DelayConfig{SampleRateHz: SAMPLE_RATE_96K, DelayMs: 40, DelaySamples: 3840}, cfg)

	_, ok = rc.TryConsume()
	assert.False(t, ok, "a published config is consumed at most once")
}

func TestReconfigChannel_RecomputesDerivedSamples(t *testing.T) {
	rc := NewReconfigChannel(DELAY_BUFFER_SIZE, nil)
	require.NoError(t, rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 30, DelaySamples: 7}))
	cfg, ok := rc.TryConsume()
	require.True(t, ok)
	assert.Equal(t, 1440, cfg.DelaySamples)
}

func TestReconfigChannel_RejectionLeavesSlotUntouched(t *testing.T) {
	rc := NewReconfigChannel(DELAY_BUFFER_SIZE, nil)
	require.NoError(t, rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 25}))

	err := rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 10001})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = rc.Publish(DelayConfig{SampleRateHz: 50000, DelayMs: 25})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg, ok := rc.TryConsume()
	require.True(t, ok)
	assert.Equal(t, 25, cfg.DelayMs)
	assert.Equal(t, SAMPLE_RATE_48K, cfg.SampleRateHz)
}

func TestReconfigChannel_RejectionDoesNotDisturbEngine(t *testing.T) {
	d, rc := newTestDelayLine(t, DELAY_BUFFER_SIZE, SAMPLE_RATE_48K, 30)
	before := d.Active()
	w0, r0 := d.Indices()

	assert.Error(t, rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 10001}))
	assert.Error(t, rc.Publish(DelayConfig{SampleRateHz: 50000, DelayMs: 30}))

	buf := make([]int16, 32)
	require.NoError(t, d.Process(buf, buf))
	assert.Equal(t, before, d.Active())
	w1, r1 := d.Indices()
	assert.Equal(t, (w0+32)%DELAY_BUFFER_SIZE, w1)
	assert.Equal(t, (r0+32)%DELAY_BUFFER_SIZE, r1)
}

func TestReconfigChannel_CapacityCheckedAtPublish(t *testing.T) {
	rc := NewReconfigChannel(1000, nil)
	err := rc.Publish(DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 30})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	_, ok := rc.TryConsume()
	assert.False(t, ok)
}
