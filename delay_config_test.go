package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayConfig_DerivesSamples(t *testing.T) {
	cases := []struct {
		rate, ms, samples int
	}{
		{SAMPLE_RATE_48K, 30, 1440},
		{SAMPLE_RATE_44K, 30, 1323},
		{SAMPLE_RATE_44K, 1, 44},
		{SAMPLE_RATE_192K, MAX_DELAY_MS, 1920000},
		{SAMPLE_RATE_96K, 0, 0},
	}
	for _, tc := range cases {
		cfg, err := NewDelayConfig(tc.rate, tc.ms, DELAY_BUFFER_SIZE)
		require.NoError(t, err)
		assert.Equal(t, tc.samples, cfg.DelaySamples, "%d ms @ %d Hz", tc.ms, tc.rate)
		assert.Equal(t, tc.rate, cfg.SampleRateHz)
		assert.Equal(t, tc.ms, cfg.DelayMs)
	}
}

func TestDelayConfig_RejectsOutOfRange(t *testing.T) {
	_, err := NewDelayConfig(SAMPLE_RATE_48K, MAX_DELAY_MS+1, DELAY_BUFFER_SIZE)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewDelayConfig(SAMPLE_RATE_48K, -1, DELAY_BUFFER_SIZE)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewDelayConfig(50000, 30, DELAY_BUFFER_SIZE)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDelayConfig_CapacityExceededIsInvalidArgument(t *testing.T) {
	_, err := NewDelayConfig(SAMPLE_RATE_48K, 30, 1440)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, isRejection(err))

	_, err = NewDelayConfig(SAMPLE_RATE_48K, 30, 1441)
	assert.NoError(t, err)
}

func TestDelayConfig_WorstCaseFitsDefaultBuffer(t *testing.T) {
	cfg, err := NewDelayConfig(MAX_SAMPLE_RATE, MAX_DELAY_MS, DELAY_BUFFER_SIZE)
	require.NoError(t, err)
	assert.Less(t, cfg.DelaySamples, DELAY_BUFFER_SIZE)
	assert.Equal(t, 3840000, DELAY_BUFFER_SIZE)
}

func TestSampleRateOption_UnknownMapsToDefault(t *testing.T) {
	idx, ok := sampleRateOption(SAMPLE_RATE_96K)
	assert.True(t, ok)
	assert.Equal(t, RATE_OPTION_96K, idx)

	idx, ok = sampleRateOption(22050)
	assert.False(t, ok)
	assert.Equal(t, RATE_OPTION_48K, idx)

	assert.Equal(t, SAMPLE_RATE_48K, sampleRateValue(-1))
	assert.Equal(t, SAMPLE_RATE_192K, sampleRateValue(RATE_OPTION_192K))
}

func TestIsRejection_OnlyValidationErrors(t *testing.T) {
	assert.False(t, isRejection(ErrNotInitialized))
	assert.False(t, isRejection(errors.New("codec bus error")))
	assert.True(t, isRejection(ErrCapacityExceeded))
}
