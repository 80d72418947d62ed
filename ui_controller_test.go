package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	frames []DisplaySnapshot
	err    error
}

func (r *recordingRenderer) Render(s DisplaySnapshot) error {
	r.frames = append(r.frames, s)
	return r.err
}

func (r *recordingRenderer) last() DisplaySnapshot {
	return r.frames[len(r.frames)-1]
}

type fakeCodec struct {
	rates []int
	err   error
}

func (c *fakeCodec) SetSampleRate(hz int) error {
	c.rates = append(c.rates, hz)
	return c.err
}

type uiFixture struct {
	ui       *UIController
	reconfig *ReconfigChannel
	store    *MemorySettingsStore
	renderer *recordingRenderer
	codec    *fakeCodec
	t0       time.Time
}

func newUIFixture(t *testing.T, capacity int, initial Settings) *uiFixture {
	t.Helper()
	f := &uiFixture{
		reconfig: NewReconfigChannel(capacity, nil),
		store:    NewMemorySettingsStore(),
		renderer: &recordingRenderer{},
		codec:    &fakeCodec{},
		t0:       time.Unix(10000, 0),
	}
	f.ui = NewUIController(UIControllerConfig{
		Reconfig: f.reconfig,
		Store:    f.store,
		Renderer: f.renderer,
		Codec:    f.codec,
		Logger:   zerolog.Nop(),
		Metrics:  NewMetrics(),
	}, initial, f.t0)
	return f
}

func (f *uiFixture) send(t *testing.T, at time.Duration, events ...EncoderEvent) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, f.ui.HandleEvent(ev, f.t0.Add(at)))
	}
}

func TestUIController_StartsOnMainScreen(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	assert.Equal(t, ModeMain, f.ui.Mode())
	assert.Equal(t, DefaultSettings(), f.ui.Settings())
	assert.Equal(t, RATE_OPTION_48K, f.ui.SelectedIndex())
	assert.False(t, f.ui.Dirty())
	require.Len(t, f.renderer.frames, 1)
	assert.Equal(t, DisplaySnapshot{Mode: ModeMain, DelayMs: 30, SampleRateHz: 48000, SelectedIndex: 1}, f.renderer.last())
}

func TestUIController_UnknownRateSanitized(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, Settings{DelayMs: 20000, SampleRateHz: 22050})
	assert.Equal(t, Settings{DelayMs: MAX_DELAY_MS, SampleRateHz: SAMPLE_RATE_48K}, f.ui.Settings())
	assert.Equal(t, RATE_OPTION_48K, f.ui.SelectedIndex())
}

func TestUIController_RotateAdjustsDelayAndPublishes(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.send(t, time.Second, EventRotateCW, EventRotateCW, EventRotateCCW)

	assert.Equal(t, 31, f.ui.Settings().DelayMs)
	assert.True(t, f.ui.Dirty())
	assert.Equal(t, f.t0.Add(time.Second), f.ui.LastInteraction())

	cfg, ok := f.reconfig.TryConsume()
	require.True(t, ok)
	assert.Equal(t, DelayConfig{SampleRateHz: 48000, DelayMs: 31, DelaySamples: 1488}, cfg)
	assert.Empty(t, f.codec.rates, "delay changes never retune the codec")
	assert.Equal(t, 31, f.renderer.last().DelayMs)
}

func TestUIController_DelayClampedAtBounds(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, Settings{DelayMs: MIN_DELAY_MS, SampleRateHz: SAMPLE_RATE_48K})
	f.send(t, time.Second, EventRotateCCW)
	assert.Equal(t, MIN_DELAY_MS, f.ui.Settings().DelayMs)
	assert.False(t, f.ui.Dirty())
	_, ok := f.reconfig.TryConsume()
	assert.False(t, ok)

	f = newUIFixture(t, DELAY_BUFFER_SIZE, Settings{DelayMs: MAX_DELAY_MS, SampleRateHz: SAMPLE_RATE_192K})
	f.send(t, time.Second, EventRotateCW)
	assert.Equal(t, MAX_DELAY_MS, f.ui.Settings().DelayMs)
	assert.False(t, f.ui.Dirty())
}

func TestUIController_MenuFlow(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())

	f.send(t, time.Second, EventPressed)
	assert.Equal(t, ModeMenu, f.ui.Mode())
	assert.Equal(t, RATE_OPTION_48K, f.ui.SelectedIndex())

	f.send(t, time.Second, EventReleased)
	assert.Equal(t, ModeMenu, f.ui.Mode(), "release only counts as interaction")

	f.send(t, 2*time.Second, EventRotateCW, EventRotateCW)
	assert.Equal(t, RATE_OPTION_192K, f.ui.SelectedIndex())
	f.send(t, 2*time.Second, EventRotateCW)
	assert.Equal(t, RATE_OPTION_44K, f.ui.SelectedIndex(), "wraps forward")
	f.send(t, 2*time.Second, EventRotateCCW)
	assert.Equal(t, RATE_OPTION_192K, f.ui.SelectedIndex(), "wraps backward")
	f.send(t, 2*time.Second, EventRotateCCW)
	assert.False(t, f.ui.Dirty(), "browsing the menu changes nothing")

	f.send(t, 3*time.Second, EventPressed)
	assert.Equal(t, ModeMenuConfirm, f.ui.Mode())
	assert.True(t, f.ui.Confirmed())
	assert.True(t, f.ui.Dirty())
	assert.Equal(t, SAMPLE_RATE_96K, f.ui.Settings().SampleRateHz)
	assert.Equal(t, []int{SAMPLE_RATE_96K}, f.codec.rates)

	cfg, ok := f.reconfig.TryConsume()
	require.True(t, ok)
	assert.Equal(t, 2880, cfg.DelaySamples)

	snap := f.renderer.last()
	assert.Equal(t, ModeMenuConfirm, snap.Mode)
	assert.True(t, snap.Confirmed)
	assert.Equal(t, RATE_OPTION_96K, snap.SelectedIndex)

	f.send(t, 4*time.Second, EventReleased)
	assert.Equal(t, ModeMain, f.ui.Mode())
	assert.False(t, f.ui.Confirmed())
}

func TestUIController_MenuOpensAtCurrentRate(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, Settings{DelayMs: 30, SampleRateHz: SAMPLE_RATE_44K})
	f.send(t, time.Second, EventPressed)
	assert.Equal(t, RATE_OPTION_44K, f.ui.SelectedIndex())
}

func TestUIController_AutoSaveEdgeTriggered(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	assert.False(t, f.ui.Tick(f.t0.Add(time.Hour)), "clean settings are never saved")

	f.send(t, time.Second, EventRotateCW)
	assert.False(t, f.ui.Tick(f.t0.Add(time.Second+AUTO_SAVE_IDLE-time.Millisecond)))
	assert.Zero(t, f.store.Saves())

	assert.True(t, f.ui.Tick(f.t0.Add(time.Second+AUTO_SAVE_IDLE)))
	assert.Equal(t, 1, f.store.Saves())
	assert.False(t, f.ui.Dirty())

	assert.False(t, f.ui.Tick(f.t0.Add(time.Second+2*AUTO_SAVE_IDLE)))
	assert.Equal(t, 1, f.store.Saves())

	stored, found, err := f.store.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, Settings{DelayMs: 31, SampleRateHz: SAMPLE_RATE_48K}, stored)
}

func TestUIController_InteractionPostponesSave(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.send(t, 0, EventRotateCW)
	f.send(t, 4*time.Second, EventRotateCW)
	assert.False(t, f.ui.Tick(f.t0.Add(6*time.Second)))
	assert.True(t, f.ui.Tick(f.t0.Add(9*time.Second)))
}

func TestUIController_FailedSaveRetries(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.send(t, 0, EventRotateCW)

	f.store.FailSaves(errors.New("flash busy"))
	assert.False(t, f.ui.Tick(f.t0.Add(AUTO_SAVE_IDLE)))
	assert.True(t, f.ui.Dirty())

	f.store.FailSaves(nil)
	assert.True(t, f.ui.Tick(f.t0.Add(AUTO_SAVE_IDLE+UI_TICK_INTERVAL)))
	assert.False(t, f.ui.Dirty())
}

func TestUIController_RejectedDelayKeepsSettings(t *testing.T) {
	// 1 ms at 48 kHz fits in 50 samples, 2 ms does not.
	f := newUIFixture(t, 50, Settings{DelayMs: 1, SampleRateHz: SAMPLE_RATE_48K})
	err := f.ui.HandleEvent(EventRotateCW, f.t0)
	require.Error(t, err)
	assert.True(t, isRejection(err))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, f.ui.Settings().DelayMs)
	assert.False(t, f.ui.Dirty())
}

func TestUIController_RejectedRateStaysInMenu(t *testing.T) {
	f := newUIFixture(t, 50, Settings{DelayMs: 1, SampleRateHz: SAMPLE_RATE_48K})
	f.send(t, 0, EventPressed, EventRotateCW) // 96 kHz

	err := f.ui.HandleEvent(EventPressed, f.t0)
	require.Error(t, err)
	assert.True(t, isRejection(err))
	assert.Equal(t, ModeMenu, f.ui.Mode())
	assert.False(t, f.ui.Confirmed())
	assert.Equal(t, SAMPLE_RATE_48K, f.ui.Settings().SampleRateHz)
	assert.Empty(t, f.codec.rates)
}

func TestUIController_LockedCodecKeepsRunningRate(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.codec.err = ErrCodecRateLocked
	f.send(t, 0, EventPressed, EventRotateCCW) // 44.1 kHz

	err := f.ui.HandleEvent(EventPressed, f.t0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodecRateLocked)
	assert.False(t, isRejection(err))
	assert.Equal(t, ModeMenuConfirm, f.ui.Mode())
	assert.Equal(t, SAMPLE_RATE_44K, f.ui.Settings().SampleRateHz, "kept for the next start")
	assert.True(t, f.ui.Dirty())
	assert.Equal(t, SAMPLE_RATE_48K, f.ui.RunningRate())

	cfg, ok := f.reconfig.TryConsume()
	require.True(t, ok)
	assert.Equal(t, DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 30, DelaySamples: 1440}, cfg)

	// Later delay changes stay on the running clock too.
	f.send(t, time.Second, EventReleased, EventRotateCW)
	cfg, ok = f.reconfig.TryConsume()
	require.True(t, ok)
	assert.Equal(t, DelayConfig{SampleRateHz: SAMPLE_RATE_48K, DelayMs: 31, DelaySamples: 1488}, cfg)
	assert.Equal(t, []int{SAMPLE_RATE_44K}, f.codec.rates, "delay changes never retune the codec")
}

func TestUIController_LockedCodecDelayLineMatchesHeardDelay(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.codec.err = ErrCodecRateLocked
	engine := NewDelayLine(f.reconfig, nil)
	initial, err := NewDelayConfig(SAMPLE_RATE_48K, 30, DELAY_BUFFER_SIZE)
	require.NoError(t, err)
	require.NoError(t, engine.Init(initial))

	f.send(t, 0, EventPressed, EventRotateCW, EventRotateCW) // 192 kHz
	assert.ErrorIs(t, f.ui.HandleEvent(EventPressed, f.t0), ErrCodecRateLocked)
	f.send(t, time.Second, EventReleased) // back to Main
	for range 70 {
		f.send(t, time.Second, EventRotateCW)
	}
	assert.Equal(t, 100, f.ui.Settings().DelayMs)

	in := make([]int16, 64)
	out := make([]int16, 64)
	require.NoError(t, engine.Process(in, out))
	active := engine.Active()
	assert.Equal(t, SAMPLE_RATE_48K, active.SampleRateHz)
	assert.Equal(t, 100, active.DelayMs)
	assert.Equal(t, 4800, active.DelaySamples)
}

func TestUIController_RateBackToRunningRate(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.codec.err = ErrCodecRateLocked
	f.send(t, 0, EventPressed, EventRotateCW) // 96 kHz
	assert.ErrorIs(t, f.ui.HandleEvent(EventPressed, f.t0), ErrCodecRateLocked)
	f.send(t, 0, EventReleased)

	f.codec.err = nil
	f.send(t, time.Second, EventPressed, EventRotateCCW, EventPressed) // 48 kHz again
	assert.Equal(t, SAMPLE_RATE_48K, f.ui.Settings().SampleRateHz)
	assert.Equal(t, SAMPLE_RATE_48K, f.ui.RunningRate())
	assert.Equal(t, []int{SAMPLE_RATE_96K, SAMPLE_RATE_48K}, f.codec.rates)
}

func TestUIController_FailingStoreLogsOncePerEpisode(t *testing.T) {
	var logs bytes.Buffer
	store := NewMemorySettingsStore()
	t0 := time.Unix(10000, 0)
	ui := NewUIController(UIControllerConfig{
		Reconfig: NewReconfigChannel(DELAY_BUFFER_SIZE, nil),
		Store:    store,
		Logger:   zerolog.New(&logs).Level(zerolog.InfoLevel),
	}, DefaultSettings(), t0)

	require.NoError(t, ui.HandleEvent(EventRotateCW, t0))
	store.FailSaves(errors.New("flash busy"))
	for i := range 10 {
		assert.False(t, ui.Tick(t0.Add(AUTO_SAVE_IDLE+time.Duration(i)*UI_TICK_INTERVAL)))
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "settings save failed"))
	assert.True(t, ui.Dirty())

	store.FailSaves(nil)
	assert.True(t, ui.Tick(t0.Add(time.Minute)))

	require.NoError(t, ui.HandleEvent(EventRotateCW, t0.Add(time.Minute)))
	store.FailSaves(errors.New("flash busy"))
	assert.False(t, ui.Tick(t0.Add(time.Hour)))
	assert.Equal(t, 2, strings.Count(logs.String(), "settings save failed"))
}

func TestUIController_RenderFailureIgnored(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	f.renderer.err = errors.New("i2c nack")
	assert.NoError(t, f.ui.HandleEvent(EventRotateCW, f.t0))
	assert.Equal(t, 31, f.ui.Settings().DelayMs)
}

func TestUIController_ShutdownFlushes(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	require.NoError(t, f.ui.Shutdown())
	assert.Zero(t, f.store.Saves())

	f.send(t, 0, EventRotateCW)
	require.NoError(t, f.ui.Shutdown())
	assert.Equal(t, 1, f.store.Saves())

	f.send(t, 0, EventRotateCW)
	f.store.FailSaves(errors.New("read-only"))
	assert.Error(t, f.ui.Shutdown())
	assert.True(t, f.ui.Dirty())
}

func TestUIController_NoneEventIgnored(t *testing.T) {
	f := newUIFixture(t, DELAY_BUFFER_SIZE, DefaultSettings())
	frames := len(f.renderer.frames)
	require.NoError(t, f.ui.HandleEvent(EventNone, f.t0.Add(time.Minute)))
	assert.Equal(t, f.t0, f.ui.LastInteraction())
	assert.Len(t, f.renderer.frames, frames)
}
