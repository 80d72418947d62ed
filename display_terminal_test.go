package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalRenderer_MainLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf)
	require.NoError(t, r.Render(DisplaySnapshot{Mode: ModeMain, DelayMs: 30, SampleRateHz: 48000, SelectedIndex: 1}))

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\r\x1b[2K")), "line redrawn in place")
	assert.Contains(t, out, "[DELAY]")
	assert.Contains(t, out, "30 ms")
	assert.Contains(t, out, "48KHZ")
}

func TestTerminalRenderer_MenuLine(t *testing.T) {
	assert.Equal(t, "[RATE ] 44.1KHZ 48KHZ >96KHZ<* 192KHZ", statusLine(DisplaySnapshot{
		Mode: ModeMenuConfirm, SampleRateHz: 96000, SelectedIndex: 2, Confirmed: true,
	}))
	assert.Equal(t, "[RATE ] >44.1KHZ< 48KHZ 96KHZ 192KHZ", statusLine(DisplaySnapshot{
		Mode: ModeMenu, SampleRateHz: 48000, SelectedIndex: 0,
	}))
}

func TestRenderers_JoinErrors(t *testing.T) {
	failing := &recordingRenderer{err: errors.New("panel offline")}
	ok := &recordingRenderer{}
	rs := Renderers{failing, ok}

	err := rs.Render(DisplaySnapshot{Mode: ModeMain})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panel offline")
	assert.Len(t, ok.frames, 1, "later renderers still draw")
}
