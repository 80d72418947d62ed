package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEncoderScript_Actions(t *testing.T) {
	actions, err := CompileEncoderScript(`
		cw(2)
		wait(20)
		press()
		ccw()
	`, ENCODER_POLL_INTERVAL)
	require.NoError(t, err)
	assert.Equal(t, []scriptAction{
		{kind: scriptRotate, count: 2},
		{kind: scriptWait, count: 4},
		{kind: scriptPress},
		{kind: scriptRotate, count: -1},
	}, actions)
}

func TestCompileEncoderScript_LuaControlFlow(t *testing.T) {
	actions, err := CompileEncoderScript(`for i = 1, 3 do cw(i) end`, ENCODER_POLL_INTERVAL)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, 3, actions[2].count)
}

func TestCompileEncoderScript_Errors(t *testing.T) {
	for _, src := range []string{
		`cw(`,
		`wait(-1)`,
		`cw(-2)`,
		`os.exit(1)`,
	} {
		_, err := CompileEncoderScript(src, ENCODER_POLL_INTERVAL)
		assert.Error(t, err, src)
	}
}

func TestScriptedPins_ReplaysScript(t *testing.T) {
	actions, err := CompileEncoderScript(`cw(2) wait(20) press() ccw()`, ENCODER_POLL_INTERVAL)
	require.NoError(t, err)

	pins := NewScriptedPins(actions, 1, ENCODER_POLL_INTERVAL)
	src := NewControlEventSource(pins, 1, ENCODER_POLL_INTERVAL)
	events := pollEvents(src, time.Unix(0, 0), 60)

	assert.Equal(t, []EncoderEvent{
		EventRotateCW, EventRotateCW, EventPressed, EventReleased, EventRotateCCW,
	}, events)
	assert.True(t, pins.Done())
}
