package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func decodeKeys(input string) []terminalKey {
	var d terminalKeyDecoder
	var keys []terminalKey
	for i := 0; i < len(input); i++ {
		if k := d.Feed(input[i]); k != keyNone {
			keys = append(keys, k)
		}
	}
	return keys
}

func TestTerminalKeyDecoder_PlainKeys(t *testing.T) {
	assert.Equal(t,
		[]terminalKey{keyRotateCW, keyRotateCW, keyRotateCCW, keyPress, keyPress, keyQuit},
		decodeKeys("+=- \rq"))
	assert.Empty(t, decodeKeys("xyz"))
}

func TestTerminalKeyDecoder_ArrowSequences(t *testing.T) {
	assert.Equal(t,
		[]terminalKey{keyRotateCW, keyRotateCCW, keyRotateCW, keyRotateCCW},
		decodeKeys("\x1b[A\x1b[B\x1b[C\x1b[D"))
	// Application cursor mode and modified arrows.
	assert.Equal(t, []terminalKey{keyRotateCW, keyRotateCCW}, decodeKeys("\x1bOC\x1b[1;5D"))
}

func TestTerminalKeyDecoder_EscapeThenKey(t *testing.T) {
	assert.Equal(t, []terminalKey{keyRotateCW}, decodeKeys("\x1b+"))
	assert.Equal(t, []terminalKey{keyQuit}, decodeKeys("\x03"))
}

func TestApplyTerminalKey(t *testing.T) {
	enc := NewVirtualEncoder(1, ENCODER_POLL_INTERVAL)
	quit := 0
	stop := func() { quit++ }

	assert.True(t, applyTerminalKey(keyRotateCW, enc, stop))
	assert.True(t, applyTerminalKey(keyPress, enc, stop))
	assert.False(t, enc.Idle())
	assert.False(t, applyTerminalKey(keyQuit, enc, stop))
	assert.Equal(t, 1, quit)
}
