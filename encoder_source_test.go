package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollEvents polls src n times, one poll interval apart from start, collecting events.
func pollEvents(src *ControlEventSource, start time.Time, n int) []EncoderEvent {
	var events []EncoderEvent
	for i := range n {
		rot, btn := src.Poll(start.Add(time.Duration(i) * src.interval))
		if rot != EventNone {
			events = append(events, rot)
		}
		if btn != EventNone {
			events = append(events, btn)
		}
	}
	return events
}

func TestControlEventSource_PollRotation(t *testing.T) {
	enc := NewVirtualEncoder(1, ENCODER_POLL_INTERVAL)
	src := NewControlEventSource(enc, 1, ENCODER_POLL_INTERVAL)

	enc.Rotate(2)
	enc.Rotate(-1)
	events := pollEvents(src, time.Unix(0, 0), 5)
	assert.Equal(t, []EncoderEvent{EventRotateCW}, events, "queued steps net out before they are played")
}

func TestControlEventSource_PollPressRelease(t *testing.T) {
	enc := NewVirtualEncoder(1, ENCODER_POLL_INTERVAL)
	src := NewControlEventSource(enc, 1, ENCODER_POLL_INTERVAL)

	enc.Press()
	events := pollEvents(src, time.Unix(0, 0), 2*keyHoldPolls(ENCODER_POLL_INTERVAL)+5)
	assert.Equal(t, []EncoderEvent{EventPressed, EventReleased}, events)
	assert.True(t, enc.Idle())
}

func TestControlEventSource_FastPollKeepsPressesApart(t *testing.T) {
	enc := NewVirtualEncoder(1, time.Millisecond)
	src := NewControlEventSource(enc, 1, time.Millisecond)

	enc.Press()
	enc.Press()
	events := pollEvents(src, time.Unix(0, 0), 4*keyHoldPolls(time.Millisecond)+10)
	assert.Equal(t, []EncoderEvent{EventPressed, EventReleased, EventPressed, EventReleased}, events)
	assert.True(t, enc.Idle())
}

func TestControlEventSource_DetentEncoder(t *testing.T) {
	enc := NewVirtualEncoder(4, ENCODER_POLL_INTERVAL)
	src := NewControlEventSource(enc, 4, ENCODER_POLL_INTERVAL)

	enc.Rotate(-2)
	events := pollEvents(src, time.Unix(0, 0), 12)
	assert.Equal(t, []EncoderEvent{EventRotateCCW, EventRotateCCW}, events)
}

func TestControlEventSource_EventsUntilCancelled(t *testing.T) {
	enc := NewVirtualEncoder(1, time.Millisecond)
	src := NewControlEventSource(enc, 1, time.Millisecond)
	enc.Rotate(3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []EncoderEvent
	for ev := range src.Events(ctx) {
		got = append(got, ev.Kind)
		assert.False(t, ev.At.IsZero())
		if len(got) == 3 {
			break
		}
	}
	require.NoError(t, ctx.Err(), "events arrived before the timeout")
	assert.Equal(t, []EncoderEvent{EventRotateCW, EventRotateCW, EventRotateCW}, got)

	// A cancelled context ends a fresh iteration without yielding.
	cancel()
	for range src.Events(ctx) {
		t.Fatal("no events after cancellation")
	}
}
