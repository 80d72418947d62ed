// encoder_quadrature.go - Rotary encoder quadrature decoding

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

// EncoderEvent is a discrete control event produced by the encoder front end.
type EncoderEvent uint8

const (
	EventNone EncoderEvent = iota
	EventRotateCW
	EventRotateCCW
	EventPressed
	EventReleased
)

func (e EncoderEvent) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventRotateCW:
		return "cw"
	case EventRotateCCW:
		return "ccw"
	case EventPressed:
		return "pressed"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// quadratureTable is indexed by (previous<<2)|current. Valid single-step Gray
// code transitions map to +1 (CW) or -1 (CCW); repeats and double-bit jumps map
// to 0 and are dropped rather than guessed.
var quadratureTable = [16]int8{
	0,  // 00 -> 00
	1,  // 00 -> 01
	-1, // 00 -> 10
	0,  // 00 -> 11
	-1, // 01 -> 00
	0,  // 01 -> 01
	0,  // 01 -> 10
	1,  // 01 -> 11
	1,  // 10 -> 00
	0,  // 10 -> 01
	0,  // 10 -> 10
	-1, // 10 -> 11
	0,  // 11 -> 00
	-1, // 11 -> 01
	1,  // 11 -> 10
	0,  // 11 -> 11
}

// QuadratureDecoder turns successive 2-bit phases (S1<<1 | S2) into rotation
// events. With stepsPerDetent > 1 it emits one event per that many valid
// same-direction transitions, for encoders that run a full cycle per click.
type QuadratureDecoder struct {
	lastPhase      uint8
	stepsPerDetent int
	accum          int
}

func NewQuadratureDecoder(initialPhase uint8, stepsPerDetent int) *QuadratureDecoder {
	if stepsPerDetent < 1 {
		stepsPerDetent = 1
	}
	return &QuadratureDecoder{
		lastPhase:      initialPhase & 0x3,
		stepsPerDetent: stepsPerDetent,
	}
}

// Update consumes the current phase and returns EventRotateCW, EventRotateCCW
// or EventNone.
func (q *QuadratureDecoder) Update(phase uint8) EncoderEvent {
	phase &= 0x3
	if phase == q.lastPhase {
		return EventNone
	}
	dir := quadratureTable[q.lastPhase<<2|phase]
	q.lastPhase = phase
	if dir == 0 {
		return EventNone
	}

	if q.stepsPerDetent == 1 {
		return rotationEvent(int(dir))
	}

	// A reversal restarts the detent count.
	if (dir > 0 && q.accum < 0) || (dir < 0 && q.accum > 0) {
		q.accum = 0
	}
	q.accum += int(dir)
	if q.accum >= q.stepsPerDetent || q.accum <= -q.stepsPerDetent {
		ev := rotationEvent(q.accum)
		q.accum = 0
		return ev
	}
	return EventNone
}

// Reset re-seeds the previous phase, e.g. after the pins were re-read.
func (q *QuadratureDecoder) Reset(phase uint8) {
	q.lastPhase = phase & 0x3
	q.accum = 0
}

// Phase returns the last observed phase.
func (q *QuadratureDecoder) Phase() uint8 {
	return q.lastPhase
}

func rotationEvent(dir int) EncoderEvent {
	if dir > 0 {
		return EventRotateCW
	}
	return EventRotateCCW
}
