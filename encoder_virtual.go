// encoder_virtual.go - Software encoder pins driven by keyboard, window or script input

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

import (
	"sync"
	"time"
)

// grayPhases is the clockwise quadrature sequence 00 -> 01 -> 11 -> 10.
var grayPhases = [4]uint8{0b00, 0b01, 0b11, 0b10}

// VIRTUAL_KEY_HOLD is how long a synthesised press stays low, and how long the
// key then rests released, at any poll interval.
const VIRTUAL_KEY_HOLD = 2 * BUTTON_DEBOUNCE

// keyHoldPolls is VIRTUAL_KEY_HOLD rounded up to whole polls.
func keyHoldPolls(poll time.Duration) int {
	if poll <= 0 {
		poll = ENCODER_POLL_INTERVAL
	}
	return max(int((VIRTUAL_KEY_HOLD+poll-1)/poll), 1)
}

// VirtualEncoder synthesises pin levels for the control poller. Each poll moves
// the quadrature phase at most one Gray step and plays queued key presses as a
// held-low pulse followed by an equal released gap.
type VirtualEncoder struct {
	mu sync.Mutex

	position           int
	pendingSteps       int
	transitionsPerStep int

	pendingPresses int
	holdPolls      int
	holdRemaining  int
	gapRemaining   int
}

// NewVirtualEncoder builds pins that emit transitionsPerStep phase changes for
// every Rotate step; match it to the decoder's steps-per-detent. poll is the
// interval the pins will be sampled at.
func NewVirtualEncoder(transitionsPerStep int, poll time.Duration) *VirtualEncoder {
	if transitionsPerStep < 1 {
		transitionsPerStep = 1
	}
	return &VirtualEncoder{
		transitionsPerStep: transitionsPerStep,
		holdPolls:          keyHoldPolls(poll),
	}
}

// Rotate queues steps detents; negative values turn counter-clockwise.
func (v *VirtualEncoder) Rotate(steps int) {
	v.mu.Lock()
	v.pendingSteps += steps * v.transitionsPerStep
	v.mu.Unlock()
}

// Press queues one press-and-release of the push button.
func (v *VirtualEncoder) Press() {
	v.mu.Lock()
	v.pendingPresses++
	v.mu.Unlock()
}

// Idle reports whether every queued rotation and press has been played out.
func (v *VirtualEncoder) Idle() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pendingSteps == 0 && v.pendingPresses == 0 && v.holdRemaining == 0 && v.gapRemaining == 0
}

func (v *VirtualEncoder) Levels() (uint8, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.pendingSteps > 0:
		v.position = (v.position + 1) % len(grayPhases)
		v.pendingSteps--
	case v.pendingSteps < 0:
		v.position = (v.position + len(grayPhases) - 1) % len(grayPhases)
		v.pendingSteps++
	}
	phase := grayPhases[v.position]

	if v.holdRemaining > 0 {
		v.holdRemaining--
		if v.holdRemaining == 0 {
			v.gapRemaining = v.holdPolls
		}
		return phase, false
	}
	if v.gapRemaining > 0 {
		v.gapRemaining--
		return phase, true
	}
	if v.pendingPresses > 0 {
		v.pendingPresses--
		v.holdRemaining = v.holdPolls - 1
		if v.holdRemaining == 0 {
			v.gapRemaining = v.holdPolls
		}
		return phase, false
	}
	return phase, true
}
