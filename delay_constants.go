// delay_constants.go - Limits, defaults and timing constants for the delay device

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

import "time"

const (
	SAMPLE_RATE_44K  = 44100
	SAMPLE_RATE_48K  = 48000
	SAMPLE_RATE_96K  = 96000
	SAMPLE_RATE_192K = 192000

	DEFAULT_SAMPLE_RATE = SAMPLE_RATE_48K
	MAX_SAMPLE_RATE     = SAMPLE_RATE_192K
)

const (
	MIN_DELAY_MS     = 0
	MAX_DELAY_MS     = 10000
	DEFAULT_DELAY_MS = 30
	DELAY_STEP_MS    = 1
)

const (
	DELAY_HEADROOM    = 2 // Capacity margin over the worst-case delay
	DELAY_BUFFER_SIZE = MAX_DELAY_MS * MAX_SAMPLE_RATE / 1000 * DELAY_HEADROOM
	AUDIO_BLOCK_SIZE  = 1024 // Samples per real-time block
)

// Sample rate menu options, in display order.
const (
	RATE_OPTION_44K = iota
	RATE_OPTION_48K
	RATE_OPTION_96K
	RATE_OPTION_192K
	RATE_OPTION_COUNT
)

const DEFAULT_RATE_OPTION = RATE_OPTION_48K

var sampleRateOptions = [RATE_OPTION_COUNT]int{
	SAMPLE_RATE_44K,
	SAMPLE_RATE_48K,
	SAMPLE_RATE_96K,
	SAMPLE_RATE_192K,
}

const (
	ENCODER_POLL_INTERVAL = 5 * time.Millisecond
	BUTTON_DEBOUNCE       = 50 * time.Millisecond
	UI_TICK_INTERVAL      = 100 * time.Millisecond
	AUTO_SAVE_IDLE        = 5000 * time.Millisecond
)

// sampleRateOption returns the menu index of a sample rate.
func sampleRateOption(hz int) (int, bool) {
	for i, rate := range sampleRateOptions {
		if rate == hz {
			return i, true
		}
	}
	return DEFAULT_RATE_OPTION, false
}

// sampleRateValue returns the rate for a menu index, falling back to the default.
func sampleRateValue(option int) int {
	if option < 0 || option >= RATE_OPTION_COUNT {
		return sampleRateOptions[DEFAULT_RATE_OPTION]
	}
	return sampleRateOptions[option]
}

func delaySamplesFor(delayMs, sampleRateHz int) int {
	return delayMs * sampleRateHz / 1000
}
