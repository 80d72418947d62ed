// audio_codec.go - Sample-rate configuration of the audio clocks

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
	"errors"
	"fmt"
	"sync"
)

// ErrCodecRateLocked is returned by outputs that cannot change rate while
// running; the stored setting takes effect on the next start.
var ErrCodecRateLocked = errors.New("codec sample rate fixed until restart")

// HeadlessCodec accepts any supported rate immediately.
type HeadlessCodec struct {
	mu      sync.Mutex
	rate    int
	changes int
}

func (c *HeadlessCodec) SetSampleRate(hz int) error {
	if _, ok := sampleRateOption(hz); !ok {
		return fmt.Errorf("%w: codec rate %d Hz", ErrInvalidArgument, hz)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if hz != c.rate {
		c.rate = hz
		c.changes++
	}
	return nil
}

func (c *HeadlessCodec) Rate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Changes counts the distinct rate changes applied.
func (c *HeadlessCodec) Changes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes
}
