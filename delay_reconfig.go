// delay_reconfig.go - Single-slot lock-free hand-off of delay configs to the audio loop

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

import "sync/atomic"

// ReconfigChannel carries the most recent DelayConfig from the control side to
// the real-time side. Publish replaces the pending slot; TryConsume takes it.
// Only the latest unconsumed config survives.
type ReconfigChannel struct {
	capacity int
	pending  atomic.Pointer[DelayConfig] // Swapped, never edited in place
	metrics  *Metrics
}

func NewReconfigChannel(capacity int, metrics *Metrics) *ReconfigChannel {
	return &ReconfigChannel{
		capacity: capacity,
		metrics:  metrics,
	}
}

// Capacity returns the ring buffer capacity configs are validated against.
func (rc *ReconfigChannel) Capacity() int {
	return rc.capacity
}

// Publish validates cfg and makes it the pending config. The derived sample
// count in cfg is ignored and recomputed. A rejected config leaves the pending
// slot untouched.
func (rc *ReconfigChannel) Publish(cfg DelayConfig) error {
	validated, err := NewDelayConfig(cfg.SampleRateHz, cfg.DelayMs, rc.capacity)
	if err != nil {
		rc.metrics.PublishRejected()
		return err
	}
	rc.pending.Store(&validated)
	rc.metrics.Published()
	return nil
}

// TryConsume returns the pending config at most once per Publish.
// Called only from the real-time loop; never blocks.
func (rc *ReconfigChannel) TryConsume() (DelayConfig, bool) {
	cfg := rc.pending.Swap(nil)
	if cfg == nil {
		return DelayConfig{}, false
	}
	return *cfg, true
}
