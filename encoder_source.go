// encoder_source.go - Polled control event stream from the encoder pins

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
	"context"
	"iter"
	"time"
)

// EncoderPins samples the raw encoder inputs. phase is S1<<1 | S2; keyLevel is
// the raw (active-low) push button level.
type EncoderPins interface {
	Levels() (phase uint8, keyLevel bool)
}

// ControlEvent is one decoded event with the poll time it was observed at.
type ControlEvent struct {
	Kind EncoderEvent
	At   time.Time
}

// ControlEventSource polls the pins at a fixed cadence and yields at most one
// rotation and one button event per poll.
type ControlEventSource struct {
	pins     EncoderPins
	decoder  *QuadratureDecoder
	button   *DebouncedButton
	interval time.Duration
}

func NewControlEventSource(pins EncoderPins, stepsPerDetent int, interval time.Duration) *ControlEventSource {
	if interval <= 0 {
		interval = ENCODER_POLL_INTERVAL
	}
	phase, _ := pins.Levels()
	return &ControlEventSource{
		pins:     pins,
		decoder:  NewQuadratureDecoder(phase, stepsPerDetent),
		button:   NewDebouncedButton(BUTTON_DEBOUNCE),
		interval: interval,
	}
}

// Poll samples the pins once.
func (s *ControlEventSource) Poll(now time.Time) (rotation, button EncoderEvent) {
	phase, key := s.pins.Levels()
	return s.decoder.Update(phase), s.button.Update(key, now)
}

// Events returns an unbounded sequence of control events. It ends only when
// ctx is cancelled or the consumer stops; ranging over it again resumes polling
// from the current decoder state.
func (s *ControlEventSource) Events(ctx context.Context) iter.Seq[ControlEvent] {
	return func(yield func(ControlEvent) bool) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rotation, button := s.Poll(now)
				if rotation != EventNone && !yield(ControlEvent{Kind: rotation, At: now}) {
					return
				}
				if button != EventNone && !yield(ControlEvent{Kind: button, At: now}) {
					return
				}
			}
		}
	}
}
