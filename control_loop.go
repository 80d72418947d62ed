// control_loop.go - Non-real-time loop: encoder events, auto-save and shutdown flush

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
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const controlEventBacklog = 64

// RunControl feeds events from source into ui and ticks its housekeeping every
// tick until ctx is cancelled, then flushes pending settings. ui is owned by
// this goroutine for the duration of the call.
func RunControl(ctx context.Context, source *ControlEventSource, ui *UIController, tick time.Duration, logger zerolog.Logger) error {
	if tick <= 0 {
		tick = UI_TICK_INTERVAL
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	events := make(chan ControlEvent, controlEventBacklog)
	var wg sync.WaitGroup
	wg.Go(func() {
		defer close(events)
		for ev := range source.Events(pollCtx) {
			select {
			case events <- ev:
			case <-pollCtx.Done():
				return
			}
		}
	})
	defer func() {
		stopPolling()
		wg.Wait()
	}()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ui.Shutdown()
		case ev, ok := <-events:
			if !ok {
				return ui.Shutdown()
			}
			if ev.Kind != EventReleased {
				logger.Debug().Stringer("event", ev.Kind).Stringer("mode", ui.Mode()).Msg("control event")
			}
			if err := ui.HandleEvent(ev.Kind, ev.At); err != nil {
				switch {
				case isRejection(err):
					logger.Warn().Err(err).Msg("change rejected")
				case errors.Is(err, ErrCodecRateLocked):
					logger.Warn().Err(err).Msg("sample rate saved, applies on next start")
				default:
					logger.Error().Err(err).Msg("change applied with errors")
				}
			}
		case now := <-ticker.C:
			ui.Tick(now)
		}
	}
}
