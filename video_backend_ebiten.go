//go:build !headless

// video_backend_ebiten.go - Desktop window showing the OLED panel with keyboard encoder control

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
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
)

const OLED_WINDOW_SCALE = 4

var oledTint = color.RGBA{R: 0x60, G: 0xD0, B: 0xFF, A: 0xFF}

// OLEDWindow presents the panel framebuffer and feeds key presses to the
// virtual encoder pins. The control loop never blocks on it.
type OLEDWindow struct {
	ctx     context.Context
	oled    *OLEDRenderer
	encoder *VirtualEncoder
	quit    func()
	logger  zerolog.Logger

	scale  int
	panel  *ebiten.Image
	pixels []byte

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewOLEDWindow(ctx context.Context, oled *OLEDRenderer, encoder *VirtualEncoder, quit func(), logger zerolog.Logger) *OLEDWindow {
	return &OLEDWindow{
		ctx:     ctx,
		oled:    oled,
		encoder: encoder,
		quit:    quit,
		logger:  logger,
		scale:   OLED_WINDOW_SCALE,
		pixels:  make([]byte, OLED_WIDTH*OLED_HEIGHT*4),
	}
}

// Run blocks on the ebiten main loop until the window closes or ctx ends.
// Must be called from the main goroutine.
func (w *OLEDWindow) Run() error {
	ebiten.SetWindowSize(OLED_WIDTH*w.scale, OLED_HEIGHT*w.scale)
	ebiten.SetWindowTitle("Intuition Delay")
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(int(1000 / ENCODER_POLL_INTERVAL.Milliseconds()))

	err := ebiten.RunGame(w)
	if w.quit != nil {
		w.quit()
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("oled window: %w", err)
	}
	return nil
}

func (w *OLEDWindow) Update() error {
	if ebiten.IsWindowBeingClosed() || w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		w.copySettings()
		return nil
	}

	for _, key := range []ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyArrowUp, ebiten.KeyEqual, ebiten.KeyNumpadAdd} {
		if inpututil.IsKeyJustPressed(key) {
			w.encoder.Rotate(1)
		}
	}
	for _, key := range []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyArrowDown, ebiten.KeyMinus, ebiten.KeyNumpadSubtract} {
		if inpututil.IsKeyJustPressed(key) {
			w.encoder.Rotate(-1)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.encoder.Press()
	}

	// Mouse wheel turns the knob too.
	if _, dy := ebiten.Wheel(); dy > 0 {
		w.encoder.Rotate(1)
	} else if dy < 0 {
		w.encoder.Rotate(-1)
	}
	return nil
}

// copySettings puts the displayed settings on the clipboard in settings-file form.
func (w *OLEDWindow) copySettings() {
	w.clipboardOnce.Do(func() {
		w.clipboardOK = clipboard.Init() == nil
	})
	if !w.clipboardOK {
		w.logger.Warn().Msg("clipboard unavailable")
		return
	}
	s := w.oled.Last()
	text := fmt.Sprintf("[%s]\ndelay_ms = %d\nsample_rate = %d\n", SETTINGS_NAMESPACE, s.DelayMs, s.SampleRateHz)
	clipboard.Write(clipboard.FmtText, []byte(text))
	w.logger.Info().Int("delay_ms", s.DelayMs).Int("sample_rate", s.SampleRateHz).Msg("settings copied to clipboard")
}

func (w *OLEDWindow) Draw(screen *ebiten.Image) {
	if w.panel == nil {
		w.panel = ebiten.NewImage(OLED_WIDTH, OLED_HEIGHT)
	}
	w.oled.CopyRGBA(w.pixels, oledTint)
	w.panel.WritePixels(w.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.scale), float64(w.scale))
	screen.DrawImage(w.panel, op)
}

func (w *OLEDWindow) Layout(_, _ int) (int, int) {
	return OLED_WIDTH * w.scale, OLED_HEIGHT * w.scale
}
