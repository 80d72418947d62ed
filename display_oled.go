// display_oled.go - 128x64 monochrome panel renderer

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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	OLED_WIDTH  = 128
	OLED_HEIGHT = 64
	OLED_PAGES  = OLED_HEIGHT / 8

	oledLineHeight   = 12
	oledTitleY       = 11 // Baselines, in pixels
	oledFirstRowY    = 24
	oledTextColumn   = 16
	oledMarkColumn   = 100
	oledCursorColumn = 0
)

var (
	oledOn  = color.Gray{Y: 0xFF}
	oledOff = color.Gray{Y: 0x00}
)

// OLEDRenderer draws snapshots into an in-memory monochrome framebuffer that
// backends present (window) or pack into controller pages (hardware).
type OLEDRenderer struct {
	mu     sync.RWMutex
	frame  *image.Gray
	last   DisplaySnapshot
	frames uint64
}

func NewOLEDRenderer() *OLEDRenderer {
	return &OLEDRenderer{
		frame: image.NewGray(image.Rect(0, 0, OLED_WIDTH, OLED_HEIGHT)),
	}
}

func (o *OLEDRenderer) Render(s DisplaySnapshot) error {
	if s.SelectedIndex < 0 || s.SelectedIndex >= RATE_OPTION_COUNT {
		return fmt.Errorf("%w: menu selection %d", ErrInvalidArgument, s.SelectedIndex)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	draw.Draw(o.frame, o.frame.Bounds(), image.NewUniform(oledOff), image.Point{}, draw.Src)
	switch s.Mode {
	case ModeMain:
		o.drawText(oledTextColumn, oledTitleY, "AUDIO DELAY", false)
		o.drawText(8, oledFirstRowY+oledLineHeight, "DELAY: "+strconv.Itoa(s.DelayMs)+"MS", false)
		o.drawText(8, oledFirstRowY+2*oledLineHeight, "RATE: "+formatRateLabel(s.SampleRateHz), false)
	case ModeMenu, ModeMenuConfirm:
		o.drawText(oledTextColumn, oledTitleY, "SAMPLE RATE", false)
		for i, rate := range sampleRateOptions {
			y := oledFirstRowY + i*oledLineHeight
			selected := i == s.SelectedIndex
			if selected {
				o.drawText(oledCursorColumn, y, ">", false)
			}
			o.drawText(oledTextColumn, y, formatRateLabel(rate), selected)
			if s.Confirmed && rate == s.SampleRateHz {
				o.drawText(oledMarkColumn, y, "OK", false)
			}
		}
	default:
		return fmt.Errorf("%w: display mode %d", ErrInvalidArgument, s.Mode)
	}

	o.last = s
	o.frames++
	return nil
}

// drawText draws at a baseline; inverted text is dark on a lit box.
func (o *OLEDRenderer) drawText(x, baseline int, text string, inverted bool) {
	face := basicfont.Face7x13
	fg := oledOn
	if inverted {
		width := font.MeasureString(face, text).Ceil()
		box := image.Rect(x-1, baseline-face.Ascent, x+width+1, baseline+face.Descent-1)
		draw.Draw(o.frame, box.Intersect(o.frame.Bounds()), image.NewUniform(oledOn), image.Point{}, draw.Src)
		fg = oledOff
	}
	d := &font.Drawer{
		Dst:  o.frame,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// Lit reports whether the pixel at (x, y) is on.
func (o *OLEDRenderer) Lit(x, y int) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.frame.GrayAt(x, y).Y >= 0x80
}

// Last returns the most recently drawn snapshot.
func (o *OLEDRenderer) Last() DisplaySnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

func (o *OLEDRenderer) Frames() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.frames
}

// Pages packs the frame in SSD1306 page order: one byte per column per
// 8-row page, least significant bit at the top.
func (o *OLEDRenderer) Pages() []byte {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]byte, OLED_PAGES*OLED_WIDTH)
	for page := range OLED_PAGES {
		for x := range OLED_WIDTH {
			var b byte
			for bit := range 8 {
				if o.frame.GrayAt(x, page*8+bit).Y >= 0x80 {
					b |= 1 << bit
				}
			}
			out[page*OLED_WIDTH+x] = b
		}
	}
	return out
}

// CopyRGBA writes the frame as RGBA pixels tinted with tint for lit pixels.
// dst must hold OLED_WIDTH*OLED_HEIGHT*4 bytes.
func (o *OLEDRenderer) CopyRGBA(dst []byte, tint color.RGBA) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for i, y := range o.frame.Pix {
		j := i * 4
		if j+3 >= len(dst) {
			return
		}
		if y >= 0x80 {
			dst[j], dst[j+1], dst[j+2] = tint.R, tint.G, tint.B
		} else {
			dst[j], dst[j+1], dst[j+2] = 0, 0, 0
		}
		dst[j+3] = 0xFF
	}
}

// formatRateLabel renders 44100 as "44.1KHZ" and 48000 as "48KHZ".
func formatRateLabel(hz int) string {
	if hz < 1000 {
		return strconv.Itoa(hz) + "HZ"
	}
	if hz%1000 == 0 {
		return strconv.Itoa(hz/1000) + "KHZ"
	}
	return strconv.FormatFloat(float64(hz)/1000, 'f', 1, 64) + "KHZ"
}
