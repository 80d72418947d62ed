// terminal_keys.go - Raw terminal byte decoding into encoder gestures

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

type terminalKey uint8

const (
	keyNone terminalKey = iota
	keyRotateCW
	keyRotateCCW
	keyPress
	keyQuit
)

const (
	keyStateGround = iota
	keyStateEscape
	keyStateCSI
)

// terminalKeyDecoder maps raw-mode bytes, including ANSI arrow key
// sequences, to encoder gestures.
type terminalKeyDecoder struct {
	state int
}

func (d *terminalKeyDecoder) Feed(b byte) terminalKey {
	switch d.state {
	case keyStateEscape:
		if b == '[' || b == 'O' {
			d.state = keyStateCSI
			return keyNone
		}
		d.state = keyStateGround
	case keyStateCSI:
		// Parameter bytes (e.g. modifiers) precede the final byte.
		if b >= '0' && b <= '9' || b == ';' {
			return keyNone
		}
		d.state = keyStateGround
		switch b {
		case 'A', 'C': // Up, Right
			return keyRotateCW
		case 'B', 'D': // Down, Left
			return keyRotateCCW
		}
		return keyNone
	}

	switch b {
	case 0x1B:
		d.state = keyStateEscape
	case '+', '=', 'l', 'k':
		return keyRotateCW
	case '-', '_', 'h', 'j':
		return keyRotateCCW
	case ' ', '\r', '\n':
		return keyPress
	case 'q', 'Q', 0x03, 0x04: // Ctrl-C and Ctrl-D arrive as bytes in raw mode
		return keyQuit
	}
	return keyNone
}

// applyTerminalKey drives the virtual encoder; it reports false on quit.
func applyTerminalKey(k terminalKey, enc *VirtualEncoder, quit func()) bool {
	switch k {
	case keyRotateCW:
		enc.Rotate(1)
	case keyRotateCCW:
		enc.Rotate(-1)
	case keyPress:
		enc.Press()
	case keyQuit:
		if quit != nil {
			quit()
		}
		return false
	}
	return true
}
