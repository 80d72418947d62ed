// encoder_script.go - Lua scripts compiled into encoder input timelines

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
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

type scriptActionKind uint8

const (
	scriptRotate scriptActionKind = iota
	scriptPress
	scriptWait
)

type scriptAction struct {
	kind  scriptActionKind
	count int // rotate: signed steps, wait: polls
}

// CompileEncoderScript runs a Lua script that describes encoder input:
//
//	cw(n)     -- n clockwise detents (default 1)
//	ccw(n)    -- n counter-clockwise detents
//	press()   -- one push of the button
//	wait(ms)  -- idle for ms milliseconds
//
// The script runs once, up front; loops and arithmetic are plain Lua.
func CompileEncoderScript(source string, pollInterval time.Duration) ([]scriptAction, error) {
	if pollInterval <= 0 {
		pollInterval = ENCODER_POLL_INTERVAL
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenMath(L)

	var actions []scriptAction
	rotate := func(sign int) lua.LGFunction {
		return func(L *lua.LState) int {
			n := L.OptInt(1, 1)
			if n < 0 {
				L.ArgError(1, "count must be >= 0")
				return 0
			}
			if n > 0 {
				actions = append(actions, scriptAction{kind: scriptRotate, count: sign * n})
			}
			return 0
		}
	}
	L.SetGlobal("cw", L.NewFunction(rotate(1)))
	L.SetGlobal("ccw", L.NewFunction(rotate(-1)))
	L.SetGlobal("press", L.NewFunction(func(L *lua.LState) int {
		actions = append(actions, scriptAction{kind: scriptPress})
		return 0
	}))
	L.SetGlobal("wait", L.NewFunction(func(L *lua.LState) int {
		ms := L.CheckInt(1)
		if ms < 0 {
			L.ArgError(1, "milliseconds must be >= 0")
			return 0
		}
		polls := int((time.Duration(ms)*time.Millisecond + pollInterval - 1) / pollInterval)
		if polls > 0 {
			actions = append(actions, scriptAction{kind: scriptWait, count: polls})
		}
		return 0
	}))

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("encoder script: %w", err)
	}
	return actions, nil
}

// ScriptedPins replays a compiled script through a VirtualEncoder, one action
// at a time, as the control poller samples it.
type ScriptedPins struct {
	mu        sync.Mutex
	encoder   *VirtualEncoder
	actions   []scriptAction
	next      int
	waitPolls int
	settled   bool // first sample only reports the resting levels
}

func NewScriptedPins(actions []scriptAction, transitionsPerStep int, poll time.Duration) *ScriptedPins {
	return &ScriptedPins{
		encoder: NewVirtualEncoder(transitionsPerStep, poll),
		actions: actions,
	}
}

func (p *ScriptedPins) Levels() (uint8, bool) {
	p.mu.Lock()
	if !p.settled {
		p.settled = true
	} else if p.waitPolls > 0 {
		p.waitPolls--
	} else if p.next < len(p.actions) && p.encoder.Idle() {
		action := p.actions[p.next]
		p.next++
		switch action.kind {
		case scriptRotate:
			p.encoder.Rotate(action.count)
		case scriptPress:
			p.encoder.Press()
		case scriptWait:
			p.waitPolls = action.count - 1
		}
	}
	p.mu.Unlock()
	return p.encoder.Levels()
}

// Done reports whether the whole script has been played.
func (p *ScriptedPins) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next >= len(p.actions) && p.waitPolls == 0 && p.encoder.Idle()
}
