// Package redo gates answer redo requests behind an optional confirmation.
package redo

import (
	"sync"
	"sync/atomic"

	"github.com/rbright/rehearse/internal/fsm"
)

// Preference is the "don't ask again" flag shared by every gate in a run.
type Preference struct {
	dontAsk atomic.Bool
}

// NewPreference seeds the shared flag.
func NewPreference(dontAsk bool) *Preference {
	p := &Preference{}
	p.dontAsk.Store(dontAsk)
	return p
}

func (p *Preference) DontAsk() bool { return p.dontAsk.Load() }

func (p *Preference) Set(dontAsk bool) { p.dontAsk.Store(dontAsk) }

// Decision is the outcome of one redo request.
type Decision struct {
	// Execute is true when the caller must switch to Target now.
	Execute bool
	// Pending is true when a confirmation for Target is waiting.
	Pending bool
	Target  fsm.Mode
}

// Gate is Idle when no target is held, ConfirmPending(target) otherwise.
type Gate struct {
	pref *Preference

	mu      sync.Mutex
	target  fsm.Mode
	pending bool
	dialogs int
}

// NewGate builds a gate bound to pref; nil gets a private always-ask preference.
func NewGate(pref *Preference) *Gate {
	if pref == nil {
		pref = NewPreference(false)
	}
	return &Gate{pref: pref}
}

// Request asks to redo the answer in mode. A repeated request while pending
// replaces the held target.
func (g *Gate) Request(mode fsm.Mode) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pref.DontAsk() {
		g.pending = false
		g.target = ""
		return Decision{Execute: true, Target: mode}
	}

	if !g.pending {
		g.dialogs++
	}
	g.pending = true
	g.target = mode
	return Decision{Pending: true, Target: mode}
}

// Confirm releases the pending target. ok is false when nothing was pending.
func (g *Gate) Confirm() (fsm.Mode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.pending {
		return "", false
	}
	target := g.target
	g.pending = false
	g.target = ""
	return target, true
}

// Cancel drops any pending target.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = false
	g.target = ""
}

// Pending returns the held target, if any.
func (g *Gate) Pending() (fsm.Mode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.target, g.pending
}

// SetDontAsk changes the shared preference. A confirmation already on screen
// stays pending.
func (g *Gate) SetDontAsk(dontAsk bool) {
	g.pref.Set(dontAsk)
}

func (g *Gate) DontAsk() bool { return g.pref.DontAsk() }

// Dialogs counts confirmations presented since construction.
func (g *Gate) Dialogs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dialogs
}
