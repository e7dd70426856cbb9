package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rbright/rehearse/internal/session"
)

// Bridge forwards session notifications into a running program. Messages
// sent before Attach are dropped; the model reads a fresh snapshot at start.
type Bridge struct {
	program atomic.Pointer[tea.Program]
}

func (b *Bridge) Attach(p *tea.Program) {
	b.program.Store(p)
}

func (b *Bridge) OnChange(v session.View) {
	if p := b.program.Load(); p != nil {
		p.Send(ViewMsg{View: v})
	}
}

func (b *Bridge) OnComplete() {
	if p := b.program.Load(); p != nil {
		p.Send(CompleteMsg{})
	}
}

// Run shows the session until the user quits or ctx ends.
func Run(ctx context.Context, opts Options, bridge *Bridge) error {
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if bridge != nil {
		bridge.Attach(program)
		defer bridge.Attach(nil)
	}
	_, err := program.Run()
	return err
}
