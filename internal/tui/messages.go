package tui

import (
	"time"

	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/session"
)

// ViewMsg carries a session snapshot pushed by the controller.
type ViewMsg struct {
	View session.View
}

// CompleteMsg signals the last question was passed.
type CompleteMsg struct{}

// FrameMsg drives level meter refresh.
type FrameMsg time.Time

// ActionResultMsg carries the response to a session command.
type ActionResultMsg struct {
	Command  string
	Response ipc.Response
}

// CopiedMsg reports a clipboard copy.
type CopiedMsg struct {
	Err error
}

// ClearStatusMsg clears a transient status line.
type ClearStatusMsg struct {
	Seq int
}
