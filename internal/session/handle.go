package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/ipc"
)

// Handle serves IPC commands for the running practice session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	arg := strings.TrimSpace(req.Arg)

	var err error
	message := req.Command
	switch req.Command {
	case "status":
		return c.statusResponse()
	case "mode":
		var mode fsm.Mode
		if mode, err = fsm.ParseMode(arg); err == nil {
			err = c.RequestMode(mode)
			message = "mode " + string(mode)
		}
	case "skip":
		err = c.SkipReading()
	case "start":
		err = c.StartCamera()
	case "pause":
		var paused bool
		if paused, err = c.togglePause(); err == nil {
			message = "resumed"
			if paused {
				message = "paused"
			}
		}
	case "answer":
		err = c.SetTranscript(req.Arg)
	case "done":
		err = c.DoneRecording()
	case "redo":
		var mode fsm.Mode
		if mode, err = fsm.ParseMode(arg); err == nil {
			var pending bool
			pending, err = c.requestRedo(mode)
			message = "redo " + string(mode)
			if err == nil && pending {
				message += " awaiting confirm"
			}
		}
	case "confirm":
		err = c.ConfirmRedo()
	case "cancel":
		err = c.CancelRedo()
	case "dont-ask":
		err = c.SetRedoPreference(arg != "off")
	case "next":
		var complete bool
		if complete, err = c.nextQuestion(); err == nil && complete {
			message = "session complete"
		}
	case "prev":
		err = c.PrevQuestion()
	case "hint":
		message, err = c.Hint(ctx)
	case "play":
		err = c.PlayAnswer()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	if err != nil {
		return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
	}
	return ipc.Response{OK: true, State: string(c.State()), Message: message}
}

func (c *Controller) statusResponse() ipc.Response {
	view := c.Snapshot()
	parts := []string{}
	if view.Total > 0 {
		parts = append(parts, fmt.Sprintf("question %d/%d", view.Index+1, view.Total))
	}
	if view.Result.Mode != "" {
		parts = append(parts, fmt.Sprintf("%s %ds", view.Result.Mode, view.Result.DurationSeconds))
	}
	if view.Result.Paused {
		parts = append(parts, "paused")
	}
	if view.Result.IsTranscribing {
		parts = append(parts, "transcribing")
	}
	if view.PendingRedo != "" {
		parts = append(parts, "redo "+string(view.PendingRedo)+" pending")
	}
	if view.Notice != "" {
		parts = append(parts, view.Notice)
	}
	if len(parts) == 0 {
		parts = append(parts, "status")
	}
	return ipc.Response{OK: true, State: string(view.State), Message: strings.Join(parts, "; ")}
}
