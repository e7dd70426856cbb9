package session

import (
	"context"

	"github.com/rbright/rehearse/internal/fsm"
)

// RequestRedo asks to discard the reviewed answer and capture again in mode.
// It runs at once when the user opted out of confirmations.
func (c *Controller) RequestRedo(mode fsm.Mode) error {
	_, err := c.requestRedo(mode)
	return err
}

// requestRedo reports whether the redo is left awaiting confirmation.
func (c *Controller) requestRedo(mode fsm.Mode) (pending bool, err error) {
	if _, err := fsm.ParseMode(string(mode)); err != nil {
		return false, err
	}
	err = c.update(func() error {
		if _, err := fsm.Transition(c.state, fsm.RedoEvent(mode)); err != nil {
			return err
		}
		decision := c.deps.Redo.Request(mode)
		if !decision.Execute {
			pending = true
			return nil
		}
		return c.redoLocked(decision.Target)
	})
	return pending, err
}

// ConfirmRedo executes the pending redo.
func (c *Controller) ConfirmRedo() error {
	return c.update(func() error {
		target, ok := c.deps.Redo.Confirm()
		if !ok {
			return ErrNoPendingRedo
		}
		return c.redoLocked(target)
	})
}

// CancelRedo closes the confirmation and keeps the reviewed answer.
func (c *Controller) CancelRedo() error {
	return c.update(func() error {
		c.deps.Redo.Cancel()
		return nil
	})
}

// SetRedoPreference sets "don't ask again" for every later redo in this run.
func (c *Controller) SetRedoPreference(dontAsk bool) error {
	return c.update(func() error {
		c.deps.Redo.SetDontAsk(dontAsk)
		return nil
	})
}

// redoLocked discards the whole answer and enters the capture state for mode.
func (c *Controller) redoLocked(mode fsm.Mode) error {
	if err := c.fire(fsm.RedoEvent(mode)); err != nil {
		return err
	}
	c.deps.Indicator.CueCancel(context.Background())
	c.stopTickerLocked()
	c.releaseLocked()
	c.hint = ""
	c.notice = ""
	c.enterCaptureLocked(mode)
	return nil
}

// NextQuestion advances. Past the last question it reports completion once
// and keeps the index on the last question.
func (c *Controller) NextQuestion() error {
	_, err := c.nextQuestion()
	return err
}

// nextQuestion reports whether the session is complete after advancing.
func (c *Controller) nextQuestion() (complete bool, err error) {
	completed := false
	err = c.update(func() error {
		if len(c.questions) == 0 {
			return ErrNoSession
		}
		if c.index >= len(c.questions)-1 {
			if !c.complete {
				c.complete = true
				completed = true
			}
			complete = true
			return nil
		}
		c.index++
		c.enterQuestionLocked(c.questions[c.index])
		return nil
	})
	if err != nil {
		return false, err
	}
	if completed {
		c.deps.Listener.OnComplete()
		return true, nil
	}
	if !complete {
		c.prefetch(1)
	}
	return complete, nil
}

// PrevQuestion steps back; the first question stays put.
func (c *Controller) PrevQuestion() error {
	return c.update(func() error {
		if len(c.questions) == 0 {
			return ErrNoSession
		}
		if c.index == 0 {
			return nil
		}
		c.index--
		c.enterQuestionLocked(c.questions[c.index])
		return nil
	})
}

// prefetch warms speech for the question offset after the current one.
func (c *Controller) prefetch(offset int) {
	c.mu.Lock()
	idx := c.index + offset
	if c.closed || idx < 0 || idx >= len(c.questions) {
		c.mu.Unlock()
		return
	}
	text := c.questions[idx].Text
	c.mu.Unlock()

	c.deps.Speech.Prefetch(context.Background(), text)
}
