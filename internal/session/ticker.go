package session

import "time"

// Ticker delivers duration ticks while a recording runs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker for interval.
type TickerFactory func(interval time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

// NewRealTicker wraps time.Ticker.
func NewRealTicker(interval time.Duration) Ticker {
	return realTicker{t: time.NewTicker(interval)}
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func (c *Controller) startTickerLocked() {
	c.stopTickerLocked()

	ticker := c.opts.NewTicker(c.opts.TickInterval)
	done := make(chan struct{})
	c.ticker = ticker
	c.tickerDone = done

	gen, take := c.gen, c.take
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				c.tick(gen, take)
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.tickerDone)
	c.ticker = nil
	c.tickerDone = nil
}

// tick counts one second of unpaused recording.
func (c *Controller) tick(gen, take uint64) {
	_ = c.update(func() error {
		if gen != c.gen || take != c.take || c.ticker == nil || c.result.Paused {
			return nil
		}
		c.result.DurationSeconds++
		return nil
	})
}
