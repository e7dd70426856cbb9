package tui

import (
	"testing"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/session"
	"github.com/stretchr/testify/require"
)

func TestBridgeDropsMessagesBeforeAttach(t *testing.T) {
	var b Bridge
	require.NotPanics(t, func() {
		b.OnChange(session.View{State: fsm.StateReading})
		b.OnComplete()
	})
}
