package redo

import (
	"testing"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/stretchr/testify/require"
)

func TestRequestWithoutPreferenceGoesPending(t *testing.T) {
	gate := NewGate(nil)

	decision := gate.Request(fsm.ModeVoice)
	require.False(t, decision.Execute)
	require.True(t, decision.Pending)
	require.Equal(t, fsm.ModeVoice, decision.Target)
	require.Equal(t, 1, gate.Dialogs())

	target, ok := gate.Pending()
	require.True(t, ok)
	require.Equal(t, fsm.ModeVoice, target)
}

func TestConfirmReturnsTargetAndGoesIdle(t *testing.T) {
	gate := NewGate(nil)
	gate.Request(fsm.ModeCamera)

	target, ok := gate.Confirm()
	require.True(t, ok)
	require.Equal(t, fsm.ModeCamera, target)

	_, ok = gate.Pending()
	require.False(t, ok)

	_, ok = gate.Confirm()
	require.False(t, ok)
}

func TestCancelGoesIdle(t *testing.T) {
	gate := NewGate(nil)
	gate.Request(fsm.ModeText)
	gate.Cancel()

	_, ok := gate.Pending()
	require.False(t, ok)
	_, ok = gate.Confirm()
	require.False(t, ok)
}

func TestRepeatedRequestReplacesTargetWithoutSecondDialog(t *testing.T) {
	gate := NewGate(nil)
	gate.Request(fsm.ModeVoice)
	gate.Request(fsm.ModeText)

	target, ok := gate.Pending()
	require.True(t, ok)
	require.Equal(t, fsm.ModeText, target)
	require.Equal(t, 1, gate.Dialogs())
}

func TestDontAskExecutesImmediately(t *testing.T) {
	gate := NewGate(NewPreference(true))

	decision := gate.Request(fsm.ModeVoice)
	require.True(t, decision.Execute)
	require.False(t, decision.Pending)
	require.Zero(t, gate.Dialogs())
}

func TestSetDontAskKeepsCurrentPendingAndAppliesToNext(t *testing.T) {
	pref := NewPreference(false)
	gate := NewGate(pref)
	gate.Request(fsm.ModeVoice)

	gate.SetDontAsk(true)
	target, ok := gate.Pending()
	require.True(t, ok)
	require.Equal(t, fsm.ModeVoice, target)

	_, ok = gate.Confirm()
	require.True(t, ok)

	decision := gate.Request(fsm.ModeCamera)
	require.True(t, decision.Execute)
	require.True(t, pref.DontAsk())
}

func TestPreferenceSharedAcrossGates(t *testing.T) {
	pref := NewPreference(false)
	first := NewGate(pref)
	second := NewGate(pref)

	first.SetDontAsk(true)
	require.True(t, second.Request(fsm.ModeText).Execute)
}
