package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionVoiceHappyPath(t *testing.T) {
	s := StateReading

	next, err := Transition(s, EventSpeechEnded)
	require.NoError(t, err)
	require.Equal(t, StateModeSelect, next)

	next, err = Transition(next, EventPickVoice)
	require.NoError(t, err)
	require.Equal(t, StateRecordingVoice, next)

	next, err = Transition(next, EventDone)
	require.NoError(t, err)
	require.Equal(t, StateReview, next)
}

func TestTransitionCameraNeedsExplicitStart(t *testing.T) {
	next, err := Transition(StateModeSelect, EventPickCamera)
	require.NoError(t, err)
	require.Equal(t, StatePreviewCamera, next)

	_, err = Transition(next, EventDone)
	require.Error(t, err)

	next, err = Transition(next, EventStartCamera)
	require.NoError(t, err)
	require.Equal(t, StateRecordingCamera, next)

	next, err = Transition(next, EventDone)
	require.NoError(t, err)
	require.Equal(t, StateReview, next)
}

func TestTransitionResetFromAnyStateGoesReading(t *testing.T) {
	for _, state := range States {
		next, err := Transition(state, EventReset)
		require.NoError(t, err)
		require.Equal(t, StateReading, next)
	}
}

func TestTransitionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "reading auto voice", state: StateReading, event: EventAutoVoice, want: StateRecordingVoice},
		{name: "reading pick voice invalid", state: StateReading, event: EventPickVoice, want: StateReading, wantErr: true},
		{name: "reading done invalid", state: StateReading, event: EventDone, want: StateReading, wantErr: true},
		{name: "mode select text", state: StateModeSelect, event: EventPickText, want: StateTyping},
		{name: "mode select done invalid", state: StateModeSelect, event: EventDone, want: StateModeSelect, wantErr: true},
		{name: "typing done", state: StateTyping, event: EventDone, want: StateReview},
		{name: "typing device failed invalid", state: StateTyping, event: EventDeviceFailed, want: StateTyping, wantErr: true},
		{name: "preview device failed", state: StatePreviewCamera, event: EventDeviceFailed, want: StateModeSelect},
		{name: "voice device failed", state: StateRecordingVoice, event: EventDeviceFailed, want: StateModeSelect},
		{name: "camera device failed", state: StateRecordingCamera, event: EventDeviceFailed, want: StateModeSelect},
		{name: "review redo voice", state: StateReview, event: EventRedoVoice, want: StateRecordingVoice},
		{name: "review redo camera", state: StateReview, event: EventRedoCamera, want: StatePreviewCamera},
		{name: "review redo text", state: StateReview, event: EventRedoText, want: StateTyping},
		{name: "review done invalid", state: StateReview, event: EventDone, want: StateReview, wantErr: true},
		{name: "recording redo invalid", state: StateRecordingVoice, event: EventRedoText, want: StateRecordingVoice, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventDone)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)

	_, err = Transition(State("mystery"), EventReset)
	require.Error(t, err)
}

func TestHoldsDevice(t *testing.T) {
	require.True(t, HoldsDevice(StatePreviewCamera))
	require.True(t, HoldsDevice(StateRecordingVoice))
	require.True(t, IsRecording(StateRecordingCamera))
	require.False(t, IsRecording(StatePreviewCamera))
	require.False(t, HoldsDevice(StateTyping))
	require.False(t, HoldsDevice(StateReview))
}

func TestModeEvents(t *testing.T) {
	mode, err := ParseMode("camera")
	require.NoError(t, err)
	require.Equal(t, ModeCamera, mode)
	require.Equal(t, EventPickCamera, PickEvent(mode))
	require.Equal(t, EventRedoCamera, RedoEvent(mode))

	_, err = ParseMode("smoke-signals")
	require.Error(t, err)

	_, err = Transition(StateModeSelect, PickEvent(Mode("smoke")))
	require.Error(t, err)
}
