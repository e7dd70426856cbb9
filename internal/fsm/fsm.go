// Package fsm defines the per-question practice flow and its legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateReading         State = "reading"
	StateModeSelect      State = "mode_select"
	StateRecordingVoice  State = "recording_voice"
	StatePreviewCamera   State = "preview_camera"
	StateRecordingCamera State = "recording_camera"
	StateTyping          State = "typing"
	StateReview          State = "review"
)

const (
	EventSpeechEnded  Event = "speech_ended"
	EventAutoVoice    Event = "auto_voice"
	EventPickVoice    Event = "pick_voice"
	EventPickCamera   Event = "pick_camera"
	EventPickText     Event = "pick_text"
	EventStartCamera  Event = "start_camera"
	EventDone         Event = "done"
	EventRedoVoice    Event = "redo_voice"
	EventRedoCamera   Event = "redo_camera"
	EventRedoText     Event = "redo_text"
	EventDeviceFailed Event = "device_failed"
	EventReset        Event = "reset"
)

// States lists every flow state in display order.
var States = []State{
	StateReading,
	StateModeSelect,
	StateRecordingVoice,
	StatePreviewCamera,
	StateRecordingCamera,
	StateTyping,
	StateReview,
}

func Transition(current State, event Event) (State, error) {
	if event == EventReset {
		if !known(current) {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateReading, nil
	}

	switch current {
	case StateReading:
		switch event {
		case EventSpeechEnded:
			return StateModeSelect, nil
		case EventAutoVoice:
			return StateRecordingVoice, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateModeSelect:
		switch event {
		case EventPickVoice:
			return StateRecordingVoice, nil
		case EventPickCamera:
			return StatePreviewCamera, nil
		case EventPickText:
			return StateTyping, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePreviewCamera:
		switch event {
		case EventStartCamera:
			return StateRecordingCamera, nil
		case EventDeviceFailed:
			return StateModeSelect, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecordingVoice, StateRecordingCamera:
		switch event {
		case EventDone:
			return StateReview, nil
		case EventDeviceFailed:
			return StateModeSelect, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTyping:
		switch event {
		case EventDone:
			return StateReview, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReview:
		switch event {
		case EventRedoVoice:
			return StateRecordingVoice, nil
		case EventRedoCamera:
			return StatePreviewCamera, nil
		case EventRedoText:
			return StateTyping, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// IsRecording reports whether media capture is live in state.
func IsRecording(state State) bool {
	return state == StateRecordingVoice || state == StateRecordingCamera
}

// HoldsDevice reports whether state keeps a media stream acquired.
func HoldsDevice(state State) bool {
	return IsRecording(state) || state == StatePreviewCamera
}

func known(state State) bool {
	for _, s := range States {
		if s == state {
			return true
		}
	}
	return false
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

// Mode is the capture mode chosen for an answer.
type Mode string

const (
	ModeVoice  Mode = "voice"
	ModeCamera Mode = "camera"
	ModeText   Mode = "text"
)

// ParseMode accepts the lowercase mode name.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeVoice, ModeCamera, ModeText:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// PickEvent maps a mode to its mode-select event.
func PickEvent(mode Mode) Event {
	switch mode {
	case ModeVoice:
		return EventPickVoice
	case ModeCamera:
		return EventPickCamera
	case ModeText:
		return EventPickText
	default:
		return Event("pick_" + string(mode))
	}
}

// RedoEvent maps a mode to its review redo event.
func RedoEvent(mode Mode) Event {
	switch mode {
	case ModeVoice:
		return EventRedoVoice
	case ModeCamera:
		return EventRedoCamera
	case ModeText:
		return EventRedoText
	default:
		return Event("redo_" + string(mode))
	}
}
