package indicator

import (
	"strings"

	"github.com/rbright/rehearse/internal/config"
)

// messages are the notice summaries shown for each session phase.
type messages struct {
	recording  string
	processing string
	errorText  string
}

var defaultMessages = messages{
	recording:  "Recording answer…",
	processing: "Transcribing answer…",
	errorText:  "Practice error",
}

// messagesFor applies the configured texts over the defaults. Blank texts
// keep the default.
func messagesFor(cfg config.IndicatorConfig) messages {
	m := defaultMessages
	for _, o := range []struct {
		dst *string
		src string
	}{
		{&m.recording, cfg.TextRecording},
		{&m.processing, cfg.TextProcessing},
		{&m.errorText, cfg.TextError},
	} {
		if text := strings.TrimSpace(o.src); text != "" {
			*o.dst = text
		}
	}
	return m
}
