package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{name: "empty", input: "   ", want: nil},
		{name: "simple", input: "espeak-ng -s 165", want: []string{"espeak-ng", "-s", "165"}},
		{name: "double quotes", input: `spd-say --voice "female 1"`, want: []string{"spd-say", "--voice", "female 1"}},
		{name: "single quotes keep backslash", input: `say 'a\b'`, want: []string{"say", `a\b`}},
		{name: "escaped space", input: `piper --model en\ us.onnx`, want: []string{"piper", "--model", "en us.onnx"}},
		{name: "empty quoted word", input: `cmd "" x`, want: []string{"cmd", "", "x"}},
		{name: "placeholder kept", input: `espeak-ng {text} --stdout`, want: []string{"espeak-ng", "{text}", "--stdout"}},
		{name: "comment disables", input: `# wl-copy`, want: nil},
		{name: "unterminated quote", input: `say "oops`, wantErr: errUnterminatedQuote},
		{name: "unterminated escape", input: `say hello\`, wantErr: errUnterminatedEscape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`say "unterminated`)
	})
}
