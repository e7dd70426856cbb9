package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// TextPlaceholder marks where the narrated text goes in a narrator command.
const TextPlaceholder = "{text}"

// CommandNarrator runs a local text-to-speech program. The text replaces
// every TextPlaceholder argument, or is appended when there is none:
// `espeak-ng -s 165` and `spd-say -w {text}` both work.
type CommandNarrator struct {
	Argv []string
}

func narratorArgs(argv []string, text string) []string {
	args := make([]string, 0, len(argv))
	placed := false
	for _, arg := range argv[1:] {
		if strings.Contains(arg, TextPlaceholder) {
			arg = strings.ReplaceAll(arg, TextPlaceholder, text)
			placed = true
		}
		args = append(args, arg)
	}
	if !placed {
		args = append(args, text)
	}
	return args
}

func (n CommandNarrator) Narrate(ctx context.Context, text string) error {
	if len(n.Argv) == 0 {
		return errors.New("fallback narrator command is empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, n.Argv[0], narratorArgs(n.Argv, text)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", n.Argv[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}
