// Package cli parses rehearse command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/ipc"
)

type Command string

const (
	CommandPractice   Command = "practice"
	CommandStatus     Command = "status"
	CommandCategories Command = "categories"
	CommandQuestions  Command = "questions"
	CommandAdd        Command = "add"
	CommandRemove     Command = "remove"
	CommandGenerate   Command = "generate"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// arity bounds positional arguments; max < 0 means unbounded.
type arity struct {
	min int
	max int
}

var localCommands = map[Command]arity{
	CommandPractice:   {0, 1},
	CommandStatus:     {0, 0},
	CommandCategories: {0, 0},
	CommandQuestions:  {0, 1},
	CommandAdd:        {1, -1},
	CommandRemove:     {1, 1},
	CommandGenerate:   {0, -1},
	CommandDevices:    {0, 0},
	CommandDoctor:     {0, 0},
	CommandVersion:    {0, 0},
	CommandHelp:       {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
	// Forward is set when Command is relayed to the running session.
	Forward bool
}

// Arg returns the joined positional arguments.
func (p Parsed) Arg() string {
	return strings.Join(p.Args, " ")
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			bounds, forward, err := lookup(cmd)
			if err != nil {
				return Parsed{}, err
			}

			rest := args[i+1:]
			for _, r := range rest {
				if r == "--config" {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
			}
			if len(rest) < bounds.min {
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			}
			if bounds.max >= 0 && len(rest) > bounds.max {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}

			parsed.Command = cmd
			parsed.Args = append([]string(nil), rest...)
			parsed.Forward = forward
			parsed.ShowHelp = cmd == CommandHelp
			return parsed, nil
		}
	}

	return parsed, nil
}

func lookup(cmd Command) (arity, bool, error) {
	if bounds, ok := localCommands[cmd]; ok {
		return bounds, false, nil
	}
	if def, ok := ipc.LookupCommand(string(cmd)); ok {
		if def.NeedsArg {
			return arity{1, 1}, true, nil
		}
		return arity{0, 0}, true, nil
	}
	return arity{}, false, fmt.Errorf("unknown command: %s", cmd)
}

func HelpText(binaryName string) string {
	var session strings.Builder
	for _, def := range ipc.Commands {
		if def.Name == string(CommandStatus) {
			continue
		}
		name := def.Name
		if def.NeedsArg {
			name += " ARG"
		}
		fmt.Fprintf(&session, "  %-13s %s\n", name, capitalize(def.Help))
	}

	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  practice [CATEGORY]   Start an interactive practice session
  status                Print the running session state
  categories            List practice categories
  questions [CATEGORY]  List questions in a category
  add TEXT              Save a custom practice question
  remove ID             Delete a saved question
  generate [TEXT]       Generate questions from a job description (stdin when omitted)
  devices               List available input devices
  doctor                Run configuration and environment checks
  version               Print version information
  help                  Show this help

Session commands (sent to the running practice session):
%[2]s
Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/rehearse/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName, session.String())
}

func capitalize(text string) string {
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
