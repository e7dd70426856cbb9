package ipc

import (
	"fmt"
	"strings"
)

// Request is one newline-delimited JSON command sent to the session owner.
type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

// Response reports the outcome and the session state after the command.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CommandSpec describes one command the session owner accepts.
type CommandSpec struct {
	Name     string
	NeedsArg bool
	Help     string
}

// Commands lists every forwardable command in help order.
var Commands = []CommandSpec{
	{Name: "status", Help: "print the running session state"},
	{Name: "skip", Help: "stop reading the question aloud"},
	{Name: "mode", NeedsArg: true, Help: "answer by voice, camera, or text"},
	{Name: "start", Help: "start recording from the camera preview"},
	{Name: "pause", Help: "pause or resume the recording"},
	{Name: "answer", NeedsArg: true, Help: "set the typed or edited answer text"},
	{Name: "done", Help: "finish the answer and review it"},
	{Name: "redo", NeedsArg: true, Help: "discard the answer and capture again"},
	{Name: "confirm", Help: "confirm a pending redo"},
	{Name: "cancel", Help: "keep the answer and dismiss the redo prompt"},
	{Name: "dont-ask", NeedsArg: true, Help: "on/off: skip redo confirmations"},
	{Name: "hint", Help: "suggest talking points"},
	{Name: "play", Help: "play back the recorded answer"},
	{Name: "next", Help: "go to the next question"},
	{Name: "prev", Help: "go to the previous question"},
}

// LookupCommand finds a forwardable command by name.
func LookupCommand(name string) (CommandSpec, bool) {
	for _, spec := range Commands {
		if spec.Name == name {
			return spec, true
		}
	}
	return CommandSpec{}, false
}

// Validate rejects unknown commands and missing or unexpected arguments.
func (r Request) Validate() error {
	spec, ok := LookupCommand(r.Command)
	if !ok {
		return fmt.Errorf("unknown command: %s", r.Command)
	}
	hasArg := strings.TrimSpace(r.Arg) != ""
	if spec.NeedsArg && !hasArg {
		return fmt.Errorf("command %q requires an argument", r.Command)
	}
	if !spec.NeedsArg && hasArg {
		return fmt.Errorf("command %q takes no argument", r.Command)
	}
	return nil
}
