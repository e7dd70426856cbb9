package tui

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeyEnter     = "enter"
	KeyEsc       = "esc"
	KeyBackspace = "backspace"
	KeyRight     = "right"
	KeyLeft      = "left"
	KeyVoice     = "v"
	KeyCamera    = "c"
	KeyText      = "t"
	KeyStart     = "s"
	KeyNext      = "n"
	KeyPrev      = "b"
	KeyHint      = "h"
	KeyPlay      = "p"
	KeyEdit      = "e"
	KeyCopy      = "y"
	KeyConfirm   = "y"
	KeyDeny      = "n"
	KeyDontAsk   = "a"
)
