// Package tui renders the practice session and maps keys onto session commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/level"
	"github.com/rbright/rehearse/internal/session"
	"github.com/rbright/rehearse/internal/transcript"
)

const (
	frameInterval  = 80 * time.Millisecond
	commandTimeout = 5 * time.Second
	hintTimeout    = 30 * time.Second
	statusTTL      = 4 * time.Second
	defaultBars    = 24
)

// Session is the controller surface the TUI drives.
type Session interface {
	Handle(ctx context.Context, req ipc.Request) ipc.Response
	Snapshot() session.View
}

// Copier puts the answer transcript somewhere outside the terminal.
type Copier interface {
	Copy(ctx context.Context, text string) error
}

// Options wires the model to a running session.
type Options struct {
	Session  Session
	Copier   Copier
	Category string
	// Levels returns live meter bars; Speaking reports whether a question is
	// being read aloud right now.
	Levels   func() []float32
	Speaking func() bool
	Bars     int
	Now      func() time.Time
}

// Model is the root bubbletea model for a practice session.
type Model struct {
	opts Options
	view session.View

	bars []float32

	editing bool
	draft   []rune

	status    string
	statusErr bool
	statusSeq int

	width  int
	height int
}

// New creates a model showing the session's current snapshot.
func New(opts Options) Model {
	if opts.Bars <= 0 {
		opts.Bars = defaultBars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{opts: opts, bars: make([]float32, opts.Bars)}
	if opts.Session != nil {
		m.applyView(opts.Session.Snapshot())
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

// sendCmd runs one session command off the update loop.
func sendCmd(sess Session, timeout time.Duration, reqs ...ipc.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var last ActionResultMsg
		for _, req := range reqs {
			last = ActionResultMsg{Command: req.Command, Response: sess.Handle(ctx, req)}
			if !last.Response.OK {
				break
			}
		}
		return last
	}
}

func copyCmd(copier Copier, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return CopiedMsg{Err: copier.Copy(ctx, text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewMsg:
		m.applyView(msg.View)
		return m, nil

	case CompleteMsg:
		m.view.Complete = true
		return m, m.setStatus("Session complete", false)

	case FrameMsg:
		var live []float32
		if m.opts.Levels != nil {
			live = m.opts.Levels()
		}
		speaking := m.opts.Speaking == nil || m.opts.Speaking()
		m.bars = meterBars(m.view, live, speaking, time.Time(msg), m.opts.Bars)
		return m, frameCmd()

	case ActionResultMsg:
		if m.opts.Session != nil {
			m.applyView(m.opts.Session.Snapshot())
		}
		if !msg.Response.OK {
			return m, m.setStatus(msg.Response.Error, true)
		}
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			return m, m.setStatus("Copy failed: "+msg.Err.Error(), true)
		}
		return m, m.setStatus("Answer copied", false)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m, nil
}

// applyView adopts a snapshot, opening the editor when typing begins.
func (m *Model) applyView(v session.View) {
	prev := m.view.State
	m.view = v
	switch {
	case v.State == fsm.StateTyping && prev != fsm.StateTyping:
		m.editing = true
		m.draft = []rune(v.Result.Transcript)
	case v.State != fsm.StateTyping && v.State != fsm.StateReview:
		m.editing = false
		m.draft = nil
	}
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	return clearStatusCmd(m.statusSeq)
}

func (m Model) send(reqs ...ipc.Request) tea.Cmd {
	if m.opts.Session == nil {
		return nil
	}
	return sendCmd(m.opts.Session, commandTimeout, reqs...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		return m, tea.Quit
	}
	if m.editing {
		return m.handleEditKey(msg)
	}
	if m.view.PendingRedo != "" {
		return m.handleDialogKey(key)
	}

	state := m.view.State
	switch key {
	case KeyQuit:
		return m, tea.Quit
	case KeySpace:
		switch {
		case state == fsm.StateReading:
			return m, m.send(ipc.Request{Command: "skip"})
		case fsm.IsRecording(state):
			return m, m.send(ipc.Request{Command: "pause"})
		}
	case KeyVoice, KeyCamera, KeyText:
		mode := modeForKey(key)
		switch state {
		case fsm.StateModeSelect:
			return m, m.send(ipc.Request{Command: "mode", Arg: string(mode)})
		case fsm.StateReview:
			return m, m.send(ipc.Request{Command: "redo", Arg: string(mode)})
		}
	case KeyStart:
		if state == fsm.StatePreviewCamera {
			return m, m.send(ipc.Request{Command: "start"})
		}
	case KeyEnter:
		if fsm.IsRecording(state) {
			return m, m.send(ipc.Request{Command: "done"})
		}
	case KeyPlay:
		if state == fsm.StateReview {
			return m, m.send(ipc.Request{Command: "play"})
		}
	case KeyEdit:
		if state == fsm.StateReview && !m.view.Result.IsTranscribing {
			m.editing = true
			m.draft = []rune(m.view.Result.Transcript)
			return m, nil
		}
	case KeyCopy:
		if state == fsm.StateReview && m.opts.Copier != nil {
			return m, copyCmd(m.opts.Copier, m.view.Result.Transcript)
		}
	case KeyHint:
		if m.opts.Session != nil {
			cmd := sendCmd(m.opts.Session, hintTimeout, ipc.Request{Command: "hint"})
			return m, tea.Batch(cmd, m.setStatus("Thinking of talking points…", false))
		}
	case KeyNext, KeyRight:
		return m, m.send(ipc.Request{Command: "next"})
	case KeyPrev, KeyLeft:
		return m, m.send(ipc.Request{Command: "prev"})
	}
	return m, nil
}

func (m Model) handleDialogKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyConfirm, KeyEnter:
		return m, m.send(ipc.Request{Command: "confirm"})
	case KeyDeny, KeyEsc:
		return m, m.send(ipc.Request{Command: "cancel"})
	case KeyDontAsk:
		return m, m.send(
			ipc.Request{Command: "dont-ask", Arg: "on"},
			ipc.Request{Command: "confirm"},
		)
	case KeyQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(string(m.draft))
		m.editing = false
		reqs := []ipc.Request{{Command: "answer", Arg: text}}
		if m.view.State == fsm.StateTyping {
			reqs = append(reqs, ipc.Request{Command: "done"})
		}
		return m, m.send(reqs...)
	case tea.KeyEsc:
		m.editing = false
		return m, nil
	case tea.KeyBackspace:
		if len(m.draft) > 0 {
			m.draft = m.draft[:len(m.draft)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.draft = append(m.draft, ' ')
		return m, nil
	case tea.KeyRunes:
		m.draft = append(m.draft, msg.Runes...)
		return m, nil
	}
	return m, nil
}

func modeForKey(key string) fsm.Mode {
	switch key {
	case KeyCamera:
		return fsm.ModeCamera
	case KeyText:
		return fsm.ModeText
	default:
		return fsm.ModeVoice
	}
}

// meterBars picks what the visualizer shows: live levels while recording,
// playback levels or a synthetic wave while a question is read, flat otherwise.
func meterBars(view session.View, live []float32, speaking bool, now time.Time, n int) []float32 {
	switch {
	case fsm.IsRecording(view.State) && !view.Result.Paused:
		return fit(live, n)
	case view.State == fsm.StateReading && speaking:
		if peak(live) > 0.01 {
			return fit(live, n)
		}
		return level.Simulated(now, n)
	default:
		return make([]float32, n)
	}
}

func fit(values []float32, n int) []float32 {
	out := make([]float32, n)
	if len(values) == 0 {
		return out
	}
	for i := range out {
		out[i] = values[i*len(values)/n]
	}
	return out
}

func peak(values []float32) float32 {
	var top float32
	for _, v := range values {
		if v > top {
			top = v
		}
	}
	return top
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.view.Total == 0 {
		b.WriteString(DimStyle.Render("No questions loaded."))
		b.WriteString("\n\n")
		b.WriteString(renderFooter([][2]string{{"q", "quit"}}))
		return b.String()
	}

	b.WriteString(m.renderQuestion())
	b.WriteString("\n\n")
	b.WriteString(m.renderActivity())
	b.WriteString("\n")
	b.WriteString(renderLevelMeter(m.bars))
	b.WriteString("\n\n")

	if body := m.renderAnswer(); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	if m.view.Hint != "" {
		b.WriteString(HintStyle.Render("Talking points"))
		b.WriteString("\n")
		b.WriteString(m.wrap(m.view.Hint))
		b.WriteString("\n\n")
	}
	if m.view.Notice != "" {
		b.WriteString(ErrorTextStyle.Render(m.view.Notice))
		b.WriteString("\n\n")
	}
	if m.view.PendingRedo != "" {
		b.WriteString(m.renderDialog())
		b.WriteString("\n\n")
	}
	if m.status != "" {
		if m.statusErr {
			b.WriteString(ErrorTextStyle.Render(m.status))
		} else {
			b.WriteString(StatusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(DividerStyle.Render(strings.Repeat("─", m.ruleWidth())))
	b.WriteString("\n")
	b.WriteString(renderFooter(m.footerKeys()))
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{TitleStyle.Render("rehearse")}
	if m.opts.Category != "" {
		parts = append(parts, StatusStyle.Render(m.opts.Category))
	}
	if m.view.Total > 0 {
		parts = append(parts, StatusStyle.Render(fmt.Sprintf("Question %d of %d", m.view.Index+1, m.view.Total)))
	}
	if m.view.Complete {
		parts = append(parts, HintStyle.Render("complete"))
	}
	return strings.Join(parts, DimStyle.Render(" · "))
}

func (m Model) renderQuestion() string {
	q := m.view.Question
	text := QuestionStyle.Render(m.wrap(q.Text))
	if q.Type == "" {
		return text
	}
	return TypeBadgeStyle.Render("["+string(q.Type)+"]") + "\n" + text
}

func (m Model) renderActivity() string {
	r := m.view.Result
	switch m.view.State {
	case fsm.StateReading:
		return SpeakingStyle.Render("♪ Reading the question")
	case fsm.StateModeSelect:
		return StatusStyle.Render("How do you want to answer?")
	case fsm.StatePreviewCamera:
		return StatusStyle.Render("Camera ready")
	case fsm.StateRecordingVoice, fsm.StateRecordingCamera:
		label := "REC"
		if m.view.State == fsm.StateRecordingCamera {
			label = "REC camera"
		}
		if r.Paused {
			return PausedStyle.Render("❚❚ Paused " + formatDuration(r.DurationSeconds))
		}
		return RecordingDotStyle.Render("● "+label) + " " + StatusStyle.Render(formatDuration(r.DurationSeconds))
	case fsm.StateTyping:
		return StatusStyle.Render("Type your answer")
	case fsm.StateReview:
		if r.IsTranscribing {
			return SpeakingStyle.Render("… Transcribing")
		}
		return StatusStyle.Render(answerStats(r))
	}
	return ""
}

func (m Model) renderAnswer() string {
	if m.editing {
		return AnswerStyle.Render(m.wrap(string(m.draft))) + CursorStyle.Render("▌")
	}
	r := m.view.Result
	if m.view.State != fsm.StateReview || r.IsTranscribing {
		return ""
	}
	if strings.TrimSpace(r.Transcript) == "" {
		return DimStyle.Render("(no transcript)")
	}
	return AnswerStyle.Render(m.wrap(r.Transcript))
}

func (m Model) renderDialog() string {
	text := fmt.Sprintf("Discard this answer and redo by %s?", m.view.PendingRedo)
	keys := renderFooter([][2]string{{"y", "redo"}, {"n", "keep"}, {"a", "redo, don't ask again"}})
	return DialogStyle.Render(text + "\n" + keys)
}

func (m Model) footerKeys() [][2]string {
	if m.editing {
		return [][2]string{{"enter", "save"}, {"esc", "stop editing"}, {"ctrl+c", "quit"}}
	}
	if m.view.PendingRedo != "" {
		return [][2]string{{"y", "redo"}, {"n", "keep"}}
	}
	keys := [][2]string{}
	switch m.view.State {
	case fsm.StateReading:
		keys = append(keys, [2]string{"space", "skip"})
	case fsm.StateModeSelect:
		keys = append(keys, [2]string{"v", "voice"}, [2]string{"c", "camera"}, [2]string{"t", "text"})
	case fsm.StatePreviewCamera:
		keys = append(keys, [2]string{"s", "start"})
	case fsm.StateRecordingVoice, fsm.StateRecordingCamera:
		keys = append(keys, [2]string{"space", "pause"}, [2]string{"enter", "done"})
	case fsm.StateTyping:
		keys = append(keys, [2]string{"e", "edit"})
	case fsm.StateReview:
		keys = append(keys, [2]string{"v/c/t", "redo"}, [2]string{"e", "edit"}, [2]string{"p", "play"}, [2]string{"y", "copy"})
	}
	keys = append(keys, [2]string{"h", "hint"}, [2]string{"b/n", "prev/next"}, [2]string{"q", "quit"})
	return keys
}

func renderFooter(keys [][2]string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, FooterKeyStyle.Render(k[0])+" "+FooterDescStyle.Render(k[1]))
	}
	return strings.Join(parts, "  ")
}

func renderLevelMeter(bars []float32) string {
	glyphs := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, v := range bars {
		if v <= 0.02 {
			b.WriteString(LevelGrayStyle.Render(string(glyphs[0])))
			continue
		}
		idx := int(v * float32(len(glyphs)-1))
		if idx >= len(glyphs) {
			idx = len(glyphs) - 1
		}
		glyph := string(glyphs[idx])
		if v > 0.75 {
			b.WriteString(LevelYellowStyle.Render(glyph))
		} else {
			b.WriteString(LevelGreenStyle.Render(glyph))
		}
	}
	return b.String()
}

// answerStats summarizes a reviewed answer, with pace for timed modes.
func answerStats(r session.CaptureResult) string {
	words := transcript.WordCount(r.Transcript)
	text := fmt.Sprintf("Your %s answer · %d words", r.Mode, words)
	if r.DurationSeconds > 0 {
		text += fmt.Sprintf(" in %s", formatDuration(r.DurationSeconds))
		if wpm := transcript.WordsPerMinute(r.Transcript, r.DurationSeconds); wpm > 0 {
			text += fmt.Sprintf(" · %d wpm", wpm)
		}
	}
	return text
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func (m Model) ruleWidth() int {
	if m.width > 0 {
		return m.width
	}
	return 60
}

func (m Model) wrap(text string) string {
	if m.width <= 4 {
		return text
	}
	return lipgloss.NewStyle().Width(m.width - 2).Render(text)
}
