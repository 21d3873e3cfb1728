package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
	"github.com/lexcodex/cargomenu/menu"
)

// jobLineMsg carries one output line of the running job.
type jobLineMsg struct{ line string }

// jobDoneMsg arrives once the job's output ended.
type jobDoneMsg struct{ result dispatch.Result }

// candidatesMsg delivers completion values for an option prompt.
type candidatesMsg struct {
	key    string
	values []string
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update applies incoming Bubble Tea messages to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.job != nil {
				m.job.Cancel()
			}
			return m, tea.Quit
		}
		switch m.mode {
		case ModeMenu:
			return m.handleMenuMode(msg)
		case ModeCommand:
			return m.handleCommandMode(msg)
		case ModeValue:
			return m.handleValueMode(msg)
		case ModeOutput:
			return m.handleOutputMode(msg)
		case ModeSlash:
			return m.handleSlashMode(msg)
		}
	case jobLineMsg:
		m = m.appendLine(msg.line)
		return m, listenToJob(m.job)
	case jobDoneMsg:
		return m.handleJobDone(msg)
	case candidatesMsg:
		if m.mode == ModeValue && !m.prompt.field && m.prompt.key == msg.key {
			m.input.SetSuggestions(msg.values)
		}
		return m, nil
	case spinner.TickMsg:
		if !m.running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleResize reserves one row each for notice, prompt and status bar.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.output.Width = msg.Width
	m.output.Height = m.bodyHeight()
	m.input.Width = max(10, msg.Width-20)
	m.ready = true
	return m.refreshOutput(), nil
}

func (m Model) bodyHeight() int {
	return max(1, m.height-3)
}

func (m Model) handleMenuMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.showOutput(), nil
	case "esc":
		m.notice = ""
		return m, nil
	case "q":
		if m.job != nil {
			m.job.Cancel()
		}
		return m, tea.Quit
	case "/":
		m.back = ModeMenu
		m.mode = ModeSlash
		m.input.Reset()
		m.input.SetSuggestions(commandNames())
		m.input.Placeholder = "help"
		m.input.Focus()
		return m, textinput.Blink
	}
	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	cmd, ok := m.opts.Table.ByKey(msg.String())
	if !ok {
		return m.setNotice("No command on key %s", msg.String()), nil
	}
	return m.openCommand(cmd), nil
}

func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.pending = ""
		return m.launch()
	case "esc":
		if m.pending != "" {
			m.pending = ""
			return m, nil
		}
		m.selection = nil
		m.notice = ""
		m.mode = ModeMenu
		return m, nil
	case "ctrl+r":
		m.selection.Reset()
		m.pending = ""
		return m.setNotice("Selection cleared"), nil
	case "tab":
		return m.showOutput(), nil
	case "backspace":
		if m.pending != "" {
			m.pending = m.pending[:len(m.pending)-1]
		}
		return m, nil
	}
	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	var cmd tea.Cmd
	for _, r := range msg.Runes {
		m, cmd = m.pressKey(r)
		if m.mode != ModeCommand {
			break
		}
	}
	return m, cmd
}

// pressKey extends the key buffer and acts once it names a flag or field.
func (m Model) pressKey(r rune) (Model, tea.Cmd) {
	m.pending += string(r)
	cmd := m.selection.Command()
	if f, ok := cmd.Flag(m.pending); ok {
		m.pending = ""
		if f.Kind == menu.Switch || m.selection.Enabled(f.Key) {
			_ = m.selection.Toggle(f.Key)
			return m, nil
		}
		return m.openPrompt(promptTarget{key: f.Key, label: f.Argument, flag: f}, "")
	}
	if field, ok := cmd.Field(m.pending); ok {
		m.pending = ""
		return m.openPrompt(promptTarget{key: field.Key, label: field.Name, field: true}, m.selection.FieldText(field.Key))
	}
	for _, key := range cmd.Keys() {
		if strings.HasPrefix(key, m.pending) {
			return m, nil
		}
	}
	m = m.setNotice("No key %s in %s", m.pending, cmd.Name)
	m.pending = ""
	return m, nil
}

func (m Model) openPrompt(target promptTarget, initial string) (Model, tea.Cmd) {
	m.prompt = target
	m.mode = ModeValue
	m.notice = ""
	m.input.Reset()
	m.input.SetSuggestions(nil)
	m.input.Placeholder = target.label
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
	if target.field {
		return m, textinput.Blink
	}
	return m, tea.Batch(textinput.Blink, loadCandidates(m.ctx, m.opts.Completers, target.flag, m.opts.Project))
}

func (m Model) handleValueMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m = m.commitPrompt()
		return m, nil
	case "esc":
		m.input.Blur()
		m.mode = ModeCommand
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) commitPrompt() Model {
	value := strings.TrimSpace(m.input.Value())
	var err error
	if m.prompt.field {
		err = m.selection.SetField(m.prompt.key, value)
	} else {
		err = m.selection.Set(m.prompt.key, splitValues(value, m.prompt.flag.Multi)...)
	}
	m.input.Blur()
	m.input.Reset()
	m.mode = ModeCommand
	if err != nil {
		return m.setNotice("%s: %v", m.prompt.key, err)
	}
	return m
}

// splitValues breaks multi-value input on commas and whitespace.
func splitValues(value string, multi bool) []string {
	if value == "" {
		return nil
	}
	if !multi {
		return []string{value}
	}
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// launch assembles the selection and hands it to the dispatcher.
func (m Model) launch() (tea.Model, tea.Cmd) {
	if m.running() {
		return m.setNotice("%s is still running", m.job.Command), nil
	}
	inv, err := m.selection.Invocation(m.opts.Executable, m.opts.Separator)
	if err != nil {
		return m.setNotice("%v", err), nil
	}
	job, err := m.dispatcher.Dispatch(m.ctx, inv, m.opts.Project)
	if err != nil {
		return m.setNotice("dispatch failed: %v", err), nil
	}
	m.job = job
	m.lines = []string{"$ " + job.Command}
	m.notice = ""
	m.statusBar.surface = job.Surface
	m.statusBar.running = true
	m = m.showOutput()
	return m, tea.Batch(listenToJob(job), m.spinner.Tick)
}

func (m Model) handleJobDone(msg jobDoneMsg) (tea.Model, tea.Cmd) {
	res := msg.result
	m.last = &res
	m.job = nil
	m.statusBar.running = false
	m.statusBar.last = res.Summary()
	m.statusBar.failed = !res.Success()
	m = m.appendLine(res.Summary())
	return m.setNotice("%s", res.Summary()), nil
}

func (m Model) showOutput() Model {
	if m.mode != ModeOutput {
		m.back = m.mode
	}
	m.mode = ModeOutput
	return m.refreshOutput()
}

func (m Model) handleOutputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		m.mode = m.back
		if m.mode == ModeCommand && m.selection == nil {
			m.mode = ModeMenu
		}
		return m, nil
	case "ctrl+k":
		if m.job == nil {
			return m.setNotice("Nothing is running"), nil
		}
		m.job.Cancel()
		return m.setNotice("Cancelling %s", m.job.Command), nil
	case "up", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		*m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSlashMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name, args := parseCommand(m.input.Value())
		m.input.Reset()
		m.input.Blur()
		m.mode = m.back
		if name == "" {
			return m, nil
		}
		return handleCommand(m, name, args)
	case "esc":
		m.input.Reset()
		m.input.Blur()
		m.mode = m.back
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// listenToJob adapts the job's line channel to Bubble Tea commands.
func listenToJob(job *dispatch.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-job.Lines
		if !ok {
			return jobDoneMsg{result: job.Wait()}
		}
		return jobLineMsg{line: line}
	}
}

func loadCandidates(ctx context.Context, completers menu.Completers, f menu.Flag, p cargo.Project) tea.Cmd {
	return func() tea.Msg {
		return candidatesMsg{key: f.Key, values: completers.Complete(ctx, f, p)}
	}
}
