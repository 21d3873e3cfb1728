// Package tui is the interactive cargo menu: pick a command, toggle its flags
// by key, launch it and follow its output.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
	"github.com/lexcodex/cargomenu/menu"
)

// maxOutputLines bounds the output feed kept in memory.
const maxOutputLines = 5000

// Options wires the menu to its collaborators.
type Options struct {
	Table      *menu.Table
	Completers menu.Completers
	Dispatcher *dispatch.Dispatcher
	Executable string
	Separator  *cargo.Separator
	Project    cargo.Project
	// NamingName labels the output naming strategy in the status bar.
	NamingName string
}

// Run starts the menu and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	model, err := NewModel(ctx, opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	_, err = program.Run()
	return err
}

// InputMode tracks what keys currently mean.
type InputMode int

const (
	ModeMenu InputMode = iota
	ModeCommand
	ModeValue
	ModeOutput
	ModeSlash
)

// Model implements tea.Model.
type Model struct {
	ctx        context.Context
	opts       Options
	dispatcher dispatch.Dispatcher

	mode InputMode
	// back is the mode restored when leaving output or slash mode.
	back InputMode

	selection *menu.Selection
	pending   string
	prompt    promptTarget

	input     textinput.Model
	output    *viewport.Model
	spinner   spinner.Model
	statusBar StatusBar

	lines  []string
	notice string

	job  *dispatch.Job
	last *dispatch.Result

	width  int
	height int
	ready  bool
}

// promptTarget is the option or field the value prompt edits.
type promptTarget struct {
	key   string
	label string
	field bool
	flag  menu.Flag
}

// NewModel validates opts and builds the initial menu screen.
func NewModel(ctx context.Context, opts Options) (Model, error) {
	if opts.Table == nil {
		return Model{}, fmt.Errorf("menu table is required")
	}
	if err := opts.Table.Validate(); err != nil {
		return Model{}, fmt.Errorf("menu table: %w", err)
	}
	if opts.Dispatcher == nil {
		return Model{}, fmt.Errorf("dispatcher is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Executable == "" {
		opts.Executable = cargo.DefaultExecutable
	}
	if opts.Separator == nil {
		opts.Separator = cargo.DefaultSeparator()
	}
	if opts.NamingName == "" {
		opts.NamingName = dispatch.NamingPerCommand
	}
	d := *opts.Dispatcher
	d.Stream = true

	input := textinput.New()
	input.ShowSuggestions = true

	v := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorWarning)

	return Model{
		ctx:        ctx,
		opts:       opts,
		dispatcher: d,
		mode:       ModeMenu,
		input:      input,
		output:     &v,
		spinner:    sp,
		statusBar: StatusBar{
			workspace: opts.Project.Dir,
			project:   opts.Project.Name(),
			naming:    opts.NamingName,
		},
	}, nil
}

// Mode reports the active input mode.
func (m Model) Mode() InputMode { return m.mode }

// Selection returns the command being edited, or nil on the menu screen.
func (m Model) Selection() *menu.Selection { return m.selection }

// Notice is the last message shown to the user.
func (m Model) Notice() string { return m.notice }

// Lines returns the output feed of the current or last job.
func (m Model) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m Model) openCommand(cmd menu.Command) Model {
	m.selection = menu.NewSelection(cmd)
	m.pending = ""
	m.notice = ""
	m.mode = ModeCommand
	return m
}

func (m Model) setNotice(format string, args ...any) Model {
	m.notice = fmt.Sprintf(format, args...)
	return m
}

func (m Model) appendLine(line string) Model {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - maxOutputLines; over > 0 {
		m.lines = append(m.lines[:0], m.lines[over:]...)
	}
	return m.refreshOutput()
}

// refreshOutput keeps the viewport on the latest output.
func (m Model) refreshOutput() Model {
	if !m.ready || m.output == nil {
		return m
	}
	m.output.SetContent(m.renderOutput())
	m.output.GotoBottom()
	return m
}

func (m Model) running() bool { return m.job != nil }
