package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/cargomenu/menu"
)

// View composes the body, notice line, prompt bar and status bar.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var body string
	switch m.mode {
	case ModeOutput:
		body = m.output.View()
	case ModeCommand, ModeValue:
		body = m.renderCommand()
	default:
		body = m.renderMenu()
	}
	body = lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)

	status := m.statusBar
	status.spin = m.spinner.View()
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		noticeStyle.Width(m.width).MaxHeight(1).Render(m.notice),
		m.renderPromptBar(),
		status.View(m.width),
	)
}

func (m Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("cargo"))
	b.WriteString("\n\n")
	for _, cmd := range m.opts.Table.Commands {
		b.WriteString(fmt.Sprintf("  %s  %-16s %s\n", keyStyle.Render(cmd.Key), cmd.Name, dimStyle.Render(cmd.Description)))
	}
	return b.String()
}

func (m Model) renderCommand() string {
	if m.selection == nil {
		return m.renderMenu()
	}
	cmd := m.selection.Command()
	var b strings.Builder
	b.WriteString(headerStyle.Render(cmd.Name))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(cmd.Description))
	b.WriteString("\n")
	b.WriteString(commandLineStyle.Render(m.preview()))
	b.WriteString("\n")
	if moved := m.passThrough(cmd); len(moved) > 0 {
		b.WriteString(dimStyle.Render("after --: " + strings.Join(moved, " ")))
		b.WriteString("\n")
	}
	for _, g := range cmd.Groups {
		b.WriteString(sectionHeaderStyle.Render(g.Title))
		b.WriteString("\n")
		for _, f := range g.Flags {
			b.WriteString(m.renderFlag(f))
		}
	}
	if len(cmd.Fields) > 0 {
		b.WriteString(sectionHeaderStyle.Render("Arguments"))
		b.WriteString("\n")
		for _, f := range cmd.Fields {
			text := m.selection.FieldText(f.Key)
			if text == "" {
				text = dimStyle.Render(f.Description)
			} else {
				text = enabledStyle.Render(text)
			}
			b.WriteString(fmt.Sprintf("  %-3s %-22s %s\n", keyStyle.Render(f.Key), f.Name, text))
		}
	}
	return b.String()
}

func (m Model) renderFlag(f menu.Flag) string {
	state := dimStyle.Render(f.Description)
	if m.selection.Enabled(f.Key) {
		state = enabledStyle.Render(strings.Join(f.Render(m.selection.Values(f.Key)), " "))
	}
	return fmt.Sprintf("  %-3s %-22s %s\n", keyStyle.Render(f.Key), f.Argument, state)
}

// passThrough lists the flags of cmd that the separator moves behind "--".
func (m Model) passThrough(cmd menu.Command) []string {
	if cmd.FreeForm {
		return nil
	}
	offered := map[string]bool{}
	for _, f := range cmd.Flags() {
		offered[strings.TrimSuffix(f.Argument, "=")] = true
	}
	var out []string
	for _, flag := range m.opts.Separator.PostSeparatorFlags(cmd.Subcommand) {
		if offered[flag] {
			out = append(out, flag)
		}
	}
	return out
}

// preview is the command line enter would run.
func (m Model) preview() string {
	inv, err := m.selection.Invocation(m.opts.Executable, m.opts.Separator)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return inv.String()
}

func (m Model) renderOutput() string {
	if len(m.lines) == 0 {
		return dimStyle.Render("No output yet.")
	}
	return strings.Join(m.lines, "\n")
}

func (m Model) renderPromptBar() string {
	var content string
	switch m.mode {
	case ModeMenu:
		content = dimStyle.Render("key opens a command | / for commands | tab output | q quit")
	case ModeCommand:
		keys := "> " + m.pending
		content = keys + " " + dimStyle.Render("enter run | esc back | ctrl+r reset | tab output")
	case ModeValue:
		content = m.prompt.label + " " + m.input.View() + " " + dimStyle.Render("tab complete | enter set | esc cancel")
	case ModeOutput:
		content = dimStyle.Render("esc back | ctrl+k cancel | pgup/pgdown scroll")
	case ModeSlash:
		content = "/ " + m.input.View() + " " + dimStyle.Render("enter run | esc cancel")
	}
	return promptBarStyle.Width(m.width).Render(content)
}
