package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/cargomenu/internal/dispatch"
)

// CommandHandler mutates model state for /commands typed on the menu screen.
type CommandHandler func(Model, []string) (Model, tea.Cmd)

// SlashCommand describes a slash command entry.
type SlashCommand struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     CommandHandler
}

var commandRegistry = map[string]SlashCommand{}

func init() {
	registerCommand(SlashCommand{
		Name:        "help",
		Aliases:     []string{"h", "?"},
		Description: "Show keys and slash commands",
		Usage:       "/help",
		Handler:     handleHelp,
	})
	registerCommand(SlashCommand{
		Name:        "naming",
		Aliases:     []string{"n"},
		Description: "Switch the output naming strategy",
		Usage:       "/naming <" + strings.Join(dispatch.NamingNames(), "|") + ">",
		Handler:     handleNaming,
	})
	registerCommand(SlashCommand{
		Name:        "cancel",
		Aliases:     []string{"k"},
		Description: "Stop the running command",
		Usage:       "/cancel",
		Handler:     handleCancel,
	})
	registerCommand(SlashCommand{
		Name:        "clear",
		Aliases:     []string{"cls"},
		Description: "Clear the output feed",
		Usage:       "/clear",
		Handler:     handleClear,
	})
	registerCommand(SlashCommand{
		Name:        "quit",
		Aliases:     []string{"q"},
		Description: "Leave the menu",
		Usage:       "/quit",
		Handler:     handleQuit,
	})
}

func registerCommand(cmd SlashCommand) {
	commandRegistry[cmd.Name] = cmd
}

func commandNames() []string {
	names := make([]string, 0, len(commandRegistry))
	for name := range commandRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseCommand splits the input into command and args; the slash is optional.
func parseCommand(input string) (string, []string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.TrimPrefix(parts[0], "/"), parts[1:]
}

// handleCommand finds the registered command, falling back to aliases.
func handleCommand(m Model, name string, args []string) (Model, tea.Cmd) {
	cmd, ok := commandRegistry[name]
	if !ok {
		for _, registered := range commandRegistry {
			for _, alias := range registered.Aliases {
				if alias == name {
					cmd = registered
					ok = true
					break
				}
			}
			if ok {
				break
			}
		}
	}
	if !ok {
		return m.setNotice("Unknown command: %s", name), nil
	}
	return cmd.Handler(m, args)
}

func handleHelp(m Model, _ []string) (Model, tea.Cmd) {
	if m.running() {
		return m.setNotice("Help is unavailable while %s runs", m.job.Command), nil
	}
	var b strings.Builder
	b.WriteString("Keys: menu letter opens a command | -x toggles a flag | enter runs | esc goes back | tab shows output | ctrl+k cancels")
	b.WriteString("\n\nSlash commands:\n")
	for _, name := range commandNames() {
		cmd := commandRegistry[name]
		b.WriteString(fmt.Sprintf("  %s - %s\n", cmd.Usage, cmd.Description))
	}
	m.lines = strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	return m.showOutput(), nil
}

func handleNaming(m Model, args []string) (Model, tea.Cmd) {
	if len(args) == 0 {
		return m.setNotice("Output naming is %s", m.opts.NamingName), nil
	}
	naming, err := dispatch.LookupNaming(args[0])
	if err != nil {
		return m.setNotice("%v", err), nil
	}
	m.dispatcher.Naming = naming
	m.opts.NamingName = strings.ToLower(args[0])
	m.statusBar.naming = m.opts.NamingName
	return m.setNotice("Output naming set to %s", m.opts.NamingName), nil
}

func handleCancel(m Model, _ []string) (Model, tea.Cmd) {
	if m.job == nil {
		return m.setNotice("Nothing is running"), nil
	}
	m.job.Cancel()
	return m.setNotice("Cancelling %s", m.job.Command), nil
}

func handleClear(m Model, _ []string) (Model, tea.Cmd) {
	m.lines = nil
	return m.refreshOutput().setNotice("Output cleared"), nil
}

func handleQuit(m Model, _ []string) (Model, tea.Cmd) {
	if m.job != nil {
		m.job.Cancel()
	}
	return m, tea.Quit
}
