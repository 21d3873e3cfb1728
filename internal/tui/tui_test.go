package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
	"github.com/lexcodex/cargomenu/menu"
)

func newTestModel(t *testing.T, executable string, surfaces *dispatch.MemorySurfaces) Model {
	t.Helper()
	m, err := NewModel(context.Background(), Options{
		Table:      menu.Default(),
		Completers: menu.Completers{menu.SourceBinaries: cargo.StaticCandidates("server", "worker")},
		Dispatcher: &dispatch.Dispatcher{Surfaces: surfaces},
		Executable: executable,
		Project:    cargo.Project{Dir: t.TempDir()},
	})
	require.NoError(t, err)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func press(m Model, keys string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, r := range keys {
		var updated tea.Model
		updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m, cmd
}

func send(m Model, key tea.KeyType) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: key})
	return updated.(Model), cmd
}

// drive runs cmd and feeds job messages back into the model until the job
// finished.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		require.True(t, time.Now().Before(deadline), "job did not finish")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case jobLineMsg, jobDoneMsg:
			updated, c := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, c)
		}
	}
	return m
}

func TestMenuKeyOpensCommandAndTogglesFlags(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})

	m, _ = press(m, "t")
	require.Equal(t, ModeCommand, m.Mode())
	require.Equal(t, "test", m.Selection().Command().Name)

	m, _ = press(m, "-c")
	require.True(t, m.Selection().Enabled("-c"))
	require.Contains(t, m.View(), "cargo test -- --nocapture")

	m, _ = press(m, "-c")
	require.False(t, m.Selection().Enabled("-c"))

	m, _ = press(m, "-q")
	require.Contains(t, m.Notice(), "No key -q")

	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeMenu, m.Mode())
	require.Nil(t, m.Selection())

	m, _ = press(m, "Z")
	require.Contains(t, m.Notice(), "No command on key Z")
}

func TestPendingKeyClearedByEsc(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "b-")
	require.Contains(t, m.View(), "> -")

	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeCommand, m.Mode())
	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeMenu, m.Mode())
}

func TestOptionPromptUsesCandidates(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "r-B")
	require.Equal(t, ModeValue, m.Mode())

	updated, _ := m.Update(candidatesMsg{key: "-B", values: []string{"server", "worker"}})
	m = updated.(Model)
	require.Equal(t, []string{"server", "worker"}, m.input.AvailableSuggestions())

	m, _ = press(m, "server")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, ModeCommand, m.Mode())
	require.Equal(t, []string{"server"}, m.Selection().Values("-B"))

	// pressing the key of a set option clears it
	m, _ = press(m, "-B")
	require.Equal(t, ModeCommand, m.Mode())
	require.False(t, m.Selection().Enabled("-B"))
}

func TestLoadCandidates(t *testing.T) {
	cmd, err := menu.Default().Lookup("run")
	require.NoError(t, err)
	flag, ok := cmd.Flag("-B")
	require.True(t, ok)

	completers := menu.Completers{menu.SourceBinaries: cargo.StaticCandidates("server")}
	msg := loadCandidates(context.Background(), completers, flag, cargo.Project{})()
	require.Equal(t, candidatesMsg{key: "-B", values: []string{"server"}}, msg)
}

func TestMultiValueOption(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "b-F")
	m, _ = press(m, "serde, cli")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, []string{"serde", "cli"}, m.Selection().Values("-F"))
}

func TestFieldPromptKeepsText(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "ts")
	require.Equal(t, ModeValue, m.Mode())
	m, _ = press(m, "parser::")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, "parser::", m.Selection().FieldText("s"))

	m, _ = press(m, "s")
	require.Equal(t, "parser::", m.input.Value())
	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeCommand, m.Mode())
	require.Equal(t, "parser::", m.Selection().FieldText("s"))
}

func TestLaunchStreamsOutput(t *testing.T) {
	surfaces := &dispatch.MemorySurfaces{}
	m := newTestModel(t, "echo compiled; true", surfaces)

	m, _ = press(m, "b-r")
	m, cmd := send(m, tea.KeyEnter)
	require.Equal(t, ModeOutput, m.Mode())
	require.NotNil(t, cmd)

	m = drive(t, m, cmd)
	lines := m.Lines()
	require.Equal(t, "$ echo compiled; true build --release", lines[0])
	require.Contains(t, lines, "compiled")
	require.Contains(t, m.Notice(), "finished")
	require.Equal(t, "compiled\n", surfaces.Content("cargo-build"))

	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeCommand, m.Mode())
}

func TestLaunchReportsFailure(t *testing.T) {
	m := newTestModel(t, "echo broken; exit 101;", &dispatch.MemorySurfaces{})
	m, _ = press(m, "c")
	m, cmd := send(m, tea.KeyEnter)
	m = drive(t, m, cmd)
	require.Contains(t, m.Notice(), "exited abnormally with code 101")
	require.True(t, m.statusBar.failed)
}

func TestLaunchEmptyFreeForm(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "e")
	m, cmd := send(m, tea.KeyEnter)
	require.Nil(t, cmd)
	require.Equal(t, ModeCommand, m.Mode())
	require.Contains(t, m.Notice(), menu.ErrEmptyCommand.Error())
}

func TestSlashNaming(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "/")
	require.Equal(t, ModeSlash, m.Mode())
	m, _ = press(m, "naming shared")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, ModeMenu, m.Mode())
	require.Equal(t, "Output naming set to shared", m.Notice())
	require.Equal(t, "cargo", m.dispatcher.Naming(cargo.Invocation{Subcommand: "test"}, cargo.Project{}))

	m, _ = press(m, "/")
	m, _ = press(m, "naming tabs")
	m, _ = send(m, tea.KeyEnter)
	require.Contains(t, m.Notice(), "unknown output naming")

	m, _ = press(m, "/")
	m, _ = press(m, "bogus")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, "Unknown command: bogus", m.Notice())
}

func TestSlashHelpShowsOutput(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "/")
	m, _ = press(m, "help")
	m, _ = send(m, tea.KeyEnter)
	require.Equal(t, ModeOutput, m.Mode())
	require.True(t, strings.Contains(strings.Join(m.Lines(), "\n"), "/naming"))

	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeMenu, m.Mode())
}

func TestNewModelValidates(t *testing.T) {
	_, err := NewModel(context.Background(), Options{})
	require.Error(t, err)

	_, err = NewModel(context.Background(), Options{Table: menu.Default()})
	require.ErrorContains(t, err, "dispatcher")
}

// startSleeper launches a build that blocks until cancelled and returns to
// the top menu.
func startSleeper(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t, "exec sleep 5;", &dispatch.MemorySurfaces{})
	m, _ = press(m, "b")
	m, cmd := send(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	require.True(t, m.running())
	m, _ = send(m, tea.KeyEsc)
	m, _ = send(m, tea.KeyEsc)
	require.Equal(t, ModeMenu, m.Mode())
	return m
}

func waitJob(t *testing.T, m Model) {
	t.Helper()
	select {
	case <-m.job.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("job still running")
	}
}

func TestQuitCancelsRunningJob(t *testing.T) {
	m := startSleeper(t)
	job := m.job
	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	waitJob(t, m)
	require.False(t, job.Wait().Success())
}

func TestHelpRefusedWhileRunning(t *testing.T) {
	m := startSleeper(t)
	m, _ = press(m, "/")
	m, _ = press(m, "help")
	m, _ = send(m, tea.KeyEnter)
	require.Contains(t, m.Notice(), "Help is unavailable while")
	require.Equal(t, []string{"$ exec sleep 5; build"}, m.Lines())

	m.job.Cancel()
	waitJob(t, m)
}

func TestCommandViewListsPassThroughFlags(t *testing.T) {
	m := newTestModel(t, "cargo", &dispatch.MemorySurfaces{})
	m, _ = press(m, "t")
	require.Contains(t, m.renderCommand(), "after --: --nocapture")

	m, _ = send(m, tea.KeyEsc)
	m, _ = press(m, "b")
	require.NotContains(t, m.renderCommand(), "after --:")

	m, err := NewModel(context.Background(), Options{
		Table:      menu.Default(),
		Dispatcher: &dispatch.Dispatcher{Surfaces: &dispatch.MemorySurfaces{}},
		Executable: "cargo",
		Separator:  cargo.NewSeparator(nil, map[string][]string{"test": {}}),
	})
	require.NoError(t, err)
	m, _ = press(m, "t")
	require.NotContains(t, m.renderCommand(), "after --:")
}
