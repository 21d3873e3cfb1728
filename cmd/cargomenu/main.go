package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/config"
	"github.com/lexcodex/cargomenu/internal/tui"
	"github.com/lexcodex/cargomenu/menu"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newCLI().newRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		cancel()
		os.Exit(exit.status())
	}
	fmt.Fprintln(os.Stderr, err)
	cancel()
	os.Exit(1)
}

// exitError carries a failed cargo exit status out of cobra.
type exitError struct {
	command string
	code    int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.command, e.code)
}

func (e *exitError) status() int {
	if e.code <= 0 {
		return 1
	}
	return e.code
}

// flagKeys maps persistent flags to the config file keys they override.
var flagKeys = map[string]string{
	"cargo-path":       "cargo_path",
	"shell":            "shell",
	"output-naming":    "output_naming",
	"output-dir":       "output_dir",
	"log-path":         "log_path",
	"events-path":      "events_path",
	"metadata-timeout": "metadata_timeout",
}

// cli holds the state one command tree shares.
type cli struct {
	cfg      config.Config
	table    *menu.Table
	root     *cobra.Command
	prepared bool

	// runner executes cargo metadata; nil means the real cargo.
	runner cargo.CommandRunner
	// terminal reports whether the menu can take over the terminal.
	terminal func() bool
}

func newCLI() *cli {
	return &cli{
		cfg:   config.DefaultConfig(),
		table: menu.Default(),
		terminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

func (a *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cargomenu",
		Short:         "Keyboard-driven menu for cargo commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.terminal() {
				return cmd.Help()
			}
			return a.runTUI(cmd.Context())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.Workspace, "workspace", a.cfg.Workspace, "Cargo project directory")
	flags.StringVar(&a.cfg.ConfigPath, "config", "", "Config file (default <workspace>/.cargomenu/config.yaml)")
	flags.StringVar(&a.cfg.CargoPath, "cargo-path", a.cfg.CargoPath, "cargo executable")
	flags.StringVar(&a.cfg.Shell, "shell", a.cfg.Shell, "Shell that runs assembled commands")
	flags.StringVar(&a.cfg.OutputNaming, "output-naming", a.cfg.OutputNaming, "Output naming (shared, per-command, project)")
	flags.StringVar(&a.cfg.OutputDir, "output-dir", "", "Directory for command output logs")
	flags.StringVar(&a.cfg.LogPath, "log-path", "", "cargomenu log file")
	flags.StringVar(&a.cfg.EventsPath, "events-path", "", "Append JSON events to this file")
	flags.DurationVar(&a.cfg.MetadataTimeout, "metadata-timeout", 0, "Give up on cargo metadata after this long (0 waits)")
	_ = root.RegisterFlagCompletionFunc("output-naming", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"shared", "per-command", "project"}, cobra.ShellCompDirectiveNoFileComp
	})

	for _, mc := range a.table.Commands {
		root.AddCommand(a.newMenuCmd(mc))
	}
	root.AddCommand(a.newCompleteCmd(), a.newConfigCmd(), a.newDoctorCmd())
	a.root = root
	return root
}

// prepare merges the config file under explicit flags and normalizes the
// result. Flag completion skips PersistentPreRunE, so completers call it too.
func (a *cli) prepare() error {
	if a.prepared {
		return nil
	}
	flags := a.root.PersistentFlags()
	if a.cfg.Workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	ws, err := filepath.Abs(a.cfg.Workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	a.cfg.Workspace = ws
	if a.cfg.ConfigPath == "" {
		a.cfg.ConfigPath = filepath.Join(ws, config.DirName, "config.yaml")
	} else if a.cfg.ConfigPath, err = filepath.Abs(a.cfg.ConfigPath); err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	keep := map[string]bool{}
	for flag, key := range flagKeys {
		keep[key] = flags.Changed(flag)
	}
	if err := a.cfg.MergeFile(a.cfg.ConfigPath, keep); err != nil {
		return err
	}
	if err := a.cfg.Normalize(); err != nil {
		return err
	}
	a.prepared = true
	return nil
}

func (a *cli) runTUI(ctx context.Context) error {
	s, err := a.openSession(nil)
	if err != nil {
		return err
	}
	defer s.Close()
	s.logger.Printf("menu started in %s", a.cfg.Workspace)
	return tui.Run(ctx, tui.Options{
		Table:      a.table,
		Completers: s.completers,
		Dispatcher: s.dispatcher(a.fileSurfaces()),
		Executable: a.cfg.CargoPath,
		Separator:  a.cfg.Separator(),
		Project:    a.project(),
		NamingName: a.cfg.OutputNaming,
	})
}

func (a *cli) project() cargo.Project {
	return cargo.Project{Dir: a.cfg.Workspace}
}
