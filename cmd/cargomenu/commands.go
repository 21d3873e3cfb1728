package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/cargomenu/internal/config"
)

var (
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	failColor = lipgloss.Color("196")
)

// newCompleteCmd prints metadata candidates one per line for shell scripts.
func (a *cli) newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "complete [bins|features]",
		Short:     "List binary targets or features of the project",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bins", "features"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()
			var values []string
			switch args[0] {
			case "bins":
				values = s.reader.BinaryTargets(cmd.Context())
			case "features":
				values = s.reader.Features(cmd.Context())
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

// newConfigCmd registers subcommands that inspect or mutate config.yaml.
func (a *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or modify config.yaml",
	}
	cmd.AddCommand(a.newConfigInitCmd(), a.newConfigGetCmd(), a.newConfigSetCmd(), a.newConfigShowCmd())
	return cmd
}

// newConfigInitCmd writes the effective configuration as a starting
// config.yaml.
func (a *cli) newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write config.yaml from the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfg.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.cfg.ConfigPath)
			}
			if err := a.cfg.Save(a.cfg.ConfigPath); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.cfg.ConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}

// newConfigGetCmd prints the value referenced by a dotted key.
func (a *cli) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read a config value by dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.ReadMap(a.cfg.ConfigPath)
			if err != nil {
				return err
			}
			value, ok := config.GetValue(data, args[0])
			if !ok {
				return fmt.Errorf("key %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.PrettyValue(value))
			return nil
		},
	}
}

// newConfigSetCmd updates a dotted key with the provided value.
func (a *cli) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Update a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CheckKey(args[0]); err != nil {
				return err
			}
			data, err := config.ReadMap(a.cfg.ConfigPath)
			if err != nil {
				return err
			}
			if err := config.SetValue(data, args[0], config.ParseValue(args[0], args[1])); err != nil {
				return err
			}
			if err := config.WriteMap(a.cfg.ConfigPath, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

// newConfigShowCmd prints the effective configuration after flags and file.
func (a *cli) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# workspace: %s\n# config: %s\n%s", a.cfg.Workspace, a.cfg.ConfigPath, out)
			return nil
		},
	}
}

// newDoctorCmd probes cargo, the shell, the project and the output directory.
func (a *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that cargo and the project are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(nil)
			if err != nil {
				return err
			}
			defer s.Close()
			checks := config.Probe(cmd.Context(), a.cfg, s.reader)
			failed := 0
			rows := make([][]string, 0, len(checks))
			for _, c := range checks {
				rows = append(rows, []string{c.Name, c.Status, c.Details})
				if !c.OK() {
					failed++
				}
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("CHECK", "STATUS", "DETAILS").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					style := cellStyle
					if row == table.HeaderRow {
						return style.Bold(true)
					}
					if col == 1 && row < len(checks) && !checks[row].OK() {
						return style.Foreground(failColor)
					}
					return style
				})
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}
			return nil
		},
	}
}
