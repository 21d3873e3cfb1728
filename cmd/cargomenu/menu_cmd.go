package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
	"github.com/lexcodex/cargomenu/menu"
)

// newMenuCmd exposes one menu command as a subcommand whose flags mirror the
// menu keys: -r and --release both toggle the release switch.
func (a *cli) newMenuCmd(mc menu.Command) *cobra.Command {
	var (
		switches = map[string]*bool{}
		singles  = map[string]*string{}
		multis   = map[string]*[]string{}
		fields   = map[string]*string{}
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   mc.Name,
		Short: mc.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := menu.NewSelection(mc)
			for key, on := range switches {
				if *on {
					if err := sel.Toggle(key); err != nil {
						return err
					}
				}
			}
			for key, value := range singles {
				if *value != "" {
					if err := sel.Set(key, *value); err != nil {
						return err
					}
				}
			}
			for key, values := range multis {
				if err := sel.Set(key, *values...); err != nil {
					return err
				}
			}
			for key, text := range fields {
				if err := sel.SetField(key, *text); err != nil {
					return err
				}
			}
			if mc.FreeForm && len(args) > 0 {
				if err := sel.SetField(mc.Fields[0].Key, strings.Join(args, " ")); err != nil {
					return err
				}
			}
			inv, err := sel.Invocation(a.cfg.CargoPath, a.cfg.Separator())
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), inv.String())
				return nil
			}
			return a.dispatch(cmd, inv)
		},
	}
	if mc.FreeForm {
		cmd.Use = mc.Name + " [subcommand] [args...]"
		cmd.Args = cobra.ArbitraryArgs
		// Flags after the first word belong to the cargo command.
		cmd.Flags().SetInterspersed(false)
	}
	flags := cmd.Flags()
	for _, f := range mc.Flags() {
		short := shorthand(f.Key)
		usage := f.Description
		switch {
		case f.Kind == menu.Switch:
			switches[f.Key] = flags.BoolP(f.Name(), short, false, usage)
		case f.Multi:
			multis[f.Key] = flags.StringSliceP(f.Name(), short, nil, usage)
		default:
			singles[f.Key] = flags.StringP(f.Name(), short, "", usage)
		}
		if f.Kind == menu.Option && (len(f.Choices) > 0 || f.Source != menu.SourceNone) {
			_ = cmd.RegisterFlagCompletionFunc(f.Name(), a.completeFlag(f))
		}
	}
	for _, field := range mc.Fields {
		fields[field.Key] = flags.String(field.Name, "", field.Description)
	}
	flags.BoolVar(&dryRun, "dry-run", false, "Print the command line instead of running it")
	return cmd
}

// shorthand turns a "-r" menu key into cobra's single-letter shorthand.
func shorthand(key string) string {
	if len(key) == 2 && key[0] == '-' && key[1] != 'h' {
		return key[1:]
	}
	return ""
}

func (a *cli) completeFlag(f menu.Flag) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if err := a.prepare(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		s, err := a.openSession(nil)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer s.Close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		var out []string
		for _, c := range s.completers.Complete(ctx, f, a.project()) {
			if strings.HasPrefix(c, toComplete) {
				out = append(out, c)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// dispatch runs inv with output on stdout and in the output directory, and
// turns a failed exit status into an exitError.
func (a *cli) dispatch(cmd *cobra.Command, inv cargo.Invocation) error {
	s, err := a.openSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	surfaces := dispatch.TeeSurfaces{dispatch.WriterSurfaces{W: cmd.OutOrStdout()}, a.fileSurfaces()}
	job, err := s.dispatcher(surfaces).Dispatch(cmd.Context(), inv, a.project())
	if err != nil {
		return err
	}
	res := job.Wait()
	if res.Err != nil {
		s.logger.Printf("%s failed: %v", res.Command, res.Err)
		return res.Err
	}
	if !res.Success() {
		return &exitError{command: res.Command, code: res.ExitCode}
	}
	return nil
}
