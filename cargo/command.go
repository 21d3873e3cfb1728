package cargo

import (
	"strings"
)

// DefaultExecutable is used when no cargo path is configured.
const DefaultExecutable = "cargo"

// Invocation is one cargo command ready to hand to a shell.
type Invocation struct {
	Executable string
	Subcommand string
	Args       []string
}

// NewInvocation rearranges args for subcommand with sep (the default
// classifier when nil) and returns the resulting invocation.
func NewInvocation(executable, subcommand string, args []string, sep *Separator) Invocation {
	if sep == nil {
		sep = DefaultSeparator()
	}
	return Invocation{
		Executable: executable,
		Subcommand: subcommand,
		Args:       sep.Rearrange(subcommand, args),
	}
}

// Argv returns the invocation as an argument vector.
func (inv Invocation) Argv() []string {
	exe := inv.Executable
	if exe == "" {
		exe = DefaultExecutable
	}
	argv := make([]string, 0, 2+len(inv.Args))
	argv = append(argv, exe)
	if inv.Subcommand != "" {
		argv = append(argv, inv.Subcommand)
	}
	return append(argv, inv.Args...)
}

// String renders "<executable> <subcommand> <args...>". Tokens are joined with
// single spaces and are not quoted.
func (inv Invocation) String() string {
	return strings.Join(inv.Argv(), " ")
}

// CommandLine assembles the shell command string for subcommand and args.
func CommandLine(executable, subcommand string, args []string) string {
	return Invocation{Executable: executable, Subcommand: subcommand, Args: args}.String()
}
