// Package menu describes the cargo commands as data: each command lists flag
// groups and free-text fields, and a Selection turns the user's choices into
// a cargo.Invocation.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexcodex/cargomenu/cargo"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownKey     = errors.New("unknown key")
	ErrWrongKind      = errors.New("key does not accept this input")
	ErrEmptyCommand   = errors.New("command text required")
)

// Kind distinguishes flags that toggle from flags that carry a value.
type Kind int

const (
	Switch Kind = iota
	Option
)

func (k Kind) String() string {
	if k == Option {
		return "option"
	}
	return "switch"
}

// Source names a dynamic candidate list for an option.
type Source string

const (
	SourceNone     Source = ""
	SourceBinaries Source = "binaries"
	SourceFeatures Source = "features"
)

// Flag is one selectable cargo flag. Argument is the literal token for a
// switch ("--release") or the prefix the value is appended to ("--bin=").
type Flag struct {
	Key         string
	Description string
	Argument    string
	Kind        Kind
	Multi       bool
	Choices     []string
	Source      Source
}

// Name is the argument without dashes or trailing '=', e.g. "bin".
func (f Flag) Name() string {
	return strings.TrimSuffix(strings.TrimPrefix(f.Argument, "--"), "=")
}

// Render produces the tokens for the flag given its values.
func (f Flag) Render(values []string) []string {
	if f.Kind == Switch {
		return []string{f.Argument}
	}
	if len(values) == 0 {
		return nil
	}
	if f.Multi {
		return []string{f.Argument + strings.Join(values, ",")}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, f.Argument+v)
	}
	return out
}

// Group is a titled list of flags shown together.
type Group struct {
	Title string
	Flags []Flag
}

// Placement decides which side of the separator a field's text lands on.
type Placement int

const (
	BeforeSeparator Placement = iota
	AfterSeparator
)

// Field is free text passed through as typed, split on whitespace.
type Field struct {
	Key         string
	Name        string
	Description string
	Placement   Placement
}

// Command is one entry of the top-level menu.
type Command struct {
	Name        string
	Key         string
	Description string
	Subcommand  string
	// Prefix tokens are always emitted first, e.g. --fix for clippy fix.
	Prefix []string
	Groups []Group
	Fields []Field
	// FreeForm commands take the subcommand from the first word of their
	// first field.
	FreeForm bool
}

// Flags returns every flag in menu order.
func (c Command) Flags() []Flag {
	var out []Flag
	for _, g := range c.Groups {
		out = append(out, g.Flags...)
	}
	return out
}

// Flag finds a flag by key.
func (c Command) Flag(key string) (Flag, bool) {
	for _, g := range c.Groups {
		for _, f := range g.Flags {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Flag{}, false
}

// Field finds a free-text field by key.
func (c Command) Field(key string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys lists every flag and field key of the command.
func (c Command) Keys() []string {
	var keys []string
	for _, f := range c.Flags() {
		keys = append(keys, f.Key)
	}
	for _, f := range c.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Validate reports duplicate keys inside the command.
func (c Command) Validate() error {
	seen := map[string]bool{}
	for _, key := range c.Keys() {
		if key == "" {
			return fmt.Errorf("%s: empty key", c.Name)
		}
		if seen[key] {
			return fmt.Errorf("%s: duplicate key %q", c.Name, key)
		}
		seen[key] = true
	}
	if c.FreeForm && len(c.Fields) == 0 {
		return fmt.Errorf("%s: free-form command needs a field", c.Name)
	}
	return nil
}

// Table is the full menu.
type Table struct {
	Commands []Command
}

// Lookup finds a command by name.
func (t *Table) Lookup(name string) (Command, error) {
	for _, c := range t.Commands {
		if c.Name == name {
			return c, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// ByKey finds a command by its top-level key.
func (t *Table) ByKey(key string) (Command, bool) {
	for _, c := range t.Commands {
		if c.Key == key {
			return c, true
		}
	}
	return Command{}, false
}

// Validate checks every command and top-level key uniqueness.
func (t *Table) Validate() error {
	names := map[string]bool{}
	keys := map[string]bool{}
	for _, c := range t.Commands {
		if err := c.Validate(); err != nil {
			return err
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate command %q", c.Name)
		}
		if keys[c.Key] {
			return fmt.Errorf("duplicate command key %q", c.Key)
		}
		names[c.Name] = true
		keys[c.Key] = true
	}
	return nil
}

// Completers resolves option sources to candidate functions.
type Completers map[Source]cargo.Candidates

// Complete returns candidates for f: its fixed choices, or the values of its
// source. Unknown sources yield an empty list.
func (c Completers) Complete(ctx context.Context, f Flag, p cargo.Project) []string {
	if len(f.Choices) > 0 {
		out := make([]string, len(f.Choices))
		copy(out, f.Choices)
		return out
	}
	if f.Source == SourceNone {
		return []string{}
	}
	fn := c[f.Source]
	if fn == nil {
		return []string{}
	}
	return fn(ctx, p)
}

// MetadataCompleters wires the metadata-backed sources to r.
func MetadataCompleters(r *cargo.Reader) Completers {
	return Completers{
		SourceBinaries: cargo.BinaryCandidates(r),
		SourceFeatures: cargo.FeatureCandidates(r),
	}
}
