package menu

import (
	"fmt"
	"strings"

	"github.com/lexcodex/cargomenu/cargo"
)

// Selection accumulates the choices made for one command during a single
// menu traversal.
type Selection struct {
	cmd      Command
	switches map[string]bool
	options  map[string][]string
	fields   map[string]string
}

// NewSelection starts an empty selection for cmd.
func NewSelection(cmd Command) *Selection {
	return &Selection{
		cmd:      cmd,
		switches: map[string]bool{},
		options:  map[string][]string{},
		fields:   map[string]string{},
	}
}

// Command returns the command being configured.
func (s *Selection) Command() Command { return s.cmd }

// Toggle flips a switch. For options it clears the current value.
func (s *Selection) Toggle(key string) error {
	f, ok := s.cmd.Flag(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if f.Kind == Option {
		delete(s.options, key)
		return nil
	}
	if s.switches[key] {
		delete(s.switches, key)
	} else {
		s.switches[key] = true
	}
	return nil
}

// Set assigns values to an option. No values unsets it; single-value options
// keep only the last value.
func (s *Selection) Set(key string, values ...string) error {
	f, ok := s.cmd.Flag(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if f.Kind != Option {
		return fmt.Errorf("%w: %s is a %s", ErrWrongKind, key, f.Kind)
	}
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		delete(s.options, key)
		return nil
	}
	if !f.Multi {
		clean = clean[len(clean)-1:]
	}
	s.options[key] = clean
	return nil
}

// SetField stores free text for a field; blank text clears it.
func (s *Selection) SetField(key, text string) error {
	if _, ok := s.cmd.Field(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if strings.TrimSpace(text) == "" {
		delete(s.fields, key)
		return nil
	}
	s.fields[key] = text
	return nil
}

// Enabled reports whether a switch is on or an option has a value.
func (s *Selection) Enabled(key string) bool {
	if s.switches[key] {
		return true
	}
	return len(s.options[key]) > 0
}

// Values returns an option's current values.
func (s *Selection) Values(key string) []string {
	return append([]string(nil), s.options[key]...)
}

// FieldText returns a field's current text.
func (s *Selection) FieldText(key string) string {
	return s.fields[key]
}

// Reset clears every choice.
func (s *Selection) Reset() {
	s.switches = map[string]bool{}
	s.options = map[string][]string{}
	s.fields = map[string]string{}
}

// Args returns the flag tokens in menu order, prefix first. Field text is not
// included.
func (s *Selection) Args() []string {
	args := append([]string(nil), s.cmd.Prefix...)
	for _, f := range s.cmd.Flags() {
		switch {
		case f.Kind == Switch && s.switches[f.Key]:
			args = append(args, f.Render(nil)...)
		case f.Kind == Option:
			args = append(args, f.Render(s.options[f.Key])...)
		}
	}
	return args
}

// Invocation assembles the command. Fields placed after the separator are
// appended behind "--"; sep then moves pass-through flags behind it too.
func (s *Selection) Invocation(executable string, sep *cargo.Separator) (cargo.Invocation, error) {
	subcommand := s.cmd.Subcommand
	var before, after []string
	for i, f := range s.cmd.Fields {
		tokens := strings.Fields(s.fields[f.Key])
		if s.cmd.FreeForm && i == 0 {
			if len(tokens) == 0 {
				return cargo.Invocation{}, ErrEmptyCommand
			}
			subcommand, tokens = tokens[0], tokens[1:]
		}
		if f.Placement == AfterSeparator {
			after = append(after, tokens...)
		} else {
			before = append(before, tokens...)
		}
	}
	args := append(s.Args(), before...)
	if len(after) > 0 {
		args = append(args, cargo.SeparatorToken)
		args = append(args, after...)
	}
	return cargo.NewInvocation(executable, subcommand, args, sep), nil
}
