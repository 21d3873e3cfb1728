package cargo

import (
	"sort"
	"strings"
)

// SeparatorToken splits cargo's own flags from arguments forwarded to the
// program cargo runs (the test harness, or the binary under `cargo run`).
const SeparatorToken = "--"

// DefaultPostSeparator lists flags the test harness only accepts after the
// separator.
var DefaultPostSeparator = []string{"--nocapture"}

// Separator classifies flag tokens per subcommand and rearranges argument
// lists so pass-through flags end up behind SeparatorToken.
type Separator struct {
	fallback map[string]struct{}
	bySub    map[string]map[string]struct{}
}

// NewSeparator builds a classifier. Subcommands missing from perSubcommand use
// the fallback set; an explicit empty entry disables pass-through flags for
// that subcommand.
func NewSeparator(fallback []string, perSubcommand map[string][]string) *Separator {
	s := &Separator{
		fallback: toSet(fallback),
		bySub:    make(map[string]map[string]struct{}, len(perSubcommand)),
	}
	for sub, flags := range perSubcommand {
		s.bySub[sub] = toSet(flags)
	}
	return s
}

// DefaultSeparator classifies only --nocapture as pass-through.
func DefaultSeparator() *Separator {
	return NewSeparator(DefaultPostSeparator, nil)
}

// IsPostSeparator reports whether token must follow the separator for the
// given subcommand. Values attached with '=' are ignored for the lookup.
func (s *Separator) IsPostSeparator(subcommand, token string) bool {
	if s == nil {
		return false
	}
	set, ok := s.bySub[subcommand]
	if !ok {
		set = s.fallback
	}
	if len(set) == 0 {
		return false
	}
	if _, ok := set[token]; ok {
		return true
	}
	if name, _, found := strings.Cut(token, "="); found {
		_, ok := set[name]
		return ok
	}
	return false
}

// Rearrange moves pass-through tokens behind a single separator while keeping
// relative order inside both partitions. No separator is added when nothing
// needs to follow it. Tokens already behind a separator in args stay there.
func (s *Separator) Rearrange(subcommand string, args []string) []string {
	pre := make([]string, 0, len(args))
	var post []string
	passthrough := false
	for _, arg := range args {
		switch {
		case !passthrough && arg == SeparatorToken:
			passthrough = true
		case passthrough, s.IsPostSeparator(subcommand, arg):
			post = append(post, arg)
		default:
			pre = append(pre, arg)
		}
	}
	if len(post) == 0 {
		return pre
	}
	out := make([]string, 0, len(pre)+1+len(post))
	out = append(out, pre...)
	out = append(out, SeparatorToken)
	return append(out, post...)
}

// PostSeparatorFlags lists the pass-through flags configured for subcommand.
func (s *Separator) PostSeparatorFlags(subcommand string) []string {
	if s == nil {
		return nil
	}
	set, ok := s.bySub[subcommand]
	if !ok {
		set = s.fallback
	}
	out := make([]string, 0, len(set))
	for flag := range set {
		out = append(out, flag)
	}
	sort.Strings(out)
	return out
}

// Rearrange applies the default classifier.
func Rearrange(subcommand string, args []string) []string {
	return DefaultSeparator().Rearrange(subcommand, args)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
