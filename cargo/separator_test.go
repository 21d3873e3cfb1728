package cargo

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRearrangeEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty", in: nil, want: []string{}},
		{name: "all pre", in: []string{"--release", "--lib"}, want: []string{"--release", "--lib"}},
		{name: "all post", in: []string{"--nocapture"}, want: []string{"--", "--nocapture"}},
		{name: "mixed", in: []string{"--release", "--nocapture", "--lib"}, want: []string{"--release", "--lib", "--", "--nocapture"}},
		{name: "already arranged", in: []string{"--release", "--", "--nocapture"}, want: []string{"--release", "--", "--nocapture"}},
		{name: "passthrough kept", in: []string{"--bin=app", "--", "serve", "--port", "80"}, want: []string{"--bin=app", "--", "serve", "--port", "80"}},
		{name: "post flag before explicit separator", in: []string{"--nocapture", "--lib", "--", "--exact"}, want: []string{"--lib", "--", "--nocapture", "--exact"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Rearrange("test", tc.in))
		})
	}
}

func TestSeparatorPerSubcommand(t *testing.T) {
	sep := NewSeparator(DefaultPostSeparator, map[string][]string{
		"test":  {"--nocapture", "--show-output", "--test-threads"},
		"bench": {},
	})
	require.True(t, sep.IsPostSeparator("test", "--show-output"))
	require.True(t, sep.IsPostSeparator("test", "--test-threads=4"))
	require.False(t, sep.IsPostSeparator("test", "--release"))
	require.False(t, sep.IsPostSeparator("bench", "--nocapture"))
	require.True(t, sep.IsPostSeparator("run", "--nocapture"), "unlisted subcommands use the fallback set")

	require.Equal(t, []string{"--release", "--", "--show-output"}, sep.Rearrange("test", []string{"--show-output", "--release"}))
	require.Equal(t, []string{"--nocapture"}, sep.Rearrange("bench", []string{"--nocapture"}))
	require.Equal(t, []string{"--nocapture", "--show-output", "--test-threads"}, sep.PostSeparatorFlags("test"))
}

func TestNilSeparatorClassifiesNothing(t *testing.T) {
	var sep *Separator
	require.False(t, sep.IsPostSeparator("test", "--nocapture"))
	require.Equal(t, []string{"--nocapture"}, sep.Rearrange("test", []string{"--nocapture"}))
}

func flagToken() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{"--release", "--lib", "--bins", "--nocapture", "--offline", "--doc", "--no-run"})
}

func TestRearrangeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(flagToken()).Draw(t, "args")
		out := Rearrange("test", in)

		var pre, post []string
		for _, tok := range in {
			if tok == "--nocapture" {
				post = append(post, tok)
			} else {
				pre = append(pre, tok)
			}
		}

		sepCount := 0
		for _, tok := range out {
			if tok == SeparatorToken {
				sepCount++
			}
		}
		if len(post) == 0 {
			if sepCount != 0 || !slices.Equal(out, in) {
				t.Fatalf("expected unchanged output, got %v for %v", out, in)
			}
			return
		}
		if sepCount != 1 {
			t.Fatalf("expected one separator, got %d in %v", sepCount, out)
		}
		idx := slices.Index(out, SeparatorToken)
		if !slices.Equal(out[:idx], pre) {
			t.Fatalf("pre partition %v, want %v", out[:idx], pre)
		}
		if !slices.Equal(out[idx+1:], post) {
			t.Fatalf("post partition %v, want %v", out[idx+1:], post)
		}
		if again := Rearrange("test", out); !slices.Equal(again, out) {
			t.Fatalf("not idempotent: %v -> %v", out, again)
		}
	})
}
