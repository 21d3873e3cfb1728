package cargo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// MetadataArgs are the cargo arguments used to describe the workspace.
var MetadataArgs = []string{"metadata", "--no-deps", "--format-version", "1"}

// Target is a compilable unit declared by a package.
type Target struct {
	Name string
	Kind []string
}

// HasKind reports whether the target carries the given kind tag.
func (t Target) HasKind(kind string) bool {
	for _, k := range t.Kind {
		if k == kind {
			return true
		}
	}
	return false
}

// Package is the subset of a cargo metadata package entry the menu needs.
type Package struct {
	Name     string
	Targets  []Target
	Features []string
}

// Metadata is a parsed `cargo metadata` document.
type Metadata struct {
	Packages []Package
}

// ParseMetadata reads the JSON emitted by `cargo metadata --format-version 1`.
func ParseMetadata(data []byte) (*Metadata, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	packages := gjson.GetBytes(data, "packages")
	if !packages.IsArray() {
		return nil, errors.New("packages array missing")
	}
	md := &Metadata{}
	for _, raw := range packages.Array() {
		pkg := Package{Name: raw.Get("name").String()}
		for _, t := range raw.Get("targets").Array() {
			target := Target{Name: t.Get("name").String()}
			for _, kind := range t.Get("kind").Array() {
				target.Kind = append(target.Kind, kind.String())
			}
			pkg.Targets = append(pkg.Targets, target)
		}
		raw.Get("features").ForEach(func(key, _ gjson.Result) bool {
			pkg.Features = append(pkg.Features, key.String())
			return true
		})
		md.Packages = append(md.Packages, pkg)
	}
	return md, nil
}

// BinaryTargets returns the names of every bin target, sorted ascending.
func (m *Metadata) BinaryTargets() []string {
	var names []string
	if m == nil {
		return sortedUnique(names)
	}
	for _, pkg := range m.Packages {
		for _, t := range pkg.Targets {
			if t.HasKind("bin") {
				names = append(names, t.Name)
			}
		}
	}
	return sortedUnique(names)
}

// Features returns every feature key across packages, sorted ascending.
func (m *Metadata) Features() []string {
	var names []string
	if m == nil {
		return sortedUnique(names)
	}
	for _, pkg := range m.Packages {
		names = append(names, pkg.Features...)
	}
	return sortedUnique(names)
}

// ErrorKind classifies metadata failures for diagnostics.
type ErrorKind string

const (
	KindToolMissing   ErrorKind = "tool_missing"
	KindNoProject     ErrorKind = "no_project"
	KindCommandFailed ErrorKind = "command_failed"
	KindMalformed     ErrorKind = "malformed_output"
)

// MetadataError wraps a failed metadata fetch.
type MetadataError struct {
	Kind   ErrorKind
	Stderr string
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("cargo metadata: %s: %v", e.Kind, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Reader runs `cargo metadata` and projects autocomplete candidates from it.
type Reader struct {
	Executable string
	Workdir    string
	Runner     CommandRunner
	Telemetry  Telemetry
	// Env is appended to the inherited environment of cargo metadata.
	Env []string
	// Timeout bounds one metadata run; zero waits for cargo to exit.
	Timeout time.Duration
}

// NewReader builds a reader; nil runner and telemetry fall back to
// ExecRunner and NopTelemetry.
func NewReader(executable, workdir string, runner CommandRunner, telemetry Telemetry) *Reader {
	if executable == "" {
		executable = DefaultExecutable
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if telemetry == nil {
		telemetry = NopTelemetry{}
	}
	return &Reader{Executable: executable, Workdir: workdir, Runner: runner, Telemetry: telemetry}
}

// Load fetches and parses metadata. Errors are *MetadataError.
func (r *Reader) Load(ctx context.Context) (*Metadata, error) {
	argv := append([]string{r.executable()}, MetadataArgs...)
	stdout, stderr, err := r.runner().Run(ctx, CommandRequest{Workdir: r.Workdir, Args: argv, Env: r.Env, Timeout: r.Timeout})
	if err != nil {
		return nil, &MetadataError{Kind: classifyRunError(err, stderr), Stderr: strings.TrimSpace(stderr), Err: err}
	}
	md, err := ParseMetadata([]byte(stdout))
	if err != nil {
		return nil, &MetadataError{Kind: KindMalformed, Err: err}
	}
	return md, nil
}

// BinaryTargets lists bin target names, or an empty list if metadata is
// unavailable. Failures are reported to telemetry.
func (r *Reader) BinaryTargets(ctx context.Context) []string {
	md, ok := r.fetch(ctx, "binaries")
	if !ok {
		return []string{}
	}
	return md.BinaryTargets()
}

// Features lists feature names, or an empty list if metadata is unavailable.
func (r *Reader) Features(ctx context.Context) []string {
	md, ok := r.fetch(ctx, "features")
	if !ok {
		return []string{}
	}
	return md.Features()
}

// InDir returns a copy of the reader that runs in dir.
func (r *Reader) InDir(dir string) *Reader {
	cp := *r
	if dir != "" {
		cp.Workdir = dir
	}
	return &cp
}

func (r *Reader) fetch(ctx context.Context, projection string) (*Metadata, bool) {
	start := time.Now()
	md, err := r.Load(ctx)
	if err != nil {
		meta := map[string]any{"projection": projection, "workdir": r.Workdir}
		var mdErr *MetadataError
		if errors.As(err, &mdErr) {
			meta["kind"] = string(mdErr.Kind)
			if mdErr.Stderr != "" {
				meta["stderr"] = mdErr.Stderr
			}
		}
		r.emit(Event{Type: EventMetadataError, Command: r.commandLine(), Message: err.Error(), Timestamp: time.Now(), Metadata: meta})
		return nil, false
	}
	r.emit(Event{
		Type:      EventMetadataFetch,
		Command:   r.commandLine(),
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"projection": projection,
			"packages":   len(md.Packages),
			"elapsed":    time.Since(start).String(),
		},
	})
	return md, true
}

func (r *Reader) commandLine() string {
	return CommandLine(r.executable(), MetadataArgs[0], MetadataArgs[1:])
}

func (r *Reader) executable() string {
	if r == nil || r.Executable == "" {
		return DefaultExecutable
	}
	return r.Executable
}

func (r *Reader) runner() CommandRunner {
	if r == nil || r.Runner == nil {
		return ExecRunner{}
	}
	return r.Runner
}

func (r *Reader) emit(evt Event) {
	if r == nil || r.Telemetry == nil {
		return
	}
	r.Telemetry.Emit(evt)
}

func classifyRunError(err error, stderr string) ErrorKind {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return KindToolMissing
	}
	if strings.Contains(stderr, "could not find `Cargo.toml`") {
		return KindNoProject
	}
	return KindCommandFailed
}

func sortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
