package dispatch

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lexcodex/cargomenu/cargo"
)

// Naming picks the output surface an invocation writes to.
type Naming func(inv cargo.Invocation, p cargo.Project) string

const (
	NamingShared     = "shared"
	NamingPerCommand = "per-command"
	NamingProject    = "project"
)

// SharedNaming sends every invocation to one surface.
func SharedNaming(cargo.Invocation, cargo.Project) string { return "cargo" }

// PerCommandNaming uses one surface per subcommand, e.g. cargo-test.
func PerCommandNaming(inv cargo.Invocation, _ cargo.Project) string {
	if inv.Subcommand == "" {
		return "cargo"
	}
	return "cargo-" + inv.Subcommand
}

// ProjectNaming prefixes the per-command name with the project directory.
func ProjectNaming(inv cargo.Invocation, p cargo.Project) string {
	name := PerCommandNaming(inv, p)
	if project := p.Name(); project != "" && project != "." && project != string(filepath.Separator) {
		return project + "-" + name
	}
	return name
}

var namings = map[string]Naming{
	NamingShared:     SharedNaming,
	NamingPerCommand: PerCommandNaming,
	NamingProject:    ProjectNaming,
}

// LookupNaming resolves a strategy by its configured name.
func LookupNaming(name string) (Naming, error) {
	n, ok := namings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown output naming %q (want one of %s)", name, strings.Join(NamingNames(), ", "))
	}
	return n, nil
}

// NamingNames lists the known strategies.
func NamingNames() []string {
	names := make([]string, 0, len(namings))
	for name := range namings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Surface receives the combined output of one job.
type Surface interface {
	io.Writer
	Name() string
	Close() error
}

// Surfaces opens named output surfaces.
type Surfaces interface {
	Open(name string) (Surface, error)
}

// FileSurfaces writes each surface to <Dir>/<name>.log, truncating it on
// every run.
type FileSurfaces struct {
	Dir string
}

// Open creates or truncates the log file for name.
func (f FileSurfaces) Open(name string) (Surface, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(f.Dir, sanitize(name)+".log")
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &fileSurface{name: name, File: file}, nil
}

// Path returns the file backing a surface name.
func (f FileSurfaces) Path(name string) string {
	return filepath.Join(f.Dir, sanitize(name)+".log")
}

type fileSurface struct {
	name string
	*os.File
}

func (s *fileSurface) Name() string { return s.name }

// WriterSurfaces sends every surface to the same writer, e.g. stdout.
type WriterSurfaces struct {
	W io.Writer
}

// Open wraps W; closing the surface leaves W open.
func (w WriterSurfaces) Open(name string) (Surface, error) {
	return writerSurface{name: name, w: w.W}, nil
}

type writerSurface struct {
	name string
	w    io.Writer
}

func (s writerSurface) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s writerSurface) Name() string                { return s.name }
func (s writerSurface) Close() error                { return nil }

// TeeSurfaces opens the same name on every member.
type TeeSurfaces []Surfaces

// Open opens name on all members and writes to each of them.
func (t TeeSurfaces) Open(name string) (Surface, error) {
	opened := make([]Surface, 0, len(t))
	for _, s := range t {
		surface, err := s.Open(name)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, err
		}
		opened = append(opened, surface)
	}
	return teeSurface{name: name, members: opened}, nil
}

type teeSurface struct {
	name    string
	members []Surface
}

func (t teeSurface) Write(p []byte) (int, error) {
	for _, m := range t.members {
		if _, err := m.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (t teeSurface) Name() string { return t.name }

func (t teeSurface) Close() error {
	var first error
	for _, m := range t.members {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MemorySurfaces keeps output in memory, keyed by surface name. Reopening a
// name clears it.
type MemorySurfaces struct {
	mu   sync.Mutex
	bufs map[string]*bytes.Buffer
}

// Open resets and returns the named buffer.
func (m *MemorySurfaces) Open(name string) (Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bufs == nil {
		m.bufs = map[string]*bytes.Buffer{}
	}
	buf := &bytes.Buffer{}
	m.bufs[name] = buf
	return &memorySurface{name: name, owner: m, buf: buf}, nil
}

// Content returns what was written to name.
func (m *MemorySurfaces) Content(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if buf, ok := m.bufs[name]; ok {
		return buf.String()
	}
	return ""
}

// Names lists every opened surface.
func (m *MemorySurfaces) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.bufs))
	for name := range m.bufs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memorySurface struct {
	name  string
	owner *MemorySurfaces
	buf   *bytes.Buffer
}

func (s *memorySurface) Write(p []byte) (int, error) {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	return s.buf.Write(p)
}

func (s *memorySurface) Name() string { return s.name }
func (s *memorySurface) Close() error { return nil }

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "cargo"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
