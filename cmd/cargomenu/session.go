package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/lexcodex/cargomenu/cargo"
	"github.com/lexcodex/cargomenu/internal/dispatch"
	"github.com/lexcodex/cargomenu/menu"
)

// session bundles the per-run collaborators built from the config.
type session struct {
	// logger reaches the user and the log file; telemetry only the files.
	logger     *log.Logger
	telemetry  cargo.Telemetry
	reader     *cargo.Reader
	completers menu.Completers
	naming     dispatch.Naming
	shell      string
	env        []string
	workdir    string

	logFile *os.File
	events  *cargo.JSONFileTelemetry
}

// openSession opens the log and event files. Warnings go to console as well
// as the log file; a nil console keeps the terminal clean for the menu.
func (a *cli) openSession(console io.Writer) (*session, error) {
	cfg := a.cfg
	naming, err := cfg.Naming()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	var out io.Writer = logFile
	if console != nil {
		out = io.MultiWriter(console, logFile)
	}
	s := &session{
		logger:  log.New(out, "cargomenu ", log.LstdFlags|log.Lmicroseconds),
		naming:  naming,
		shell:   cfg.Shell,
		env:     cfg.Env,
		workdir: cfg.Workspace,
		logFile: logFile,
	}
	sinks := []cargo.Telemetry{
		cargo.LoggerTelemetry{Logger: log.New(logFile, "cargomenu ", log.LstdFlags|log.Lmicroseconds)},
	}
	if cfg.EventsPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.EventsPath), 0o755); err != nil {
			_ = logFile.Close()
			return nil, fmt.Errorf("create events directory: %w", err)
		}
		events, err := cargo.NewJSONFileTelemetry(cfg.EventsPath)
		if err != nil {
			_ = logFile.Close()
			return nil, fmt.Errorf("open events: %w", err)
		}
		s.events = events
		sinks = append(sinks, events)
	}
	s.telemetry = cargo.MultiplexTelemetry{Sinks: sinks}
	s.reader = cargo.NewReader(cfg.CargoPath, cfg.Workspace, a.runner, s.telemetry)
	s.reader.Env = cfg.Env
	s.reader.Timeout = cfg.MetadataTimeout
	s.completers = menu.MetadataCompleters(s.reader)
	return s, nil
}

// dispatcher builds a dispatcher writing to surfaces.
func (s *session) dispatcher(surfaces dispatch.Surfaces) *dispatch.Dispatcher {
	return &dispatch.Dispatcher{
		Shell:     s.shell,
		Env:       s.env,
		Workdir:   s.workdir,
		Surfaces:  surfaces,
		Naming:    s.naming,
		Telemetry: s.telemetry,
	}
}

// Close flushes and releases the log and event files.
func (s *session) Close() error {
	var errs []error
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	return errors.Join(errs...)
}

func (a *cli) fileSurfaces() dispatch.FileSurfaces {
	return dispatch.FileSurfaces{Dir: a.cfg.OutputDir}
}
