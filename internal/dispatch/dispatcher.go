// Package dispatch runs assembled cargo command lines through a shell and
// streams their combined output to named surfaces.
package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/lexcodex/cargomenu/cargo"
)

// DefaultShell runs command strings when none is configured.
const DefaultShell = "sh"

// waitDelay bounds how long output pipes stay open after a cancelled shell
// exits while its children still hold them.
const waitDelay = 2 * time.Second

// Dispatcher launches invocations asynchronously.
type Dispatcher struct {
	Shell     string
	Workdir   string
	Env       []string
	Surfaces  Surfaces
	Naming    Naming
	Telemetry cargo.Telemetry
	// Stream makes jobs publish output lines on Job.Lines. The consumer must
	// drain the channel.
	Stream bool
}

// Result describes a finished job.
type Result struct {
	Command  string
	Surface  string
	ExitCode int
	Err      error
	Duration time.Duration
	Lines    int64
	Bytes    int64
}

// Success reports a zero exit status.
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Summary renders a one-line completion notice.
func (r Result) Summary() string {
	status := "finished"
	if !r.Success() {
		status = fmt.Sprintf("exited abnormally with code %d", r.ExitCode)
	}
	return fmt.Sprintf("%s %s after %s (%s lines, %s)",
		r.Command,
		status,
		r.Duration.Round(time.Millisecond),
		humanize.Comma(r.Lines),
		humanize.Bytes(uint64(r.Bytes)),
	)
}

// Job is a running invocation.
type Job struct {
	Invocation cargo.Invocation
	Command    string
	Surface    string
	// Lines carries output lines without the trailing newline when the
	// dispatcher streams; it is closed when output ends.
	Lines <-chan string

	started time.Time
	done    chan struct{}
	cancel  context.CancelFunc

	mu     sync.Mutex
	result Result
}

// Done is closed once the process exited and output was flushed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finished.
func (j *Job) Wait() Result {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Cancel kills the process.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Dispatch starts inv through the shell and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, inv cargo.Invocation, project cargo.Project) (*Job, error) {
	if d.Surfaces == nil {
		return nil, errors.New("output surfaces not configured")
	}
	naming := d.Naming
	if naming == nil {
		naming = PerCommandNaming
	}
	shell := d.Shell
	if shell == "" {
		shell = DefaultShell
	}
	workdir := project.Dir
	if workdir == "" {
		workdir = d.Workdir
	}

	line := inv.String()
	name := naming(inv, project)
	surface, err := d.Surfaces.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", name, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, shell, "-c", line)
	cmd.Dir = workdir
	cmd.WaitDelay = waitDelay
	if len(d.Env) > 0 {
		cmd.Env = append(os.Environ(), d.Env...)
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		cancel()
		_ = pw.Close()
		_ = surface.Close()
		return nil, fmt.Errorf("start %s: %w", line, err)
	}

	job := &Job{
		Invocation: inv,
		Command:    line,
		Surface:    name,
		started:    time.Now(),
		done:       make(chan struct{}),
		cancel:     cancel,
	}
	var lines chan string
	if d.Stream {
		lines = make(chan string, 64)
		job.Lines = lines
	}
	d.emit(cargo.Event{
		Type:      cargo.EventDispatchStart,
		Command:   line,
		Timestamp: job.started,
		Metadata:  map[string]any{"surface": name, "workdir": workdir},
	})

	var (
		g       errgroup.Group
		waitErr error
		nLines  int64
		nBytes  int64
	)
	g.Go(func() error {
		waitErr = cmd.Wait()
		return pw.Close()
	})
	g.Go(func() error {
		if lines != nil {
			defer close(lines)
		}
		reader := bufio.NewReader(pr)
		for {
			text, err := reader.ReadString('\n')
			if len(text) > 0 {
				nBytes += int64(len(text))
				nLines++
				if _, werr := io.WriteString(surface, text); werr != nil {
					_, _ = io.Copy(io.Discard, pr)
					return werr
				}
				if lines != nil {
					lines <- trimNewline(text)
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
	})

	go func() {
		pumpErr := g.Wait()
		cancel()
		closeErr := surface.Close()
		res := Result{
			Command:  line,
			Surface:  name,
			Duration: time.Since(job.started),
			Lines:    nLines,
			Bytes:    nBytes,
		}
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		case waitErr != nil:
			res.ExitCode = -1
			res.Err = waitErr
		case pumpErr != nil:
			res.Err = pumpErr
		case closeErr != nil:
			res.Err = closeErr
		}
		meta := map[string]any{"surface": name, "exit_code": res.ExitCode, "elapsed": res.Duration.String()}
		if res.Err != nil {
			meta["error"] = res.Err.Error()
		}
		d.emit(cargo.Event{Type: cargo.EventDispatchExit, Command: line, Message: res.Summary(), Timestamp: time.Now(), Metadata: meta})
		job.mu.Lock()
		job.result = res
		job.mu.Unlock()
		close(job.done)
	}()
	return job, nil
}

func (d *Dispatcher) emit(evt cargo.Event) {
	if d.Telemetry == nil {
		return
	}
	d.Telemetry.Emit(evt)
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
		if n := len(s); n > 0 && s[n-1] == '\r' {
			s = s[:n-1]
		}
	}
	return s
}
