package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/lexcodex/cargomenu/cargo"
)

// Check captures the status of one environment probe.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// OK reports a passing probe.
func (c Check) OK() bool { return c.Status == "ok" }

// Probe checks that the configured tools exist, that the workspace is a cargo
// project and that output can be written. A nil reader reads metadata with
// the configured cargo path.
func Probe(ctx context.Context, cfg Config, reader *cargo.Reader) []Check {
	if reader == nil {
		reader = cargo.NewReader(cfg.CargoPath, cfg.Workspace, nil, nil)
	}
	return []Check{
		checkBinary("cargo", cfg.CargoPath),
		checkBinary("shell", cfg.Shell),
		checkMetadata(ctx, reader.InDir(cfg.Workspace)),
		checkWritable("output", cfg.OutputDir),
	}
}

func checkBinary(name, bin string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: name, Status: "missing", Details: err.Error()}
	}
	return Check{Name: name, Status: "ok", Details: path}
}

func checkMetadata(ctx context.Context, reader *cargo.Reader) Check {
	md, err := reader.Load(ctx)
	if err != nil {
		status := "error"
		var mdErr *cargo.MetadataError
		if errors.As(err, &mdErr) {
			status = string(mdErr.Kind)
		}
		return Check{Name: "metadata", Status: status, Details: err.Error()}
	}
	return Check{
		Name:    "metadata",
		Status:  "ok",
		Details: fmt.Sprintf("%d packages, %d binaries, %d features", len(md.Packages), len(md.BinaryTargets()), len(md.Features())),
	}
}

func checkWritable(name, dir string) Check {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: name, Status: "unwritable", Details: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return Check{Name: name, Status: "unwritable", Details: err.Error()}
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)
	return Check{Name: name, Status: "ok", Details: dir}
}
