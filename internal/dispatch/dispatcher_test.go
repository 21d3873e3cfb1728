package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lexcodex/cargomenu/cargo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// shellInvocation makes the shell run a script instead of cargo. The
// subcommand word is appended to the script, so scripts end in a command that
// ignores extra arguments.
func shellInvocation(sub, script string) cargo.Invocation {
	return cargo.Invocation{Executable: script, Subcommand: sub}
}

func TestDispatchStreamsCombinedOutput(t *testing.T) {
	surfaces := &MemorySurfaces{}
	rec := &cargo.RecordingTelemetry{}
	d := &Dispatcher{Surfaces: surfaces, Telemetry: rec, Workdir: t.TempDir()}

	job, err := d.Dispatch(context.Background(), shellInvocation("", "echo out; echo err 1>&2; true"), cargo.Project{})
	require.NoError(t, err)
	res := job.Wait()

	require.True(t, res.Success())
	require.Equal(t, "cargo", job.Surface)
	require.Equal(t, int64(2), res.Lines)
	out := surfaces.Content("cargo")
	require.Contains(t, out, "out\n")
	require.Contains(t, out, "err\n")

	events := rec.Events()
	require.Len(t, events, 2)
	require.Equal(t, cargo.EventDispatchStart, events[0].Type)
	require.Equal(t, cargo.EventDispatchExit, events[1].Type)
	require.Equal(t, 0, events[1].Metadata["exit_code"])
}

func TestDispatchReportsExitCode(t *testing.T) {
	surfaces := &MemorySurfaces{}
	d := &Dispatcher{Surfaces: surfaces, Naming: SharedNaming}

	job, err := d.Dispatch(context.Background(), shellInvocation("", "echo failing; exit 3"), cargo.Project{Dir: t.TempDir()})
	require.NoError(t, err)
	res := job.Wait()
	require.False(t, res.Success())
	require.NoError(t, res.Err)
	require.Equal(t, 3, res.ExitCode)
	require.Contains(t, res.Summary(), "exited abnormally with code 3")
	require.Equal(t, "failing\n", surfaces.Content("cargo"))
}

func TestDispatchLinesChannel(t *testing.T) {
	d := &Dispatcher{Surfaces: &MemorySurfaces{}, Stream: true}
	job, err := d.Dispatch(context.Background(), shellInvocation("test", "printf 'a\\nb\\nc'; true"), cargo.Project{Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "cargo-test", job.Surface)

	var got []string
	for line := range job.Lines {
		got = append(got, line)
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.True(t, job.Wait().Success())
}

func TestDispatchRunsInProjectDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("here"), 0o644))
	surfaces := &MemorySurfaces{}
	d := &Dispatcher{Surfaces: surfaces, Naming: SharedNaming}

	job, err := d.Dispatch(context.Background(), shellInvocation("", "cat marker.txt"), cargo.Project{Dir: dir})
	require.NoError(t, err)
	require.True(t, job.Wait().Success())
	require.Equal(t, "here", surfaces.Content("cargo"))
}

func TestDispatchCancel(t *testing.T) {
	d := &Dispatcher{Surfaces: &MemorySurfaces{}}
	job, err := d.Dispatch(context.Background(), shellInvocation("", "exec sleep 30"), cargo.Project{Dir: t.TempDir()})
	require.NoError(t, err)
	job.Cancel()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not stop after cancel")
	}
	require.False(t, job.Wait().Success())
}

func TestDispatchWritesFileSurface(t *testing.T) {
	surfaces := FileSurfaces{Dir: filepath.Join(t.TempDir(), "out")}
	d := &Dispatcher{Surfaces: surfaces, Naming: ProjectNaming}
	project := cargo.Project{Dir: t.TempDir()}

	job, err := d.Dispatch(context.Background(), shellInvocation("build", "echo compiled; true"), project)
	require.NoError(t, err)
	require.True(t, job.Wait().Success())
	require.True(t, strings.HasSuffix(job.Surface, "-cargo-build"))

	data, err := os.ReadFile(surfaces.Path(job.Surface))
	require.NoError(t, err)
	require.Equal(t, "compiled\n", string(data))
}

func TestDispatchWithoutSurfaces(t *testing.T) {
	d := &Dispatcher{}
	_, err := d.Dispatch(context.Background(), cargo.Invocation{Subcommand: "build"}, cargo.Project{})
	require.Error(t, err)
}

func TestDispatchMissingShell(t *testing.T) {
	d := &Dispatcher{Shell: "definitely-not-a-shell-xyz", Surfaces: &MemorySurfaces{}}
	_, err := d.Dispatch(context.Background(), cargo.Invocation{Subcommand: "build"}, cargo.Project{Dir: t.TempDir()})
	require.ErrorContains(t, err, "start cargo build")
}
