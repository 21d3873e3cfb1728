package dispatch

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/cargomenu/cargo"
)

func TestNamingStrategies(t *testing.T) {
	inv := cargo.Invocation{Executable: "cargo", Subcommand: "test"}
	project := cargo.Project{Dir: "/home/me/src/parser"}

	require.Equal(t, "cargo", SharedNaming(inv, project))
	require.Equal(t, "cargo-test", PerCommandNaming(inv, project))
	require.Equal(t, "parser-cargo-test", ProjectNaming(inv, project))
	require.Equal(t, "cargo-test", ProjectNaming(inv, cargo.Project{}))

	for _, name := range NamingNames() {
		_, err := LookupNaming(name)
		require.NoError(t, err, name)
	}
	n, err := LookupNaming(" Shared ")
	require.NoError(t, err)
	require.Equal(t, "cargo", n(inv, project))
	_, err = LookupNaming("buffer")
	require.ErrorContains(t, err, "unknown output naming")
}

func TestFileSurfacesTruncateOnOpen(t *testing.T) {
	surfaces := FileSurfaces{Dir: t.TempDir()}
	first, err := surfaces.Open("cargo test")
	require.NoError(t, err)
	_, err = io.WriteString(first, "old run\n")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := surfaces.Open("cargo test")
	require.NoError(t, err)
	require.Equal(t, "cargo test", second.Name())
	_, err = io.WriteString(second, "new run\n")
	require.NoError(t, err)
	require.NoError(t, second.Close())

	require.Equal(t, filepath.Join(surfaces.Dir, "cargo_test.log"), surfaces.Path("cargo test"))
	data, err := os.ReadFile(surfaces.Path("cargo test"))
	require.NoError(t, err)
	require.Equal(t, "new run\n", string(data))
}

func TestTeeSurfaces(t *testing.T) {
	var buf bytes.Buffer
	mem := &MemorySurfaces{}
	tee := TeeSurfaces{WriterSurfaces{W: &buf}, mem}

	s, err := tee.Open("cargo-build")
	require.NoError(t, err)
	_, err = io.WriteString(s, "Compiling demo\n")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.Equal(t, "Compiling demo\n", buf.String())
	require.Equal(t, "Compiling demo\n", mem.Content("cargo-build"))
	require.Equal(t, []string{"cargo-build"}, mem.Names())
}
