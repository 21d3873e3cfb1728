package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/cargomenu/cargo"
)

func TestDefaultTableIsValid(t *testing.T) {
	table := Default()
	require.NoError(t, table.Validate())
	for _, name := range []string{"build", "check", "clean", "clippy", "clippy-fix", "clippy-fix-all", "doc", "doc-open", "fmt", "run", "test", "exec"} {
		_, err := table.Lookup(name)
		require.NoError(t, err, name)
	}
	_, err := table.Lookup("publish")
	require.ErrorIs(t, err, ErrUnknownCommand)

	cmd, ok := table.ByKey("t")
	require.True(t, ok)
	require.Equal(t, "test", cmd.Name)
}

func TestValidateRejectsDuplicateKeys(t *testing.T) {
	cmd := Command{Name: "dup", Groups: []Group{{Flags: []Flag{
		{Key: "-r", Argument: "--release"},
		{Key: "-r", Argument: "--offline"},
	}}}}
	require.ErrorContains(t, cmd.Validate(), "duplicate key")

	table := &Table{Commands: []Command{{Name: "a", Key: "a"}, {Name: "b", Key: "a"}}}
	require.ErrorContains(t, table.Validate(), "duplicate command key")
}

func TestFlagRender(t *testing.T) {
	release := Flag{Argument: "--release"}
	require.Equal(t, []string{"--release"}, release.Render(nil))
	require.Equal(t, "release", release.Name())

	features := Flag{Argument: "--features=", Kind: Option, Multi: true}
	require.Equal(t, []string{"--features=serde,cli"}, features.Render([]string{"serde", "cli"}))
	require.Nil(t, features.Render(nil))
	require.Equal(t, "features", features.Name())

	bin := Flag{Argument: "--bin=", Kind: Option}
	require.Equal(t, []string{"--bin=app"}, bin.Render([]string{"app"}))
}

func TestCompleters(t *testing.T) {
	completers := Completers{
		SourceBinaries: cargo.StaticCandidates("server", "cli"),
	}
	ctx := context.Background()
	cmd, err := Default().Lookup("build")
	require.NoError(t, err)

	bin, ok := cmd.Flag("-B")
	require.True(t, ok)
	require.Equal(t, []string{"server", "cli"}, completers.Complete(ctx, bin, cargo.Project{}))

	profile, ok := cmd.Flag("-p")
	require.True(t, ok)
	require.Equal(t, []string{"dev", "release", "test", "bench"}, completers.Complete(ctx, profile, cargo.Project{}))

	features, ok := cmd.Flag("-F")
	require.True(t, ok)
	require.Empty(t, completers.Complete(ctx, features, cargo.Project{}), "missing source yields no suggestions")

	jobs, ok := cmd.Flag("-j")
	require.True(t, ok)
	require.Empty(t, completers.Complete(ctx, jobs, cargo.Project{}))
}

func TestMetadataCompletersUseReader(t *testing.T) {
	doc := `{"packages":[{"name":"p","targets":[{"kind":["bin"],"name":"tool"}],"features":{"fast":[]}}]}`
	var dirs []string
	runner := cargo.RunnerFunc(func(_ context.Context, req cargo.CommandRequest) (string, string, error) {
		dirs = append(dirs, req.Workdir)
		return doc, "", nil
	})
	completers := MetadataCompleters(cargo.NewReader("cargo", "", runner, nil))
	cmd, err := Default().Lookup("run")
	require.NoError(t, err)
	bin, _ := cmd.Flag("-B")
	features, _ := cmd.Flag("-F")

	project := cargo.Project{Dir: "/crate"}
	require.Equal(t, []string{"tool"}, completers.Complete(context.Background(), bin, project))
	require.Equal(t, []string{"fast"}, completers.Complete(context.Background(), features, project))
	require.Equal(t, []string{"/crate", "/crate"}, dirs)
}
