package menu

// Default returns the built-in cargo menu. Each call returns a fresh table.
func Default() *Table {
	return &Table{Commands: []Command{
		{
			Name:        "build",
			Key:         "b",
			Description: "Compile the current package",
			Subcommand:  "build",
			Groups:      []Group{targetSelection(), featureSelection(), compilation(), manifest()},
		},
		{
			Name:        "check",
			Key:         "c",
			Description: "Check the package for errors without producing artifacts",
			Subcommand:  "check",
			Groups:      []Group{targetSelection(), featureSelection(), compilation(), manifest()},
		},
		{
			Name:        "clean",
			Key:         "C",
			Description: "Remove the target directory",
			Subcommand:  "clean",
			Groups: []Group{
				{Title: "Clean", Flags: []Flag{
					{Key: "-r", Description: "Only release artifacts", Argument: "--release"},
					{Key: "-d", Description: "Only documentation", Argument: "--doc"},
					profileFlag(),
					targetTripleFlag(),
				}},
				manifest(),
			},
		},
		{
			Name:        "clippy",
			Key:         "l",
			Description: "Lint the package with clippy",
			Subcommand:  "clippy",
			Groups:      []Group{targetSelection(), featureSelection(), compilation(), manifest()},
			Fields:      []Field{lintField()},
		},
		{
			Name:        "clippy-fix",
			Key:         "x",
			Description: "Apply clippy suggestions",
			Subcommand:  "clippy",
			Prefix:      []string{"--fix"},
			Groups:      []Group{targetSelection(), featureSelection(), compilation(), manifest()},
			Fields:      []Field{lintField()},
		},
		{
			Name:        "clippy-fix-all",
			Key:         "X",
			Description: "Apply clippy suggestions even with a dirty or staged tree",
			Subcommand:  "clippy",
			Prefix:      []string{"--fix", "--allow-dirty", "--allow-staged"},
			Groups:      []Group{targetSelection(), featureSelection(), compilation(), manifest()},
			Fields:      []Field{lintField()},
		},
		{
			Name:        "doc",
			Key:         "d",
			Description: "Build documentation",
			Subcommand:  "doc",
			Groups:      []Group{docOptions(), featureSelection(), compilation(), manifest()},
		},
		{
			Name:        "doc-open",
			Key:         "D",
			Description: "Build documentation and open it in a browser",
			Subcommand:  "doc",
			Prefix:      []string{"--open"},
			Groups:      []Group{docOptions(), featureSelection(), compilation(), manifest()},
		},
		{
			Name:        "fmt",
			Key:         "f",
			Description: "Format the package with rustfmt",
			Subcommand:  "fmt",
			Groups: []Group{
				{Title: "Formatting", Flags: []Flag{
					{Key: "-a", Description: "Format all workspace packages", Argument: "--all"},
					{Key: "-c", Description: "Check only, do not write", Argument: "--check"},
					{Key: "-m", Description: "Manifest path", Argument: "--manifest-path=", Kind: Option},
				}},
			},
		},
		{
			Name:        "run",
			Key:         "r",
			Description: "Run a binary or example",
			Subcommand:  "run",
			Groups: []Group{
				{Title: "Target", Flags: []Flag{
					{Key: "-B", Description: "Binary", Argument: "--bin=", Kind: Option, Source: SourceBinaries},
					{Key: "-X", Description: "Example", Argument: "--example=", Kind: Option},
				}},
				featureSelection(),
				compilation(),
				manifest(),
			},
			Fields: []Field{
				{Key: "a", Name: "args", Description: "Arguments for the binary", Placement: AfterSeparator},
			},
		},
		{
			Name:        "test",
			Key:         "t",
			Description: "Run tests",
			Subcommand:  "test",
			Groups: []Group{
				{Title: "Test", Flags: []Flag{
					{Key: "-R", Description: "Compile but do not run", Argument: "--no-run"},
					{Key: "-f", Description: "Run every test regardless of failure", Argument: "--no-fail-fast"},
					{Key: "-d", Description: "Only doc tests", Argument: "--doc"},
					{Key: "-c", Description: "Show test output", Argument: "--nocapture"},
				}},
				targetSelection(),
				featureSelection(),
				compilation(),
				manifest(),
			},
			Fields: []Field{
				{Key: "s", Name: "filter", Description: "Test name filter", Placement: BeforeSeparator},
				{Key: "a", Name: "harness-args", Description: "Arguments for the test harness", Placement: AfterSeparator},
			},
		},
		{
			Name:        "exec",
			Key:         "e",
			Description: "Run an arbitrary cargo command",
			FreeForm:    true,
			Groups:      []Group{manifest()},
			Fields: []Field{
				{Key: "c", Name: "command", Description: "Subcommand and arguments", Placement: BeforeSeparator},
			},
		},
	}}
}

func targetSelection() Group {
	return Group{Title: "Target selection", Flags: []Flag{
		{Key: "-l", Description: "Library", Argument: "--lib"},
		{Key: "-b", Description: "All binaries", Argument: "--bins"},
		{Key: "-B", Description: "Binary", Argument: "--bin=", Kind: Option, Source: SourceBinaries},
		{Key: "-e", Description: "All examples", Argument: "--examples"},
		{Key: "-E", Description: "Example", Argument: "--example=", Kind: Option},
		{Key: "-t", Description: "All tests", Argument: "--tests"},
		{Key: "-T", Description: "Test target", Argument: "--test=", Kind: Option},
		{Key: "-w", Description: "All benches", Argument: "--benches"},
		{Key: "-W", Description: "Bench", Argument: "--bench=", Kind: Option},
		{Key: "-A", Description: "All targets", Argument: "--all-targets"},
	}}
}

func featureSelection() Group {
	return Group{Title: "Feature selection", Flags: []Flag{
		{Key: "-F", Description: "Features", Argument: "--features=", Kind: Option, Multi: true, Source: SourceFeatures},
		{Key: "-a", Description: "All features", Argument: "--all-features"},
		{Key: "-n", Description: "No default features", Argument: "--no-default-features"},
	}}
}

func compilation() Group {
	return Group{Title: "Compilation", Flags: []Flag{
		{Key: "-r", Description: "Release mode", Argument: "--release"},
		profileFlag(),
		targetTripleFlag(),
		{Key: "-j", Description: "Parallel jobs", Argument: "--jobs=", Kind: Option},
		{Key: "-k", Description: "Keep going after errors", Argument: "--keep-going"},
	}}
}

func manifest() Group {
	return Group{Title: "Manifest", Flags: []Flag{
		{Key: "-o", Description: "Offline", Argument: "--offline"},
		{Key: "-z", Description: "Frozen", Argument: "--frozen"},
		{Key: "-L", Description: "Locked", Argument: "--locked"},
		{Key: "-m", Description: "Manifest path", Argument: "--manifest-path=", Kind: Option},
	}}
}

func docOptions() Group {
	return Group{Title: "Documentation", Flags: []Flag{
		{Key: "-N", Description: "Skip dependencies", Argument: "--no-deps"},
		{Key: "-P", Description: "Document private items", Argument: "--document-private-items"},
		{Key: "-l", Description: "Library", Argument: "--lib"},
		{Key: "-b", Description: "All binaries", Argument: "--bins"},
		{Key: "-B", Description: "Binary", Argument: "--bin=", Kind: Option, Source: SourceBinaries},
	}}
}

func profileFlag() Flag {
	return Flag{Key: "-p", Description: "Profile", Argument: "--profile=", Kind: Option, Choices: []string{"dev", "release", "test", "bench"}}
}

func targetTripleFlag() Flag {
	return Flag{Key: "-g", Description: "Target triple", Argument: "--target=", Kind: Option}
}

func lintField() Field {
	return Field{Key: "w", Name: "lints", Description: "Lint arguments, e.g. -D warnings", Placement: AfterSeparator}
}
