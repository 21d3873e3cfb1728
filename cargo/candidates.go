package cargo

import (
	"context"
	"path/filepath"
)

// Project is the state a candidate lookup runs against.
type Project struct {
	Dir string
}

// Name is the base name of the project directory.
func (p Project) Name() string {
	if p.Dir == "" {
		return ""
	}
	return filepath.Base(filepath.Clean(p.Dir))
}

// Candidates produces autocomplete values for a menu option.
type Candidates func(ctx context.Context, p Project) []string

// StaticCandidates always returns values.
func StaticCandidates(values ...string) Candidates {
	return func(context.Context, Project) []string {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}
}

// BinaryCandidates completes bin target names from r.
func BinaryCandidates(r *Reader) Candidates {
	return func(ctx context.Context, p Project) []string {
		return r.InDir(p.Dir).BinaryTargets(ctx)
	}
}

// FeatureCandidates completes feature names from r.
func FeatureCandidates(r *Reader) Candidates {
	return func(ctx context.Context, p Project) []string {
		return r.InDir(p.Dir).Features(ctx)
	}
}
