package preflight

import (
	"context"

	"lectern/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Options select the optional checks.
type Options struct {
	// CheckProvider sends a health request to the translation provider.
	CheckProvider bool
}

// RunAll executes the preflight checks for cfg in a stable order: directories,
// metadata, sources, content trees, then the provider when requested.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Content directory", cfg.Paths.ContentDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckMetadata(cfg.Paths.MetadataPath),
	}
	for _, src := range cfg.Sources {
		results = append(results, CheckSource(src))
	}
	for _, lang := range cfg.Languages.Supported {
		results = append(results, CheckTree(lang, cfg.TreePath(lang)))
	}
	if opts.CheckProvider {
		results = append(results, CheckTranslationProvider(ctx, cfg.GetTranslation()))
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
