package legacymap

import (
	"context"
	"log/slog"

	"lectern/internal/config"
	"lectern/internal/content"
	"lectern/internal/logging"
	"lectern/internal/services"
)

const unmappedLogLimit = 10

// RunOptions select the keys of a mapping run.
type RunOptions struct {
	Categories []string
	DryRun     bool
}

// RunSummary reports a mapping run.
type RunSummary struct {
	Path         string     `json:"path"`
	DryRun       bool       `json:"dryRun"`
	Written      bool       `json:"written"`
	Sources      int        `json:"sources"`
	Stats        Stats      `json:"stats"`
	Unmapped     []Unmapped     `json:"unmapped"`
	Dropped      []DroppedEntry `json:"dropped,omitempty"`
	SourceErrors []string       `json:"sourceErrors,omitempty"`
}

// Run maps every configured legacy source against the canonical metadata and
// the base content tree, then writes the mapping artifact unless DryRun is
// set. Unmapped keys and unreadable sources are reported, not returned as errors.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts RunOptions) (RunSummary, Result, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "legacymap"))
	summary := RunSummary{Path: cfg.Paths.MappingPath, DryRun: opts.DryRun}

	md, err := content.LoadMetadata(cfg.Paths.MetadataPath)
	if err != nil {
		return summary, Result{}, err
	}
	base, _, err := content.LoadTree(cfg.TreePath(cfg.Languages.Base))
	if err != nil {
		return summary, Result{}, err
	}

	sources, errs := LoadSources(cfg.Sources)
	for _, err := range errs {
		summary.SourceErrors = append(summary.SourceErrors, err.Error())
		logging.WarnWithContext(logger, "legacy source skipped", "source_load_failed",
			logging.Error(err),
			logging.Hint("check the source path and shape in the config"),
			logging.Impact("keys from this source are not mapped"),
		)
	}
	summary.Sources = len(sources)
	for _, src := range sources {
		for _, d := range src.Dropped() {
			summary.Dropped = append(summary.Dropped, d)
			logging.WarnWithContext(logger, "legacy entry dropped", "legacy_entry_dropped",
				logging.Source(d.Source),
				logging.String("position", d.Position),
				logging.String("reason", d.Reason),
				logging.Hint("fix the entry in the source document"),
				logging.Impact("content of this entry is ignored"),
			)
		}
	}

	idx := BuildIndex(md, base)
	result := Map(idx, sources, Options{Prefixes: cfg.Mapping.Prefixes, Categories: opts.Categories})
	summary.Stats = result.Stats
	summary.Unmapped = result.Unmapped

	logger.Info("legacy keys mapped",
		logging.Int("sources", len(sources)),
		logging.Int("titles", idx.Titles()),
		logging.Int("total", result.Stats.Total),
		logging.Int("high", result.Stats.High),
		logging.Int("medium", result.Stats.Medium),
		logging.Int("unmapped", result.Stats.Unmapped),
		logging.Int("ambiguous", result.Stats.Ambiguous),
		logging.Int("dropped", len(summary.Dropped)),
	)
	if err := result.Err(); err != nil {
		for i, u := range result.Unmapped {
			if i == unmappedLogLimit {
				break
			}
			logger.Debug("unmapped legacy key",
				logging.String("key", u.Key),
				logging.String("cleaned", u.CleanedKey),
				logging.String("declared_title", u.DeclaredTitle),
				logging.Source(u.Source),
			)
		}
		logging.WarnWithContext(logger, "legacy keys need manual review", "unmapped_legacy_keys",
			logging.Error(err),
			logging.Hint("review the unmapped list in "+cfg.Paths.MappingPath),
			logging.Impact("content under these keys is left out of consolidation"),
		)
	}

	if opts.DryRun {
		return summary, result, nil
	}
	if err := Save(cfg.Paths.MappingPath, result); err != nil {
		return summary, result, services.Wrap(services.ErrWriteFailure, "legacymap", "save artifact", cfg.Paths.MappingPath, err)
	}
	summary.Written = true
	return summary, result, nil
}
