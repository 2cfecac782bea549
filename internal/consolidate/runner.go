package consolidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"lectern/internal/config"
	"lectern/internal/content"
	"lectern/internal/legacymap"
	"lectern/internal/logging"
	"lectern/internal/schema"
	"lectern/internal/services"
)

// Options select the languages and mode of a run.
type Options struct {
	Languages    []string
	DryRun       bool
	ValidateOnly bool
}

// LanguageResult is the outcome for one language.
type LanguageResult struct {
	Language  string `json:"language"`
	Path      string `json:"path"`
	Report    Report `json:"report"`
	Episodes  int    `json:"episodes"`
	Written   bool   `json:"written"`
	Unchanged bool   `json:"unchanged"`
	Backup    string `json:"backup,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Summary is the outcome of a run across languages.
type Summary struct {
	DryRun       bool             `json:"dryRun"`
	ValidateOnly bool             `json:"validateOnly"`
	Languages    []LanguageResult `json:"languages"`
}

// Runner consolidates the configured languages.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner constructs a runner over cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "consolidate"),
		now:    time.Now,
	}
}

// SetClock overrides the time source used for backup names.
func (r *Runner) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Run processes every selected language and reports all of them before
// returning. The returned error joins every language failure.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	summary := Summary{DryRun: opts.DryRun, ValidateOnly: opts.ValidateOnly}
	logger := logging.WithContext(ctx, r.logger)

	languages, err := r.languages(opts.Languages)
	if err != nil {
		return summary, err
	}
	md, err := content.LoadMetadata(r.cfg.Paths.MetadataPath)
	if err != nil {
		return summary, err
	}
	logger.Info("metadata loaded",
		logging.Int("series", len(md.Series)),
		logging.Int("episodes", md.EpisodeCount()),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("validate_only", opts.ValidateOnly),
	)

	var loaded map[string]languageSources
	var mapping legacymap.Result
	if !opts.ValidateOnly {
		loaded = r.loadSources(languages)
		mapping, err = r.loadMapping(logger, md, loaded)
		if err != nil {
			return summary, err
		}
	}

	var errs []error
	for _, lang := range languages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		langLogger := logger.With(logging.Language(lang))
		var result LanguageResult
		var runErr error
		if opts.ValidateOnly {
			result, runErr = r.validateExisting(lang, md)
		} else {
			result, runErr = r.consolidate(lang, md, loaded[lang], mapping, opts.DryRun)
		}
		if runErr != nil {
			result.Error = runErr.Error()
			errs = append(errs, runErr)
		}
		r.logResult(langLogger, result, runErr)
		summary.Languages = append(summary.Languages, result)
	}
	return summary, errors.Join(errs...)
}

func (r *Runner) languages(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(r.cfg.Languages.Supported), nil
	}
	out := make([]string, 0, len(requested))
	for _, lang := range requested {
		if !r.cfg.IsSupported(lang) {
			return nil, services.Wrap(services.ErrConfiguration, "consolidate", "select languages",
				fmt.Sprintf("language %q is not in languages.supported", lang), nil)
		}
		if !slices.Contains(out, lang) {
			out = append(out, lang)
		}
	}
	return out, nil
}

type languageSources struct {
	trees  []TreeSource
	legacy []legacymap.Source
	issues []Issue
	// dropped holds one warning per legacy entry the normalizer discarded.
	dropped []Issue
}

func (r *Runner) loadSources(languages []string) map[string]languageSources {
	out := make(map[string]languageSources, len(languages))
	for _, lang := range languages {
		var ls languageSources
		for _, src := range r.cfg.SourcesFor(lang) {
			if src.Shape != string(schema.ShapeTree) {
				continue
			}
			tree, exists, err := content.LoadTree(src.Path)
			if err == nil && !exists {
				err = fmt.Errorf("%s does not exist", src.Path)
			}
			if err != nil {
				ls.issues = append(ls.issues, Issue{Severity: SeverityError, Code: CodeSourceLoadFailed, Source: src.Name, Message: err.Error()})
				continue
			}
			ls.trees = append(ls.trees, TreeSource{Name: src.Name, Tree: tree})
		}
		legacy, errs := legacymap.LoadSources(r.cfg.SourcesFor(lang))
		for _, err := range errs {
			ls.issues = append(ls.issues, Issue{Severity: SeverityError, Code: CodeSourceLoadFailed, Message: err.Error()})
		}
		ls.legacy = legacy
		for _, src := range legacy {
			for _, d := range src.Dropped() {
				ls.dropped = append(ls.dropped, Issue{
					Severity: SeverityWarning, Code: CodeEntryDropped, Source: d.Source,
					Message: d.Position + ": " + d.Reason,
				})
			}
		}
		out[lang] = ls
	}
	return out
}

// loadMapping reads the mapping artifact, computing it in memory when no
// artifact has been written yet.
func (r *Runner) loadMapping(logger *slog.Logger, md *content.Metadata, loaded map[string]languageSources) (legacymap.Result, error) {
	mapping, exists, err := legacymap.Load(r.cfg.Paths.MappingPath)
	if err != nil {
		return legacymap.Result{}, services.Wrap(services.ErrConfiguration, "consolidate", "load mapping", r.cfg.Paths.MappingPath, err)
	}
	if exists {
		return mapping, nil
	}

	var sources []legacymap.Source
	for _, lang := range r.cfg.Languages.Supported {
		sources = append(sources, loaded[lang].legacy...)
	}
	if len(sources) == 0 {
		return mapping, nil
	}
	base, _, err := content.LoadTree(r.cfg.TreePath(r.cfg.Languages.Base))
	if err != nil {
		return legacymap.Result{}, err
	}
	mapping = legacymap.Map(legacymap.BuildIndex(md, base), sources, legacymap.Options{Prefixes: r.cfg.Mapping.Prefixes})
	logging.WarnWithContext(logger, "mapping artifact missing; mapped legacy keys in memory", "mapping_artifact_missing",
		logging.String("path", r.cfg.Paths.MappingPath),
		logging.Int("mapped", len(mapping.Mapping)),
		logging.Int("unmapped", len(mapping.Unmapped)),
		logging.Hint("run lectern map to review unmapped keys"),
		logging.Impact("consolidation proceeds with an unreviewed mapping"),
	)
	return mapping, nil
}

func (r *Runner) consolidate(lang string, md *content.Metadata, sources languageSources, mapping legacymap.Result, dryRun bool) (LanguageResult, error) {
	path := r.cfg.TreePath(lang)
	result := LanguageResult{Language: lang, Path: path}

	if !dryRun {
		lock, err := content.Lock(path)
		if err != nil {
			return result, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	existing, _, err := content.LoadTree(path)
	if err != nil {
		return result, err
	}

	tree, report := Build(Input{
		Language:    lang,
		Metadata:    md,
		Existing:    existing,
		TreeSources: sources.trees,
		Legacy:      sources.legacy,
		Mapping:     mapping,
	})
	report.Errors = append(slices.Clone(sources.issues), report.Errors...)
	report.Warnings = append(slices.Clone(sources.dropped), report.Warnings...)
	result.Report = report
	result.Episodes = countEpisodes(tree)

	if err := report.Err(); err != nil {
		return result, err
	}
	if dryRun {
		return result, nil
	}

	saved, err := content.SaveTree(path, tree, r.now())
	if err != nil {
		return result, err
	}
	result.Written = !saved.Unchanged
	result.Unchanged = saved.Unchanged
	result.Backup = saved.Backup
	return result, nil
}

func (r *Runner) validateExisting(lang string, md *content.Metadata) (LanguageResult, error) {
	path := r.cfg.TreePath(lang)
	result := LanguageResult{Language: lang, Path: path}
	tree, exists, err := content.LoadTree(path)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Report = Report{Language: lang}
		result.Report.errorf(CodeTreeMissing, content.EpisodeRef{}, "%s does not exist", path)
		return result, result.Report.Err()
	}
	result.Report = Validate(lang, md, tree)
	result.Episodes = countEpisodes(tree)
	return result, result.Report.Err()
}

func (r *Runner) logResult(logger *slog.Logger, result LanguageResult, err error) {
	for _, issue := range result.Report.Errors {
		logging.ErrorWithContext(logger, "validation error", "validation_"+issue.Code,
			logging.Series(issue.SeriesID),
			logging.Episode(issue.EpisodeID),
			logging.Source(issue.Source),
			logging.String("detail", issue.Message),
			logging.Hint("fix the source or metadata and rerun"),
		)
	}

	counts := map[string]int{}
	examples := map[string]Issue{}
	for _, issue := range result.Report.Warnings {
		if counts[issue.Code] == 0 {
			examples[issue.Code] = issue
		}
		counts[issue.Code]++
	}
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		logging.WarnWithContext(logger, "validation warning", "validation_"+code,
			logging.Int("count", counts[code]),
			logging.String("example", examples[code].String()),
			logging.Impact("content is incomplete but structurally valid"),
		)
	}

	switch {
	case err != nil:
		logging.ErrorWithContext(logger, "language not written", "consolidate_failed",
			logging.Error(err),
			logging.String("path", result.Path),
		)
	case result.Written:
		logger.Info("content tree written",
			logging.String("path", result.Path),
			logging.String("backup", result.Backup),
			logging.Int("episodes", result.Episodes),
			logging.Int("warnings", len(result.Report.Warnings)),
		)
	default:
		logger.Info("content tree checked",
			logging.String("path", result.Path),
			logging.Bool("unchanged", result.Unchanged),
			logging.Int("episodes", result.Episodes),
			logging.Int("warnings", len(result.Report.Warnings)),
		)
	}
}

func countEpisodes(tree content.Tree) int {
	total := 0
	for _, series := range tree {
		if series != nil {
			total += len(series.Episodes)
		}
	}
	return total
}
