package gapfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	cb "github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"lectern/internal/config"
	"lectern/internal/content"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/llm"
	"lectern/internal/textutil"
)

// Translator translates one field of text.
type Translator interface {
	Translate(ctx context.Context, req llm.TranslateRequest) (string, error)
}

// Options select the language and mode of a run.
type Options struct {
	Language   string
	Test       bool
	Categories []string
	DryRun     bool
}

// Gap reasons.
const (
	ReasonEmpty        = "empty"
	ReasonUntranslated = "untranslated"
)

// Gap is one target field that needs translation.
type Gap struct {
	SeriesID   string        `json:"seriesId"`
	EpisodeID  string        `json:"episodeId"`
	Field      content.Field `json:"field"`
	Reason     string        `json:"reason"`
	Characters int           `json:"characters"`
	Error      string        `json:"error,omitempty"`
}

// Ref returns the episode the gap belongs to.
func (g Gap) Ref() content.EpisodeRef {
	return content.EpisodeRef{SeriesID: g.SeriesID, EpisodeID: g.EpisodeID}
}

// Summary reports the outcome of a fill run.
type Summary struct {
	RunID         string  `json:"runId"`
	Language      string  `json:"language"`
	DryRun        bool    `json:"dryRun"`
	Test          bool    `json:"test"`
	Path          string  `json:"path"`
	Scanned       int     `json:"scanned"`
	Gaps          int     `json:"gaps"`
	Translated    int     `json:"translated"`
	Failed        int     `json:"failed"`
	Deferred      int     `json:"deferred"`
	Skipped       int     `json:"skipped"`
	Characters    int     `json:"characters"`
	EstimatedCost float64 `json:"estimatedCost"`
	Written       bool    `json:"written"`
	Backup        string  `json:"backup,omitempty"`
	Checkpoints   int     `json:"checkpoints"`
	GapList       []Gap   `json:"gapList,omitempty"`
	Failures      []Gap   `json:"failures,omitempty"`
}

var errStillUntranslated = errors.New("translation still reads as source language")

// Filler fills translation gaps for one language per run.
type Filler struct {
	cfg        *config.Config
	translator Translator
	logger     *slog.Logger
	detector   *textutil.Detector
	now        func() time.Time
}

// New constructs a filler. translator may be nil for dry runs.
func New(cfg *config.Config, translator Translator, logger *slog.Logger) *Filler {
	return &Filler{
		cfg:        cfg,
		translator: translator,
		logger:     logging.NewComponentLogger(logger, "gapfill"),
		detector:   textutil.NewDetector(cfg.Gaps.IndicatorWords, cfg.Gaps.Threshold),
		now:        time.Now,
	}
}

// SetClock overrides the time source used for backup names.
func (f *Filler) SetClock(now func() time.Time) {
	if now != nil {
		f.now = now
	}
}

// Run scans the target tree for gaps and translates them. On context
// cancellation the progress made so far is saved before returning the
// context error.
func (f *Filler) Run(ctx context.Context, opts Options) (Summary, error) {
	lang := strings.ToLower(strings.TrimSpace(opts.Language))
	summary := Summary{Language: lang, DryRun: opts.DryRun, Test: opts.Test, Path: f.cfg.TreePath(lang)}

	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	summary.RunID = runID
	ctx = services.WithLanguage(ctx, lang)
	logger := logging.WithContext(ctx, f.logger)

	if err := f.checkLanguage(lang); err != nil {
		return summary, err
	}
	if !opts.DryRun && f.translator == nil {
		return summary, services.Wrap(services.ErrConfiguration, "gapfill", "run", "no translation provider configured", nil)
	}

	base, err := f.loadRequired(f.cfg.Languages.Base)
	if err != nil {
		return summary, err
	}

	if !opts.DryRun {
		lock, err := content.Lock(summary.Path)
		if err != nil {
			return summary, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	target, err := f.loadRequired(lang)
	if err != nil {
		return summary, err
	}

	gaps := f.scan(base, target, opts.Categories, &summary)
	summary.Gaps = len(gaps)
	logger.Info("gap scan complete",
		logging.Int("scanned", summary.Scanned),
		logging.Int("gaps", summary.Gaps),
		logging.Any("reasons", gapReasons(gaps)),
		logging.Int("skipped", summary.Skipped),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("test", opts.Test),
	)

	if opts.DryRun {
		summary.GapList = gaps
		for _, gap := range gaps {
			summary.Characters += gap.Characters
		}
		summary.EstimatedCost = f.cost(summary.Characters)
		return summary, nil
	}

	limit := len(gaps)
	if opts.Test && f.cfg.Pipeline.TestSampleSize < limit {
		limit = f.cfg.Pipeline.TestSampleSize
	}
	summary.Deferred = len(gaps) - limit

	run := &fillRun{
		filler:  f,
		logger:  logger,
		path:    summary.Path,
		target:  target,
		limiter: newLimiter(f.cfg.Translation.DelayMillis),
		breaker: f.newBreaker(logger, lang),
		summary: &summary,
	}
	started := time.Now()
	runErr := run.translate(ctx, base, gaps[:limit])
	if err := run.flush(); err != nil {
		runErr = errors.Join(runErr, err)
	}
	summary.EstimatedCost = f.cost(summary.Characters)

	f.logSummary(logger, summary, time.Since(started), runErr)
	return summary, runErr
}

func (f *Filler) checkLanguage(lang string) error {
	if lang == "" {
		return services.Wrap(services.ErrConfiguration, "gapfill", "select language", "a target language is required", nil)
	}
	if !f.cfg.IsSupported(lang) {
		return services.Wrap(services.ErrConfiguration, "gapfill", "select language",
			fmt.Sprintf("language %q is not in languages.supported", lang), nil)
	}
	if lang == f.cfg.Languages.Base {
		return services.Wrap(services.ErrConfiguration, "gapfill", "select language",
			fmt.Sprintf("%q is the base language; nothing to translate", lang), nil)
	}
	return nil
}

func (f *Filler) loadRequired(lang string) (content.Tree, error) {
	path := f.cfg.TreePath(lang)
	tree, exists, err := content.LoadTree(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, services.Wrap(services.ErrConfiguration, "gapfill", "load tree",
			fmt.Sprintf("%s does not exist; run lectern consolidate first", path), nil)
	}
	return tree, nil
}

// scan walks base series, episodes and fields in order and collects target
// gaps. Target overlays missing from the tree are created empty.
func (f *Filler) scan(base, target content.Tree, categories []string, summary *Summary) []Gap {
	var gaps []Gap
	for _, seriesID := range base.SeriesIDs() {
		if !matchesCategory(seriesID, categories) {
			continue
		}
		baseSeries := base[seriesID]
		if baseSeries == nil {
			continue
		}
		targetSeries := target[seriesID]
		if targetSeries == nil {
			targetSeries = &content.SeriesContent{Episodes: map[string]*content.Overlay{}}
			target[seriesID] = targetSeries
		}
		if targetSeries.Episodes == nil {
			targetSeries.Episodes = map[string]*content.Overlay{}
		}
		for _, episodeID := range baseSeries.EpisodeIDs() {
			baseOverlay := baseSeries.Episodes[episodeID]
			if baseOverlay == nil {
				continue
			}
			overlay := targetSeries.Episodes[episodeID]
			if overlay == nil {
				overlay = &content.Overlay{}
				targetSeries.Episodes[episodeID] = overlay
			}
			for _, field := range content.Fields {
				summary.Scanned++
				value := overlay.Get(field)
				if !f.detector.IsGap(value) {
					continue
				}
				source := baseOverlay.Get(field)
				if content.BlankField(source) {
					summary.Skipped++
					continue
				}
				reason := ReasonUntranslated
				if content.BlankField(value) {
					reason = ReasonEmpty
				}
				gaps = append(gaps, Gap{
					SeriesID:   seriesID,
					EpisodeID:  episodeID,
					Field:      field,
					Reason:     reason,
					Characters: utf8.RuneCountInString(source),
				})
			}
		}
	}
	return gaps
}

func matchesCategory(seriesID string, categories []string) bool {
	if len(categories) == 0 {
		return true
	}
	lowered := strings.ToLower(seriesID)
	for _, category := range categories {
		prefix := strings.ToLower(strings.TrimSpace(category))
		if prefix != "" && strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

func newLimiter(delayMillis int) *rate.Limiter {
	if delayMillis <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(delayMillis)*time.Millisecond), 1)
}

func (f *Filler) newBreaker(logger *slog.Logger, lang string) *cb.CircuitBreaker {
	failures := f.cfg.Translation.BreakerFailures
	if failures < 1 {
		failures = 1
	}
	return cb.NewCircuitBreaker(cb.Settings{
		Name:        "translation-" + lang,
		MaxRequests: 1,
		Timeout:     time.Duration(f.cfg.Translation.BreakerCooldown) * time.Second,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to cb.State) {
			attrs := []logging.Attr{
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.Hint("check provider status and credentials"),
				logging.Impact("translation calls are rejected while the breaker is open"),
			}
			if to == cb.StateOpen {
				attrs = append(attrs, logging.Alert("translation_breaker_open"))
			}
			logging.WarnWithContext(logger, "translation breaker state change", "breaker_state_change", attrs...)
		},
	})
}

func gapReasons(gaps []Gap) map[string]int {
	reasons := map[string]int{}
	for _, gap := range gaps {
		reasons[gap.Reason]++
	}
	return reasons
}

func (f *Filler) cost(characters int) float64 {
	return float64(characters) / 1e6 * f.cfg.Translation.CostPerMillionChars
}

func (f *Filler) logSummary(logger *slog.Logger, summary Summary, elapsed time.Duration, err error) {
	attrs := []logging.Attr{
		logging.Duration("elapsed", elapsed),
		logging.Int("gaps", summary.Gaps),
		logging.Int("translated", summary.Translated),
		logging.Int("failed", summary.Failed),
		logging.Int("deferred", summary.Deferred),
		logging.Int("skipped", summary.Skipped),
		logging.Int("characters", summary.Characters),
		logging.Float64("estimated_cost", summary.EstimatedCost),
		logging.Bool("written", summary.Written),
		logging.String("backup", summary.Backup),
	}
	if err != nil {
		logging.ErrorWithContext(logger, "fill run stopped", "fill_failed", append(attrs, logging.Error(err))...)
		return
	}
	if summary.Failed > 0 {
		logging.WarnWithContext(logger, "fill run finished with failures", "fill_partial",
			append(attrs,
				logging.Hint("rerun lectern fill to retry the remaining gaps"),
				logging.Impact("failed fields keep their previous value"),
			)...)
		return
	}
	logger.Info("fill run finished", logging.Args(attrs...)...)
}
