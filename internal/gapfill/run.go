package gapfill

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	cb "github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"lectern/internal/content"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/llm"
	"lectern/internal/textutil"
)

const sourceSnippetLimit = 80

// fillRun holds the mutable state of one translation pass.
type fillRun struct {
	filler  *Filler
	logger  *slog.Logger
	path    string
	target  content.Tree
	limiter *rate.Limiter
	breaker *cb.CircuitBreaker
	summary *Summary

	pending int
	saved   bool
}

func (r *fillRun) translate(ctx context.Context, base content.Tree, gaps []Gap) error {
	for _, gap := range gaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		source := base.Overlay(gap.Ref()).Get(gap.Field)
		text, sent, err := r.call(ctx, gap, source)
		if sent {
			r.summary.Characters += gap.Characters
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			r.fail(gap, source, err)
			continue
		}

		r.target.Overlay(gap.Ref()).Set(gap.Field, text)
		r.summary.Translated++
		r.pending++
		r.logger.Debug("field translated",
			logging.Series(gap.SeriesID),
			logging.Episode(gap.EpisodeID),
			logging.Field(string(gap.Field)),
			logging.Int("characters", gap.Characters),
		)

		if every := r.filler.cfg.Pipeline.CheckpointEvery; every > 0 && r.pending >= every {
			if err := r.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// call sends one field through the breaker. sent reports whether the request
// reached the provider.
func (r *fillRun) call(ctx context.Context, gap Gap, source string) (string, bool, error) {
	sent := false
	out, err := r.breaker.Execute(func() (interface{}, error) {
		sent = true
		text, err := r.filler.translator.Translate(ctx, llm.TranslateRequest{
			Text:           source,
			SourceLanguage: r.filler.cfg.Languages.Base,
			TargetLanguage: r.summary.Language,
			Field:          string(gap.Field),
		})
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, services.Wrap(services.ErrTranslationProvider, "gapfill", "translate", "empty translation", nil)
		}
		if r.filler.detector.LooksUntranslated(text) {
			return nil, services.Wrap(services.ErrTranslationProvider, "gapfill", "translate", textutil.Snippet(text, sourceSnippetLimit), errStillUntranslated)
		}
		return text, nil
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			err = services.Wrap(services.ErrTranslationProvider, "gapfill", "translate", "circuit breaker open", err)
		}
		return "", sent, err
	}
	text, _ := out.(string)
	return text, sent, nil
}

func (r *fillRun) fail(gap Gap, source string, err error) {
	gap.Error = err.Error()
	r.summary.Failed++
	r.summary.Failures = append(r.summary.Failures, gap)
	logging.WarnWithContext(r.logger, "translation failed; field left unchanged", "translation_failed",
		logging.Series(gap.SeriesID),
		logging.Episode(gap.EpisodeID),
		logging.Field(string(gap.Field)),
		logging.String("source_snippet", textutil.Snippet(source, sourceSnippetLimit)),
		logging.Error(err),
		logging.Hint("rerun lectern fill to retry"),
		logging.Impact("field keeps its previous value"),
	)
}

// flush writes pending translations. The first write of a run takes a backup
// of the pre-run tree; later checkpoints replace the file in place.
func (r *fillRun) flush() error {
	if r.pending == 0 {
		return nil
	}
	if !r.saved {
		result, err := content.SaveTree(r.path, r.target, r.filler.now())
		if err != nil {
			return err
		}
		r.summary.Backup = result.Backup
		r.saved = true
	} else if err := content.CheckpointTree(r.path, r.target); err != nil {
		return err
	}
	r.summary.Written = true
	r.summary.Checkpoints++
	r.logger.Info("content tree checkpointed",
		logging.String("path", r.path),
		logging.Int("translated", r.summary.Translated),
		logging.Int("pending", r.pending),
	)
	r.pending = 0
	return nil
}
