package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"medassist/internal/translate"
	"medassist/pkg"
)

// errBatchAborted wraps failures that abandon a whole language switch.
var errBatchAborted = errors.New("translation batch aborted")

// SwitchOutcome reports what a language switch did.
type SwitchOutcome struct {
	// Translated counts assistant turns whose displayed content changed.
	Translated int
	// Failed counts turns left at their previous content.
	Failed int
	// RolledBack is set when the whole switch was abandoned and the
	// previous language restored.
	RolledBack bool
}

// maxConcurrentTranslations bounds the requests one switch keeps in flight.
const maxConcurrentTranslations = 8

type translationJob struct {
	turnID    string
	canonical string
	source    string
}

// SwitchLanguage re-renders every assistant turn into language.
//
// Requesting the active language is a no-op.  A turn whose canonical content
// is already in language gets it copied back without calling the translator,
// so switching to the base language makes no requests.  A turn
// whose translation fails or comes back empty keeps its previous content.
// A transport failure, a panic in the translator or cancellation of ctx or
// the session abandons the switch: the previous language is restored and no
// displayed content changes.  Results are written only after every request
// has finished.
func (s *Session) SwitchLanguage(ctx context.Context, language string) (SwitchOutcome, error) {
	s.mu.Lock()
	if language == s.activeLanguage {
		s.mu.Unlock()
		return SwitchOutcome{}, nil
	}
	if _, ok := translate.LookupCode(language); !ok {
		s.mu.Unlock()
		return SwitchOutcome{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	if s.closed {
		s.mu.Unlock()
		return SwitchOutcome{}, ErrSessionClosed
	}
	if s.isGenerating || s.isTranslating {
		s.mu.Unlock()
		return SwitchOutcome{}, ErrBusy
	}
	from := s.activeLanguage
	s.isTranslating = true
	s.activeLanguage = language
	epoch := s.epoch
	var jobs []translationJob
	for _, t := range s.turns {
		if t.Role != pkg.RoleAssistant {
			continue
		}
		source := t.CanonicalLanguage
		if source == "" {
			source = s.baseLanguage
		}
		jobs = append(jobs, translationJob{turnID: t.ID, canonical: t.CanonicalContent, source: source})
	}
	s.mu.Unlock()

	logger := s.logger.With().Str("from", from).Str("to", language).Logger()

	results, failed, err := s.translateAll(ctx, jobs, language)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isTranslating = false
	if s.epoch != epoch {
		return SwitchOutcome{RolledBack: true}, ErrSessionClosed
	}
	if err != nil {
		s.activeLanguage = from
		logger.Error().Err(err).Msg("language switch rolled back")
		return SwitchOutcome{RolledBack: true}, nil
	}

	outcome := SwitchOutcome{Failed: failed}
	for i, job := range jobs {
		if results[i] == "" {
			continue
		}
		for j := range s.turns {
			if s.turns[j].ID == job.turnID {
				if s.turns[j].DisplayedContent != results[i] {
					outcome.Translated++
				}
				s.turns[j].DisplayedContent = results[i]
				break
			}
		}
	}
	if failed > 0 {
		logger.Warn().Int("failed", failed).Int("turns", len(jobs)).Msg("some messages were not translated")
	}
	return outcome, nil
}

// translateAll fans the jobs out, one request each, and joins them.  Jobs
// whose source is already language are copied without a request.  The
// returned slice is indexed like jobs; an empty entry means the turn keeps
// its content.
func (s *Session) translateAll(ctx context.Context, jobs []translationJob, language string) ([]string, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	results := make([]string, len(jobs))
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTranslations)
	for i, job := range jobs {
		if job.source == language {
			results[i] = job.canonical
			continue
		}
		if s.translator == nil {
			failed.Add(1)
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: translator panic: %v", errBatchAborted, r)
				}
			}()
			callCtx, cancelCall := context.WithTimeout(gctx, s.timeout)
			defer cancelCall()

			out, err := s.translator.Translate(callCtx, job.canonical, job.source, language)
			switch {
			case err != nil && errors.Is(err, translate.ErrTransport):
				return fmt.Errorf("%w: %w", errBatchAborted, err)
			case gctx.Err() != nil:
				return fmt.Errorf("%w: %w", errBatchAborted, gctx.Err())
			case err != nil:
				s.logger.Warn().Err(err).Str("turn_id", job.turnID).Str("language", language).Msg("message translation failed")
				failed.Add(1)
				return nil
			case strings.TrimSpace(out) == "":
				s.logger.Warn().Str("turn_id", job.turnID).Str("language", language).Msg("message translation was empty")
				failed.Add(1)
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if s.translator == nil && failed.Load() > 0 {
		s.logger.Warn().Str("language", language).Msg("no translator configured")
	}
	return results, int(failed.Load()), nil
}
