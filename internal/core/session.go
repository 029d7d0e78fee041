package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medassist/internal/translate"
	"medassist/pkg"
)

var (
	// ErrBusy is returned when a reply or a translation is already running.
	ErrBusy = errors.New("session is busy")
	// ErrUnsupportedLanguage is returned for names outside the language
	// enumeration.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("empty message")
	// ErrSessionClosed is returned once Close has been called.
	ErrSessionClosed = errors.New("session closed")
)

// cannedLanguage is the language every canned text is guaranteed to exist in.
const cannedLanguage = "English"

// DefaultTranslateTimeout bounds each per-message translation call.
const DefaultTranslateTimeout = 15 * time.Second

// Translator re-renders text between language names.  *translate.Gateway
// implements it.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// SessionOptions configures a new session.
type SessionOptions struct {
	BaseLanguage     string
	Language         string
	Translator       Translator
	TranslateTimeout time.Duration
	Logger           zerolog.Logger
}

// Session is one patient conversation.  Turns are append-only and only ever
// replaced wholesale by Reset.  All mutation happens under mu, which is
// never held across a network call; the busy flags keep a second reply or
// language switch from starting while one is in flight.
type Session struct {
	ID        string
	PatientID string

	baseLanguage string
	translator   Translator
	timeout      time.Duration
	logger       zerolog.Logger

	mu             sync.Mutex
	turns          []pkg.Turn
	activeLanguage string
	isGenerating   bool
	isTranslating  bool
	epoch          uint64
	closed         bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a conversation seeded with a greeting in the requested
// language.  An empty or unsupported language falls back to the base
// language.  A base language without canned text falls back to English.
func NewSession(ctx context.Context, patientID string, opts SessionOptions) *Session {
	base := baseLanguageOrDefault(opts.BaseLanguage)
	timeout := opts.TranslateTimeout
	if timeout <= 0 {
		timeout = DefaultTranslateTimeout
	}
	lifetime, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		baseLanguage: base,
		translator:   opts.Translator,
		timeout:      timeout,
		ctx:          lifetime,
		cancel:       cancel,
	}
	s.logger = opts.Logger.With().Str("session_id", s.ID).Logger()

	language := opts.Language
	if _, ok := translate.LookupCode(language); !ok {
		language = base
	}
	greeting, language := s.seed(ctx, language)
	s.turns = []pkg.Turn{greeting}
	s.activeLanguage = language
	return s
}

// baseLanguageOrDefault keeps language as the base only when canonical
// content can be produced in it without a translation call.
func baseLanguageOrDefault(language string) string {
	if _, ok := translate.LookupCode(language); !ok || !HasCannedText(language) {
		return translate.DefaultBaseLanguage
	}
	return language
}

// BaseLanguage is the language canonical content is written in.
func (s *Session) BaseLanguage() string { return s.baseLanguage }

// View returns a snapshot safe to render or serialize.
func (s *Session) View() pkg.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]pkg.Turn, len(s.turns))
	copy(turns, s.turns)
	return pkg.SessionView{
		ID:             s.ID,
		PatientID:      s.PatientID,
		BaseLanguage:   s.baseLanguage,
		ActiveLanguage: s.activeLanguage,
		IsGenerating:   s.isGenerating,
		IsTranslating:  s.isTranslating,
		Turns:          turns,
	}
}

// ActiveLanguage returns the language currently shown to the user.
func (s *Session) ActiveLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLanguage
}

// Reset replaces the conversation with a single fresh greeting in the
// active language.  When no greeting can be produced in that language the
// session falls back to the base language so label and content agree.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.isGenerating || s.isTranslating {
		s.mu.Unlock()
		return ErrBusy
	}
	s.isTranslating = true
	language := s.activeLanguage
	s.mu.Unlock()

	greeting, language := s.seed(ctx, language)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isTranslating = false
	if s.closed {
		return ErrSessionClosed
	}
	s.epoch++
	s.turns = []pkg.Turn{greeting}
	s.activeLanguage = language
	return nil
}

// Close cancels any translation still running for this session.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.epoch++
	s.mu.Unlock()
	s.cancel()
}

// seed builds the greeting turn for language and returns the language it
// was actually rendered in.
func (s *Session) seed(ctx context.Context, language string) (pkg.Turn, string) {
	canonical, _ := s.localized(ctx, Greetings, s.baseLanguage)
	displayed := canonical
	if language != s.baseLanguage {
		text, ok := s.localized(ctx, Greetings, language)
		if ok {
			displayed = text
		} else {
			s.logger.Warn().Str("language", language).Msg("no greeting available, falling back to base language")
			language = s.baseLanguage
		}
	}
	return newTurn(pkg.RoleAssistant, s.baseLanguage, canonical, displayed), language
}

// localized returns table's text for language, translating the canned
// English text when the table has no entry.  ok is false when the returned
// text is not in language.
func (s *Session) localized(ctx context.Context, table map[string]string, language string) (string, bool) {
	if text, ok := table[language]; ok {
		return text, true
	}
	fallback := table[cannedLanguage]
	if s.translator == nil {
		return fallback, false
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.translator.Translate(callCtx, fallback, cannedLanguage, language)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Warn().Err(err).Str("language", language).Msg("canned text translation failed")
		return fallback, false
	}
	return text, true
}

// generation is the state captured when a user message is accepted.
type generation struct {
	history  []pkg.Turn
	language string
	epoch    uint64
}

// beginGeneration appends the user's turn and marks the session busy.  The
// returned history excludes the new turn.
func (s *Session) beginGeneration(content string) (generation, error) {
	if strings.TrimSpace(content) == "" {
		return generation{}, ErrEmptyMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return generation{}, ErrSessionClosed
	}
	if s.isGenerating || s.isTranslating {
		return generation{}, ErrBusy
	}
	history := make([]pkg.Turn, len(s.turns))
	copy(history, s.turns)
	s.turns = append(s.turns, newTurn(pkg.RoleUser, s.activeLanguage, content, content))
	s.isGenerating = true
	return generation{history: history, language: s.activeLanguage, epoch: s.epoch}, nil
}

// finishGeneration appends the assistant reply unless the session was reset
// or closed while the reply was being produced.
func (s *Session) finishGeneration(g generation, reply pkg.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isGenerating = false
	if s.epoch != g.epoch {
		return false
	}
	s.turns = append(s.turns, reply)
	return true
}

func newTurn(role pkg.Role, language, canonical, displayed string) pkg.Turn {
	return pkg.Turn{
		ID:                uuid.NewString(),
		Role:              role,
		CanonicalContent:  canonical,
		CanonicalLanguage: language,
		DisplayedContent:  displayed,
		CreatedAt:         time.Now().UTC(),
	}
}
