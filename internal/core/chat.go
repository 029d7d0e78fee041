package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medassist/internal/llm"
	"medassist/pkg"
)

// DefaultLLMTimeout bounds a single completion call.
const DefaultLLMTimeout = 60 * time.Second

// ChatService orchestrates the chat between a patient and the assistant:
// fetch records, flatten them, compose the prompt, ask the model and append
// the reply to the session.  Records are fetched again for every message so
// answers reflect records uploaded mid-conversation.
type ChatService struct {
	LLM        llm.Client
	Records    *RecordFetcher
	Translator Translator
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// NewChatService constructs a new ChatService.
func NewChatService(client llm.Client, records *RecordFetcher, translator Translator, logger zerolog.Logger) *ChatService {
	return &ChatService{
		LLM:        client,
		Records:    records,
		Translator: translator,
		Timeout:    DefaultLLMTimeout,
		Logger:     logger,
	}
}

// Reply handles one user message.  The user turn is appended immediately;
// the assistant turn is appended once the model answers.  Model failures
// become a fixed apology reply rather than an error.  The only errors
// returned are the session's own: busy, closed or empty input.
func (s *ChatService) Reply(ctx context.Context, sess *Session, message string) (pkg.Turn, error) {
	gen, err := sess.beginGeneration(message)
	if err != nil {
		return pkg.Turn{}, err
	}
	logger := s.Logger.With().Str("session_id", sess.ID).Str("language", gen.language).Logger()

	contextBlock := FlattenRecords(s.Records.Fetch(ctx, sess.PatientID))
	prompt := ComposePrompt(contextBlock, gen.history, message, gen.language)

	reply := s.complete(ctx, prompt, gen.language, logger)
	var turn pkg.Turn
	if reply == "" {
		turn = s.apology(ctx, sess, gen.language)
	} else {
		canonical, language := s.canonical(ctx, sess, reply, gen.language, logger)
		turn = newTurn(pkg.RoleAssistant, language, canonical, reply)
	}

	if !sess.finishGeneration(gen, turn) {
		logger.Info().Msg("session changed while generating, reply dropped")
		return pkg.Turn{}, ErrSessionClosed
	}
	return turn, nil
}

func (s *ChatService) complete(ctx context.Context, prompt, language string, logger zerolog.Logger) string {
	if s.LLM == nil {
		logger.Error().Msg("no llm client configured")
		return ""
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.LLM.Complete(callCtx, prompt, language)
	if err != nil {
		logger.Error().Err(err).Dur("latency", time.Since(start)).Msg("completion failed")
		return ""
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		logger.Warn().Msg("completion returned empty reply")
	}
	return reply
}

// canonical backfills the base-language content of a reply written in
// another language and returns it with the language it is written in.
// When the reverse translation fails the reply itself is kept as canonical
// content, tagged with the reply language.
func (s *ChatService) canonical(ctx context.Context, sess *Session, reply, language string, logger zerolog.Logger) (string, string) {
	base := sess.BaseLanguage()
	if language == base {
		return reply, base
	}
	if s.Translator == nil {
		logger.Error().Msg("no translator configured, canonical content stays in the reply language")
		return reply, language
	}
	callCtx, cancel := context.WithTimeout(ctx, sess.timeout)
	defer cancel()
	text, err := s.Translator.Translate(callCtx, reply, language, base)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Error().Err(err).Msg("reverse translation failed, canonical content stays in the reply language")
		return reply, language
	}
	return text, base
}

func (s *ChatService) apology(ctx context.Context, sess *Session, language string) pkg.Turn {
	canonical, _ := sess.localized(ctx, Apologies, sess.BaseLanguage())
	if language == sess.BaseLanguage() {
		return newTurn(pkg.RoleAssistant, language, canonical, canonical)
	}
	displayed, _ := sess.localized(ctx, Apologies, language)
	return newTurn(pkg.RoleAssistant, sess.BaseLanguage(), canonical, displayed)
}
