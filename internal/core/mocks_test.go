package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"medassist/internal/llm"
	"medassist/pkg"
)

// Compile-time checks that the mocks satisfy the interfaces they stand in for.
var (
	_ Translator  = (*MockTranslator)(nil)
	_ llm.Client  = (*MockLLM)(nil)
	_ RecordStore = (*MockRecordStore)(nil)
)

// MockTranslator is safe for the concurrent calls a language switch makes.
type MockTranslator struct {
	TranslateFunc func(ctx context.Context, text, from, to string) (string, error)
	calls         atomic.Int32
}

func (m *MockTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	m.calls.Add(1)
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, from, to)
	}
	return "[" + to + "] " + text, nil
}

func (m *MockTranslator) Calls() int { return int(m.calls.Load()) }

type MockLLM struct {
	CompleteFunc func(ctx context.Context, prompt, language string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt, language string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, language)
	}
	return "reply in " + language, nil
}

type MockRecordStore struct {
	FetchFunc      func(ctx context.Context, patientID string, limit int) ([]pkg.MedicalRecord, error)
	FetchCallCount int32
}

func (m *MockRecordStore) FetchRecentRecords(ctx context.Context, patientID string, limit int) ([]pkg.MedicalRecord, error) {
	atomic.AddInt32(&m.FetchCallCount, 1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, patientID, limit)
	}
	return nil, nil
}

func newTestSession(tr Translator, language string) *Session {
	return NewSession(context.Background(), "patient-1", SessionOptions{
		BaseLanguage: "English",
		Language:     language,
		Translator:   tr,
		Logger:       zerolog.Nop(),
	})
}

// addAssistantTurn appends an assistant turn whose displayed content equals
// its canonical content, as if produced in the base language.
func addAssistantTurn(s *Session, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, newTurn(pkg.RoleUser, s.baseLanguage, "question about "+content, "question about "+content))
	s.turns = append(s.turns, newTurn(pkg.RoleAssistant, s.baseLanguage, content, content))
}

func strPtr(s string) *string { return &s }
