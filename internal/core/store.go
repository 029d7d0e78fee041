package core

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps the live sessions of this process.  Nothing is persisted; a
// restart starts every patient over with a fresh greeting.
type Store struct {
	defaults SessionOptions

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.  defaults supplies everything but the
// per-session language.
func NewStore(defaults SessionOptions) *Store {
	defaults.BaseLanguage = baseLanguageOrDefault(defaults.BaseLanguage)
	return &Store{defaults: defaults, sessions: make(map[string]*Session)}
}

// BaseLanguage is the canonical language of every session in the store.
func (st *Store) BaseLanguage() string { return st.defaults.BaseLanguage }

// Create starts a session for patientID in language (base language when
// empty).
func (st *Store) Create(ctx context.Context, patientID, language string) *Session {
	opts := st.defaults
	opts.Language = language
	sess := NewSession(ctx, patientID, opts)

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns a live session.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete closes and forgets a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	return nil
}

// CloseAll closes every session, cancelling in-flight translations.
func (st *Store) CloseAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
