package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/extraction"
)

var ErrSessionNotFound = errors.New("session not found")

// entry pairs a session with its extraction pipeline: one upload slot per
// assessment run.
type entry struct {
	session  *assessment.Session
	pipeline *extraction.Pipeline
}

// SessionStore is the in-memory registry of live assessment sessions.
// Nothing here outlives the process: expired sessions are swept, completed
// ones fall out with their TTL, and no patient data is written anywhere.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry

	parser     *extraction.Parser
	recognizer extraction.Recognizer
	ttl        time.Duration
}

func NewSessionStore(parser *extraction.Parser, recognizer extraction.Recognizer, ttl time.Duration) *SessionStore {
	return &SessionStore{
		entries:    make(map[uuid.UUID]*entry),
		parser:     parser,
		recognizer: recognizer,
		ttl:        ttl,
	}
}

func (s *SessionStore) Create() *assessment.Session {
	session := assessment.NewSession()
	s.mu.Lock()
	s.entries[session.ID()] = &entry{
		session:  session,
		pipeline: extraction.NewPipeline(s.recognizer, s.parser),
	}
	s.mu.Unlock()
	return session
}

func (s *SessionStore) Get(id uuid.UUID) (*assessment.Session, *extraction.Pipeline, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	return e.session, e.pipeline, nil
}

// StartSweeper evicts sessions idle past the TTL until ctx is cancelled.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *SessionStore) sweep() {
	cutoff := time.Now().UTC().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.session.LastActive().Before(cutoff) {
			delete(s.entries, id)
			logger.Log.WithField("session_id", id.String()).Debug("Expired idle session")
		}
	}
}
