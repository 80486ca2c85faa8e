package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"learning-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own a live countdown goroutine, so the session itself stays in
//     a local map on the instance that started it.
//   - Redis holds a liveness marker per session (quiz:session:{id} -> quiz id)
//     so other instances and operators can see which attempts are running.
//     It lives for the quiz time limit plus ttl and is removed on Delete.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.QuizSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.QuizSession),
	}
}

func (s *SessionStore) Add(session *app.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.Quiz().ID, s.markerTTL(session)).Err()
}

// markerTTL outlives the attempt's time limit by ttl, so the marker stays
// for the whole countdown plus the result view.
func (s *SessionStore) markerTTL(session *app.QuizSession) time.Duration {
	return time.Duration(session.Quiz().TimeLimit)*time.Minute + s.ttl
}

func (s *SessionStore) Get(sessionID string) (*app.QuizSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
