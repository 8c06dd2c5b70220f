package telegram

import (
	"sync"
	"time"

	"frieddie/internal/chat"
)

// DefaultIdleTTL is how long a chat may stay silent before its transcript is
// dropped.
const DefaultIdleTTL = 30 * time.Minute

type session struct {
	mu         sync.Mutex // one turn at a time per chat
	transcript *chat.Transcript
	lastUse    time.Time
}

// Sessions maps Telegram chat IDs to transcripts.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*session
	prompt   string
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(systemPrompt string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Sessions{
		sessions: make(map[int64]*session),
		prompt:   systemPrompt,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Sessions) get(chatID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &session{transcript: chat.NewTranscript(s.prompt)}
		s.sessions[chatID] = sess
	}
	sess.lastUse = s.now()
	return sess
}

// Clear resets a chat's transcript. It reports whether one existed.
func (s *Sessions) Clear(chatID int64) bool {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.mu.Lock()
	sess.transcript.Reset()
	sess.mu.Unlock()
	return true
}

// Evict drops sessions idle longer than the TTL and returns how many went.
func (s *Sessions) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.sessions {
		if sess.lastUse.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
