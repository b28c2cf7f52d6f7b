package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL is how long a dashboard login lasts.
const DefaultSessionTTL = 7 * 24 * time.Hour

// ErrNoSession is returned when a session does not exist or has expired.
var ErrNoSession = errors.New("session not found")

// User is the Discord user behind a session.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// Guild is a guild the session's user is in, as reported at login.
type Guild struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Owner bool   `json:"owner"`

	// Permissions is the user's permission bitmask in the guild. Discord sends it as a string.
	Permissions int64 `json:"permissions,string"`
}

// Session is a logged in dashboard user.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Guilds    []Guild   `json:"guilds"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CanManage reports whether the user may configure the guild from the dashboard.
func (s *Session) CanManage(guildID string) bool {
	for _, g := range s.Guilds {
		if g.ID == guildID {
			return permissions.CanManageGuild(g.Permissions)
		}
	}
	return false
}

// SessionStore keeps sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	c dataaccess.Cache
}

// NewRedisSessionStore stores sessions in redis until they expire.
func NewRedisSessionStore(c dataaccess.Cache) SessionStore {
	return &redisSessionStore{c: c}
}

func sessionKey(id string) string {
	return fmt.Sprintf("rabbit:session:%s", id)
}

func (r *redisSessionStore) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.c.Set(ctx, sessionKey(s.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := r.c.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	} else if err != nil {
		return nil, fmt.Errorf("error loading session: %w", err)
	}

	s := new(Session)
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("error decoding session: %w", err)
	}
	return s, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.c.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// memorySessionStore is used when no redis is configured. Sessions are lost on restart.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemorySessionStore keeps sessions in process memory.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *memorySessionStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop expired sessions while the lock is held.
	now := m.now()
	for id, existing := range m.sessions {
		if !existing.ExpiresAt.After(now) {
			delete(m.sessions, id)
		}
	}

	cp := *s
	cp.Guilds = append([]Guild{}, s.Guilds...)
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memorySessionStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, ErrNoSession
	}
	cp := *s
	cp.Guilds = append([]Guild{}, s.Guilds...)
	return &cp, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
