package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "chat:session:"

// OptionRef is a suggested seating the guest can pick by number.
type OptionRef struct {
	Section  string   `json:"section"`
	TableIDs []uint64 `json:"table_ids"`
	Labels   []string `json:"labels"`
	Capacity int      `json:"capacity"`
}

// Session is the state of one conversation.
type Session struct {
	ID string `json:"id"`
	// Pending holds the booking being assembled.
	Pending Fields `json:"pending"`
	// Awaiting names the field the assistant last asked for.
	Awaiting string `json:"awaiting,omitempty"`
	// Options are the suggestions last shown, numbered from 1.
	Options []OptionRef `json:"options,omitempty"`
	// LastReference is the reservation made in this conversation.
	LastReference string    `json:"last_reference,omitempty"`
	LastDate      string    `json:"last_date,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionStore keeps sessions between messages.  Get returns (nil, nil)
// for unknown or expired sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionPrefix+sess.ID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionPrefix+id).Err()
}

// MemorySessionStore is the in-process fallback used when Redis is not
// configured.  Sessions are lost on restart.
type MemorySessionStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memEntry
	now  func() time.Time
}

type memEntry struct {
	raw     []byte
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, data: make(map[string]memEntry), now: time.Now}
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.data, id)
		return nil, nil
	}
	var sess Session
	if err := json.Unmarshal(e.raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *MemorySessionStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	// sweep so abandoned conversations do not pile up
	for id, e := range m.data {
		if m.ttl > 0 && now.After(e.expires) {
			delete(m.data, id)
		}
	}
	m.data[sess.ID] = memEntry{raw: b, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
