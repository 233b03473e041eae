package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

const sessionKeyPrefix = "session:"

// SessionStore is implemented by the Redis and in-process session repositories.
type SessionStore interface {
	Save(ctx context.Context, sess models.Session) error
	Find(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository keeps gateway sessions in Redis with a TTL matching their expiry.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a Redis backed session store.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores the session until it expires.
func (r *SessionRepository) Save(ctx context.Context, sess models.Session) error {
	if r.client == nil {
		return errors.New("redis session store not configured")
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(sess.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", sessionKey(sess.ID), err)
	}
	return nil
}

// Find loads a session. A missing key yields ErrSessionNotFound.
func (r *SessionRepository) Find(ctx context.Context, id string) (models.Session, error) {
	if r.client == nil {
		return models.Session{}, appErrors.ErrSessionNotFound
	}

	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, appErrors.ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("redis get %s: %w", sessionKey(id), err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		r.logger.Warn("discarding unreadable session", zap.String("session_id", id), zap.Error(err))
		_ = r.client.Del(ctx, sessionKey(id)).Err()
		return models.Session{}, appErrors.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session if present.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", sessionKey(id), err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis session store not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *SessionRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// MemorySessionRepository keeps sessions in process. Used when Redis is disabled and by the CLI.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewMemorySessionRepository constructs an empty in-process store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.Session), now: time.Now}
}

// Save stores the session.
func (r *MemorySessionRepository) Save(_ context.Context, sess models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	r.sweepLocked()
	return nil
}

// Find loads a live session.
func (r *MemorySessionRepository) Find(_ context.Context, id string) (models.Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || sess.Expired(r.now()) {
		return models.Session{}, appErrors.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session if present.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Ping always succeeds.
func (r *MemorySessionRepository) Ping(context.Context) error { return nil }

func (r *MemorySessionRepository) sweepLocked() {
	now := r.now()
	for id, sess := range r.sessions {
		if sess.Expired(now) {
			delete(r.sessions, id)
		}
	}
}
