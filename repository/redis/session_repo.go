package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const sessionPrefix = "session:"

type sessionRepository struct {
	client     *redislib.Client
	defaultTTL time.Duration
}

// NewSessionRepository stores sessions as JSON strings whose Redis expiry matches the
// session's own, so revoked or lapsed sessions simply disappear.
func NewSessionRepository(client *redislib.Client, defaultTTL time.Duration) repository.SessionRepository {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &sessionRepository{client: client, defaultTTL: defaultTTL}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+id).Bytes()
	switch {
	case errors.Is(err, redislib.Nil):
		return nil, domain.ErrSessionNotFound
	case err != nil:
		return nil, err
	}

	session := new(domain.Session)
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "corrupt session", err)
	}
	return session, nil
}

// Save fills a missing creation time and expiry before writing.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.defaultTTL)
	}
	ttl := session.TTL(now)
	if ttl == 0 {
		return domain.ErrSessionNotFound
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionPrefix+session.ID, payload, ttl).Err()
}

// Delete is idempotent.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionPrefix+id).Err()
}
