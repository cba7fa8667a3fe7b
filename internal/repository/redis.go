package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizflow/internal/domain"
)

type RedisConfig struct {
	Redis  redis.UniversalClient
	Prefix string
}

// Redis stores each session as a JSON document, plus a key mapping its
// lower-cased join code to the session id.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedis(c RedisConfig) *Redis {
	return &Redis{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

func (r *Redis) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := r.put(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return s.Clone(), nil
}

func (r *Redis) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	b, err := r.redis.Get(ctx, r.getSessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	return &s, nil
}

func (r *Redis) FindByCode(ctx context.Context, code string) (*domain.Session, error) {
	id, err := r.redis.Get(ctx, r.getCodeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session code %s: %w", code, err)
	}

	return r.FindByID(ctx, id)
}

func (r *Redis) Update(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := r.put(ctx, s); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return s.Clone(), nil
}

func (r *Redis) put(ctx context.Context, s *domain.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}

	_, err = r.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.getSessionKey(s.ID), b, 0)
		p.Set(ctx, r.getCodeKey(s.Code), s.ID, 0)
		return nil
	})
	return err
}

func (r *Redis) getSessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *Redis) getCodeKey(code string) string {
	return fmt.Sprintf("%s:code:%s", r.prefix, normalizeCode(code))
}
