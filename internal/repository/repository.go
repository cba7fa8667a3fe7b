// Package repository stores session entities. Stores index sessions by id and
// by lower-cased join code and perform no business validation.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/victornm/quizflow/internal/domain"
)

// ErrSessionNotFound is returned by lookups that match no session.
var ErrSessionNotFound = errors.New("repository: session not found")

// SessionRepository is a key-value store of sessions.
//
// Returned sessions are copies owned by the caller. Changes are only stored by Update.
type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) (*domain.Session, error)
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByCode(ctx context.Context, code string) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) (*domain.Session, error)
}

func normalizeCode(code string) string {
	return strings.ToLower(code)
}
