package repository

import (
	"context"
	"sync"

	"github.com/victornm/quizflow/internal/domain"
)

// Memory keeps sessions in process memory.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Session
	byCode map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[string]*domain.Session),
		byCode: make(map[string]string),
	}
}

func (m *Memory) Create(_ context.Context, s *domain.Session) (*domain.Session, error) {
	m.put(s)
	return s.Clone(), nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s.Clone(), nil
}

func (m *Memory) FindByCode(_ context.Context, code string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byCode[normalizeCode(code)]
	if !ok {
		return nil, ErrSessionNotFound
	}

	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s.Clone(), nil
}

func (m *Memory) Update(_ context.Context, s *domain.Session) (*domain.Session, error) {
	m.put(s)
	return s.Clone(), nil
}

func (m *Memory) put(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[s.ID] = s.Clone()
	m.byCode[normalizeCode(s.Code)] = s.ID
}
