package models

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository хранит анкеты в памяти процесса. Для локального запуска и тестов.
type MemoryRepository struct {
	mu    sync.RWMutex
	forms map[string]IntakeForm
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		forms: make(map[string]IntakeForm),
		now:   time.Now,
	}
}

func (r *MemoryRepository) SaveForm(ctx context.Context, form *IntakeForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	form.CreatedAt = now
	if existing, ok := r.forms[form.UserID]; ok {
		form.CreatedAt = existing.CreatedAt
	}
	form.UpdatedAt = now
	r.forms[form.UserID] = *form
	return nil
}

func (r *MemoryRepository) GetFormByUserID(ctx context.Context, userID string) (*IntakeForm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	form, ok := r.forms[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &form, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
