package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// MemoryReminderStore keeps committed reminders in process memory.
type MemoryReminderStore struct {
	mu        sync.RWMutex
	reminders map[string]*domain.Reminder
	order     []string // insertion order, oldest first
}

// NewMemoryReminderStore creates an empty reminder store.
func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{reminders: make(map[string]*domain.Reminder)}
}

// Create stores a new reminder.
func (s *MemoryReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[reminder.ID]; !exists {
		s.order = append(s.order, reminder.ID)
	}
	s.reminders[reminder.ID] = reminder
	return nil
}

// Get returns the reminder or ErrReminderNotFound.
func (s *MemoryReminderStore) Get(ctx context.Context, id string) (*domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, domain.ErrReminderNotFound
	}
	return r, nil
}

// List returns reminders sorted by date ascending, then creation time.
func (s *MemoryReminderStore) List(ctx context.Context) ([]*domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Reminder, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reminders[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}

// Complete marks a reminder done. Completing twice is a no-op.
func (s *MemoryReminderStore) Complete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return domain.ErrReminderNotFound
	}
	r.Completed = true
	return nil
}

// Delete removes a reminder.
func (s *MemoryReminderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[id]; !ok {
		return domain.ErrReminderNotFound
	}
	delete(s.reminders, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryActionLogStore keeps the committed-action feed in process memory.
type MemoryActionLogStore struct {
	mu      sync.RWMutex
	entries []*domain.ActionLog
}

// NewMemoryActionLogStore creates an empty action log.
func NewMemoryActionLogStore() *MemoryActionLogStore {
	return &MemoryActionLogStore{}
}

// Append records a committed action.
func (s *MemoryActionLogStore) Append(ctx context.Context, entry *domain.ActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// List returns entries newest-first, at most limit when limit > 0.
func (s *MemoryActionLogStore) List(ctx context.Context, limit int) ([]*domain.ActionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ActionLog, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
