package synclog

import (
	"context"
	"sync"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
)

type mockRepository struct {
	mu                  sync.Mutex
	entries             []*synclog.Entry
	CreateFunc          func(ctx context.Context, entry *synclog.Entry) error
	CompletePendingFunc func(ctx context.Context, entry *synclog.Entry) error
}

func (m *mockRepository) Create(ctx context.Context, entry *synclog.Entry) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRepository) CompletePending(ctx context.Context, entry *synclog.Entry) error {
	if m.CompletePendingFunc != nil {
		return m.CompletePendingFunc(ctx, entry)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*synclog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, synclog.ErrEntryNotFound
}

func (m *mockRepository) List(ctx context.Context, filter synclog.Filter) ([]*synclog.Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, int64(len(m.entries)), nil
}
