package telegram

import (
	"context"
	"sync"
)

// OffsetStore persists the getUpdates offset between invocations, so a chain
// of one-shot fetches resumes where the previous one confirmed.
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int, error)
	SaveOffset(ctx context.Context, offset int) error
}

// memoryCursor is the fallback OffsetStore used when persistence is disabled.
// It only survives for the lifetime of the process.
type memoryCursor struct {
	mu     sync.Mutex
	offset int
}

func (m *memoryCursor) LoadOffset(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset, nil
}

func (m *memoryCursor) SaveOffset(_ context.Context, offset int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = offset
	return nil
}
