package metrics

import (
	"context"
	"sync"
)

// MemoryBackend is an in-memory Backend. Useful for tests and for running the
// funnel without any external storage.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.data == nil {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modification.
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Save(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = make([]byte, len(data))
	copy(b.data, data)
	return nil
}
