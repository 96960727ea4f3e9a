package archive

import (
	"context"
	"sync"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
)

// MemoryArchive holds payloads in memory for tests/dev.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive constructs an archive backed by process memory.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

// Store implements ingest.Archive.
func (a *MemoryArchive) Store(_ context.Context, name string, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	a.objects[name] = stored
	return nil
}

// Object returns a stored payload, for tests.
func (a *MemoryArchive) Object(name string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	payload, ok := a.objects[name]
	return payload, ok
}

var _ ingest.Archive = (*MemoryArchive)(nil)
