package session

import "sync"

// MemoryBackend holds a session in memory. Used in tests and anywhere a
// throwaway session is acceptable.
type MemoryBackend struct {
	mu   sync.Mutex
	sess *Session
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	cp := *m.sess

	return &cp, nil
}

func (m *MemoryBackend) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.sess = &cp

	return nil
}

func (m *MemoryBackend) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = nil

	return nil
}
