package telemetry

import (
	"sync"

	"github.com/google/uuid"
)

// Storage keys for the two identifiers.
const (
	FingerprintKey = "recall_fingerprint_id"
	SessionKey     = "recall_session_id"
)

// KeyValueStore is the durable key-value capability identifiers are
// resolved through. Implementations come in two scopes: persistent
// (survives restarts, shared across tabs) and tab-lifetime. GetOrSet must
// be atomic so two concurrent resolvers cannot mint different identifiers.
type KeyValueStore interface {
	GetOrSet(key string, create func() string) string
}

// MemoryStore is an in-process KeyValueStore.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) GetOrSet(key string, create func() string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok && v != "" {
		return v
	}
	v := create()
	s.values[key] = v
	return v
}

// Identity holds the two identifiers every well-formed event carries.
type Identity struct {
	FingerprintID string
	SessionID     string
}

// ResolveIdentity lazily creates the fingerprint and session identifiers.
// The fingerprint comes from the persistent scope, the session id from the
// tab-lifetime scope; both creations are idempotent.
func ResolveIdentity(persistent, tab KeyValueStore) Identity {
	return Identity{
		FingerprintID: persistent.GetOrSet(FingerprintKey, func() string {
			return newClientID("fp")
		}),
		SessionID: tab.GetOrSet(SessionKey, func() string {
			return newClientID("session")
		}),
	}
}

func newClientID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}
