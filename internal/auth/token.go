package auth

import (
	"context"
	"sync"
)

// TokenManager hands out the bearer key attached to outgoing calls.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// KeyStore holds the current API key with concurrent access safety.
type KeyStore struct {
	mutex sync.RWMutex
	key   string
}

// NewKeyStore creates an empty key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{}
}

// Get returns the stored key.
func (s *KeyStore) Get() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.key
}

// Set replaces the stored key.
func (s *KeyStore) Set(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.key = key
}

// Clear empties the store.
func (s *KeyStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.key = ""
}

// StaticTokenManager serves one fixed API key. Grist keys are
// long-lived bearer secrets, so there is nothing to refresh.
type StaticTokenManager struct {
	store *KeyStore
}

// NewStaticTokenManager creates a manager serving the given key.
func NewStaticTokenManager(key string) *StaticTokenManager {
	store := NewKeyStore()
	store.Set(key)

	return &StaticTokenManager{store: store}
}

// GetToken returns the stored key.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	return m.store.Get(), nil
}

// SetToken replaces the stored key.
func (m *StaticTokenManager) SetToken(key string) {
	m.store.Set(key)
}
