package session

import (
	"fmt"
	"sync"

	"hugbridge/pkg/registry"
)

// State holds the process-wide active model selection. It is shared by every
// chat: the dispatcher's callback path writes it, the worker reads it at
// dequeue time, so access is mutex-guarded.
type State struct {
	registry *registry.Registry

	mu     sync.RWMutex
	active string
}

// New validates the default key against the registry and returns the state.
func New(reg *registry.Registry, defaultKey string) (*State, error) {
	if defaultKey == "" {
		keys := reg.Keys()
		defaultKey = keys[0]
	}

	if _, err := reg.Lookup(defaultKey); err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}

	return &State{registry: reg, active: defaultKey}, nil
}

// Active returns the currently selected model key. Always a valid key.
func (s *State) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// SetActive atomically replaces the active key. Keys absent from the registry
// are rejected and leave the selection unchanged.
func (s *State) SetActive(key string) error {
	if _, err := s.registry.Lookup(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.active = key
	s.mu.Unlock()

	return nil
}
