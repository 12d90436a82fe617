// Package access tracks which users currently hold manager privilege.
package access

import "sync"

// Service is a process-wide manager set. Privilege is granted by key
// comparison during login and lasts until explicit logout or restart; it
// is never persisted. The service is passed explicitly to every component
// that gates on it, so tests can pre-seed privilege.
type Service struct {
	mu       sync.RWMutex
	managers map[int64]struct{}
}

// NewService returns an empty manager set.
func NewService() *Service {
	return &Service{managers: make(map[int64]struct{})}
}

// IsManager reports whether the user holds manager privilege.
func (s *Service) IsManager(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.managers[userID]
	return ok
}

// Grant adds the user to the manager set.
func (s *Service) Grant(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.managers[userID] = struct{}{}
}

// Revoke removes the user from the manager set. It reports whether the
// user previously held privilege.
func (s *Service) Revoke(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.managers[userID]
	delete(s.managers, userID)
	return ok
}

// Count returns the current number of managers. Used in diagnostics.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.managers)
}
