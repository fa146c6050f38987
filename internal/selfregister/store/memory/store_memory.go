package memory

import (
	"context"
	"sync"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/platform/sentinel"
)

// InMemoryStore keeps pending registrations in process memory.
type InMemoryStore struct {
	mu         sync.RWMutex
	byIdentity map[string]*models.PendingRegistration
	byRecovery map[string]*models.PendingRegistration
}

func New() *InMemoryStore {
	return &InMemoryStore{
		byIdentity: make(map[string]*models.PendingRegistration),
		byRecovery: make(map[string]*models.PendingRegistration),
	}
}

// CreateIfAbsent stores reg unless the identity is already pending.
func (s *InMemoryStore) CreateIfAbsent(_ context.Context, reg *models.PendingRegistration) error {
	key := reg.Identity.QualifiedUsername()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byIdentity[key]; exists {
		return sentinel.ErrConflict
	}
	stored := clone(reg)
	s.byIdentity[key] = stored
	s.byRecovery[reg.RecoveryID] = stored
	return nil
}

func (s *InMemoryStore) FindByRecoveryID(_ context.Context, recoveryID string) (*models.PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byRecovery[recoveryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(reg), nil
}

// Delete removes reg. Deleting a missing registration is not an error.
func (s *InMemoryStore) Delete(_ context.Context, reg *models.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byIdentity, reg.Identity.QualifiedUsername())
	delete(s.byRecovery, reg.RecoveryID)
	return nil
}

func clone(reg *models.PendingRegistration) *models.PendingRegistration {
	c := *reg
	c.Properties = append([]models.Property(nil), reg.Properties...)
	return &c
}
