package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-lms-api/internal/domain"
)

// OTPStore keeps pending OTPs in process memory, for single-instance
// deployments and tests. Records are never swept; expired entries are
// removed when a verify observes them.
type OTPStore struct {
	mu      sync.Mutex
	records map[string]domain.OTPRecord
}

func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[string]domain.OTPRecord)}
}

func (s *OTPStore) Get(_ context.Context, email string) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		return nil, fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	return &rec, nil
}

// Set stores rec, replacing any earlier record for the same email.
func (s *OTPStore) Set(_ context.Context, rec *domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Email] = *rec
	return nil
}

func (s *OTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

// Len reports how many records are held, expired ones included.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
