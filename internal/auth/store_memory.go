package auth

import (
	"context"
	"sync"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Account
}

func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Account)}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Create(_ context.Context, email, password, id string) (Account, error) {
	email = normalizeEmail(email)

	hash, err := hashPassword(password)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return Account{}, ErrEmailExists
	}

	a := Account{ID: id, Email: email, Hash: hash}
	s.byEmail[email] = a
	return a, nil
}

func (s *MemStore) Verify(_ context.Context, email, password string) (Account, error) {
	s.mu.RLock()
	a, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if err := checkPassword(a, password); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *MemStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[normalizeEmail(email)]
	return ok, nil
}
