package auth

import (
	"context"
	"sync"
	"time"
)

type MemProfileStore struct {
	mu sync.RWMutex
	m  map[string]Profile
}

func NewMemProfileStore() *MemProfileStore {
	return &MemProfileStore{m: make(map[string]Profile)}
}

func (s *MemProfileStore) Ping(context.Context) error { return nil }

func (s *MemProfileStore) Get(_ context.Context, uid string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[uid]
	return p, ok, nil
}

func (s *MemProfileStore) Merge(_ context.Context, uid string, patch ProfilePatch, now time.Time) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[uid]
	if !ok {
		p = Profile{UID: uid, CreatedAt: now}
	}
	patch.applyTo(&p)
	p.UpdatedAt = now

	s.m[uid] = p
	return p, nil
}
