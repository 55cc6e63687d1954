// Package lists keeps a device's shortlist and favorites: two ordered sets of
// product ids persisted on every change.
package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

type Name string

const (
	Shortlist Name = "shortlist"
	Favorites Name = "favorites"
)

var ErrUnknownList = errors.New("unknown list")

var names = []Name{Shortlist, Favorites}

var storageKeys = map[Name]string{
	Shortlist: "fashionhub_shortlist",
	Favorites: "fashionhub_favorites",
}

// ParseName accepts "shortlist" or "favorites".
func ParseName(s string) (Name, error) {
	n := Name(s)
	if _, ok := storageKeys[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
	}
	return n, nil
}

type Stats struct {
	ShortlistCount int `json:"shortlist_count"`
	FavoritesCount int `json:"favorites_count"`
	TotalItems     int `json:"total_items"`
}

// Store holds both lists in memory and mirrors them to Storage. A mutation
// writes the resulting list first and only changes memory once the write
// succeeded.
type Store struct {
	storage   Storage
	namespace string
	log       *zap.Logger

	mu    sync.Mutex
	items map[Name][]string
}

type Option func(*Store)

// WithNamespace prefixes storage keys, e.g. with a device id.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		log:     zap.NewNop(),
		items:   map[Name][]string{Shortlist: {}, Favorites: {}},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) key(list Name) string {
	if s.namespace == "" {
		return storageKeys[list]
	}
	return s.namespace + ":" + storageKeys[list]
}

// Load replaces memory with what storage holds. Missing, unreadable or
// corrupt values load as empty lists.
func (s *Store) Load(ctx context.Context) {
	loaded := make(map[Name][]string, len(names))
	for _, n := range names {
		loaded[n] = s.read(ctx, n)
	}

	s.mu.Lock()
	s.items = loaded
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context, list Name) []string {
	key := s.key(list)

	b, err := s.storage.Get(ctx, key)
	if errors.Is(err, ErrNoValue) {
		return []string{}
	}
	if err != nil {
		s.log.Warn("list read failed", zap.String("key", key), zap.Error(err))
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		s.log.Warn("list value corrupt", zap.String("key", key), zap.Error(err))
		return []string{}
	}
	return dedupe(ids)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// commitLocked persists next for list and, on success, makes it current.
func (s *Store) commitLocked(ctx context.Context, list Name, next []string) error {
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.key(list), b); err != nil {
		return fmt.Errorf("persist %s: %w", list, err)
	}
	s.items[list] = next
	return nil
}

func (s *Store) current(list Name) ([]string, error) {
	cur, ok := s.items[list]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	return cur, nil
}

// Add inserts id at the end of list; present ids are left alone.
func (s *Store) Add(ctx context.Context, list Name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(list)
	if err != nil {
		return err
	}
	if slices.Contains(cur, id) {
		return nil
	}
	return s.commitLocked(ctx, list, append(slices.Clone(cur), id))
}

func (s *Store) Remove(ctx context.Context, list Name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(list)
	if err != nil {
		return err
	}
	i := slices.Index(cur, id)
	if i < 0 {
		return nil
	}
	return s.commitLocked(ctx, list, slices.Delete(slices.Clone(cur), i, i+1))
}

func (s *Store) Contains(list Name, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.items[list], id)
}

func (s *Store) Clear(ctx context.Context, list Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.current(list); err != nil {
		return err
	}
	return s.commitLocked(ctx, list, []string{})
}

// Toggle flips membership of id and returns whether it is now in the list.
func (s *Store) Toggle(ctx context.Context, list Name, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(list)
	if err != nil {
		return false, err
	}

	if i := slices.Index(cur, id); i >= 0 {
		if err := s.commitLocked(ctx, list, slices.Delete(slices.Clone(cur), i, i+1)); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.commitLocked(ctx, list, append(slices.Clone(cur), id)); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleMessage is the confirmation shown after a toggle.
func ToggleMessage(list Name, added bool) string {
	if added {
		return fmt.Sprintf("Added to %s", list)
	}
	return fmt.Sprintf("Removed from %s", list)
}

// BulkMessage is the confirmation shown after AddMany with n requested ids.
func BulkMessage(list Name, n int) string {
	return fmt.Sprintf("Added %d products to %s", n, list)
}

// AddMany appends the ids not already present, in order, with one write.
func (s *Store) AddMany(ctx context.Context, list Name, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.current(list)
	if err != nil {
		return err
	}

	next := slices.Clone(cur)
	for _, id := range ids {
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	if len(next) == len(cur) {
		return nil
	}
	return s.commitLocked(ctx, list, next)
}

// Items returns list's ids in insertion order.
func (s *Store) Items(list Name) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items[list])
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		ShortlistCount: len(s.items[Shortlist]),
		FavoritesCount: len(s.items[Favorites]),
	}
	st.TotalItems = st.ShortlistCount + st.FavoritesCount
	return st
}

// ListsContaining names the lists id is in, shortlist first.
func (s *Store) ListsContaining(id string) []Name {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Name, 0, len(names))
	for _, n := range names {
		if slices.Contains(s.items[n], id) {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) InAnyList(id string) bool {
	return len(s.ListsContaining(id)) > 0
}

// Reset empties both lists in memory and in storage. Every list is attempted
// even if one write fails.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, n := range names {
		if err := s.commitLocked(ctx, n, []string{}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
