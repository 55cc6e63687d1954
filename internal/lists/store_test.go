package lists

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStorage fails writes while broken is set.
type flakyStorage struct {
	*MemStorage
	broken  bool
	readErr error
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.MemStorage.Set(ctx, key, value)
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.MemStorage.Get(ctx, key)
}

func stored(t *testing.T, s Storage, key string) string {
	t.Helper()
	b, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return string(b)
}

func TestAdd_PersistsAndSurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()

	s := NewStore(storage)
	s.Load(ctx)
	require.NoError(t, s.Add(ctx, Shortlist, "7"))
	require.NoError(t, s.Add(ctx, Shortlist, "7"))

	assert.Equal(t, `["7"]`, stored(t, storage, "fashionhub_shortlist"))

	reloaded := NewStore(storage)
	reloaded.Load(ctx)
	assert.True(t, reloaded.Contains(Shortlist, "7"))
	assert.Equal(t, []string{"7"}, reloaded.Items(Shortlist))
}

func TestRemove_Idempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()
	s := NewStore(storage)

	require.NoError(t, s.AddMany(ctx, Favorites, []string{"1", "2", "3"}))
	require.NoError(t, s.Remove(ctx, Favorites, "2"))
	require.NoError(t, s.Remove(ctx, Favorites, "2"))

	assert.Equal(t, []string{"1", "3"}, s.Items(Favorites))
	assert.Equal(t, `["1","3"]`, stored(t, storage, "fashionhub_favorites"))
}

func TestToggle_SelfInverse(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()
	s := NewStore(storage)
	require.NoError(t, s.Add(ctx, Shortlist, "1"))

	added, err := s.Toggle(ctx, Shortlist, "9")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Added to shortlist", ToggleMessage(Shortlist, added))

	added, err = s.Toggle(ctx, Shortlist, "9")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Removed from shortlist", ToggleMessage(Shortlist, added))

	assert.Equal(t, []string{"1"}, s.Items(Shortlist))
	assert.Equal(t, `["1"]`, stored(t, storage, "fashionhub_shortlist"))
}

func TestAddMany_SkipsPresentKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemStorage())
	require.NoError(t, s.Add(ctx, Shortlist, "2"))

	require.NoError(t, s.AddMany(ctx, Shortlist, []string{"1", "2", "3", "1"}))
	assert.Equal(t, []string{"2", "1", "3"}, s.Items(Shortlist))
	assert.Equal(t, "Added 4 products to shortlist", BulkMessage(Shortlist, 4))
}

func TestStatsAndMembership(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemStorage())
	require.NoError(t, s.AddMany(ctx, Shortlist, []string{"1", "2"}))
	require.NoError(t, s.Add(ctx, Favorites, "2"))

	assert.Equal(t, Stats{ShortlistCount: 2, FavoritesCount: 1, TotalItems: 3}, s.Stats())
	assert.Equal(t, []Name{Shortlist, Favorites}, s.ListsContaining("2"))
	assert.Equal(t, []Name{Shortlist}, s.ListsContaining("1"))
	assert.True(t, s.InAnyList("1"))
	assert.False(t, s.InAnyList("5"))
}

func TestClearAndReset(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()
	s := NewStore(storage)
	require.NoError(t, s.AddMany(ctx, Shortlist, []string{"3", "5"}))
	require.NoError(t, s.Add(ctx, Favorites, "8"))

	require.NoError(t, s.Clear(ctx, Favorites))
	assert.Empty(t, s.Items(Favorites))
	assert.Equal(t, `[]`, stored(t, storage, "fashionhub_favorites"))

	require.NoError(t, s.Reset(ctx))
	assert.Empty(t, s.Items(Shortlist))
	assert.Equal(t, `[]`, stored(t, storage, "fashionhub_shortlist"))
}

func TestFailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{MemStorage: NewMemStorage()}
	s := NewStore(storage)
	require.NoError(t, s.Add(ctx, Shortlist, "1"))

	storage.broken = true
	assert.Error(t, s.Add(ctx, Shortlist, "2"))

	in, err := s.Toggle(ctx, Shortlist, "1")
	assert.Error(t, err)
	assert.True(t, in)

	assert.Equal(t, []string{"1"}, s.Items(Shortlist))
}

func TestLoad_CorruptOrUnreadableIsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{MemStorage: NewMemStorage()}
	require.NoError(t, storage.MemStorage.Set(ctx, "fashionhub_shortlist", []byte(`{not json`)))
	require.NoError(t, storage.MemStorage.Set(ctx, "fashionhub_favorites", []byte(`["4","4","6"]`)))

	s := NewStore(storage)
	s.Load(ctx)
	assert.Empty(t, s.Items(Shortlist))
	assert.Equal(t, []string{"4", "6"}, s.Items(Favorites))

	storage.readErr = errors.New("io error")
	s.Load(ctx)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestUnknownList(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemStorage())

	assert.ErrorIs(t, s.Add(ctx, Name("wishlist"), "1"), ErrUnknownList)
	_, err := s.Toggle(ctx, Name("wishlist"), "1")
	assert.ErrorIs(t, err, ErrUnknownList)

	_, err = ParseName("wishlist")
	assert.ErrorIs(t, err, ErrUnknownList)
	n, err := ParseName("favorites")
	require.NoError(t, err)
	assert.Equal(t, Favorites, n)
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()

	a := NewStore(storage, WithNamespace("dev-a"))
	b := NewStore(storage, WithNamespace("dev-b"))
	require.NoError(t, a.Add(ctx, Shortlist, "1"))

	b.Load(ctx)
	assert.Empty(t, b.Items(Shortlist))
	assert.Equal(t, `["1"]`, stored(t, storage, "dev-a:fashionhub_shortlist"))
}

func TestRandomOpsMatchModel(t *testing.T) {
	ctx := context.Background()
	storage := NewMemStorage()
	s := NewStore(storage, WithNamespace("dev1"))
	s.Load(ctx)

	rng := rand.New(rand.NewPCG(7, 19))
	model := map[Name][]string{Shortlist: {}, Favorites: {}}

	persisted := func(list Name) []string {
		b, err := storage.Get(ctx, "dev1:"+storageKeys[list])
		if errors.Is(err, ErrNoValue) {
			return []string{}
		}
		require.NoError(t, err)
		var ids []string
		require.NoError(t, json.Unmarshal(b, &ids))
		return ids
	}

	for step := range 500 {
		list := names[rng.IntN(len(names))]
		id := strconv.Itoa(rng.IntN(8) + 1)
		cur := model[list]
		i := slices.Index(cur, id)

		switch rng.IntN(3) {
		case 0:
			require.NoError(t, s.Add(ctx, list, id))
			if i < 0 {
				model[list] = append(slices.Clone(cur), id)
			}
		case 1:
			require.NoError(t, s.Remove(ctx, list, id))
			if i >= 0 {
				model[list] = slices.Delete(slices.Clone(cur), i, i+1)
			}
		default:
			in, err := s.Toggle(ctx, list, id)
			require.NoError(t, err)
			assert.Equal(t, i < 0, in, "step %d toggle %s %s", step, list, id)
			if i < 0 {
				model[list] = append(slices.Clone(cur), id)
			} else {
				model[list] = slices.Delete(slices.Clone(cur), i, i+1)
			}
		}

		for _, n := range names {
			require.Equal(t, model[n], persisted(n), "step %d: stored %s", step, n)
			require.Equal(t, model[n], s.Items(n), "step %d: memory %s", step, n)
		}
	}
}
