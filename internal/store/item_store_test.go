package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stocktake/internal/db"
	"github.com/vbonduro/stocktake/internal/domain"
)

type itemStore interface {
	Create(ctx context.Context, name, description, photoKey string) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context) ([]*domain.Item, error)
	Update(ctx context.Context, id int64, name, description string) error
	SetPhoto(ctx context.Context, id int64, photoKey string) error
	Delete(ctx context.Context, id int64) error
}

var (
	_ itemStore = (*ItemStore)(nil)
	_ itemStore = (*MemoryItemStore)(nil)
)

func openTestDB(t *testing.T) *ItemStore {
	t.Helper()
	d, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return NewItemStore(d)
}

// forEachBackend runs fn against both catalog implementations.
func forEachBackend(t *testing.T, fn func(t *testing.T, s itemStore)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestDB(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryItemStore()) })
}

func TestItemStoreCreate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		ctx := context.Background()

		item, err := s.Create(ctx, "Drill", "cordless", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), item.ID)
		assert.Equal(t, "Drill", item.Name)
		assert.Equal(t, "cordless", item.Description)
		assert.False(t, item.HasPhoto())
		assert.False(t, item.CreatedAt.IsZero())

		item, err = s.Create(ctx, "Saw", "", "1-abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, int64(2), item.ID)
		assert.Equal(t, "1-abc.jpg", item.PhotoKey)
	})
}

func TestItemStoreGetByIDMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		item, err := s.GetByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestItemStoreListInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		ctx := context.Background()

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		for _, name := range []string{"Saw", "Drill", "Anvil"} {
			_, err := s.Create(ctx, name, "", "")
			require.NoError(t, err)
		}

		list, err = s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Saw", list[0].Name)
		assert.Equal(t, "Drill", list[1].Name)
		assert.Equal(t, "Anvil", list[2].Name)
	})
}

func TestItemStoreUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		ctx := context.Background()

		item, err := s.Create(ctx, "Drill", "old", "")
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, item.ID, "", "  new  "))

		got, err := s.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "", got.Name)
		assert.Equal(t, "  new  ", got.Description)

		assert.ErrorIs(t, s.Update(ctx, 999, "x", "y"), ErrNotFound)
	})
}

func TestItemStoreSetPhoto(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		ctx := context.Background()

		item, err := s.Create(ctx, "Drill", "", "")
		require.NoError(t, err)

		require.NoError(t, s.SetPhoto(ctx, item.ID, "1-new.png"))
		got, err := s.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "1-new.png", got.PhotoKey)

		assert.ErrorIs(t, s.SetPhoto(ctx, 999, "x.png"), ErrNotFound)
	})
}

func TestItemStoreDeleteNeverReusesIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s itemStore) {
		ctx := context.Background()

		a, err := s.Create(ctx, "a", "", "")
		require.NoError(t, err)
		b, err := s.Create(ctx, "b", "", "")
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, b.ID))
		assert.ErrorIs(t, s.Delete(ctx, b.ID), ErrNotFound)

		c, err := s.Create(ctx, "c", "", "")
		require.NoError(t, err)
		assert.Greater(t, c.ID, b.ID)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, a.ID, list[0].ID)
		assert.Equal(t, c.ID, list[1].ID)
	})
}

func TestMemoryItemStoreReturnsCopies(t *testing.T) {
	s := NewMemoryItemStore()
	ctx := context.Background()

	item, err := s.Create(ctx, "Drill", "", "")
	require.NoError(t, err)
	item.Name = "mutated"

	got, err := s.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Name)

	got.Description = "mutated"
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", list[0].Description)
}

func TestMemoryItemStoreConcurrentCreate(t *testing.T) {
	s := NewMemoryItemStore()
	ctx := context.Background()

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := s.Create(ctx, "x", "", "")
			if err == nil {
				ids <- item.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
