package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sgatu/bookstore-back/errors"
	"github.com/sgatu/bookstore-back/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBookRepository(t *testing.T) *MemoryBookRepository {
	t.Helper()
	repo, err := NewMemoryBookRepository(DefaultCatalog())
	require.NoError(t, err)
	return repo
}

func TestNewMemoryBookRepository_RejectsDuplicates(t *testing.T) {
	_, err := NewMemoryBookRepository([]*models.Book{
		{ISBN: "001", Title: "a"},
		{ISBN: "001", Title: "b"},
	})
	require.Error(t, err)

	_, err = NewMemoryBookRepository([]*models.Book{{Title: "no isbn"}})
	require.Error(t, err)
}

func TestMemoryBookRepository_GetBook(t *testing.T) {
	repo := newTestBookRepository(t)
	ctx := context.Background()

	book, err := repo.GetBook(ctx, "001")
	require.NoError(t, err)
	assert.Equal(t, "Chinua Achebe", book.Author)
	assert.Empty(t, book.Reviews)

	_, err = repo.GetBook(ctx, "999")
	assert.ErrorIs(t, err, errors.ErrBookNotFound)
}

func TestMemoryBookRepository_SnapshotsAreIsolated(t *testing.T) {
	repo := newTestBookRepository(t)
	ctx := context.Background()

	book, err := repo.GetBook(ctx, "001")
	require.NoError(t, err)
	book.Reviews["mallory"] = "sneaky"

	again, err := repo.GetBook(ctx, "001")
	require.NoError(t, err)
	assert.NotContains(t, again.Reviews, "mallory")
}

func TestMemoryBookRepository_ListBooksKeepsCatalogOrder(t *testing.T) {
	repo := newTestBookRepository(t)
	books, err := repo.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 10)
	assert.Equal(t, "001", books[0].ISBN)
	assert.Equal(t, "010", books[9].ISBN)
}

func TestMemoryBookRepository_UpdateReviews(t *testing.T) {
	repo := newTestBookRepository(t)
	ctx := context.Background()

	err := repo.UpdateReviews(ctx, "002", func(reviews map[string]string) error {
		reviews["alice"] = "Great"
		return nil
	})
	require.NoError(t, err)

	book, err := repo.GetBook(ctx, "002")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "Great"}, book.Reviews)

	err = repo.UpdateReviews(ctx, "999", func(reviews map[string]string) error {
		t.Fatal("update must not run for an unknown book")
		return nil
	})
	assert.ErrorIs(t, err, errors.ErrBookNotFound)
}

func TestMemoryBookRepository_UpdateReviewsPropagatesError(t *testing.T) {
	repo := newTestBookRepository(t)
	err := repo.UpdateReviews(context.Background(), "003", func(reviews map[string]string) error {
		return errors.ErrReviewNotFound
	})
	assert.ErrorIs(t, err, errors.ErrReviewNotFound)
}

func TestMemoryBookRepository_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	repo := newTestBookRepository(t)
	ctx := context.Background()

	const writers = 64
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			isbn := fmt.Sprintf("%03d", i%2+1)
			err := repo.UpdateReviews(ctx, isbn, func(reviews map[string]string) error {
				reviews[fmt.Sprintf("user-%d", i)] = "text"
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	first, err := repo.GetBook(ctx, "001")
	require.NoError(t, err)
	second, err := repo.GetBook(ctx, "002")
	require.NoError(t, err)
	assert.Len(t, first.Reviews, writers/2)
	assert.Len(t, second.Reviews, writers/2)
}
