package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/sgatu/bookstore-back/errors"
	"github.com/sgatu/bookstore-back/models"
)

type bookEntry struct {
	mu   sync.Mutex
	book *models.Book
}

// MemoryBookRepository keeps the catalog for the process lifetime. The isbn
// index is built once and never written again, so lookups need no lock;
// each book's review map is guarded by its own mutex.
type MemoryBookRepository struct {
	books map[string]*bookEntry
	order []string
}

func NewMemoryBookRepository(books []*models.Book) (*MemoryBookRepository, error) {
	repo := &MemoryBookRepository{
		books: make(map[string]*bookEntry, len(books)),
		order: make([]string, 0, len(books)),
	}
	for _, b := range books {
		if b == nil || b.ISBN == "" {
			return nil, fmt.Errorf("catalog entry without isbn")
		}
		if _, ok := repo.books[b.ISBN]; ok {
			return nil, fmt.Errorf("duplicate isbn %q in catalog", b.ISBN)
		}
		repo.books[b.ISBN] = &bookEntry{book: b.Clone()}
		repo.order = append(repo.order, b.ISBN)
	}
	return repo, nil
}

func (r *MemoryBookRepository) GetBook(ctx context.Context, isbn string) (*models.Book, error) {
	entry, ok := r.books[isbn]
	if !ok {
		return nil, errors.ErrBookNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.book.Clone(), nil
}

func (r *MemoryBookRepository) ListBooks(ctx context.Context) ([]*models.Book, error) {
	result := make([]*models.Book, 0, len(r.order))
	for _, isbn := range r.order {
		entry := r.books[isbn]
		entry.mu.Lock()
		result = append(result, entry.book.Clone())
		entry.mu.Unlock()
	}
	return result, nil
}

// UpdateReviews runs update against the live review map of the book while
// holding that book's lock. Updates to different books never contend.
func (r *MemoryBookRepository) UpdateReviews(ctx context.Context, isbn string, update func(reviews map[string]string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, ok := r.books[isbn]
	if !ok {
		return errors.ErrBookNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.book.Reviews == nil {
		entry.book.Reviews = map[string]string{}
	}
	return update(entry.book.Reviews)
}
