package services

import (
	"context"

	"github.com/sgatu/bookstore-back/models"
)

// CatalogService serves read-only catalog queries. Author and title matches
// are exact.
type CatalogService struct {
	books models.BookRepository
}

func NewCatalogService(books models.BookRepository) *CatalogService {
	return &CatalogService{books: books}
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]*models.Book, error) {
	return s.books.ListBooks(ctx)
}

func (s *CatalogService) BookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return s.books.GetBook(ctx, isbn)
}

func (s *CatalogService) BooksByAuthor(ctx context.Context, author string) ([]*models.Book, error) {
	return s.filter(ctx, func(b *models.Book) bool { return b.Author == author })
}

func (s *CatalogService) BooksByTitle(ctx context.Context, title string) ([]*models.Book, error) {
	return s.filter(ctx, func(b *models.Book) bool { return b.Title == title })
}

func (s *CatalogService) filter(ctx context.Context, match func(*models.Book) bool) ([]*models.Book, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Book, 0)
	for _, b := range books {
		if match(b) {
			result = append(result, b)
		}
	}
	return result, nil
}
