package models

import (
	"context"
	"maps"
)

type Book struct {
	ISBN    string            `json:"isbn" yaml:"isbn"`
	Author  string            `json:"author" yaml:"author"`
	Title   string            `json:"title" yaml:"title"`
	Reviews map[string]string `json:"reviews" yaml:"reviews"`
}

// Clone returns a copy that shares no review map with the receiver.
func (b *Book) Clone() *Book {
	reviews := maps.Clone(b.Reviews)
	if reviews == nil {
		reviews = map[string]string{}
	}
	return &Book{
		ISBN:    b.ISBN,
		Author:  b.Author,
		Title:   b.Title,
		Reviews: reviews,
	}
}

// BookRepository is the catalog store. Membership is fixed once the
// repository is built; only review maps change, and only through
// UpdateReviews, which runs update while holding the book's lock.
// update must not block or call out to other services.
type BookRepository interface {
	GetBook(ctx context.Context, isbn string) (*Book, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	UpdateReviews(ctx context.Context, isbn string, update func(reviews map[string]string) error) error
}
