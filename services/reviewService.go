package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/sgatu/bookstore-back/errors"
	"github.com/sgatu/bookstore-back/metrics"
	"github.com/sgatu/bookstore-back/models"
)

// ReviewService applies review mutations to the catalog. Callers must have
// resolved the username from a valid session; no re-authentication happens
// here.
//
// Each (book, username) cell is either absent or holds one review. Upsert
// moves it to present (replacing any text); Remove moves a present cell to
// absent and reports apperrors.ErrReviewNotFound for an absent one.
type ReviewService struct {
	books  models.BookRepository
	feed   *ReviewFeed
	logger *slog.Logger
}

func NewReviewService(books models.BookRepository, feed *ReviewFeed, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		books:  books,
		feed:   feed,
		logger: logger,
	}
}

// Upsert sets the user's review for isbn, last write wins.
func (s *ReviewService) Upsert(ctx context.Context, isbn string, username string, text string) error {
	if username == "" {
		return apperrors.ErrUnauthenticated
	}
	created := false
	err := s.books.UpdateReviews(ctx, isbn, func(reviews map[string]string) error {
		_, existed := reviews[username]
		created = !existed
		reviews[username] = text
		s.publish(&ReviewEvent{Type: ReviewEventUpsert, ISBN: isbn, Username: username, Review: text})
		return nil
	})
	if err != nil {
		s.record(ReviewEventUpsert, err)
		return err
	}
	s.record(ReviewEventUpsert, nil)
	s.logger.Info("review saved", "isbn", isbn, "username", username, "created", created)
	return nil
}

// Remove deletes the user's review for isbn.
func (s *ReviewService) Remove(ctx context.Context, isbn string, username string) error {
	if username == "" {
		return apperrors.ErrUnauthenticated
	}
	err := s.books.UpdateReviews(ctx, isbn, func(reviews map[string]string) error {
		if _, ok := reviews[username]; !ok {
			return apperrors.ErrReviewNotFound
		}
		delete(reviews, username)
		s.publish(&ReviewEvent{Type: ReviewEventRemove, ISBN: isbn, Username: username})
		return nil
	})
	if err != nil {
		s.record(ReviewEventRemove, err)
		return err
	}
	s.record(ReviewEventRemove, nil)
	s.logger.Info("review removed", "isbn", isbn, "username", username)
	return nil
}

// Reviews returns a snapshot of the review map for isbn.
func (s *ReviewService) Reviews(ctx context.Context, isbn string) (map[string]string, error) {
	book, err := s.books.GetBook(ctx, isbn)
	if err != nil {
		return nil, err
	}
	return book.Reviews, nil
}

// publish runs under the book lock so observers see changes in commit order.
// ReviewFeed.Publish never blocks.
func (s *ReviewService) publish(event *ReviewEvent) {
	if s.feed == nil {
		return
	}
	event.At = time.Now().UTC()
	s.feed.Publish(event)
}

func (s *ReviewService) record(operation string, err error) {
	result := metrics.ResultOK
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			result = metrics.ResultRejected
		} else {
			result = metrics.ResultError
		}
	}
	metrics.ReviewMutations.WithLabelValues(operation, result).Inc()
}
