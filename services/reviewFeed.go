package services

import (
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/sgatu/bookstore-back/errors"
)

const (
	ReviewEventUpsert = "upsert"
	ReviewEventRemove = "remove"
)

type ReviewEvent struct {
	Type     string    `json:"type"`
	ISBN     string    `json:"isbn"`
	Username string    `json:"username"`
	Review   string    `json:"review,omitempty"`
	At       time.Time `json:"at"`
}

// ReviewFeed fans review changes out to observers of a book. Publishing
// never blocks: an observer whose channel is full misses the event.
type ReviewFeed struct {
	observers      map[string][]chan *ReviewEvent
	observersMutex sync.Mutex
	maxPerBook     int
	logger         *slog.Logger
}

func NewReviewFeed(logger *slog.Logger) *ReviewFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewFeed{
		observers: make(map[string][]chan *ReviewEvent),
		logger:    logger,
	}
}

// SetObserverLimit caps the observers a single book may have. Zero means no
// limit.
func (f *ReviewFeed) SetObserverLimit(maxPerBook int) {
	f.observersMutex.Lock()
	defer f.observersMutex.Unlock()
	f.maxPerBook = maxPerBook
}

// AddObserver registers observerCh for isbn, or returns
// apperrors.ErrTooManyWatchers when the book is at its limit.
func (f *ReviewFeed) AddObserver(isbn string, observerCh chan *ReviewEvent) error {
	f.observersMutex.Lock()
	defer f.observersMutex.Unlock()
	if f.maxPerBook > 0 && len(f.observers[isbn]) >= f.maxPerBook {
		return apperrors.ErrTooManyWatchers
	}
	f.observers[isbn] = append(f.observers[isbn], observerCh)
	return nil
}

func (f *ReviewFeed) RemoveObserver(isbn string, observerCh chan *ReviewEvent) {
	f.observersMutex.Lock()
	defer f.observersMutex.Unlock()
	observers := f.observers[isbn]
	for i, observer := range observers {
		if observer == observerCh {
			observers = append(observers[:i], observers[i+1:]...)
			break
		}
	}
	if len(observers) == 0 {
		delete(f.observers, isbn)
		return
	}
	f.observers[isbn] = observers
}

func (f *ReviewFeed) ObserverCount(isbn string) int {
	f.observersMutex.Lock()
	defer f.observersMutex.Unlock()
	return len(f.observers[isbn])
}

func (f *ReviewFeed) Publish(event *ReviewEvent) {
	f.observersMutex.Lock()
	defer f.observersMutex.Unlock()
	for _, observer := range f.observers[event.ISBN] {
		select {
		case observer <- event:
		default:
			f.logger.Debug("review observer lagging, event dropped", "isbn", event.ISBN)
		}
	}
}
