package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/sgatu/bookstore-back/errors"
	handlers_messages "github.com/sgatu/bookstore-back/handlers/messages"
	"github.com/sgatu/bookstore-back/middleware"
	"github.com/sgatu/bookstore-back/services"
)

const (
	watchBufferSize   = 16
	watchPingInterval = 30 * time.Second
)

type ReviewHandler struct {
	reviews *services.ReviewService
	feed    *services.ReviewFeed
	logger  *slog.Logger
}

func (rh *ReviewHandler) getReviews(c *gin.Context) {
	reviews, err := rh.reviews.Reviews(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (rh *ReviewHandler) putReview(c *gin.Context) {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	isbn := c.Param("isbn")
	review, ok := c.GetQuery("review")
	if !ok {
		handlers_messages.PushError(c, errors.NewValidationError("MISSING_REVIEW", "Query parameter 'review' is required"))
		return
	}
	if err := rh.reviews.Upsert(c.Request.Context(), isbn, session.Username, review); err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	handlers_messages.PushMessage(c, http.StatusOK, "Review added/updated successfully")
}

func (rh *ReviewHandler) deleteReview(c *gin.Context) {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	isbn := c.Param("isbn")
	if err := rh.reviews.Remove(c.Request.Context(), isbn, session.Username); err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	handlers_messages.PushMessage(c, http.StatusOK,
		fmt.Sprintf("Review for ISBN %s deleted successfully by user %s", isbn, session.Username))
}

// watchReviews upgrades to a websocket that first carries the current
// reviews of the book and then one message per change.
func (rh *ReviewHandler) watchReviews(c *gin.Context) {
	isbn := c.Param("isbn")
	// Observe before taking the snapshot: a change landing in between shows
	// up in the stream, and replaying it over the snapshot is harmless.
	observeCh := make(chan *services.ReviewEvent, watchBufferSize)
	if err := rh.feed.AddObserver(isbn, observeCh); err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	reviews, err := rh.reviews.Reviews(c.Request.Context(), isbn)
	if err != nil {
		rh.feed.RemoveObserver(isbn, observeCh)
		handlers_messages.PushError(c, err)
		return
	}
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		rh.feed.RemoveObserver(isbn, observeCh)
		rh.logger.Warn("websocket upgrade failed", "isbn", isbn, "error", err)
		return
	}
	go rh.streamReviews(conn, isbn, reviews, observeCh)
}

func (rh *ReviewHandler) streamReviews(conn net.Conn, isbn string, reviews map[string]string, observeCh chan *services.ReviewEvent) {
	defer conn.Close()
	defer rh.feed.RemoveObserver(isbn, observeCh)

	initMessage, err := json.Marshal(struct {
		Type    string            `json:"type"`
		ISBN    string            `json:"isbn"`
		Reviews map[string]string `json:"reviews"`
	}{Type: "init", ISBN: isbn, Reviews: reviews})
	if err != nil {
		return
	}
	if err := wsutil.WriteServerMessage(conn, ws.OpText, initMessage); err != nil {
		return
	}

	// Client frames are drained and discarded; a close frame or read error
	// ends the stream.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			header, err := ws.ReadHeader(conn)
			if err != nil {
				return
			}
			if _, err := io.CopyN(io.Discard, conn, header.Length); err != nil {
				return
			}
			if header.OpCode == ws.OpClose {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if _, err := conn.Write(ws.CompiledPing); err != nil {
				return
			}
		case event := <-observeCh:
			outputMessage, err := json.Marshal(event)
			if err != nil {
				rh.logger.Error("could not serialize review event", "error", err)
				return
			}
			if err := wsutil.WriteServerMessage(conn, ws.OpText, outputMessage); err != nil {
				return
			}
		}
	}
}
