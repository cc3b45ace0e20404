package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sgatu/bookstore-back/errors"
	handlers_messages "github.com/sgatu/bookstore-back/handlers/messages"
	"github.com/sgatu/bookstore-back/models"
	"github.com/sgatu/bookstore-back/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

// listBooks returns the whole catalog keyed by isbn.
func (ch *CatalogHandler) listBooks(c *gin.Context) {
	books, err := ch.catalog.ListBooks(c.Request.Context())
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	byIsbn := make(map[string]*models.Book, len(books))
	for _, b := range books {
		byIsbn[b.ISBN] = b
	}
	c.JSON(http.StatusOK, byIsbn)
}

func (ch *CatalogHandler) bookByIsbn(c *gin.Context) {
	book, err := ch.catalog.BookByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (ch *CatalogHandler) booksByAuthor(c *gin.Context) {
	author := c.Param("author")
	books, err := ch.catalog.BooksByAuthor(c.Request.Context(), author)
	ch.pushBooks(c, books, err, fmt.Sprintf("No books were found for author '%s'.", author))
}

func (ch *CatalogHandler) booksByTitle(c *gin.Context) {
	title := c.Param("title")
	books, err := ch.catalog.BooksByTitle(c.Request.Context(), title)
	ch.pushBooks(c, books, err, fmt.Sprintf("No books were found for title '%s'.", title))
}

func (ch *CatalogHandler) pushBooks(c *gin.Context, books []*models.Book, err error, notFoundMessage string) {
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	if len(books) == 0 {
		handlers_messages.PushError(c, &errors.NotFoundError{ErrCode: "NO_MATCH", Message: notFoundMessage})
		return
	}
	c.JSON(http.StatusOK, books)
}
