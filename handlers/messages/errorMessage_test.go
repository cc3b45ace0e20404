package handlers_messages

import (
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/sgatu/bookstore-back/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.NewValidationError("X", "bad"), http.StatusBadRequest},
		{"authentication", apperrors.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"book not found", apperrors.ErrBookNotFound, http.StatusNotFound},
		{"review not found", apperrors.ErrReviewNotFound, http.StatusNotFound},
		{"conflict", apperrors.ErrUserAlreadyExists, http.StatusConflict},
		{"wrapped", fmt.Errorf("lookup: %w", apperrors.ErrBookNotFound), http.StatusNotFound},
		{"internal", fmt.Errorf("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
