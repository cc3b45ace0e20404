package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sgatu/bookstore-back/errors"
	handlers_messages "github.com/sgatu/bookstore-back/handlers/messages"
	"github.com/sgatu/bookstore-back/middleware"
	"github.com/sgatu/bookstore-back/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthHandler struct {
	users          *services.UserDirectory
	authenticator  *services.SessionAuthenticator
	sessionManager *middleware.SessionManager
}

func bindCredentials(c *gin.Context) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_messages.PushError(c, errors.NewValidationError("INVALID_REQUEST", "Username and password must be strings"))
		return nil, false
	}
	if req.Username == "" || req.Password == "" {
		handlers_messages.PushError(c, errors.NewValidationError("MISSING_FIELDS", "Username and password are required"))
		return nil, false
	}
	return &req, true
}

func (ah *AuthHandler) register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}
	if _, err := ah.users.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	handlers_messages.PushMessage(c, http.StatusCreated, "User successfully registered. Now you can login")
}

func (ah *AuthHandler) login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}
	identity, err := ah.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	session, err := ah.authenticator.Issue(c.Request.Context(), identity)
	if err != nil {
		handlers_messages.PushError(c, err)
		return
	}
	ah.sessionManager.SetSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login success!",
		"expiresAt": session.ExpiresAt,
	})
}
