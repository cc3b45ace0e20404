package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/sgatu/bookstore-back/infrastructure/repositories"
	"github.com/sgatu/bookstore-back/middleware"
	"github.com/sgatu/bookstore-back/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, _ := setupTestRouterWithFeed(t)
	return router
}

func setupTestRouterWithFeed(t *testing.T) (*gin.Engine, *services.ReviewFeed) {
	t.Helper()
	books, err := repositories.NewMemoryBookRepository(repositories.DefaultCatalog())
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	authenticator, err := services.NewSessionAuthenticator(repositories.NewMemorySessionRepository(), []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	feed := services.NewReviewFeed(nil)

	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, Dependencies{
		Users:          services.NewUserDirectory(repositories.NewMemoryUserRepository(), node, bcrypt.MinCost, nil),
		Authenticator:  authenticator,
		SessionManager: middleware.NewSessionManager(authenticator, false),
		Catalog:        services.NewCatalogService(books),
		Reviews:        services.NewReviewService(books, feed, nil),
		Feed:           feed,
	})
	return router, feed
}

func doRequest(router http.Handler, method string, target string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func registerAndLogin(t *testing.T, router http.Handler, username string, password string) *http.Cookie {
	t.Helper()
	creds := `{"username":"` + username + `","password":"` + password + `"}`
	w := doRequest(router, http.MethodPost, "/register", creds, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doRequest(router, http.MethodPost, "/login", creds, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func decodeReviews(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var reviews map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	return reviews
}

func TestRouter_ReviewLifecycle(t *testing.T) {
	router := setupTestRouter(t)
	cookie := registerAndLogin(t, router, "alice", "pw1")
	assert.True(t, cookie.HttpOnly)

	w := doRequest(router, http.MethodPut, "/auth/review/001?review=Great", "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, http.MethodGet, "/review/001", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"alice": "Great"}, decodeReviews(t, w))

	w = doRequest(router, http.MethodDelete, "/auth/review/001", "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, http.MethodGet, "/review/001", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{}, decodeReviews(t, w))

	w = doRequest(router, http.MethodDelete, "/auth/review/001", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ReviewNegative(t *testing.T) {
	router := setupTestRouter(t)
	cookie := registerAndLogin(t, router, "alice", "pw1")

	w := doRequest(router, http.MethodPut, "/auth/review/999?review=X", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodPut, "/auth/review/999?review=X", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodDelete, "/auth/review/001", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPut, "/auth/review/001?review=X", "", &http.Cookie{Name: middleware.SessionCookieName, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPut, "/auth/review/001", "", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/review/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BearerHandle(t *testing.T) {
	router := setupTestRouter(t)
	cookie := registerAndLogin(t, router, "bob", "pw")

	req := httptest.NewRequest(http.MethodPut, "/auth/review/002?review=Nice", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, http.MethodGet, "/review/002", "", nil)
	assert.Equal(t, map[string]string{"bob": "Nice"}, decodeReviews(t, w))
}

func TestRouter_RegisterAndLoginErrors(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"register missing password", "/register", `{"username":"alice"}`, http.StatusBadRequest},
		{"register non-string", "/register", `{"username":1,"password":"x"}`, http.StatusBadRequest},
		{"register malformed", "/register", `{`, http.StatusBadRequest},
		{"register ok", "/register", `{"username":"alice","password":"pw1"}`, http.StatusCreated},
		{"register duplicate", "/register", `{"username":"alice","password":"other"}`, http.StatusConflict},
		{"login missing fields", "/login", `{}`, http.StatusBadRequest},
		{"login wrong password", "/login", `{"username":"alice","password":"other"}`, http.StatusUnauthorized},
		{"login unknown user", "/login", `{"username":"zoe","password":"pw1"}`, http.StatusUnauthorized},
		{"login ok", "/login", `{"username":"alice","password":"pw1"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_ReviewsAreIsolatedPerUser(t *testing.T) {
	router := setupTestRouter(t)
	alice := registerAndLogin(t, router, "alice", "pw1")
	bob := registerAndLogin(t, router, "bob", "pw2")

	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPut, "/auth/review/003?review=A1", "", alice).Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPut, "/auth/review/003?review=B1", "", bob).Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPut, "/auth/review/003?review=A2", "", alice).Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/auth/review/003", "", bob).Code)

	w := doRequest(router, http.MethodGet, "/review/003", "", nil)
	assert.Equal(t, map[string]string{"alice": "A2"}, decodeReviews(t, w))
}

func TestRouter_CatalogReads(t *testing.T) {
	router := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var catalog map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Len(t, catalog, 10)

	w = doRequest(router, http.MethodGet, "/isbn/008", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pride and Prejudice")

	w = doRequest(router, http.MethodGet, "/isbn/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/author/Unknown", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byAuthor []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byAuthor))
	assert.Len(t, byAuthor, 4)

	w = doRequest(router, http.MethodGet, "/title/Nobody%20Wrote%20This", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "ok", w.Body.String())

	w = doRequest(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WatchReviews(t *testing.T) {
	router := setupTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()
	cookie := registerAndLogin(t, router, "alice", "pw1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, br, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http")+"/review/005/watch")
	require.NoError(t, err)
	defer conn.Close()
	var reader io.Reader = conn
	if br != nil {
		reader = io.MultiReader(br, conn)
		defer ws.PutReader(br)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{reader, conn}
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	initMessage, err := wsutil.ReadServerText(rw)
	require.NoError(t, err)
	assert.Contains(t, string(initMessage), `"type":"init"`)

	w := doRequest(router, http.MethodPut, "/auth/review/005?review=Epic", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	eventMessage, err := wsutil.ReadServerText(rw)
	require.NoError(t, err)
	var event services.ReviewEvent
	require.NoError(t, json.NewDecoder(bytes.NewReader(eventMessage)).Decode(&event))
	assert.Equal(t, services.ReviewEventUpsert, event.Type)
	assert.Equal(t, "alice", event.Username)
	assert.Equal(t, "Epic", event.Review)
}

func TestRouter_WatchUnknownBook(t *testing.T) {
	router, feed := setupTestRouterWithFeed(t)
	w := doRequest(router, http.MethodGet, "/review/999/watch", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, feed.ObserverCount("999"))
}

func TestRouter_WatchLimitPerBook(t *testing.T) {
	router, feed := setupTestRouterWithFeed(t)
	feed.SetObserverLimit(1)
	held := make(chan *services.ReviewEvent, 1)
	require.NoError(t, feed.AddObserver("005", held))

	w := doRequest(router, http.MethodGet, "/review/005/watch", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_WATCHERS")
	assert.Equal(t, 1, feed.ObserverCount("005"))
}
