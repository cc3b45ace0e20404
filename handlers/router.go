package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sgatu/bookstore-back/middleware"
	"github.com/sgatu/bookstore-back/services"
)

type Dependencies struct {
	Users          *services.UserDirectory
	Authenticator  *services.SessionAuthenticator
	SessionManager *middleware.SessionManager
	Catalog        *services.CatalogService
	Reviews        *services.ReviewService
	Feed           *services.ReviewFeed
	Logger         *slog.Logger
}

func SetupRoutes(engine *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	healthHandler := &HealthHandler{}
	authHandler := &AuthHandler{
		users:          deps.Users,
		authenticator:  deps.Authenticator,
		sessionManager: deps.SessionManager,
	}
	catalogHandler := &CatalogHandler{catalog: deps.Catalog}
	reviewHandler := &ReviewHandler{
		reviews: deps.Reviews,
		feed:    deps.Feed,
		logger:  logger,
	}

	engine.GET("/health", healthHandler.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/register", authHandler.register)
	engine.POST("/login", authHandler.login)

	engine.GET("/", catalogHandler.listBooks)
	engine.GET("/isbn/:isbn", catalogHandler.bookByIsbn)
	engine.GET("/author/:author", catalogHandler.booksByAuthor)
	engine.GET("/title/:title", catalogHandler.booksByTitle)

	engine.GET("/review/:isbn", reviewHandler.getReviews)
	engine.GET("/review/:isbn/watch", reviewHandler.watchReviews)

	authorized := engine.Group("/auth")
	authorized.Use(deps.SessionManager.RequireSession())
	authorized.PUT("/review/:isbn", reviewHandler.putReview)
	authorized.DELETE("/review/:isbn", reviewHandler.deleteReview)
}
