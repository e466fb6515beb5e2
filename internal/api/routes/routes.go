package routes

import (
	"net/http"
	"time"

	"social-service/internal/api/handlers"
	"social-service/internal/api/middleware"
	"social-service/internal/config"
	"social-service/internal/events"
	"social-service/internal/metrics"
	"social-service/internal/repositories"
	"social-service/internal/services"

	_ "social-service/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the collaborators the router wires into services. Redis,
// Publisher and Avatars are optional; leave them nil to disable the features
// that need them.
type Dependencies struct {
	Config    *config.Config
	Repo      repositories.UserRepository
	Redis     *services.RedisService
	Publisher events.Publisher
	Avatars   services.AvatarUploader
}

type Router struct {
	engine        *gin.Engine
	cfg           *config.Config
	authHandler   *handlers.AuthHandler
	userHandler   *handlers.UserHandler
	friendHandler *handlers.FriendHandler
	wsHandler     *handlers.WSHandler
	healthHandler *handlers.HealthHandler
	rateLimitMW   *middleware.RateLimitMiddleware
	authMW        *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(cfg.CORS.AllowedOrigins, cfg.IsProduction()))
	engine.Use(middleware.LogApi())
	engine.Use(metrics.Middleware())

	var revocations services.RevocationStore
	checks := map[string]handlers.Pinger{"store": deps.Repo}
	if deps.Redis != nil {
		revocations = deps.Redis
		checks["redis"] = deps.Redis
	}

	sessionService := services.NewSessionService(cfg.JWT.Secret, cfg.JWT.ExpirationTime, revocations)
	userService := services.NewUserService(deps.Repo, sessionService, deps.Avatars)
	friendService := services.NewFriendService(deps.Repo, deps.Publisher)

	return &Router{
		engine:        engine,
		cfg:           cfg,
		authHandler:   handlers.NewAuthHandler(userService, sessionService, cfg.Cookie),
		userHandler:   handlers.NewUserHandler(userService),
		friendHandler: handlers.NewFriendHandler(friendService),
		wsHandler:     handlers.NewWSHandler(deps.Redis, originChecker(cfg)),
		healthHandler: handlers.NewHealthHandler(checks),
		rateLimitMW:   middleware.NewRateLimitMiddleware(deps.Redis),
		authMW:        middleware.NewAuthMiddleware(sessionService, userService, cfg.Cookie.Name),
	}
}

// originChecker accepts same-origin requests and the configured CORS origins.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok || !cfg.IsProduction()
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// Public routes (no authentication required)
	public := api.Group("")
	public.Use(r.rateLimitMW.RateLimitIP(r.cfg.Limits.Auth, time.Minute))
	{
		public.POST("/register", r.authHandler.Register)
		public.POST("/login", r.authHandler.Login)
		public.GET("/logout", r.authHandler.Logout)
	}

	// Authenticated routes
	auth := api.Group("")
	auth.Use(r.authMW.RequireAuth())
	auth.Use(r.rateLimitMW.RateLimit(r.cfg.Limits.API, time.Minute))
	{
		auth.POST("/request", r.friendHandler.SendRequest)
		auth.POST("/accept", r.friendHandler.AcceptRequest)
		auth.GET("/recommendations", r.friendHandler.Recommendations)
		auth.GET("/friends", r.friendHandler.ListFriends)
		auth.GET("/requests", r.friendHandler.ListRequests)

		auth.GET("/search", r.userHandler.Search)
		auth.GET("/me", r.userHandler.Me)
		auth.PUT("/users/avatar", r.userHandler.UploadAvatar)

		auth.GET("/ws", r.wsHandler.HandleWebSocket)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
