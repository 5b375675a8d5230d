package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/handlers"
	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/middleware"
	"github.com/anonto42/pins/backend/internal/ratelimit"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/internal/validators"
	"github.com/anonto42/pins/backend/pkg/api"
	"github.com/anonto42/pins/backend/pkg/config"
)

// Dependencies are the process-wide resources the routes are built from.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Mongo    *mongo.Client
	Store    storage.ObjectStore
	Identity identity.Provider
	Sessions *session.Manager
	Logger   *slog.Logger
}

// New returns a configured echo instance and a function releasing the
// background resources of its middleware.
func New(deps Dependencies) (*echo.Echo, func()) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(deps.Logger)

	SetupMiddleware(e, deps.Config, deps.Logger)
	stop := SetupRoutes(e, deps)
	return e, stop
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, log *slog.Logger) {
	e.Use(middleware.RequestID())
	e.Use(eMiddleware.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.BodyLimit(bodyLimit(cfg.Storage.MaxUploadBytes)))
	log.Debug("global middleware configured")
}

// bodyLimit leaves room for the base64 expansion of the largest upload.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return fmt.Sprintf("%dK", maxUpload*4/3/1024+64)
}

// SetupRoutes builds repositories, services and handlers and mounts every
// procedure under /api/trpc.
func SetupRoutes(e *echo.Echo, deps Dependencies) func() {
	cfg, log := deps.Config, deps.Logger

	// --- Repositories ---
	userRepo := repositories.NewSQLUserRepository(deps.DB)
	pinRepo := repositories.NewSQLPinRepository(deps.DB)
	likeRepo := repositories.NewSQLLikeRepository(deps.DB)
	commentRepo := repositories.NewSQLCommentRepository(deps.DB)
	communityRepo := repositories.NewSQLCommunityRepository(deps.DB)
	imageRepo := repositories.NewSQLImageRepository(deps.DB)

	// --- Services ---
	pinService := service.NewPinService(service.PinServiceDeps{
		Pins:        pinRepo,
		Likes:       likeRepo,
		Comments:    commentRepo,
		Communities: communityRepo,
		Images:      imageRepo,
		Store:       deps.Store,
		Logger:      log,
	}, service.PinServiceConfig{
		BaseFolder:     cfg.Storage.BaseFolder,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	authService := service.NewAuthService(deps.Identity, userRepo, deps.Sessions, log)

	// --- Rate limits ---
	// Anonymous callers are rejected before any input is bound.
	protected := []echo.MiddlewareFunc{middleware.RequireSession()}
	var signInLimits []echo.MiddlewareFunc
	mutationLimits := protected
	var limiters []*ratelimit.KeyedRateLimiter
	if cfg.RateLimit.Enabled {
		signIn := ratelimit.PerMinute(cfg.RateLimit.SignInPerMinute, cfg.RateLimit.SignInBurst, 10*time.Minute)
		mutations := ratelimit.New(cfg.RateLimit.MutationPerSecond, cfg.RateLimit.MutationBurst, 10*time.Minute)
		limiters = append(limiters, signIn, mutations)
		signInLimits = append(signInLimits, middleware.RateLimit(signIn, middleware.ByIP, log))
		mutationLimits = append(append([]echo.MiddlewareFunc{}, protected...), middleware.RateLimit(mutations, middleware.BySessionOrIP, log))
	}

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.DB, deps.Mongo).HealthCheck)
	handlers.NewMediaHandler(deps.Store).RegisterMediaRoutes(e)

	rpc := e.Group(api.RoutePrefix)
	rpc.Use(middleware.SessionAuth(authService, log))

	handlers.NewFeedHandler(pinService).RegisterFeedRoutes(rpc)
	handlers.NewPinHandler(pinService).RegisterPinRoutes(rpc, mutationLimits...)
	handlers.NewLikeHandler(pinService).RegisterLikeRoutes(rpc, mutationLimits...)
	handlers.NewCommentHandler(pinService).RegisterCommentRoutes(rpc)
	handlers.NewCommunityHandler(service.NewCommunityService(communityRepo)).RegisterCommunityRoutes(rpc)
	handlers.NewUserHandler(service.NewUserService(userRepo, pinRepo)).RegisterProfileRoutes(rpc, protected...)
	handlers.NewAuthHandler(authService, cfg.Auth.SecureCookie).RegisterAuthRoutes(rpc, signInLimits...)

	log.Debug("routes configured", "prefix", api.RoutePrefix)

	return func() {
		for _, l := range limiters {
			l.Stop()
		}
	}
}
