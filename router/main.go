package router

import (
	"errors"
	"fmt"
	"time"

	"github.com/YHTerrance/UniFrames/config"
	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/handlers"
	admin_handlers "github.com/YHTerrance/UniFrames/handlers/admin"
	frames_handlers "github.com/YHTerrance/UniFrames/handlers/frames"
	generate_handlers "github.com/YHTerrance/UniFrames/handlers/generate"
	university_handlers "github.com/YHTerrance/UniFrames/handlers/university"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/services/gemini"
	"github.com/YHTerrance/UniFrames/services/objectstore"
	"github.com/YHTerrance/UniFrames/utils"
	"github.com/YHTerrance/UniFrames/utils/auth"
	"github.com/YHTerrance/UniFrames/utils/cache"
	"github.com/YHTerrance/UniFrames/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Services bundles everything the HTTP layer and the CLI tools share
type Services struct {
	Frames    *services.FrameService
	Logos     *services.LogoService
	Generator *services.FrameGeneratorService
	Cache     *cache.RedisCache
}

// NewServices wires the frame index, the bucket and the optional cache
func NewServices(store database.Storage, cfg *config.Config, fs afero.Fs, log *logrus.Logger) (*Services, error) {
	db := store.GetDB()

	objects, err := objectstore.NewClient(objectstore.ConfigFromStorage(cfg.Storage))
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	// Redis only caches frame listings; the API works without it
	var redisCache *cache.RedisCache
	var frameCache services.FrameCache
	if cfg.Redis.URL != "" {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, frame listings will not be cached")
		} else {
			frameCache = redisCache
		}
	}

	frameStore := services.NewFrameStore(db)
	resolver := services.NewUniversityResolver(db, log)
	syncer := services.NewFrameSyncService(db, frameStore, objects, resolver, log)

	generator, err := services.NewFrameGeneratorService(
		fs,
		gemini.NewClient(gemini.ConfigFromSettings(cfg.Gemini)),
		cfg.Media.UploadDir,
		cfg.Media.OutputDir,
		log,
	)
	if err != nil {
		return nil, err
	}

	return &Services{
		Frames:    services.NewFrameService(frameStore, resolver, syncer, objects, frameCache, cfg.Redis.FramesTTL, log),
		Logos:     services.NewLogoService(frameStore, resolver, objects, cfg.Storage.PresignExpiry, log),
		Generator: generator,
		Cache:     redisCache,
	}, nil
}

func SetupRoutes(app *fiber.App, store database.Storage, cfg *config.Config, svc *Services, log *logrus.Logger) error {
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiry,
		Issuer: cfg.JWT.Issuer,
	})
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	framesHandler := frames_handlers.NewFramesHandler(svc.Frames, log)
	universityHandler := university_handlers.NewUniversityHandler(svc.Frames, svc.Logos, log)
	generateHandler := generate_handlers.NewGenerateHandler(svc.Generator, log)
	syncHandler := admin_handlers.NewSyncHandler(svc.Frames, log)

	// Apply security middleware
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
		AccessLog:         true,
	})

	// Health check endpoints (public)
	app.Get("/ping", handlers.HandlePing)
	app.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Frames routes
	frames := api.Group("/frames")
	frames.Get("/by-name", framesHandler.GetFramesByName)
	frames.Get("/get-frame", framesHandler.GetFramesByName)
	frames.Get("/universities", framesHandler.ListUniversitiesWithFrames)
	frames.Get("/universities/from-r2", framesHandler.ListBucketFolders)

	// Universities routes
	api.Get("/universities", universityHandler.ListUniversities)
	api.Get("/university/logo", universityHandler.GetLogo)

	// Gemini calls are slow and billed; keep them on a tighter budget
	api.Post("/gemini-frames", middleware.RateLimit(10, time.Minute), generateHandler.CreateFrame)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Post("/universities/:id/sync", syncHandler.SyncUniversity)
	admin.Post("/sync", syncHandler.SyncAll)
	admin.Get("/sync/stream", syncHandler.StreamSyncAll)
	admin.Get("/sync-runs", syncHandler.ListSyncRuns)

	return nil
}
