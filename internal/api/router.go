package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jsoniter "github.com/json-iterator/go"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/service"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/ws"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies are the components the HTTP surface is wired to
type Dependencies struct {
	Service *service.LivenessService
	Hub     *ws.Hub
	Checks  []handler.ReadinessCheck

	// RateLimitMax bounds POST /detect per client IP per minute; 0 uses the default
	RateLimitMax int
	// MaxFrameBytes sizes the request body limit; 0 keeps fiber's default
	MaxFrameBytes int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Blinkcheck",
		JSONEncoder:  codec.Marshal,
		JSONDecoder:  codec.Unmarshal,
		BodyLimit:    bodyLimit(deps),
		ReadTimeout:  30 * time.Second,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

// bodyLimit leaves room for the base64 and data URL overhead on top of the frame size
func bodyLimit(deps *Dependencies) int {
	if deps == nil || deps.MaxFrameBytes <= 0 {
		return fiber.DefaultBodyLimit
	}
	limit := deps.MaxFrameBytes/3*4 + 64*1024
	if limit < fiber.DefaultBodyLimit {
		return fiber.DefaultBodyLimit
	}
	return limit
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Client page
	r.app.Get("/", handler.Index)
	r.app.Use("/static", handler.StaticFiles())

	if r.deps == nil || r.deps.Service == nil {
		healthHandler := handler.NewHealthHandler("")
		r.app.Get("/health", healthHandler.Health)
		r.app.Get("/ready", healthHandler.Ready)
		return
	}

	healthHandler := handler.NewHealthHandler(r.deps.Service.ProviderName(), r.deps.Checks...)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	rateConfig := middleware.DefaultRateLimiterConfig()
	if r.deps.RateLimitMax > 0 {
		rateConfig.Max = r.deps.RateLimitMax
	}
	r.rateLimiter = middleware.NewRateLimiter(rateConfig)

	livenessHandler := handler.NewLivenessHandler(r.deps.Service, r.logger)

	r.app.Post("/detect", r.rateLimiter.Handler(), livenessHandler.Detect)
	r.app.Post("/reset", livenessHandler.Reset)
	r.app.Get("/status", livenessHandler.Status)

	v1 := r.app.Group("/v1")
	v1.Get("/events", livenessHandler.Events)

	// WebSocket endpoints
	// frames over the stream share the POST /detect budget of each IP
	r.app.Get("/ws/detect", ws.UpgradeMiddleware(), ws.DetectHandler(livenessHandler.StreamFrame, ws.DetectConfig{
		ReadLimit: int64(bodyLimit(r.deps)),
		Allow: func(ip string) bool {
			allowed, _, _ := r.rateLimiter.Allow(ip)
			return allowed
		},
	}, r.logger))

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		r.app.Get("/ws/status", ws.UpgradeMiddleware(), ws.StatusHandler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
