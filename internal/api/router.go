package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/estatehub/marketplace-access/docs"
	"github.com/estatehub/marketplace-access/internal/api/handler"
	"github.com/estatehub/marketplace-access/internal/api/middleware"
	"github.com/estatehub/marketplace-access/internal/core/ports"
	"github.com/estatehub/marketplace-access/internal/guard"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	JWTSecret  string
	Auth       ports.AuthService
	Roles      ports.RoleQuery
	RoleAdmin  ports.RoleAdmin
	Heartbeats ports.HeartbeatQueue
	Readiness  map[string]handler.Check
	// Routes decides which guard fronts each page. Defaults to guard.DefaultRoutes.
	Routes guard.Routes
	// Registry receives the HTTP request metrics. Defaults to the global
	// registry, where the service metrics also live.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.Routes == nil {
		d.Routes = guard.DefaultRoutes()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace_access_http",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	roleHandler := handler.NewRoleHandler(d.Roles, d.RoleAdmin)
	heartbeatHandler := handler.NewHeartbeatHandler(d.Heartbeats)
	dashboardHandler := handler.NewDashboardHandler()

	requireAuth := middleware.Auth(d.JWTSecret)
	optionalAuth := middleware.OptionalAuth(d.JWTSecret)
	guarded := func(path string) echo.MiddlewareFunc {
		g, ok := d.Routes.Match(path)
		if !ok {
			g = guard.Protected
		}
		return middleware.Guard(g, d.Roles, d.Log)
	}

	// --- Auth routes: signed-in users are sent away from the sign-in pages ---
	e.POST("/auth/register", authHandler.Register, optionalAuth, guarded("/auth/register"))
	e.POST("/auth/login", authHandler.Login, optionalAuth, guarded("/auth/login"))
	e.POST("/auth/refresh", authHandler.Refresh)

	// --- Role-check procedure ---
	e.POST("/rpc/get_user_roles", roleHandler.GetUserRoles, requireAuth)
	e.GET("/me/roles", roleHandler.Mine, requireAuth)

	// --- Role administration ---
	admin := e.Group("/admin", requireAuth, middleware.Guard(guard.Admin, d.Roles, d.Log))
	admin.PUT("/users/:id/roles/:role", roleHandler.Grant)
	admin.DELETE("/users/:id/roles/:role", roleHandler.Revoke)

	// --- Sessions ---
	e.POST("/session/heartbeat", heartbeatHandler.Create, requireAuth)

	// --- Gated areas ---
	for _, area := range []string{"admin", "agent", "vendor", "owner"} {
		path := "/dashboard/" + area
		e.GET(path, dashboardHandler.Area(area), optionalAuth, guarded(path))
	}
	e.GET("/account", dashboardHandler.Area("account"), optionalAuth, guarded("/account"))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
