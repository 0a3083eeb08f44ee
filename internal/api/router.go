package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/car-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/car-booking-backend/internal/fleet"
	fleetHttp "github.com/nekogravitycat/car-booking-backend/internal/fleet/http"
	"github.com/nekogravitycat/car-booking-backend/internal/linking"
	linkingHttp "github.com/nekogravitycat/car-booking-backend/internal/linking/http"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/logging"
	"github.com/nekogravitycat/car-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/car-booking-backend/internal/user/http"
)

// Config holds everything the router needs to register modules.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	Logger            *slog.Logger
	UserService       user.Service
	FleetService      fleet.Service
	BookingService    booking.Service
	LinkingService    linking.Service
	LineChannelSecret string
	JWTManager        *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := gin.New()

	// Global Middleware:
	// - Logging: one structured line per request, tagged with a request id.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logging.Middleware(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg.IsProduction, cfg.ProdOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks if the authenticated user is an admin.
	adminMiddleware := RequireAdmin(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	fleetHandler := fleetHttp.NewHandler(cfg.FleetService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.UserService)
	linkingHandler := linkingHttp.NewHandler(cfg.LinkingService, cfg.LineChannelSecret)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		fleetHttp.RegisterRoutes(v1, fleetHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
		linkingHttp.RegisterRoutes(v1, linkingHandler, authMiddleware)
	}

	return r
}

func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:8081"}
	}
	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
