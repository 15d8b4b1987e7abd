package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	analyticsapi "icpep-backend/internal/analytics/api"
	announcementapi "icpep-backend/internal/announcement/api"
	"icpep-backend/internal/auth"
	authapi "icpep-backend/internal/auth/api"
	availabilityapi "icpep-backend/internal/availability/api"
	"icpep-backend/internal/cache"
	eventapi "icpep-backend/internal/event/api"
	faqapi "icpep-backend/internal/faq/api"
	"icpep-backend/internal/logger"
	mediaapi "icpep-backend/internal/media/api"
	membershipapi "icpep-backend/internal/membership/api"
	"icpep-backend/internal/metrics"
	"icpep-backend/internal/models"
	notificationapi "icpep-backend/internal/notification/api"
	rosterapi "icpep-backend/internal/roster/api"
	sponsorapi "icpep-backend/internal/sponsor/api"
	"icpep-backend/internal/utils"
)

type Handlers struct {
	Announcements *announcementapi.Handler
	Events        *eventapi.Handler
	Memberships   *membershipapi.Handler
	Roster        *rosterapi.Handler
	Sponsors      *sponsorapi.Handler
	FAQs          *faqapi.Handler
	Notifications *notificationapi.Handler
	Availability  *availabilityapi.Handler
	Auth          *authapi.Handler
	Media         *mediaapi.Handler
	Dashboard     *analyticsapi.Handler
}

// HealthCheck reports whether one backing store is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Handlers       Handlers
	Tokens         *auth.TokenManager
	Denylist       auth.RevocationChecker
	Cache          *cache.ResponseCache
	Limiter        *cache.RateLimiter
	Checks         map[string]HealthCheck
	AllowedOrigins []string
	Logger         *logger.Logger
}

func NewRouter(o Options) http.Handler {
	h := o.Handlers
	authenticate := auth.Middleware(o.Tokens, o.Denylist, o.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(o.Logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health(o.Checks))

		// The notification feed and its event stream are never cached.
		r.Group(h.Notifications.PublicRoutes)

		r.Group(func(r chi.Router) {
			r.Use(o.Cache.Middleware)
			h.Announcements.PublicRoutes(r)
			h.Events.PublicRoutes(r)
			h.Roster.PublicRoutes(r)
			h.Sponsors.PublicRoutes(r)
			h.FAQs.PublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(o.Limiter.Middleware("public_write"))
			r.Use(o.Cache.PurgeOnWrite)
			h.Events.RSVPRoutes(r)
			h.Memberships.PublicRoutes(r)
		})

		r.Group(h.Auth.PublicRoutes)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			h.Auth.SessionRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireRole(models.RoleAdmin, models.RoleOfficer))
			r.Use(o.Cache.PurgeOnWrite)

			h.Announcements.AdminRoutes(r)
			h.Events.AdminRoutes(r)
			h.Memberships.AdminRoutes(r)
			h.Roster.AdminRoutes(r)
			h.Sponsors.AdminRoutes(r)
			h.FAQs.AdminRoutes(r)
			h.Notifications.AdminRoutes(r)
			h.Availability.AdminRoutes(r)
			h.Media.AdminRoutes(r)
			h.Dashboard.AdminRoutes(r)
			h.Auth.AdminRoutes(r)
		})
	})

	return r
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health runs every check with a short timeout and answers 503 if any fails.
func Health(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := healthReport{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				report.Status = "degraded"
				report.Checks[name] = err.Error()
				continue
			}
			report.Checks[name] = "ok"
		}

		if report.Status != "ok" {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{
				Success:   false,
				Message:   "Service degraded",
				Data:      report,
				Timestamp: time.Now(),
			})
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "Service healthy", report)
	}
}
