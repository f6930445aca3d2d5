package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/tourney-api/internal/application/auth"
	"github.com/tourney-api/internal/application/notification"
	"github.com/tourney-api/internal/application/otp"
	"github.com/tourney-api/internal/application/session"
	"github.com/tourney-api/internal/application/tournament"
	"github.com/tourney-api/internal/application/user"
	"github.com/tourney-api/internal/config"
	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/tourney-api/internal/infrastructure/jwt"
	s3infra "github.com/tourney-api/internal/infrastructure/s3"
	"github.com/tourney-api/internal/transport/http/handler"
	appmiddleware "github.com/tourney-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPService       otp.Service
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	TournamentRepo   *dynamo.TournamentRepo
	EnrollmentRepo   *dynamo.EnrollmentRepo
	NotificationRepo *dynamo.NotificationRepo
	TransactionRepo  *dynamo.TransactionRepo
	S3Store          *s3infra.Store
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the public OTP and login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(deps.OTPService, deps.UserRepo, deps.SessionRepo, deps.NotificationRepo,
		deps.JWTProvider, auth.Config{Channel: cfg.OTPChannel, RefreshTokenDur: cfg.RefreshTokenDur})
	sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.JWTProvider,
		session.Config{RefreshTokenDur: cfg.RefreshTokenDur})
	userSvc := user.NewService(deps.UserRepo, deps.SessionRepo, deps.TransactionRepo, deps.NotificationRepo)
	tournamentSvc := tournament.NewService(deps.TournamentRepo, deps.EnrollmentRepo, deps.UserRepo,
		deps.TransactionRepo, deps.NotificationRepo, deps.S3Store)
	notifSvc := notification.NewService(deps.NotificationRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.OTPService, authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	tournamentH := handler.NewTournamentHandler(tournamentSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	// ── Public OTP endpoints (root level, legacy clients) ────────────────────
	r.With(sensitiveRL.Limit).Post("/send-otp", authH.SendOTP)
	r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/ping", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/verify-otp", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/admin/login", authH.AdminLogin)
		r.Post("/sessions/refresh", sessionH.Refresh)

		r.Get("/tournaments", tournamentH.List)
		r.Get("/tournaments/{id}", tournamentH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)
			r.Delete("/users/me", userH.DeleteMe)
			r.Get("/users/me/transactions", userH.Transactions)

			r.Post("/tournaments/{id}/enroll", tournamentH.Enroll)
			r.Get("/enrollments", tournamentH.ListMine)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Post("/users/{id}/points", userH.Credit)

				r.Post("/tournaments", tournamentH.Create)
				r.Put("/tournaments/{id}", tournamentH.Update)
				r.Post("/tournaments/{id}/banner", tournamentH.UploadBanner)
				r.Get("/tournaments/{id}/players", tournamentH.ListPlayers)
			})
		})
	})

	return r
}
