package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-lms-api/internal/config"
	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/transport/http/handler"
	appmiddleware "github.com/go-lms-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of the rate limiter's cleanup goroutine.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	trusted, _ := cfg.TrustedProxyPrefixes() // rejected earlier by config.Validate when invalid
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, trusted)
	authMw := appmiddleware.Auth(deps.Auth)

	errs := handler.Errors{Detail: !cfg.IsProduction()}
	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Auth, errs)
	otpH := handler.NewOTPHandler(deps.OTP, errs)
	userH := handler.NewUserHandler(deps.Users, errs)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/otp/request", otpH.Request)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.With(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleInstructor)).Get("/users/{id}", userH.Get)
			r.With(appmiddleware.RequireAdmin).Put("/users/{id}/role", userH.UpdateRole)
		})
	})

	return r
}
