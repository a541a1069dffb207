package rest

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal/audit"
	"github.com/frahmantamala/school-core/internal/auth"
	"github.com/frahmantamala/school-core/internal/rbac"
	"github.com/frahmantamala/school-core/internal/tenancy"
	"github.com/frahmantamala/school-core/internal/transport/middleware"
	"github.com/frahmantamala/school-core/internal/transport/swagger"
	"github.com/frahmantamala/school-core/internal/upload"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type RouterConfig struct {
	AllowedOrigins  string
	Production      bool
	UploadRateLimit int
	Logger          *slog.Logger
}

type Handlers struct {
	Health  *HealthHandler
	Auth    *auth.Handler
	Tenancy *tenancy.Handler
	RBAC    *rbac.Handler
	Upload  *upload.Handler
	Audit   *audit.Handler
	Docs    *swagger.Document
}

func RegisterAllRoutes(router chi.Router, cfg RouterConfig, h Handlers) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.SecureHeaders(cfg.Production, cfg.Logger))
	router.Use(middleware.LoggingMiddleware(cfg.Logger))

	if h.Docs != nil {
		router.Get("/openapi.yml", h.Docs.ServeYAML)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/me", h.Auth.Me)

			pr.Route("/projects", func(projects chi.Router) {
				projects.Get("/", h.Tenancy.List)
				projects.Post("/", h.Tenancy.Create)

				projects.Route("/{projectID}", func(p chi.Router) {
					p.Get("/", h.Tenancy.Get)
					p.Patch("/status", h.Tenancy.UpdateStatus)
					p.Get("/permissions/me", h.RBAC.MyPermissions)

					p.Route("/roles", func(roles chi.Router) {
						roles.Get("/", h.RBAC.ListRoles)
						roles.Post("/", h.RBAC.CreateRole)
						roles.Delete("/{roleID}", h.RBAC.DeleteRole)
						roles.Post("/{roleID}/assignments", h.RBAC.AssignRole)
						roles.Delete("/{roleID}/assignments/{userID}", h.RBAC.RevokeRole)
					})

					p.Route("/uploads/{domain}", func(uploads chi.Router) {
						uploads.Get("/", h.Upload.List)
						uploads.Get("/{batchID}", h.Upload.Get)
						uploads.With(middleware.RateLimit(cfg.UploadRateLimit, time.Minute)).
							Post("/", h.Upload.Submit)
					})

					p.Get("/audit", h.Audit.List)
				})
			})
		})
	})
}
