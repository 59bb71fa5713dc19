package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/access"
	"github.com/frahmantamala/employee-console/internal/audit"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/employee"
	"github.com/frahmantamala/employee-console/internal/navigation"
	"github.com/frahmantamala/employee-console/internal/places"
	"github.com/frahmantamala/employee-console/internal/profile"
	"github.com/frahmantamala/employee-console/internal/session"
	"github.com/frahmantamala/employee-console/internal/transport/middleware"
	"github.com/frahmantamala/employee-console/internal/transport/swagger"
	"github.com/frahmantamala/employee-console/internal/upload"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	APIBasePath  = "/api/v1"
	openAPIRoute = "/openapi.yml"
)

// Handlers groups every console handler. Nil handlers leave their routes unregistered.
type Handlers struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	Profile     *profile.Handler
	Employee    *employee.Handler
	Audit       *audit.Handler
	Navigation  *navigation.Handler
	Upload      *upload.Handler
	Places      *places.Handler
	Preferences *session.Handler
}

type RouterOptions struct {
	Config    *internal.Config
	Validator *middleware.RequestValidator
	Logger    *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions) {
	cfg := opts.Config

	// Apply global middleware
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	router.Use(middleware.Metrics)

	router.Get(openAPIRoute, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, cfg.Server.OpenAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler(openAPIRoute))
	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	if h.Navigation != nil {
		router.NotFound(h.Navigation.NotFound)
	}

	router.Route(APIBasePath, func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator.Middleware)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.With(h.Auth.AuthMiddleware).Post("/logout", h.Auth.Logout)
			sr.With(h.Auth.AuthMiddleware).Get("/me", h.Auth.Me)
		})

		// Password reset runs before anyone is signed in.
		if h.Profile != nil {
			r.Route("/password-reset", func(sr chi.Router) {
				sr.Post("/request", h.Profile.RequestPasswordReset)
				sr.Post("/verify", h.Profile.VerifyResetToken)
				sr.Post("/reset", h.Profile.ResetPassword)
			})
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Profile != nil {
				pr.Route("/profile", func(sr chi.Router) {
					sr.Get("/", h.Profile.GetProfile)
					sr.Put("/", h.Profile.UpdateProfile)
					sr.Put("/travel", h.Profile.UpdateTravel)
					sr.Put("/password", h.Profile.ChangePassword)
					sr.Put("/picture", h.Profile.UpdateProfilePicture)
					sr.Get("/passport-visa", h.Profile.GetPassportVisa)
					sr.Get("/experience", h.Profile.GetExperience)
					sr.Get("/idle-days", h.Profile.GetIdleDays)
				})
			}

			if h.Navigation != nil {
				pr.Get("/menu", h.Navigation.GetMenu)
				pr.Get("/home", h.Navigation.GetHome)
				pr.Get("/pages", h.Navigation.GetPages)
				pr.Get("/tools/bom-creator", h.Navigation.ToolPage("/bom-creator"))
				pr.Get("/tools/pdf-tools", h.Navigation.ToolPage("/pdf-tools"))
			}

			if h.Preferences != nil {
				pr.Route("/preferences", func(sr chi.Router) {
					sr.Get("/", h.Preferences.GetPreferences)
					sr.Put("/{key}", h.Preferences.PutPreference)
					sr.Delete("/{key}", h.Preferences.DeletePreference)
				})
			}

			if h.Upload != nil {
				pr.Route("/uploads", func(sr chi.Router) {
					sr.Post("/", h.Upload.UploadFiles)
					sr.Post("/signed-url", h.Upload.SignUpload)
					sr.Delete("/", h.Upload.DeleteUpload)
				})
			}

			if h.Places != nil {
				pr.Route("/places", func(sr chi.Router) {
					sr.Get("/autocomplete", h.Places.Autocomplete)
					sr.Get("/{placeID}", h.Places.GetPlace)
				})
			}

			if h.Employee != nil {
				pr.Route("/employees", func(er chi.Router) {
					er.Use(h.Auth.RequireAccess(access.DirectoryTokens...))

					er.Get("/", h.Employee.ListEmployees)
					er.Put("/view/sort", h.Employee.ToggleSort)
					er.Put("/view/columns", h.Employee.UpdateColumns)
					er.Delete("/view", h.Employee.ResetView)
					er.Get("/filter-options", h.Employee.GetFilterOptions)
					er.Get("/candidates", h.Employee.GetCandidates)
					er.With(h.Auth.RequireCapability(access.CapExportDirectory)).Get("/export", h.Employee.ExportEmployees)
					er.Get("/{id}", h.Employee.GetEmployee)

					er.Group(func(mr chi.Router) {
						mr.Use(h.Auth.RequireCapability(access.CapManageEmployees))
						mr.Post("/", h.Employee.CreateEmployee)
						mr.Put("/{id}", h.Employee.UpdateEmployee)
					})
				})
			}

			if h.Audit != nil {
				pr.Route("/audit", func(ar chi.Router) {
					ar.Use(h.Auth.RequireCapability(access.CapViewAudit))

					ar.Get("/", h.Audit.SearchLogs)
					ar.Get("/entity/{entityType}/{entityID}", h.Audit.EntityLogs)
					ar.Get("/recent", h.Audit.RecentLogs)
					ar.Get("/summary", h.Audit.GetSummary)
				})
			}
		})
	})
}
