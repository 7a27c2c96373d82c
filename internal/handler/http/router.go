package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

type Handlers struct {
	Event      EventHandler
	Attendance AttendanceHandler
	Request    RequestHandler
	Settings   SettingsHandler
	Employee   EmployeeHandler
	Stream     StreamHandler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, settingsProvider settings.Provider, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// SSE authenticates with its own short-lived token
		r.Get("/stream", h.Stream.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Post("/stream/token", h.Stream.GetSSEToken)

			// Ingestion stays open during maintenance
			r.Post("/events", h.Event.Ingest)
			r.Post("/events/batch", h.Event.IngestBatch)
			r.Post("/screenshots", h.Event.RecordScreenshots)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.Range)
				r.Get("/{window}", h.Attendance.Window)
				r.Get("/employees/{employeeID}/{date}", h.Attendance.GetRecord)
				r.Get("/employees/{employeeID}/{date}/timeline", h.Attendance.Timeline)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Use(middleware.Maintenance(settingsProvider))

				r.Post("/breaks", h.Request.SubmitBreak)
				r.Post("/clock-outs", h.Request.SubmitClockOut)
				r.Get("/{kind}", h.Request.List)
				r.Get("/{kind}/{id}", h.Request.Get)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/{kind}/{id}/process", h.Request.Process)
				})
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", h.Settings.Get)

				// Admin only; not behind maintenance so it can be switched off again
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Put("/", h.Settings.Update)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Use(middleware.Maintenance(settingsProvider))

				r.Get("/", h.Employee.List)
				r.Post("/", h.Employee.Create)
				r.Get("/{id}", h.Employee.Get)
			})
		})
	})
	return r
}
