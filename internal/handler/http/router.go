package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

type Handlers struct {
	Schedule   ScheduleHandler
	Attendance AttendanceHandler
	Timeslip   TimeslipHandler
	Leave      LeaveHandler
	Report     ReportHandler
	Workflow   WorkflowHandler
	Event      EventHandler
}

func NewRouter(JWTService jwt.Service, opts RouterOptions, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
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
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/config", h.Schedule.GetConfig)
			r.With(middleware.RequireManager).Put("/config", h.Schedule.UpsertConfig)
			r.Get("/resolve", h.Schedule.Resolve)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.Schedule.ListHolidays)
			r.Post("/{id}/accept", h.Schedule.AcceptHoliday)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/", h.Schedule.CreateHoliday)
				r.Post("/import", h.Schedule.ImportHolidays)
				r.Delete("/{id}", h.Schedule.DeleteHoliday)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/punches", h.Attendance.RecordPunch)
			r.Get("/days", h.Attendance.ListDays)
			r.With(middleware.RequireManager).Post("/recompute", h.Attendance.Recompute)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/attendance", h.Report.GetMonthlyAttendanceReport)
			r.With(middleware.RequireManager).Get("/attendance/export", h.Report.ExportMonthlyAttendanceReport)
		})

		r.Route("/timeslips", func(r chi.Router) {
			r.Post("/", h.Timeslip.Submit)
			r.Get("/{id}", h.Timeslip.Get)
			r.Put("/{id}", h.Timeslip.Update)
			r.Delete("/{id}", h.Timeslip.Delete)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Post("/", h.Leave.CreateRequest)
			r.Get("/{id}", h.Leave.GetRequest)
			r.Put("/{id}", h.Leave.UpdateRequest)
			r.Delete("/{id}", h.Leave.DeleteRequest)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/events", h.Event.Stream)

			r.Route("/requests", func(r chi.Router) {
				r.Get("/pending", h.Workflow.ListPending)
				r.Get("/{id}", h.Workflow.GetRequest)
				r.Get("/{id}/history", h.Workflow.History)
				r.Post("/{id}/approve", h.Workflow.Approve)
				r.Post("/{id}/reject", h.Workflow.Reject)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)

				r.Route("/definitions", func(r chi.Router) {
					r.Get("/", h.Workflow.ListDefinitions)
					r.Post("/", h.Workflow.CreateDefinition)
					r.Get("/{id}", h.Workflow.GetDefinition)
					r.Put("/{id}", h.Workflow.UpdateDefinition)
					r.Delete("/{id}", h.Workflow.DeleteDefinition)
					r.Post("/{id}/steps", h.Workflow.AddStep)
				})

				r.Route("/steps/{stepID}", func(r chi.Router) {
					r.Put("/", h.Workflow.UpdateStep)
					r.Delete("/", h.Workflow.DeleteStep)
					r.Put("/assignment", h.Workflow.AssignApprover)
				})
			})
		})
	})

	return r
}
