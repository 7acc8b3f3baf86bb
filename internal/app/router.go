package app

import (
	"net/http"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/handlers"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/metrics"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/middleware"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// RouterDeps are the collaborators the HTTP API is built from.
type RouterDeps struct {
	Auth       *auth.Service
	Users      db.UserCollection
	Schedules  db.ScheduleCollection
	WorkOrders db.WorkOrderCollection
	Job        scheduling.Job
	Logger     *log.Entry
}

// NewRouter builds the HTTP API.
func NewRouter(deps RouterDeps) http.Handler {
	authMW := middleware.NewAuthMiddleware(deps.Auth)
	loginLimiter := middleware.NewRateLimitMiddleware(6*time.Second, 10)

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Users, deps.Logger)
	scheduleHandler := handlers.NewScheduleHandler(deps.Schedules, deps.Logger)
	workOrderHandler := handlers.NewWorkOrderHandler(deps.WorkOrders, deps.Logger)
	runHandler := handlers.NewRunHandler(deps.Job, deps.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.RateLimit).Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Get("/auth/profile", authHandler.GetProfile)

			r.With(authMW.RequirePermission(models.PermViewSchedules)).Get("/schedules", scheduleHandler.List)
			r.With(authMW.RequirePermission(models.PermManageSchedules)).Post("/schedules", scheduleHandler.Create)
			r.With(authMW.RequirePermission(models.PermManageSchedules)).Post("/schedules/{id}/deactivate", scheduleHandler.Deactivate)

			r.With(authMW.RequirePermission(models.PermViewWorkOrders)).Get("/work-orders", workOrderHandler.List)

			r.With(authMW.RequirePermission(models.PermRunScheduler)).Post("/functions/autoGenerateWorkOrders", runHandler.AutoGenerateWorkOrders)
		})
	})

	return r
}

// Router builds the HTTP API over the app's store and runner.
func (a *App) Router() http.Handler {
	return NewRouter(RouterDeps{
		Auth:       a.Auth,
		Users:      a.Store.Users,
		Schedules:  a.Store.Schedules,
		WorkOrders: a.Store.WorkOrders,
		Job:        a.Runner,
		Logger:     a.Logger,
	})
}
