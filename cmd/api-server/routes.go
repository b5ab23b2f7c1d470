package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.NotFound(app.notFound)
	mux.MethodNotAllowed(app.methodNotAllowed)

	mux.Use(app.traceID)
	mux.Use(app.logAccess)
	mux.Use(app.recoverPanic)

	mux.Use(app.CORS)
	mux.Use(app.authenticate)

	mux.Get("/api/v1/status", app.handleStatus)
	mux.Post("/api/v1/auth/login", app.handleLogin)

	// The stream authenticates itself through the join frame, not the
	// Authorization header.
	mux.Get("/api/v1/notifications/stream", app.handleNotificationStream)

	mux.Group(func(mux chi.Router) {
		mux.Use(app.requireAuthenticatedUser)

		mux.Get("/api/v1/users", app.handleListUsers)

		mux.Get("/api/v1/attendance/status", app.handleAttendanceStatus)
		mux.Post("/api/v1/attendance/clock-in", app.handleClockIn)
		mux.Post("/api/v1/attendance/clock-out", app.handleClockOut)
		mux.Get("/api/v1/attendance/history", app.handleAttendanceHistory)

		mux.Get("/api/v1/notifications", app.handleListNotifications)
		mux.Put("/api/v1/notifications/read", app.handleMarkNotificationsRead)

		mux.Get("/api/v1/tasks/{taskId}", app.handleGetTask)
		mux.Patch("/api/v1/tasks/{taskId}", app.handleUpdateTask)

		mux.Post("/api/v1/projects/{projectId}/tasks", app.handleCreateTask)
		mux.Post("/api/v1/projects/{projectId}/milestones", app.handleCreateMilestone)
		mux.Post("/api/v1/projects/{projectId}/access", app.handleGrantAccess)

		mux.Group(func(mux chi.Router) {
			mux.Use(app.requireAdmin)

			mux.Post("/api/v1/users", app.handleCreateUser)
			mux.Post("/api/v1/projects", app.handleCreateProject)
			mux.Get("/api/v1/attendance/today", app.handleAttendanceToday)
			mux.Get("/api/v1/notifications/online", app.handleOnlineUsers)
		})
	})

	app.logger.Debug("routes configured", "routes", chiRoutesToStrings(mux.Routes()))

	return mux
}

func chiRoutesToStrings(routes []chi.Route) []string {
	parsedRoutes := make([]string, 0, len(routes))
	for _, route := range routes {
		parsedRoutes = append(parsedRoutes, route.Pattern)
	}
	return parsedRoutes
}
