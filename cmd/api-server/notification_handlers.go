package main

import (
	"net/http"

	"github.com/teamdesk/teamdesk/internal/response"
)

// Handle List Notifications
// @Summary List Notifications
// @Description The caller's notifications, newest first, capped at 50
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (app *application) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	limit := defaultIntQueryParams(r, "limit", 0)

	notifications, err := app.notifier.ListForUser(r.Context(), user.ID, limit)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, notifications); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Mark Notifications Read
// @Summary Mark All Read
// @Description Mark every notification owned by the caller as read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Router /notifications/read [put]
func (app *application) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	if err := app.notifier.MarkAllRead(r.Context(), user.ID); err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"status": "OK"}); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Online Users
// @Summary Online Users
// @Description IDs of users with at least one live channel open (admin only)
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string][]model.ID
// @Router /notifications/online [get]
func (app *application) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"userIds": app.registry.Users()}); err != nil {
		app.serverError(w, r, err)
	}
}
