package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/teamdesk/teamdesk/internal/attendance"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/request"
	"github.com/teamdesk/teamdesk/internal/response"
	"github.com/teamdesk/teamdesk/internal/validator"
)

// Handle Attendance Status
// @Summary Attendance Status
// @Description Current active session for the caller, or null
// @Tags attendance
// @Produce json
// @Success 200 {object} main.responseAttendanceStatus
// @Router /attendance/status [get]
func (app *application) handleAttendanceStatus(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	session, err := app.attendance.Status(r.Context(), user.ID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	resp := responseAttendanceStatus{Session: session}
	if session != nil {
		elapsed := session.ElapsedMinutes(time.Now())
		resp.ElapsedMinutes = &elapsed
	}

	if err := response.JSON(w, http.StatusOK, resp); err != nil {
		app.serverError(w, r, err)
	}
}

type responseAttendanceStatus struct {
	Session *model.AttendanceSession `json:"session"`
	// Recomputed from the clock-in time on every read; not persisted.
	ElapsedMinutes *int `json:"elapsedMinutes,omitempty"`
}

// Handle Clock In
// @Summary Clock In
// @Description Open a new attendance session for the caller
// @Tags attendance
// @Accept json
// @Produce json
// @Param input body main.requestClock false "Optional notes"
// @Success 201 {object} model.AttendanceSession
// @Failure 400 {object} any "Already clocked in"
// @Router /attendance/clock-in [post]
func (app *application) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	input, err := decodeClockRequest(w, r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestClock(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	session, err := app.attendance.ClockIn(r.Context(), user.ID, input.Notes)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			app.errorMessage(w, r, http.StatusBadRequest, "You are already clocked in", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, session); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Clock Out
// @Summary Clock Out
// @Description Finalize the caller's active attendance session
// @Tags attendance
// @Accept json
// @Produce json
// @Param input body main.requestClock false "Optional notes, appended to the session"
// @Success 200 {object} model.AttendanceSession
// @Failure 400 {object} any "Not clocked in"
// @Router /attendance/clock-out [post]
func (app *application) handleClockOut(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	input, err := decodeClockRequest(w, r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestClock(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	var notes string
	if input.Notes != nil {
		notes = *input.Notes
	}

	session, err := app.attendance.ClockOut(r.Context(), user.ID, notes)
	if err != nil {
		if errors.Is(err, attendance.ErrNotClockedIn) {
			app.errorMessage(w, r, http.StatusBadRequest, "You are not clocked in", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, session); err != nil {
		app.serverError(w, r, err)
	}
}

type requestClock struct {
	Notes *string `json:"notes"`
}

// decodeClockRequest tolerates an empty body: both clock endpoints treat
// notes as optional.
func decodeClockRequest(w http.ResponseWriter, r *http.Request) (requestClock, error) {
	var input requestClock

	if r.Body == nil || r.ContentLength == 0 {
		return input, nil
	}

	err := request.DecodeJSONStrict(w, r, &input)
	return input, err
}

// Handle Attendance History
// @Summary Attendance History
// @Description The caller's past sessions, newest first
// @Tags attendance
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {array} model.AttendanceSession
// @Router /attendance/history [get]
func (app *application) handleAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	user := contextUser(r)

	limit := defaultIntQueryParams(r, "limit", 0)

	sessions, err := app.attendance.History(r.Context(), user.ID, limit)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, sessions); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Attendance Today
// @Summary Today's Attendance
// @Description Every user's sessions started today (admin only)
// @Tags attendance
// @Produce json
// @Success 200 {array} model.AttendanceSession
// @Router /attendance/today [get]
func (app *application) handleAttendanceToday(w http.ResponseWriter, r *http.Request) {
	sessions, err := app.attendance.TodayForAll(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, sessions); err != nil {
		app.serverError(w, r, err)
	}
}
