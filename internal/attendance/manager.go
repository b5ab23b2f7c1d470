// Package attendance enforces the clock-in/clock-out session state machine:
// at most one active session per user, durations computed once at clock-out
// from server-side wall clock.
package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
)

// Invariant violations are user errors: surfaced as 400s with a fixed
// message, never retried, never logged as failures.
var (
	ErrAlreadyClockedIn = errors.New("you are already clocked in")
	ErrNotClockedIn     = errors.New("you are not clocked in")
)

// Store is the slice of the attendance table the manager needs. Implemented
// by database.AttendanceDAO; tests substitute an in-memory fake.
type Store interface {
	Get(ctx context.Context, id model.ID) (model.AttendanceSession, error)
	GetActive(ctx context.Context, user model.ID) (model.AttendanceSession, error)
	Insert(ctx context.Context, dto database.InsertSessionDTO) (model.ID, error)
	Complete(ctx context.Context, dto database.CompleteSessionDTO) (model.AttendanceSession, error)
	FindByUser(ctx context.Context, user model.ID, opts database.FindOptions) ([]model.AttendanceSession, error)
	FindBetween(ctx context.Context, from, to time.Time) ([]model.AttendanceSession, error)
}

const (
	_defaultHistoryLimit = 20
	_maxHistoryLimit     = 100
)

type Manager struct {
	logger *slog.Logger
	store  Store

	now func() time.Time
}

func NewManager(logger *slog.Logger, store Store) *Manager {
	return &Manager{
		logger: logger.With("module", "attendance"),
		store:  store,
		now:    time.Now,
	}
}

// Status returns the user's active session, or nil when the user is not
// clocked in. No side effects.
func (m *Manager) Status(ctx context.Context, user model.ID) (*model.AttendanceSession, error) {
	session, err := m.store.GetActive(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &session, nil
}

// ClockIn opens a new active session. The check-then-insert race is settled
// by the store's partial unique index: the losing insert comes back as
// model.ErrExists and is reported as ErrAlreadyClockedIn.
func (m *Manager) ClockIn(ctx context.Context, user model.ID, notes *string) (model.AttendanceSession, error) {
	id, err := m.store.Insert(ctx, database.InsertSessionDTO{
		User:    user,
		ClockIn: m.now(),
		Notes:   notes,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			return model.AttendanceSession{}, ErrAlreadyClockedIn
		}

		return model.AttendanceSession{}, err
	}

	session, err := m.store.Get(ctx, id)
	if err != nil {
		return model.AttendanceSession{}, err
	}

	m.logger.Info("clocked in", "userId", user, "sessionId", session.ID)

	return session, nil
}

// ClockOut finalizes the active session: clock-out time and rounded duration
// are written exactly once, extra notes are appended with a newline join.
func (m *Manager) ClockOut(ctx context.Context, user model.ID, notes string) (model.AttendanceSession, error) {
	session, err := m.store.Complete(ctx, database.CompleteSessionDTO{
		User:     user,
		ClockOut: m.now(),
		Notes:    notes,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.AttendanceSession{}, ErrNotClockedIn
		}

		return model.AttendanceSession{}, err
	}

	m.logger.Info("clocked out",
		"userId", user,
		"sessionId", session.ID,
		"workDurationMinutes", session.WorkDurationMinutes,
	)

	return session, nil
}

// History lists the user's sessions, newest first.
func (m *Manager) History(ctx context.Context, user model.ID, limit int) ([]model.AttendanceSession, error) {
	if limit <= 0 {
		limit = _defaultHistoryLimit
	}
	if limit > _maxHistoryLimit {
		limit = _maxHistoryLimit
	}

	return m.store.FindByUser(ctx, user, database.FindOptions{Limit: limit})
}

// TodayForAll lists every user's sessions that started today (UTC), newest
// first. Admin-only at the route layer.
func (m *Manager) TodayForAll(ctx context.Context) ([]model.AttendanceSession, error) {
	now := m.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return m.store.FindBetween(ctx, from, from.Add(24*time.Hour))
}
