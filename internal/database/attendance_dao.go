package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type AttendanceDAO struct {
	Logger *slog.Logger
	*DB
}

func NewAttendanceDAO(logger *slog.Logger, db *DB) *AttendanceDAO {
	return &AttendanceDAO{
		Logger: logger.With("dao", "attendance"),
		DB:     db,
	}
}

func (dao *AttendanceDAO) Get(ctx context.Context, id model.ID) (model.AttendanceSession, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("attendance_sessions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.AttendanceSession{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var session model.AttendanceSession
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.AttendanceSession{}, err
	}

	return session, nil
}

// GetActive returns the single active session for a user, if any. The partial
// unique index on (user_id) WHERE status = 'active' guarantees at most one row.
func (dao *AttendanceDAO) GetActive(ctx context.Context, user model.ID) (model.AttendanceSession, error) {
	logger := dao.Logger.With("query", "getActive")

	query, args, err := dao.Builder.
		Select("*").
		From("attendance_sessions").
		Where(squirrel.Eq{"user_id": user}).
		Where(squirrel.Eq{"status": model.SessionActive}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.AttendanceSession{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var session model.AttendanceSession
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.AttendanceSession{}, err
	}

	return session, nil
}

type InsertSessionDTO struct {
	User    model.ID
	ClockIn time.Time
	Notes   *string
}

// Insert creates a new active session. A concurrent insert for the same user
// loses to the partial unique index and surfaces as model.ErrExists.
func (dao *AttendanceDAO) Insert(ctx context.Context, dto InsertSessionDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("attendance_sessions").
		Columns("user_id", "clock_in_time", "status", "notes").
		Values(dto.User, dto.ClockIn, model.SessionActive, dto.Notes).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		if IsUniqueViolation(err) {
			return 0, model.NewError("attendance session", model.ErrExists)
		}

		logger.Warn("failed query execute", "error", err)

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

type CompleteSessionDTO struct {
	User     model.ID
	ClockOut time.Time
	Notes    string
}

// Complete finalizes the user's active session in a single conditional
// UPDATE: duration and notes append happen store-side so two concurrent
// clock-outs cannot both win. Returns model.ErrNotFound wrapped when no
// active session exists.
func (dao *AttendanceDAO) Complete(ctx context.Context, dto CompleteSessionDTO) (model.AttendanceSession, error) {
	logger := dao.Logger.With("query", "complete")

	query, args, err := dao.Builder.
		Update("attendance_sessions").
		Set("status", model.SessionCompleted).
		Set("clock_out_time", dto.ClockOut).
		Set("work_duration_minutes", squirrel.Expr(
			"ROUND(EXTRACT(EPOCH FROM (?::timestamptz - clock_in_time)) / 60)::int", dto.ClockOut,
		)).
		Set("notes", squirrel.Expr(
			"CASE WHEN ? = '' THEN notes WHEN notes IS NULL OR notes = '' THEN ? ELSE notes || E'\\n' || ? END",
			dto.Notes, dto.Notes, dto.Notes,
		)).
		Where(squirrel.Eq{"user_id": dto.User}).
		Where(squirrel.Eq{"status": model.SessionActive}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return model.AttendanceSession{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var session model.AttendanceSession
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.AttendanceSession{}, model.NewError("attendance session", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.AttendanceSession{}, err
	}

	logger.Debug("success query execute", "sessionId", session.ID)

	return session, nil
}

func (dao *AttendanceDAO) FindByUser(ctx context.Context, user model.ID, opts FindOptions) ([]model.AttendanceSession, error) {
	logger := dao.Logger.With("query", "findByUser")

	query, args, err := dao.Builder.
		Select("*").
		From("attendance_sessions").
		Where(squirrel.Eq{"user_id": user}).
		OrderBy("clock_in_time DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return []model.AttendanceSession{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	sessions := make([]model.AttendanceSession, 0, opts.Limit)
	if err := dao.SelectContext(ctx, &sessions, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.AttendanceSession{}, err
	}

	logger.Debug("success query execute", "countSessions", len(sessions))

	return sessions, nil
}

// FindBetween lists every user's sessions that clocked in inside [from, to),
// newest first. Used for the admin daily overview.
func (dao *AttendanceDAO) FindBetween(ctx context.Context, from, to time.Time) ([]model.AttendanceSession, error) {
	logger := dao.Logger.With("query", "findBetween")

	query, args, err := dao.Builder.
		Select("*").
		From("attendance_sessions").
		Where(squirrel.GtOrEq{"clock_in_time": from}).
		Where(squirrel.Lt{"clock_in_time": to}).
		OrderBy("clock_in_time DESC").
		ToSql()
	if err != nil {
		return []model.AttendanceSession{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	sessions := make([]model.AttendanceSession, 0)
	if err := dao.SelectContext(ctx, &sessions, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.AttendanceSession{}, err
	}

	return sessions, nil
}
