package database

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type NotificationDAO struct {
	Logger *slog.Logger
	*DB
}

func NewNotificationDAO(logger *slog.Logger, db *DB) *NotificationDAO {
	return &NotificationDAO{
		Logger: logger.With("dao", "notification"),
		DB:     db,
	}
}

func (dao *NotificationDAO) Get(ctx context.Context, id model.ID) (model.Notification, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("notifications").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Notification{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var notification model.Notification
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&notification); err != nil {
		if IsNoRows(err) {
			return model.Notification{}, model.NewError("notification", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.Notification{}, err
	}

	return notification, nil
}

type InsertNotificationDTO struct {
	User    model.ID
	Type    string
	Message string
	Data    json.RawMessage
}

func (dao *NotificationDAO) Insert(ctx context.Context, dto InsertNotificationDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	if len(dto.Data) == 0 {
		dto.Data = json.RawMessage("{}")
	}

	query, args, err := dao.Builder.
		Insert("notifications").
		Columns("user_id", "type", "message", "data").
		Values(dto.User, dto.Type, dto.Message, []byte(dto.Data)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		logger.Warn("failed query execute", "error", err)

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

func (dao *NotificationDAO) FindByUser(ctx context.Context, user model.ID, opts FindOptions) ([]model.Notification, error) {
	logger := dao.Logger.With("query", "findByUser")

	query, args, err := dao.Builder.
		Select("*").
		From("notifications").
		Where(squirrel.Eq{"user_id": user}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return []model.Notification{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	notifications := make([]model.Notification, 0, opts.Limit)
	if err := dao.SelectContext(ctx, &notifications, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.Notification{}, err
	}

	logger.Debug("success query execute", "countNotifications", len(notifications))

	return notifications, nil
}

// MarkAllRead flips every unread row for the user. Already-read rows are left
// untouched, so repeated calls are no-ops.
func (dao *NotificationDAO) MarkAllRead(ctx context.Context, user model.ID) (int64, error) {
	logger := dao.Logger.With("query", "markAllRead")

	query, args, err := dao.Builder.
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": user}).
		Where(squirrel.Eq{"is_read": false}).
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	res, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Warn("failed query execute", "error", err)

		return 0, err
	}

	marked, _ := res.RowsAffected()

	logger.Debug("success query execute", "countMarked", marked)

	return marked, nil
}
