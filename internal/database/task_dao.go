package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type TaskDAO struct {
	Logger *slog.Logger
	*DB
}

func NewTaskDAO(logger *slog.Logger, db *DB) *TaskDAO {
	return &TaskDAO{
		Logger: logger.With("dao", "task"),
		DB:     db,
	}
}

func (dao *TaskDAO) Get(ctx context.Context, id model.ID) (model.Task, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Task{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var task model.Task
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&task); err != nil {
		if IsNoRows(err) {
			return model.Task{}, model.NewError("task", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.Task{}, err
	}

	return task, nil
}

type InsertTaskDTO struct {
	Project     model.ID
	Title       string
	Description *string
	Status      string
	Priority    string
	Label       *string
	AssignedTo  *model.ID
	CreatedBy   model.ID
}

func (dao *TaskDAO) Insert(ctx context.Context, dto InsertTaskDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("tasks").
		Columns("project_id", "title", "description", "status", "priority", "label", "assigned_user_id", "created_by").
		Values(dto.Project, dto.Title, dto.Description, dto.Status, dto.Priority, dto.Label, dto.AssignedTo, dto.CreatedBy).
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

type UpdateTaskDTO struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Label       *string
	AssignedTo  *model.ID
}

func (dao *TaskDAO) Update(ctx context.Context, id model.ID, dto UpdateTaskDTO) error {
	logger := dao.Logger.With("query", "update")

	data := make(map[string]any, 7)
	data["updated_at"] = time.Now()
	if dto.Title != nil {
		data["title"] = *dto.Title
	}
	if dto.Description != nil {
		data["description"] = *dto.Description
	}
	if dto.Status != nil {
		data["status"] = *dto.Status
	}
	if dto.Priority != nil {
		data["priority"] = *dto.Priority
	}
	if dto.Label != nil {
		data["label"] = *dto.Label
	}
	if dto.AssignedTo != nil {
		data["assigned_user_id"] = *dto.AssignedTo
	}

	query, args, err := dao.Builder.
		Update("tasks").
		SetMap(data).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return err
	}

	logger.Debug("success query execute", "updateId", id, "countUpdatedFields", len(data))

	return nil
}
