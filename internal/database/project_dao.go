package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type ProjectDAO struct {
	Logger *slog.Logger
	*DB
}

func NewProjectDAO(logger *slog.Logger, db *DB) *ProjectDAO {
	return &ProjectDAO{
		Logger: logger.With("dao", "project"),
		DB:     db,
	}
}

func (dao *ProjectDAO) Get(ctx context.Context, id model.ID) (model.Project, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("projects").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Project{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var project model.Project
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&project); err != nil {
		if IsNoRows(err) {
			return model.Project{}, model.NewError("project", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.Project{}, err
	}

	return project, nil
}

type InsertProjectDTO struct {
	Name         string
	AssignedUser *model.ID
	Manager      *model.ID
	CreatedBy    model.ID
}

func (dao *ProjectDAO) Insert(ctx context.Context, dto InsertProjectDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("projects").
		Columns("name", "assigned_user_id", "manager_id", "created_by").
		Values(dto.Name, dto.AssignedUser, dto.Manager, dto.CreatedBy).
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

type MilestoneDAO struct {
	Logger *slog.Logger
	*DB
}

func NewMilestoneDAO(logger *slog.Logger, db *DB) *MilestoneDAO {
	return &MilestoneDAO{
		Logger: logger.With("dao", "milestone"),
		DB:     db,
	}
}

type InsertMilestoneDTO struct {
	Project   model.ID
	Title     string
	DueDate   *time.Time
	CreatedBy model.ID
}

func (dao *MilestoneDAO) Insert(ctx context.Context, dto InsertMilestoneDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("milestones").
		Columns("project_id", "title", "due_date", "created_by").
		Values(dto.Project, dto.Title, dto.DueDate, dto.CreatedBy).
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

func (dao *MilestoneDAO) Get(ctx context.Context, id model.ID) (model.Milestone, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("milestones").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Milestone{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var milestone model.Milestone
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&milestone); err != nil {
		if IsNoRows(err) {
			return model.Milestone{}, model.NewError("milestone", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.Milestone{}, err
	}

	return milestone, nil
}
