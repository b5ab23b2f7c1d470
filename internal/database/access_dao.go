package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type AccessDAO struct {
	Logger *slog.Logger
	*DB
}

func NewAccessDAO(logger *slog.Logger, db *DB) *AccessDAO {
	return &AccessDAO{
		Logger: logger.With("dao", "access"),
		DB:     db,
	}
}

type UpsertAccessDTO struct {
	Project   model.ID
	User      model.ID
	Level     string
	GrantedBy model.ID
}

// Upsert grants access or updates the level of an existing grant. One row per
// (project, user) pair, enforced by the table's unique constraint.
func (dao *AccessDAO) Upsert(ctx context.Context, dto UpsertAccessDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "upsert")

	query, args, err := dao.Builder.
		Insert("project_access").
		Columns("project_id", "user_id", "level", "granted_by").
		Values(dto.Project, dto.User, dto.Level, dto.GrantedBy).
		Suffix("ON CONFLICT (project_id, user_id) DO UPDATE SET level = EXCLUDED.level, granted_by = EXCLUDED.granted_by, updated_at = now()").
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

	logger.Debug("success query execute", "accessId", id)

	return id, nil
}

func (dao *AccessDAO) Get(ctx context.Context, id model.ID) (model.ProjectAccess, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("project_access").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.ProjectAccess{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var access model.ProjectAccess
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&access); err != nil {
		if IsNoRows(err) {
			return model.ProjectAccess{}, model.NewError("project access", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.ProjectAccess{}, err
	}

	return access, nil
}

func (dao *AccessDAO) FindByProject(ctx context.Context, project model.ID) ([]model.ProjectAccess, error) {
	logger := dao.Logger.With("query", "findByProject")

	query, args, err := dao.Builder.
		Select("*").
		From("project_access").
		Where(squirrel.Eq{"project_id": project}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return []model.ProjectAccess{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	grants := make([]model.ProjectAccess, 0)
	if err := dao.SelectContext(ctx, &grants, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.ProjectAccess{}, err
	}

	return grants, nil
}
