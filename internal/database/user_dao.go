package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/teamdesk/teamdesk/internal/model"
)

type UserDAO struct {
	Logger *slog.Logger
	*DB
}

func NewUserDAO(logger *slog.Logger, db *DB) *UserDAO {
	return &UserDAO{
		Logger: logger.With("dao", "user"),
		DB:     db,
	}
}

func (dao *UserDAO) Get(ctx context.Context, id model.ID) (model.User, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var user model.User
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&user); err != nil {
		if IsNoRows(err) {
			return model.User{}, model.NewError("user", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.User{}, err
	}

	return user, nil
}

func (dao *UserDAO) GetByEmail(ctx context.Context, email string) (model.User, error) {
	logger := dao.Logger.With("query", "getByEmail")

	query, args, err := dao.Builder.
		Select("*").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var user model.User
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&user); err != nil {
		if IsNoRows(err) {
			return model.User{}, model.NewError("user", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.User{}, err
	}

	return user, nil
}

func (dao *UserDAO) Find(ctx context.Context, opts FindOptions) ([]model.User, error) {
	logger := dao.Logger.With("query", "find")

	query, args, err := dao.Builder.
		Select("*").
		From("users").
		OrderBy("name ASC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return []model.User{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	users := make([]model.User, 0, opts.Limit)
	if err := dao.SelectContext(ctx, &users, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.User{}, err
	}

	logger.Debug("success query execute", "countUsers", len(users))

	return users, nil
}

// FindIDsByRole returns the ids of every user holding the given role. The
// notification resolver uses it to pull the admin audience.
func (dao *UserDAO) FindIDsByRole(ctx context.Context, role string) ([]model.ID, error) {
	logger := dao.Logger.With("query", "findIDsByRole")

	query, args, err := dao.Builder.
		Select("id").
		From("users").
		Where(squirrel.Eq{"role": role}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return []model.ID{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	ids := make([]model.ID, 0)
	if err := dao.SelectContext(ctx, &ids, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return []model.ID{}, err
	}

	return ids, nil
}

type InsertUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func (dao *UserDAO) Insert(ctx context.Context, dto InsertUserDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("users").
		Columns("name", "email", "password_hash", "role").
		Values(dto.Name, dto.Email, dto.PasswordHash, dto.Role).
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
			return 0, model.NewError("user", model.ErrExists)
		}

		logger.Warn("failed query execute", "error", err)

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}
