package main

import (
	"errors"
	"net/http"

	"github.com/teamdesk/teamdesk/internal/ctxstore"
	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/password"
	"github.com/teamdesk/teamdesk/internal/request"
	"github.com/teamdesk/teamdesk/internal/response"
	"github.com/teamdesk/teamdesk/internal/validator"
)

// Handle Status
// @Summary Server Status
// @Description Check if the server is up and running
// @Tags api
// @Produce json
// @Success 200 {object} map[string]string
// @Router /status [get]
func (app *application) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, response.JSONObject{"status": "OK"}); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Login
// @Summary Login
// @Description Exchange email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body main.requestLogin true "Credentials"
// @Success 200 {object} main.responseLogin
// @Failure 401 {object} any "Invalid credentials"
// @Router /auth/login [post]
func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestLogin
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestLogin(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewUserDAO(logger, app.db)

	user, err := dao.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	matches, err := password.Matches(input.Password, user.PasswordHash)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !matches {
		app.errorMessage(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := newToken(app.config.jwt.secret, user)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, responseLogin{Token: token, User: user}); err != nil {
		app.serverError(w, r, err)
	}
}

type requestLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type responseLogin struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Handle List Users
// @Summary List Users
// @Description Team directory, ordered by name
// @Tags users
// @Produce json
// @Success 200 {array} model.User
// @Router /users [get]
func (app *application) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	opts := database.FindOptions{
		Limit:  defaultIntQueryParams(r, "limit", 100),
		Offset: defaultIntQueryParams(r, "offset", 0),
	}

	dao := database.NewUserDAO(logger, app.db)

	users, err := dao.Find(ctx, opts)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, users); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Create User
// @Summary Create User
// @Description Add a user to the directory (admin only)
// @Tags users
// @Accept json
// @Produce json
// @Param input body main.requestCreateUser true "New user"
// @Success 201 {object} model.User
// @Failure 409 {object} any "Email already taken"
// @Router /users [post]
func (app *application) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestCreateUser
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestCreateUser(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	dao := database.NewUserDAO(logger, app.db)

	userID, err := dao.Insert(ctx, database.InsertUserDTO{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			app.errorMessage(w, r, http.StatusConflict, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	user, err := dao.Get(ctx, userID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, user); err != nil {
		app.serverError(w, r, err)
	}
}

type requestCreateUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
