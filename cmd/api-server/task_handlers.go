package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/teamdesk/teamdesk/internal/ctxstore"
	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/notify"
	"github.com/teamdesk/teamdesk/internal/request"
	"github.com/teamdesk/teamdesk/internal/response"
	"github.com/teamdesk/teamdesk/internal/validator"
)

// Handle Get Task
// @Summary Get Task
// @Tags tasks
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} model.Task
// @Failure 404 {object} any "Task not found"
// @Router /tasks/{taskId} [get]
func (app *application) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	taskID, err := taskIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	dao := database.NewTaskDAO(logger, app.db)

	task, err := dao.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.notFound(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, task); err != nil {
		app.serverError(w, r, err)
	}
}

// Handle Update Task
// @Summary Update Task
// @Description Partial update; the dominant change fans out a notification
// @Tags tasks
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param input body main.requestUpdateTask true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 404 {object} any "Task not found"
// @Router /tasks/{taskId} [patch]
func (app *application) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)
	actor := contextUser(r)

	taskID, err := taskIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestUpdateTask
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestUpdateTask(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewTaskDAO(logger, app.db)

	oldTask, err := dao.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.notFound(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	err = dao.Update(ctx, taskID, database.UpdateTaskDTO{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Label:       input.Label,
		AssignedTo:  input.AssignedTo,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	newTask, err := dao.Get(ctx, taskID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	// Notification fan-out is side-channel: it never fails the mutation.
	if change := notify.DetectTaskChange(oldTask, newTask, actor); change != nil {
		recipients := notify.Resolve(*change, notify.EntityContext{
			PrevAssignee: oldTask.AssignedTo,
			PrevCreator:  &oldTask.CreatedBy,
			NewAssignee:  newTask.AssignedTo,
		})
		app.notifier.DispatchChange(ctx, *change, recipients)
	}

	if err := response.JSON(w, http.StatusOK, newTask); err != nil {
		app.serverError(w, r, err)
	}
}

type requestUpdateTask struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Label       *string   `json:"label"`
	AssignedTo  *model.ID `json:"assignedUserId"`
}

// Handle Create Task
// @Summary Create Task
// @Tags tasks
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param input body main.requestCreateTask true "New task"
// @Success 201 {object} model.Task
// @Router /projects/{projectId}/tasks [post]
func (app *application) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)
	actor := contextUser(r)

	projectID, err := projectIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestCreateTask
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestCreateTask(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	if _, err := database.NewProjectDAO(logger, app.db).Get(ctx, projectID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.notFound(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	dao := database.NewTaskDAO(logger, app.db)

	status := "todo"
	if input.Status != nil {
		status = *input.Status
	}
	priority := "medium"
	if input.Priority != nil {
		priority = *input.Priority
	}

	taskID, err := dao.Insert(ctx, database.InsertTaskDTO{
		Project:     projectID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		Label:       input.Label,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	task, err := dao.Get(ctx, taskID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, task); err != nil {
		app.serverError(w, r, err)
	}
}

type requestCreateTask struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Label       *string   `json:"label"`
	AssignedTo  *model.ID `json:"assignedUserId"`
}

// Handle Create Milestone
// @Summary Create Milestone
// @Description Creating a milestone notifies project stakeholders and admins
// @Tags milestones
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param input body main.requestCreateMilestone true "New milestone"
// @Success 201 {object} model.Milestone
// @Router /projects/{projectId}/milestones [post]
func (app *application) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)
	actor := contextUser(r)

	projectID, err := projectIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestCreateMilestone
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestCreateMilestone(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	project, err := database.NewProjectDAO(logger, app.db).Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.notFound(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	dao := database.NewMilestoneDAO(logger, app.db)

	milestoneID, err := dao.Insert(ctx, database.InsertMilestoneDTO{
		Project:   projectID,
		Title:     input.Title,
		DueDate:   input.DueDate,
		CreatedBy: actor.ID,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	milestone, err := dao.Get(ctx, milestoneID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	admins, err := database.NewUserDAO(logger, app.db).FindIDsByRole(ctx, model.RoleAdmin)
	if err != nil {
		// Fan out to the stakeholders we do know about.
		app.reportServerError(r, err)
		admins = nil
	}

	change := notify.MilestoneCreated(milestone, actor)
	recipients := notify.Resolve(change, notify.EntityContext{
		ProjectAssignee: project.AssignedUser,
		ProjectManager:  project.Manager,
		Admins:          admins,
	})
	app.notifier.DispatchChange(ctx, change, recipients)

	if err := response.JSON(w, http.StatusCreated, milestone); err != nil {
		app.serverError(w, r, err)
	}
}

type requestCreateMilestone struct {
	Title   string     `json:"title"`
	DueDate *time.Time `json:"dueDate"`
}

// Handle Grant Access
// @Summary Grant Access
// @Description Grant or update project access; notifies grantee and stakeholders
// @Tags access
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param input body main.requestGrantAccess true "Grant"
// @Success 201 {object} model.ProjectAccess
// @Router /projects/{projectId}/access [post]
func (app *application) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)
	actor := contextUser(r)

	projectID, err := projectIDFromRequest(r)
	if err != nil {
		app.badRequest(w, r, err)
		return
	}

	var input requestGrantAccess
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestGrantAccess(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	project, err := database.NewProjectDAO(logger, app.db).Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.notFound(w, r)
			return
		}

		app.serverError(w, r, err)
		return
	}

	dao := database.NewAccessDAO(logger, app.db)

	accessID, err := dao.Upsert(ctx, database.UpsertAccessDTO{
		Project:   projectID,
		User:      input.UserID,
		Level:     input.Level,
		GrantedBy: actor.ID,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	access, err := dao.Get(ctx, accessID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	change := notify.AccessUpdated(access, project.Name, actor)
	recipients := notify.Resolve(change, notify.EntityContext{
		Grantee:         &access.User,
		ProjectAssignee: project.AssignedUser,
		ProjectManager:  project.Manager,
	})
	app.notifier.DispatchChange(ctx, change, recipients)

	if err := response.JSON(w, http.StatusCreated, access); err != nil {
		app.serverError(w, r, err)
	}
}

type requestGrantAccess struct {
	UserID model.ID `json:"userId"`
	Level  string   `json:"level"`
}

// Handle Create Project
// @Summary Create Project
// @Tags projects
// @Accept json
// @Produce json
// @Param input body main.requestCreateProject true "New project"
// @Success 201 {object} model.Project
// @Router /projects [post]
func (app *application) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)
	actor := contextUser(r)

	var input requestCreateProject
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateRequestCreateProject(&v, input)

	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewProjectDAO(logger, app.db)

	projectID, err := dao.Insert(ctx, database.InsertProjectDTO{
		Name:         input.Name,
		AssignedUser: input.AssignedUser,
		Manager:      input.Manager,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	project, err := dao.Get(ctx, projectID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, project); err != nil {
		app.serverError(w, r, err)
	}
}

type requestCreateProject struct {
	Name         string    `json:"name"`
	AssignedUser *model.ID `json:"assignedUserId"`
	Manager      *model.ID `json:"managerId"`
}
