package main

import (
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/validator"
)

// Validation rules

const _maxNotesRunes = 2000

var (
	_taskStatuses   = []string{"todo", "in_progress", "review", "done"}
	_taskPriorities = []string{"low", "medium", "high", "urgent"}
	_accessLevels   = []string{"viewer", "editor", "owner"}
)

func validateRequestLogin(v *validator.Validator, request requestLogin) {
	v.CheckField(validator.NotBlank(request.Email), "email", "cannot be blank")
	v.CheckField(validator.IsEmail(request.Email), "email", "must be a valid email address")
	v.CheckField(validator.NotBlank(request.Password), "password", "cannot be blank")
}

func validateRequestCreateUser(v *validator.Validator, request requestCreateUser) {
	v.CheckField(validator.NotBlank(request.Name), "name", "cannot be blank")
	v.CheckField(validator.NotBlank(request.Email), "email", "cannot be blank")
	v.CheckField(validator.IsEmail(request.Email), "email", "must be a valid email address")
	v.CheckField(validator.MinRunes(request.Password, 8), "password", "must be at least 8 characters")
	v.CheckField(validator.In(request.Role, model.RoleAdmin, model.RoleMember), "role", "must be admin or member")
}

func validateRequestClock(v *validator.Validator, request requestClock) {
	if request.Notes != nil {
		v.CheckField(validator.MaxRunes(*request.Notes, _maxNotesRunes), "notes", "is too long")
	}
}

func validateRequestUpdateTask(v *validator.Validator, request requestUpdateTask) {
	if request.Title != nil {
		v.CheckField(validator.NotBlank(*request.Title), "title", "cannot be blank")
	}
	if request.Status != nil {
		v.CheckField(validator.In(*request.Status, _taskStatuses...), "status", "is not a valid status")
	}
	if request.Priority != nil {
		v.CheckField(validator.In(*request.Priority, _taskPriorities...), "priority", "is not a valid priority")
	}
}

func validateRequestCreateTask(v *validator.Validator, request requestCreateTask) {
	v.CheckField(validator.NotBlank(request.Title), "title", "cannot be blank")
	if request.Status != nil {
		v.CheckField(validator.In(*request.Status, _taskStatuses...), "status", "is not a valid status")
	}
	if request.Priority != nil {
		v.CheckField(validator.In(*request.Priority, _taskPriorities...), "priority", "is not a valid priority")
	}
}

func validateRequestCreateMilestone(v *validator.Validator, request requestCreateMilestone) {
	v.CheckField(validator.NotBlank(request.Title), "title", "cannot be blank")
}

func validateRequestGrantAccess(v *validator.Validator, request requestGrantAccess) {
	v.CheckField(request.UserID != 0, "userId", "cannot be blank")
	v.CheckField(validator.In(request.Level, _accessLevels...), "level", "is not a valid access level")
}

func validateRequestCreateProject(v *validator.Validator, request requestCreateProject) {
	v.CheckField(validator.NotBlank(request.Name), "name", "cannot be blank")
}
