package model

import (
	"encoding/json"
	"time"
)

type ID = uint

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Project struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name         string `json:"name" db:"name"`
	AssignedUser *ID    `json:"assignedUserId" db:"assigned_user_id"`
	Manager      *ID    `json:"managerId" db:"manager_id"`
	CreatedBy    ID     `json:"createdBy" db:"created_by"`
}

type Task struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Project     ID      `json:"projectId" db:"project_id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description" db:"description"`
	Status      string  `json:"status" db:"status"`
	Priority    string  `json:"priority" db:"priority"`
	Label       *string `json:"label,omitempty" db:"label"`
	AssignedTo  *ID     `json:"assignedUserId" db:"assigned_user_id"`
	CreatedBy   ID      `json:"createdBy" db:"created_by"`
}

type Milestone struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Project   ID         `json:"projectId" db:"project_id"`
	Title     string     `json:"title" db:"title"`
	DueDate   *time.Time `json:"dueDate" db:"due_date"`
	CreatedBy ID         `json:"createdBy" db:"created_by"`
}

type ProjectAccess struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Project   ID     `json:"projectId" db:"project_id"`
	User      ID     `json:"userId" db:"user_id"`
	Level     string `json:"level" db:"level"`
	GrantedBy ID     `json:"grantedBy" db:"granted_by"`
}

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

type AttendanceSession struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	User                ID         `json:"userId" db:"user_id"`
	ClockInTime         time.Time  `json:"clockInTime" db:"clock_in_time"`
	ClockOutTime        *time.Time `json:"clockOutTime" db:"clock_out_time"`
	WorkDurationMinutes *int       `json:"workDurationMinutes" db:"work_duration_minutes"`
	Status              string     `json:"status" db:"status"`
	Notes               *string    `json:"notes" db:"notes"`
}

// ElapsedMinutes reports how long an active session has been running as of
// now, rounded to the nearest whole minute. Display-only; completed sessions
// carry WorkDurationMinutes instead.
func (s AttendanceSession) ElapsedMinutes(now time.Time) int {
	return int(now.Sub(s.ClockInTime).Round(time.Minute) / time.Minute)
}

type Notification struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	User    ID              `json:"userId" db:"user_id"`
	Type    string          `json:"type" db:"type"`
	Message string          `json:"message" db:"message"`
	Data    json.RawMessage `json:"data" db:"data"`
	IsRead  bool            `json:"isRead" db:"is_read"`
}
