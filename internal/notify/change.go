// Package notify turns entity mutations into persisted notifications and
// pushes them to connected clients: a pure change detector, a pure recipient
// resolver, a dispatcher, and the live channel registry.
package notify

import (
	"fmt"

	"github.com/teamdesk/teamdesk/internal/model"
)

type ChangeKind string

const (
	KindAssignmentChanged ChangeKind = "assignment_changed"
	KindStatusChanged     ChangeKind = "status_changed"
	KindPriorityChanged   ChangeKind = "priority_changed"
	KindContentUpdated    ChangeKind = "content_updated"
	KindMilestoneCreated  ChangeKind = "milestone_created"
	KindAccessUpdated     ChangeKind = "access_updated"
)

// Change is the ephemeral description of a single mutation. Constructed per
// request, handed to Resolve, then discarded.
type Change struct {
	Kind         ChangeKind
	Subject      model.ID
	SubjectLabel string
	Actor        model.ID
	Message      string
}

var _statusDisplay = map[string]string{
	"todo":        "To Do",
	"in_progress": "In Progress",
	"review":      "In Review",
	"done":        "Done",
}

func statusDisplay(status string) string {
	if display, ok := _statusDisplay[status]; ok {
		return display
	}
	return status
}

// DetectTaskChange diffs a task mutation down to at most one semantic change,
// first match wins: assignment, then status, then priority, then content.
// Unwatched fields (labels and the like) never produce a change. Pure.
func DetectTaskChange(oldTask, newTask model.Task, actor model.User) *Change {
	label := newTask.Title

	if !idEqual(oldTask.AssignedTo, newTask.AssignedTo) &&
		newTask.AssignedTo != nil && *newTask.AssignedTo != actor.ID {
		return &Change{
			Kind:         KindAssignmentChanged,
			Subject:      newTask.ID,
			SubjectLabel: label,
			Actor:        actor.ID,
			Message:      fmt.Sprintf("%s assigned you to %s", actor.Name, label),
		}
	}

	if oldTask.Status != newTask.Status {
		return &Change{
			Kind:         KindStatusChanged,
			Subject:      newTask.ID,
			SubjectLabel: label,
			Actor:        actor.ID,
			Message: fmt.Sprintf("%s moved '%s' from %s to %s",
				actor.Name, label, statusDisplay(oldTask.Status), statusDisplay(newTask.Status)),
		}
	}

	if oldTask.Priority != newTask.Priority {
		return &Change{
			Kind:         KindPriorityChanged,
			Subject:      newTask.ID,
			SubjectLabel: label,
			Actor:        actor.ID,
			Message: fmt.Sprintf("%s changed priority of '%s' to %s",
				actor.Name, label, newTask.Priority),
		}
	}

	if oldTask.Title != newTask.Title || !strEqual(oldTask.Description, newTask.Description) {
		return &Change{
			Kind:         KindContentUpdated,
			Subject:      newTask.ID,
			SubjectLabel: label,
			Actor:        actor.ID,
			Message:      fmt.Sprintf("%s updated details for %s", actor.Name, label),
		}
	}

	return nil
}

// MilestoneCreated describes a milestone creation. Creations always notify,
// no diff involved.
func MilestoneCreated(milestone model.Milestone, actor model.User) Change {
	return Change{
		Kind:         KindMilestoneCreated,
		Subject:      milestone.ID,
		SubjectLabel: milestone.Title,
		Actor:        actor.ID,
		Message:      fmt.Sprintf("%s created milestone '%s'", actor.Name, milestone.Title),
	}
}

// AccessUpdated describes an access grant or level change on a project.
func AccessUpdated(access model.ProjectAccess, projectName string, actor model.User) Change {
	return Change{
		Kind:         KindAccessUpdated,
		Subject:      access.ID,
		SubjectLabel: projectName,
		Actor:        actor.ID,
		Message:      fmt.Sprintf("%s updated access for %s", actor.Name, projectName),
	}
}

func idEqual(a, b *model.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
