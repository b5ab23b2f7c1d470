package notify

import "github.com/teamdesk/teamdesk/internal/model"

// EntityContext carries the surrounding ownership facts Resolve needs:
// who held the entity before the mutation and who the project stakeholders
// are. Fields that do not apply to a given change kind stay nil.
type EntityContext struct {
	PrevAssignee *model.ID
	PrevCreator  *model.ID
	NewAssignee  *model.ID

	ProjectAssignee *model.ID
	ProjectManager  *model.ID
	Grantee         *model.ID
	Admins          []model.ID
}

// Resolve computes the ordered, deduplicated recipient set for a change.
// The actor is never included. An empty result means nothing is dispatched.
func Resolve(change Change, entity EntityContext) []model.ID {
	recipients := make([]model.ID, 0, 2+len(entity.Admins))

	switch change.Kind {
	case KindAssignmentChanged:
		recipients = appendRecipient(recipients, entity.NewAssignee, change.Actor)

	case KindStatusChanged, KindPriorityChanged, KindContentUpdated:
		// Previous holder first, the creator as fallback. Only one of the
		// two is notified.
		if entity.PrevAssignee != nil && *entity.PrevAssignee != change.Actor {
			recipients = appendRecipient(recipients, entity.PrevAssignee, change.Actor)
		} else {
			recipients = appendRecipient(recipients, entity.PrevCreator, change.Actor)
		}

	case KindMilestoneCreated:
		recipients = appendRecipient(recipients, entity.ProjectAssignee, change.Actor)
		recipients = appendRecipient(recipients, entity.ProjectManager, change.Actor)
		for i := range entity.Admins {
			recipients = appendRecipient(recipients, &entity.Admins[i], change.Actor)
		}

	case KindAccessUpdated:
		recipients = appendRecipient(recipients, entity.Grantee, change.Actor)
		recipients = appendRecipient(recipients, entity.ProjectAssignee, change.Actor)
		recipients = appendRecipient(recipients, entity.ProjectManager, change.Actor)
	}

	return recipients
}

func appendRecipient(recipients []model.ID, candidate *model.ID, actor model.ID) []model.ID {
	if candidate == nil || *candidate == actor {
		return recipients
	}
	for _, id := range recipients {
		if id == *candidate {
			return recipients
		}
	}
	return append(recipients, *candidate)
}
