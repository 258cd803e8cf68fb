package relationship

import "github.com/focuspact/focuspact/internal/models"

// ActionState is the derived per-viewer action for one (other, role) pair. It
// is recomputed from current request/relationship state on every refresh and
// never persisted.
type ActionState string

const (
	// ActionRequest: no relationship, nothing pending; offer to send.
	ActionRequest ActionState = "request"
	// ActionSent: outgoing pending; offer to cancel.
	ActionSent ActionState = "sent"
	// ActionRespond: incoming pending; offer accept/decline.
	ActionRespond ActionState = "accept/decline"
	// ActionRemove: the relationship exists; offer the destructive removal.
	ActionRemove ActionState = "remove"
)

// DeriveActionState computes the viewer's action toward other for role.
// role is read from the viewer's perspective: role=trainee asks "should I
// offer to become other's trainee", which is established once other is in the
// viewer's coachIds. Pure function of the inputs.
func DeriveActionState(viewer, other string, role models.Role, viewerSettings *models.UserSettings, pending []models.RoleRequest) ActionState {
	if viewerSettings != nil {
		established := false
		switch role {
		case models.RoleTrainee:
			established = viewerSettings.HasCoach(other)
		case models.RoleCoach:
			established = viewerSettings.HasTrainee(other)
		}
		if established {
			return ActionRemove
		}
	}

	for i := range pending {
		r := &pending[i]
		if r.Status != models.RoleRequestPending {
			continue
		}
		if r.RequesterID == viewer && r.TargetID == other && r.Role == role {
			return ActionSent
		}
		// An incoming request carries the requester's role, so it lands in
		// the viewer's opposite pane: their trainee request asks the viewer
		// to coach.
		if r.RequesterID == other && r.TargetID == viewer && r.Role == counterpart(role) {
			return ActionRespond
		}
	}
	return ActionRequest
}

func counterpart(role models.Role) models.Role {
	if role == models.RoleTrainee {
		return models.RoleCoach
	}
	return models.RoleTrainee
}
