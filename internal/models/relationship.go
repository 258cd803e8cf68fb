package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directional request document that becomes an undirected
// relation once accepted. Declining an incoming request and cancelling an
// outgoing one are the same operation: the document is deleted, not retained.
type Friendship struct {
	ID          string           `bson:"_id" json:"id"`
	RequesterID string           `bson:"requester_id" json:"requester_id"`
	RequesteeID string           `bson:"requestee_id" json:"requestee_id"`
	Status      FriendshipStatus `bson:"status" json:"status"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}

// Involves reports whether uid is either side of the friendship.
func (f *Friendship) Involves(uid string) bool {
	return f.RequesterID == uid || f.RequesteeID == uid
}

// Other returns the counterpart of uid, or "" when uid is not involved.
func (f *Friendship) Other(uid string) string {
	switch uid {
	case f.RequesterID:
		return f.RequesteeID
	case f.RequesteeID:
		return f.RequesterID
	}
	return ""
}

type Role string

const (
	// RoleTrainee means the requester wants to become the target's trainee
	// (the target becomes the requester's coach).
	RoleTrainee Role = "trainee"
	// RoleCoach means the requester wants to become the target's coach.
	RoleCoach Role = "coach"
)

func ValidRole(r Role) bool { return r == RoleTrainee || r == RoleCoach }

type RoleRequestStatus string

const (
	RoleRequestPending   RoleRequestStatus = "pending"
	RoleRequestAccepted  RoleRequestStatus = "accepted"
	RoleRequestDeclined  RoleRequestStatus = "declined"
	RoleRequestCancelled RoleRequestStatus = "cancelled"
)

// RoleRequest is a pending offer to establish a coach/trainee relationship
// between two already-friended identities.
type RoleRequest struct {
	ID          string            `bson:"_id" json:"id"`
	RequesterID string            `bson:"requester_id" json:"requester_id"`
	TargetID    string            `bson:"target_id" json:"target_id"`
	Role        Role              `bson:"role" json:"role"`
	Status      RoleRequestStatus `bson:"status" json:"status"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
	ResolvedAt  *time.Time        `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
