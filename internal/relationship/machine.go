// Package relationship manages friendship requests and coach/trainee role
// requests between two user identities, and derives who may observe or unlock
// whom. The backend store is the arbiter of relationship state; concurrent
// accept/cancel from two devices resolves last-write-wins.
package relationship

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/focuspact/focuspact/internal/models"
)

var (
	ErrSelfRequest      = errors.New("cannot send a request to yourself")
	ErrAlreadyFriends   = errors.New("you are already friends")
	ErrAlreadyRequested = errors.New("a request is already pending")
	ErrNotFriends       = errors.New("you must be friends first")
	ErrNotFound         = errors.New("request not found")
	ErrNotAuthorized    = errors.New("you cannot act on this request")
)

// Store is the document-store surface the machine needs. The production
// implementation sits on MongoDB; tests use an in-memory fake.
type Store interface {
	InsertFriendship(ctx context.Context, f *models.Friendship) error
	FindFriendship(ctx context.Context, a, b string) (*models.Friendship, error)
	GetFriendship(ctx context.Context, id string) (*models.Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id string) error
	ListFriendships(ctx context.Context, uid string) ([]models.Friendship, error)

	InsertRoleRequest(ctx context.Context, r *models.RoleRequest) error
	GetRoleRequest(ctx context.Context, id string) (*models.RoleRequest, error)
	FindPendingRoleRequest(ctx context.Context, requester, target string, role models.Role) (*models.RoleRequest, error)
	ListPendingRoleRequests(ctx context.Context, uid string) ([]models.RoleRequest, error)
	ResolveRoleRequest(ctx context.Context, id string, status models.RoleRequestStatus, at time.Time) error

	// AddRelation/RemoveRelation mutate both sides' id sets: the coach's
	// traineeIds and the trainee's coachIds.
	AddRelation(ctx context.Context, coachID, traineeID string) error
	RemoveRelation(ctx context.Context, coachID, traineeID string) error
}

// Machine is the relationship request state machine.
type Machine struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Machine {
	return &Machine{store: store, now: time.Now}
}

// SetNow overrides the machine clock; used by tests.
func (m *Machine) SetNow(now func() time.Time) { m.now = now }

// RequestFriendship creates a pending friendship from requester to requestee.
func (m *Machine) RequestFriendship(ctx context.Context, requester, requestee string) (*models.Friendship, error) {
	if requester == requestee {
		return nil, ErrSelfRequest
	}
	existing, err := m.store.FindFriendship(ctx, requester, requestee)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.FriendshipAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrAlreadyRequested
	}

	f := &models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requester,
		RequesteeID: requestee,
		Status:      models.FriendshipPending,
		CreatedAt:   m.now().UTC(),
	}
	if err := m.store.InsertFriendship(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// AcceptFriendship transitions a pending friendship to accepted. Only the
// requestee may accept.
func (m *Machine) AcceptFriendship(ctx context.Context, id, actor string) error {
	f, err := m.store.GetFriendship(ctx, id)
	if err != nil {
		return err
	}
	if f == nil || f.Status != models.FriendshipPending {
		return ErrNotFound
	}
	if f.RequesteeID != actor {
		return ErrNotAuthorized
	}
	return m.store.UpdateFriendshipStatus(ctx, id, models.FriendshipAccepted)
}

// DeclineFriendship deletes a pending friendship. Declining an incoming
// request and cancelling an outgoing one are the same operation; no declined
// terminal record is retained.
func (m *Machine) DeclineFriendship(ctx context.Context, id, actor string) error {
	f, err := m.store.GetFriendship(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrNotFound
	}
	if !f.Involves(actor) {
		return ErrNotAuthorized
	}
	return m.store.DeleteFriendship(ctx, id)
}

// Friends returns the uids of uid's accepted friends, queried from both
// requester and requestee sides.
func (m *Machine) Friends(ctx context.Context, uid string) ([]string, error) {
	all, err := m.store.ListFriendships(ctx, uid)
	if err != nil {
		return nil, err
	}
	var friends []string
	for i := range all {
		if all[i].Status == models.FriendshipAccepted {
			friends = append(friends, all[i].Other(uid))
		}
	}
	return friends, nil
}

// PendingFriendships returns uid's unresolved friendship requests, both
// directions.
func (m *Machine) PendingFriendships(ctx context.Context, uid string) ([]models.Friendship, error) {
	all, err := m.store.ListFriendships(ctx, uid)
	if err != nil {
		return nil, err
	}
	var pending []models.Friendship
	for i := range all {
		if all[i].Status == models.FriendshipPending {
			pending = append(pending, all[i])
		}
	}
	return pending, nil
}

// areFriends reports whether the pair has an accepted friendship.
func (m *Machine) areFriends(ctx context.Context, a, b string) (bool, error) {
	f, err := m.store.FindFriendship(ctx, a, b)
	if err != nil {
		return false, err
	}
	return f != nil && f.Status == models.FriendshipAccepted, nil
}

// RequestRole creates a pending role request. The pair must already be
// friends, and at most one pending request may exist per
// (requester, target, role) tuple.
func (m *Machine) RequestRole(ctx context.Context, requester, target string, role models.Role) (*models.RoleRequest, error) {
	if requester == target {
		return nil, ErrSelfRequest
	}
	if !models.ValidRole(role) {
		return nil, errors.New("unknown role")
	}
	friends, err := m.areFriends(ctx, requester, target)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}
	existing, err := m.store.FindPendingRoleRequest(ctx, requester, target, role)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRequested
	}

	r := &models.RoleRequest{
		ID:          uuid.New().String(),
		RequesterID: requester,
		TargetID:    target,
		Role:        role,
		Status:      models.RoleRequestPending,
		CreatedAt:   m.now().UTC(),
	}
	if err := m.store.InsertRoleRequest(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// AcceptRoleRequest resolves a pending request and wires both sides' id sets.
// role=trainee accepted means the requester becomes the target's trainee: the
// requester's coachIds gains the target and the target's traineeIds gains the
// requester. Symmetric for role=coach. Nothing else is mutated, and any other
// pending request between the pair is left untouched.
func (m *Machine) AcceptRoleRequest(ctx context.Context, id, actor string) error {
	r, err := m.pendingRequestFor(ctx, id)
	if err != nil {
		return err
	}
	if r.TargetID != actor {
		return ErrNotAuthorized
	}

	coachID, traineeID := r.TargetID, r.RequesterID
	if r.Role == models.RoleCoach {
		coachID, traineeID = r.RequesterID, r.TargetID
	}
	if err := m.store.AddRelation(ctx, coachID, traineeID); err != nil {
		return err
	}
	return m.store.ResolveRoleRequest(ctx, id, models.RoleRequestAccepted, m.now().UTC())
}

// DeclineRoleRequest resolves a pending request as declined. Target only.
func (m *Machine) DeclineRoleRequest(ctx context.Context, id, actor string) error {
	r, err := m.pendingRequestFor(ctx, id)
	if err != nil {
		return err
	}
	if r.TargetID != actor {
		return ErrNotAuthorized
	}
	return m.store.ResolveRoleRequest(ctx, id, models.RoleRequestDeclined, m.now().UTC())
}

// CancelRoleRequest resolves a pending request as cancelled. Requester only.
func (m *Machine) CancelRoleRequest(ctx context.Context, id, actor string) error {
	r, err := m.pendingRequestFor(ctx, id)
	if err != nil {
		return err
	}
	if r.RequesterID != actor {
		return ErrNotAuthorized
	}
	return m.store.ResolveRoleRequest(ctx, id, models.RoleRequestCancelled, m.now().UTC())
}

// RemoveRole removes an established coach/trainee relationship immediately.
// It is a direct mutation of both sides' id sets, not a request: no
// counterpart confirmation is involved. role names what other currently is to
// actor: role=coach removes other as actor's coach.
func (m *Machine) RemoveRole(ctx context.Context, actor, other string, role models.Role) error {
	if !models.ValidRole(role) {
		return errors.New("unknown role")
	}
	coachID, traineeID := other, actor
	if role == models.RoleTrainee {
		coachID, traineeID = actor, other
	}
	return m.store.RemoveRelation(ctx, coachID, traineeID)
}

// PendingRoleRequests lists pending requests involving uid, both directions.
func (m *Machine) PendingRoleRequests(ctx context.Context, uid string) ([]models.RoleRequest, error) {
	return m.store.ListPendingRoleRequests(ctx, uid)
}

func (m *Machine) pendingRequestFor(ctx context.Context, id string) (*models.RoleRequest, error) {
	r, err := m.store.GetRoleRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.Status != models.RoleRequestPending {
		return nil, ErrNotFound
	}
	return r, nil
}
