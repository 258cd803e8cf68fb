package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/relationship"
	"github.com/focuspact/focuspact/internal/services"
)

// FriendActionRequest is the verb-in-body payload for POST /api/friends.
// "request" takes username or user_id; "accept" and "decline" take request_id.
type FriendActionRequest struct {
	Action    string `json:"action"`
	Username  string `json:"username,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RoleActionRequest is the verb-in-body payload for POST /api/roles.
// "request" and "remove" take user_id and role; the rest take request_id.
type RoleActionRequest struct {
	Action    string `json:"action"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// relationshipError maps machine errors onto HTTP status codes.
func relationshipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relationship.ErrSelfRequest),
		errors.Is(err, relationship.ErrNotFriends):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, relationship.ErrAlreadyFriends),
		errors.Is(err, relationship.ErrAlreadyRequested):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, relationship.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, relationship.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		http.Error(w, "Database error", http.StatusInternalServerError)
	}
}

// resolveUserID turns a username into a uid when no uid was given directly.
func resolveUserID(req FriendActionRequest) (string, error) {
	if req.UserID != "" {
		return req.UserID, nil
	}
	if req.Username == "" {
		return "", nil
	}
	return services.GetUserIDByUsername(req.Username)
}

// FriendAction dispatches friendship verbs: request, accept, decline.
func FriendAction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req FriendActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "request":
		otherID, err := resolveUserID(req)
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		if otherID == "" {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		f, err := relationships.RequestFriendship(r.Context(), callerID, otherID)
		if err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Friend request sent", Data: f})

	case "accept":
		if err := relationships.AcceptFriendship(r.Context(), req.RequestID, callerID); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Friend request accepted"})

	case "decline":
		if err := relationships.DeclineFriendship(r.Context(), req.RequestID, callerID); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Friend request declined"})

	default:
		writeError(w, http.StatusBadRequest, "Unknown action")
	}
}

// ListFriends returns accepted friends plus unresolved requests.
func ListFriends(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	friends, err := relationships.Friends(r.Context(), callerID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	pending, err := relationships.PendingFriendships(r.Context(), callerID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"friends": friends,
			"pending": pending,
		},
	})
}

// RoleAction dispatches role-request verbs: request, accept, decline, cancel,
// remove.
func RoleAction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req RoleActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	role := models.Role(req.Role)

	switch req.Action {
	case "request":
		if !models.ValidRole(role) {
			writeError(w, http.StatusBadRequest, "Unknown role")
			return
		}
		rr, err := relationships.RequestRole(r.Context(), callerID, req.UserID, role)
		if err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Role request sent", Data: rr})

	case "accept":
		if err := relationships.AcceptRoleRequest(r.Context(), req.RequestID, callerID); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Role request accepted"})

	case "decline":
		if err := relationships.DeclineRoleRequest(r.Context(), req.RequestID, callerID); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Role request declined"})

	case "cancel":
		if err := relationships.CancelRoleRequest(r.Context(), req.RequestID, callerID); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Role request cancelled"})

	case "remove":
		if !models.ValidRole(role) {
			writeError(w, http.StatusBadRequest, "Unknown role")
			return
		}
		if err := relationships.RemoveRole(r.Context(), callerID, req.UserID, role); err != nil {
			relationshipError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Relationship removed"})

	default:
		writeError(w, http.StatusBadRequest, "Unknown action")
	}
}

// ListRoleRequests returns the caller's pending role requests, both sent and
// received.
func ListRoleRequests(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	pending, err := relationships.PendingRoleRequests(r.Context(), callerID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{"pending": pending}})
}

// RelationshipState returns the derived action the caller can take toward
// another user, for both roles. The value is computed fresh on every call,
// never stored.
func RelationshipState(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	otherID := r.URL.Query().Get("user_id")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	settings, err := services.GetSettings(r.Context(), callerID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	pending, err := relationships.PendingRoleRequests(r.Context(), callerID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	states := map[string]relationship.ActionState{
		string(models.RoleTrainee): relationship.DeriveActionState(callerID, otherID, models.RoleTrainee, settings, pending),
		string(models.RoleCoach):   relationship.DeriveActionState(callerID, otherID, models.RoleCoach, settings, pending),
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]interface{}{
		"user_id": otherID,
		"actions": states,
	}})
}
