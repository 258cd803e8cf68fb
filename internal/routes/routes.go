package routes

import (
	"github.com/focuspact/focuspact/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.Me)

	// Device status routes (HMAC-signed, no session)
	r.Post("/api/status", handlers.PushStatus)
	r.Get("/api/status", handlers.GetStatus)

	// Remote unlock link (HMAC-signed, no session)
	r.Get("/api/unlock", handlers.RemoteUnlock)

	// Settings routes
	r.Get("/api/settings", handlers.GetSettings)
	r.Put("/api/settings", handlers.PutSettings)
	r.Patch("/api/settings", handlers.PatchSettings)

	// Friendship routes (verb in body: request, accept, decline)
	r.Post("/api/friends", handlers.FriendAction)
	r.Get("/api/friends", handlers.ListFriends)

	// Role request routes (verb in body: request, accept, decline, cancel, remove)
	r.Post("/api/roles", handlers.RoleAction)
	r.Get("/api/roles", handlers.ListRoleRequests)
	r.Get("/api/relationship/state", handlers.RelationshipState)

	// Live status feed for coaches
	r.Get("/ws/status", handlers.StatusWebSocket)
}
