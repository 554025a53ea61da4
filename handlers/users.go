package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"letterwatch/services/letterboxd"
)

// UsersHandler validates Letterboxd usernames.
type UsersHandler struct {
	client *letterboxd.Client
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(client *letterboxd.Client) *UsersHandler {
	return &UsersHandler{client: client}
}

// Validate checks whether a username exists on Letterboxd.
// GET /api/users/{username}/validate
func (h *UsersHandler) Validate(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	log.Printf("[users] validating user %s", username)

	info, err := h.client.ValidateUser(r.Context(), username)
	if err != nil {
		log.Printf("[users] validation error for %s: %v", username, err)
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"error":  "Failed to validate user",
			"exists": false,
		})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"exists":      info.Exists,
		"username":    username,
		"displayName": info.DisplayName,
	})
}
