package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"letterwatch/internal/database"
	"letterwatch/services/analyze"
	"letterwatch/services/posters"
	"letterwatch/services/watchlist"
)

// GroupsHandler manages saved user groups and runs analyses over them.
type GroupsHandler struct {
	groups       *database.GroupRepository
	watchlistSvc *watchlist.Service
	analyzeSvc   *analyze.Service
	postersSvc   *posters.Service
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(groups *database.GroupRepository, watchlistSvc *watchlist.Service, analyzeSvc *analyze.Service, postersSvc *posters.Service) *GroupsHandler {
	return &GroupsHandler{
		groups:       groups,
		watchlistSvc: watchlistSvc,
		analyzeSvc:   analyzeSvc,
		postersSvc:   postersSvc,
	}
}

// List returns all saved groups.
// GET /api/groups
func (h *GroupsHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Create saves a new group.
// POST /api/groups
func (h *GroupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string   `json:"name"`
		Users []string `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" || len(req.Users) == 0 {
		jsonError(w, "Name and users array are required", http.StatusBadRequest)
		return
	}

	group, err := h.groups.Create(req.Name, req.Users)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, http.StatusCreated, group)
}

// Get returns a single group.
// GET /api/groups/{id}
func (h *GroupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, database.ErrGroupNotFound) {
			jsonError(w, "Group not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, group)
}

// Delete removes a group.
// DELETE /api/groups/{id}
func (h *GroupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.groups.Delete(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, database.ErrGroupNotFound) {
			jsonError(w, "Group not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

// Analyze runs a watchlist analysis for a saved group.
// POST /api/groups/{id}/analyze
func (h *GroupsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, database.ErrGroupNotFound) {
			jsonError(w, "Group not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("[groups] analyzing group %s (%s) with users %v", group.ID, group.Name, group.Users)

	response, warnings, err := runAnalysis(r.Context(), h.watchlistSvc, h.analyzeSvc, h.postersSvc, group.Users, false)
	if err != nil {
		if errors.Is(err, watchlist.ErrAllUsersFailed) {
			jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":   "Failed to fetch data for all users",
				"details": warnings,
			})
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, http.StatusOK, response)
}
