package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"letterwatch/models"
	"letterwatch/services/letterboxd"
)

// FilmsHandler serves per-film detail lookups.
type FilmsHandler struct {
	client *letterboxd.Client
}

// NewFilmsHandler creates a new films handler.
func NewFilmsHandler(client *letterboxd.Client) *FilmsHandler {
	return &FilmsHandler{client: client}
}

// Details returns rating, year and director for a film. The lookup is
// best-effort; failures degrade to empty fields.
// GET /api/films/{slug}
func (h *FilmsHandler) Details(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	details, err := h.client.FetchFilmDetails(r.Context(), slug)
	if err != nil {
		log.Printf("[films] failed to fetch details for %s: %v", slug, err)
		details = models.FilmDetails{}
	}

	jsonResponse(w, http.StatusOK, details)
}
