package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"letterwatch/models"
	"letterwatch/services/analyze"
	"letterwatch/services/posters"
	"letterwatch/services/watchlist"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Users        []string `json:"users"`
	ForceRefresh bool     `json:"forceRefresh,omitempty"`
}

// AnalyzeResponse is an analysis result plus per-user warnings for the
// users that could not be fetched.
type AnalyzeResponse struct {
	models.AnalysisResult
	Warnings []models.UserError `json:"warnings,omitempty"`
}

// AnalyzeHandler runs watchlist analyses over sets of usernames.
type AnalyzeHandler struct {
	watchlistSvc *watchlist.Service
	analyzeSvc   *analyze.Service
	postersSvc   *posters.Service
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(watchlistSvc *watchlist.Service, analyzeSvc *analyze.Service, postersSvc *posters.Service) *AnalyzeHandler {
	return &AnalyzeHandler{
		watchlistSvc: watchlistSvc,
		analyzeSvc:   analyzeSvc,
		postersSvc:   postersSvc,
	}
}

// Analyze computes the common films for the requested users.
// POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Users) == 0 {
		jsonError(w, "Users array is required and must not be empty", http.StatusBadRequest)
		return
	}

	log.Printf("[analyze] starting watchlist analysis for %v (forceRefresh=%t)", req.Users, req.ForceRefresh)

	response, warnings, err := runAnalysis(r.Context(), h.watchlistSvc, h.analyzeSvc, h.postersSvc, req.Users, req.ForceRefresh)
	if err != nil {
		if errors.Is(err, watchlist.ErrAllUsersFailed) {
			jsonResponse(w, http.StatusBadRequest, map[string]any{
				"error":   "Failed to fetch data for all users",
				"details": warnings,
			})
			return
		}
		jsonError(w, "Internal server error during analysis: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("[analyze] analysis complete: %d common movies for %d users", response.TotalMovies, response.TotalUsers)
	jsonResponse(w, http.StatusOK, response)
}

// runAnalysis is the shared orchestration for ad-hoc and group analyses:
// resolve users through the cache-aware driver, aggregate, then resolve
// posters for the films that survived.
func runAnalysis(ctx context.Context, watchlistSvc *watchlist.Service, analyzeSvc *analyze.Service, postersSvc *posters.Service, users []string, forceRefresh bool) (*AnalyzeResponse, []models.UserError, error) {
	usersData, warnings, err := watchlistSvc.FetchAll(ctx, users, forceRefresh)
	if err != nil {
		return nil, warnings, err
	}

	result := analyzeSvc.Analyze(usersData)
	postersSvc.EnrichMovies(ctx, result.Movies)

	return &AnalyzeResponse{
		AnalysisResult: result,
		Warnings:       warnings,
	}, warnings, nil
}
