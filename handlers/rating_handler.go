package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/services"
)

type RatingHandler struct {
	ratingService  services.RatingService
	profileService services.ProfileService
	// Новые профили начинают с этим числом калибровочных матчей.
	provisionalMatches int
}

func NewRatingHandler(rs services.RatingService, ps services.ProfileService, provisionalMatches int) *RatingHandler {
	return &RatingHandler{
		ratingService:      rs,
		profileService:     ps,
		provisionalMatches: provisionalMatches,
	}
}

// RecalcHandler обрабатывает POST /tournaments/{code}/recalc-elo
func (h *RatingHandler) RecalcHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.ratingService.Recalc(r.Context(), code); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"recalculated": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateProfileHandler обрабатывает POST /profiles
func (h *RatingHandler) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.Create(r.Context(), input.Name, h.provisionalMatches)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetProfileHandler обрабатывает GET /profiles/{profileID}
func (h *RatingHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "profileID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
