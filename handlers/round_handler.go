package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/services"
)

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(rs services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: rs}
}

// CreateHandler обрабатывает POST /tournaments/{code}/rounds
func (h *RoundHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	round, warnings, err := h.roundService.CreateRound(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"round": round}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments/{code}/rounds
func (h *RoundHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rounds, err := h.roundService.ListRounds(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /rounds/{roundID}
func (h *RoundHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GetRound(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
