package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/services"
)

type FinalHandler struct {
	finalService services.FinalService
}

func NewFinalHandler(fs services.FinalService) *FinalHandler {
	return &FinalHandler{finalService: fs}
}

// StartHandler обрабатывает POST /tournaments/{code}/final
func (h *FinalHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	final, err := h.finalService.Start(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"final": final}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddGameHandler обрабатывает POST /tournaments/{code}/final/games
func (h *FinalHandler) AddGameHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var input struct {
		WinnerPlayerID int `json:"winner_player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	final, err := h.finalService.AddGame(r.Context(), code, input.WinnerPlayerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"final": final}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StateHandler обрабатывает GET /tournaments/{code}/final
func (h *FinalHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	final, err := h.finalService.State(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"final": final}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
