package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler обрабатывает POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByCodeHandler обрабатывает GET /tournaments/{code}
func (h *TournamentHandler) GetByCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	tournament, err := h.tournamentService.GetByCode(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddPlayerHandler обрабатывает POST /tournaments/{code}/players
func (h *TournamentHandler) AddPlayerHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var input struct {
		Name      string `json:"name"`
		ProfileID *int   `json:"profile_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.tournamentService.AddPlayer(r.Context(), code, input.Name, input.ProfileID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddMachineHandler обрабатывает POST /tournaments/{code}/machines
func (h *TournamentHandler) AddMachineHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	machine, err := h.tournamentService.AddMachine(r.Context(), code, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"machine": machine}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishHandler обрабатывает POST /tournaments/{code}/finish
func (h *TournamentHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	results, err := h.tournamentService.Finish(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResultsHandler обрабатывает GET /tournaments/{code}/results
func (h *TournamentHandler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	results, err := h.tournamentService.Results(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{code}
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.tournamentService.Delete(r.Context(), code); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
