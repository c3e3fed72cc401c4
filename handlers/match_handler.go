package handlers

import (
	"net/http"

	"github.com/flipperliga/league-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// GetHandler обрабатывает GET /matches/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetPositionHandler обрабатывает PUT /matches/{matchID}/players/{playerID}/position
// Тело {"position": null} очищает результат игрока.
func (h *MatchHandler) SetPositionHandler(w http.ResponseWriter, r *http.Request) {
	matchID, playerID, ok := h.matchAndPlayer(w, r)
	if !ok {
		return
	}

	var input struct {
		Position *int `json:"position"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.matchService.SetPosition(r.Context(), matchID, playerID, input.Position)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeUpdate(w, r, update)
}

// SetScoreHandler обрабатывает PUT /matches/{matchID}/players/{playerID}/score
func (h *MatchHandler) SetScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, playerID, ok := h.matchAndPlayer(w, r)
	if !ok {
		return
	}

	var input struct {
		Score *int64 `json:"score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SetScore(r.Context(), matchID, playerID, input.Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetTimeHandler обрабатывает PUT /matches/{matchID}/players/{playerID}/time
func (h *MatchHandler) SetTimeHandler(w http.ResponseWriter, r *http.Request) {
	matchID, playerID, ok := h.matchAndPlayer(w, r)
	if !ok {
		return
	}

	var input struct {
		TimeMS *int `json:"time_ms"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SetTime(r.Context(), matchID, playerID, input.TimeMS)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetStartOrderHandler обрабатывает PUT /matches/{matchID}/start-order
func (h *MatchHandler) SetStartOrderHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerIDs []int `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SetStartOrder(r.Context(), matchID, input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResultHandler обрабатывает POST /matches/{matchID}/result
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		// player id -> position, 1 = best
		Positions map[int]int `json:"positions"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.matchService.SubmitMatchResult(r.Context(), matchID, input.Positions)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.writeUpdate(w, r, update)
}

func (h *MatchHandler) matchAndPlayer(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return matchID, playerID, true
}

func (h *MatchHandler) writeUpdate(w http.ResponseWriter, r *http.Request, update *services.MatchUpdate) {
	response := jsonResponse{
		"match":        update.Match,
		"round_status": update.RoundStatus,
		"gated":        update.Gated,
	}
	if update.RatingApplied {
		response["rating_applied"] = true
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
