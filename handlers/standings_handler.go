package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// LiveHandler обрабатывает GET /tournaments/{code}/standings
func (h *StandingsHandler) LiveHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	rows, err := h.standingsService.Live(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SeasonHandler обрабатывает GET /standings/season
// Query: year, category, mode, best_n, participation.
func (h *StandingsHandler) SeasonHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	seasonQuery := services.SeasonQuery{
		Category: models.CategoryLeague,
		Year:     time.Now().Year(),
		Mode:     models.SeasonModeMatch,
	}
	if category := query.Get("category"); category != "" {
		seasonQuery.Category = models.TournamentCategory(category)
	}
	if yearStr := query.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid year query parameter"))
			return
		}
		seasonQuery.Year = year
	}
	if mode := query.Get("mode"); mode != "" {
		seasonQuery.Mode = models.SeasonMode(mode)
	}
	if bestNStr := query.Get("best_n"); bestNStr != "" {
		bestN, err := strconv.Atoi(bestNStr)
		if err != nil || bestN < 0 {
			badRequestResponse(w, r, errors.New("invalid best_n query parameter"))
			return
		}
		seasonQuery.BestN = bestN
	}
	if participationStr := query.Get("participation"); participationStr != "" {
		participation, err := strconv.ParseFloat(participationStr, 64)
		if err != nil || participation < 0 {
			badRequestResponse(w, r, errors.New("invalid participation query parameter"))
			return
		}
		seasonQuery.Participation = participation
	}

	rows, err := h.standingsService.Season(r.Context(), seasonQuery)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
