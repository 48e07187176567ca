package handlers

import (
	"net/http"

	"github.com/Dosada05/swiss-tournament/services"
)

type MatchHandler struct {
	tournamentService services.TournamentService
}

func NewMatchHandler(ts services.TournamentService) *MatchHandler {
	return &MatchHandler{tournamentService: ts}
}

// ReportHandler handles POST /tournaments/{tournamentID}/matches
//
//	@Summary	Report a match result
//	@Tags		matches
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tournamentID	path		int							true	"Tournament ID"
//	@Param		input			body		services.ReportMatchInput	true	"Result"
//	@Success	201				{object}	models.Match
//	@Failure	400				{object}	map[string]string
//	@Router		/tournaments/{tournamentID}/matches [post]
func (h *MatchHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ReportMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.tournamentService.ReportMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/matches
//
//	@Summary	List reported matches
//	@Tags		matches
//	@Produce	json
//	@Param		tournamentID	path	int	true	"Tournament ID"
//	@Success	200				{array}	models.Match
//	@Router		/tournaments/{tournamentID}/matches [get]
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.tournamentService.ListMatches(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /tournaments/{tournamentID}/matches
//
//	@Summary	Delete all match records
//	@Tags		matches
//	@Security	BearerAuth
//	@Param		tournamentID	path	int	true	"Tournament ID"
//	@Success	204
//	@Router		/tournaments/{tournamentID}/matches [delete]
func (h *MatchHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeleteMatches(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PairingsHandler handles POST /tournaments/{tournamentID}/pairings
//
//	@Summary	Pair the next Swiss round
//	@Tags		rounds
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tournamentID	path		int	true	"Tournament ID"
//	@Success	200				{object}	models.Round
//	@Failure	422				{object}	map[string]string
//	@Router		/tournaments/{tournamentID}/pairings [post]
func (h *MatchHandler) PairingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.tournamentService.SwissPairings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RankingsHandler handles POST /tournaments/{tournamentID}/rankings
//
//	@Summary	Compute final rankings
//	@Tags		rounds
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tournamentID	path		int	true	"Tournament ID"
//	@Success	200				{object}	services.RankingsResult
//	@Router		/tournaments/{tournamentID}/rankings [post]
func (h *MatchHandler) RankingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.FinalRankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
