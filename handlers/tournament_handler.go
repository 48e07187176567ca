package handlers

import (
	"net/http"

	"github.com/Dosada05/swiss-tournament/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler handles POST /tournaments
//
//	@Summary	Create tournament
//	@Tags		tournaments
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		input	body		services.CreateTournamentInput	true	"Tournament"
//	@Success	201		{object}	models.Tournament
//	@Failure	409		{object}	map[string]string
//	@Router		/tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}
//
//	@Summary	Get tournament
//	@Tags		tournaments
//	@Produce	json
//	@Param		tournamentID	path		int	true	"Tournament ID"
//	@Success	200				{object}	models.Tournament
//	@Failure	404				{object}	map[string]string
//	@Router		/tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegisterPlayerHandler handles POST /tournaments/{tournamentID}/players
//
//	@Summary	Register player
//	@Tags		players
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		tournamentID	path		int								true	"Tournament ID"
//	@Param		input			body		services.RegisterPlayerInput	true	"Player"
//	@Success	201				{object}	models.Player
//	@Failure	409				{object}	map[string]string
//	@Router		/tournaments/{tournamentID}/players [post]
func (h *TournamentHandler) RegisterPlayerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.tournamentService.RegisterPlayer(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CountPlayersHandler handles GET /tournaments/{tournamentID}/players
//
//	@Summary	Count registered players
//	@Tags		players
//	@Produce	json
//	@Param		tournamentID	path	int	true	"Tournament ID"
//	@Success	200
//	@Router		/tournaments/{tournamentID}/players [get]
func (h *TournamentHandler) CountPlayersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.tournamentService.CountPlayers(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament_id": id, "count": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePlayersHandler handles DELETE /tournaments/{tournamentID}/players
//
//	@Summary	Delete all players and their matches
//	@Tags		players
//	@Security	BearerAuth
//	@Param		tournamentID	path	int	true	"Tournament ID"
//	@Success	204
//	@Router		/tournaments/{tournamentID}/players [delete]
func (h *TournamentHandler) DeletePlayersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeletePlayers(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StandingsHandler handles GET /tournaments/{tournamentID}/standings
//
//	@Summary	Current standings
//	@Tags		players
//	@Produce	json
//	@Param		tournamentID	path		int	true	"Tournament ID"
//	@Success	200				{array}		models.Standing
//	@Failure	404				{object}	map[string]string
//	@Router		/tournaments/{tournamentID}/standings [get]
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.tournamentService.Standings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
