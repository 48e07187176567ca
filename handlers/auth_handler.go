package handlers

import (
	"net/http"

	"github.com/Dosada05/swiss-tournament/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges the organizer password for a bearer token.
//
//	@Summary	Issue organizer token
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		input	body		services.LoginInput	true	"Organizer password"
//	@Success	200		{object}	services.TokenResult
//	@Failure	401		{object}	map[string]string
//	@Router		/auth/token [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
