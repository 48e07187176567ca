package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/Dosada05/swiss-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPassword = "organizer-pass"
	testSecret   = "test-signing-key"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	hub := brackets.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	store := repositories.NewMemoryStore()
	tournamentService := services.NewTournamentService(store, brackets.NewSwissGenerator(brackets.SwissOptions{}), hub, nil, logger)
	authService := services.NewAuthService(string(hash), testSecret)

	router := chi.NewRouter()
	SetupRoutes(
		router,
		Options{JWTSecret: []byte(testSecret), AllowedOrigins: []string{"*"}},
		handlers.NewAuthHandler(authService),
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewMatchHandler(tournamentService),
		handlers.NewWebSocketHandler(hub, tournamentService, logger),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

func (c *apiClient) do(method, path string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (c *apiClient) login() {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/auth/token", map[string]string{"password": testPassword})
	require.Equal(c.t, http.StatusOK, status)
	c.token = body["token"].(string)
}

func TestAPI_RequiresOrganizerForWrites(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(http.MethodPost, "/tournaments", map[string]interface{}{"id": 1, "name": "Open"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodPost, "/auth/token", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_TournamentFlow(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	status, _ := api.do(http.MethodPost, "/tournaments", map[string]interface{}{"id": 1, "name": "Open"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = api.do(http.MethodPost, "/tournaments", map[string]interface{}{"id": 1, "name": "Open"})
	assert.Equal(t, http.StatusConflict, status)

	ids := map[string]float64{}
	for _, name := range []string{"Ada", "Bea", "Cal", "Dan"} {
		status, body := api.do(http.MethodPost, "/tournaments/1/players", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, status)
		ids[name] = body["player"].(map[string]interface{})["id"].(float64)
	}

	status, _ = api.do(http.MethodPost, "/tournaments/1/players", map[string]string{"name": "ada"})
	assert.Equal(t, http.StatusConflict, status)

	status, body := api.do(http.MethodGet, "/tournaments/1/players", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4.0, body["count"])

	status, body = api.do(http.MethodPost, "/tournaments/1/pairings", nil)
	require.Equal(t, http.StatusOK, status)
	pairings := body["round"].(map[string]interface{})["pairings"].([]interface{})
	require.Len(t, pairings, 2)
	first := pairings[0].(map[string]interface{})
	assert.Equal(t, ids["Ada"], first["player1_id"])
	assert.Equal(t, ids["Bea"], first["player2_id"])

	for _, p := range pairings {
		pr := p.(map[string]interface{})
		status, _ := api.do(http.MethodPost, "/tournaments/1/matches", map[string]interface{}{
			"winner_id": pr["player1_id"],
			"loser_id":  pr["player2_id"],
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ = api.do(http.MethodPost, "/tournaments/1/matches", map[string]interface{}{
		"winner_id": ids["Ada"],
		"loser_id":  ids["Ada"],
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(http.MethodGet, "/tournaments/1/standings", nil)
	require.Equal(t, http.StatusOK, status)
	standings := body["standings"].([]interface{})
	require.Len(t, standings, 4)
	top := standings[0].(map[string]interface{})
	assert.Equal(t, 1.0, top["score"])
	assert.Equal(t, 1.0, top["matches_played"])

	status, body = api.do(http.MethodPost, "/tournaments/1/rankings", nil)
	require.Equal(t, http.StatusOK, status)
	rankings := body["rankings"].([]interface{})
	require.Len(t, rankings, 4)
	ranks := make([]float64, len(rankings))
	for i, r := range rankings {
		ranks[i] = r.(map[string]interface{})["rank"].(float64)
	}
	assert.Equal(t, []float64{1, 1, 3, 3}, ranks)

	status, body = api.do(http.MethodGet, "/tournaments/1/matches", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["matches"], 2)

	status, _ = api.do(http.MethodDelete, "/tournaments/1/matches", nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodDelete, "/tournaments/1/players", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = api.do(http.MethodGet, "/tournaments/1/players", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "unknown tournament", method: http.MethodGet, path: "/tournaments/5", wantStatus: http.StatusNotFound},
		{name: "invalid id", method: http.MethodGet, path: "/tournaments/abc/standings", wantStatus: http.StatusBadRequest},
		{name: "unknown body field", method: http.MethodPost, path: "/tournaments", body: map[string]interface{}{"id": 2, "nam": "x"}, wantStatus: http.StatusBadRequest},
		{name: "pairing without players", method: http.MethodPost, path: "/tournaments/1/pairings", wantStatus: http.StatusUnprocessableEntity},
	}

	status, _ := api.do(http.MethodPost, "/tournaments", map[string]interface{}{"id": 1, "name": "Open"})
	require.Equal(t, http.StatusCreated, status)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPI_SwaggerDoc(t *testing.T) {
	api := newTestAPI(t)

	resp, err := api.server.Client().Get(api.server.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/tournaments/{tournamentID}/pairings")
}
