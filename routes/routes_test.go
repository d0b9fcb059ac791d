package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/handlers"
	"github.com/tonnahe171051/poolmate-sub002/metrics"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"github.com/tonnahe171051/poolmate-sub002/services"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

const testSecret = "routes-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	m := metrics.New()
	hub := brackets.NewHub(logger)
	notifier := services.MultiNotifier{hub}

	tournamentService := services.NewTournamentService(store, logger)
	bracketService := services.NewBracketService(store, notifier, m, logger)
	matchService := services.NewMatchService(store, storage.NewMemoryMatchLockStore(nil), 0, notifier, m, logger)
	stageService := services.NewStageService(store, notifier, logger)

	router := chi.NewRouter()
	SetupRoutes(router, Options{
		JWTSecret:         testSecret,
		Metrics:           m.Handler(),
		TournamentHandler: handlers.NewTournamentHandler(tournamentService, stageService, logger),
		BracketHandler:    handlers.NewBracketHandler(bracketService, logger),
		MatchHandler:      handlers.NewMatchHandler(matchService, logger),
		StageHandler:      handlers.NewStageHandler(stageService, matchService, logger),
		WebSocketHandler:  handlers.NewWebSocketHandler(hub, tournamentService, nil, logger),
	})
	return router
}

func token(t *testing.T, userID int, name string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID, "name": name}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type response struct {
	Code int
	Body map[string]interface{}
	Raw  string
}

func call(t *testing.T, h http.Handler, method, path, bearer, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := response{Code: rec.Code, Raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func field(t *testing.T, obj map[string]interface{}, path ...string) interface{} {
	t.Helper()
	var cur interface{} = obj
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		require.True(t, ok, "%v is not an object at %q", cur, key)
		cur = m[key]
	}
	return cur
}

func TestHealthAndDocs(t *testing.T) {
	router := newTestRouter(t)

	res := call(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Raw)

	res = call(t, router, http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Raw, "/matches/{matchID}/correction")
}

func TestWriteRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	res := call(t, router, http.MethodPost, "/tournaments", "", `{"name":"Nope","bracket_type":"single_elimination","winners_race_to":5}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = call(t, router, http.MethodGet, "/tournaments", "", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestBracketLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	alice := token(t, 1, "alice")
	bob := token(t, 2, "bob")

	res := call(t, router, http.MethodPost, "/tournaments", alice,
		`{"name":"Open 9-ball","bracket_type":"single_elimination","winners_race_to":5}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	tournamentID := int(field(t, res.Body, "tournament", "id").(float64))

	for seed := 1; seed <= 4; seed++ {
		res = call(t, router, http.MethodPost, fmt.Sprintf("/tournaments/%d/players", tournamentID), alice,
			fmt.Sprintf(`{"name":"Player %d","seed":%d}`, seed, seed))
		require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	}

	res = call(t, router, http.MethodPost, fmt.Sprintf("/tournaments/%d/bracket", tournamentID), alice, "")
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	stageID := int(field(t, res.Body, "bracket", "stage", "id").(float64))

	res = call(t, router, http.MethodPost, fmt.Sprintf("/tournaments/%d/bracket", tournamentID), alice, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = call(t, router, http.MethodGet, fmt.Sprintf("/tournaments/%d/matches?side=knockout&round=1", tournamentID), "", "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	matches := field(t, res.Body, "matches").([]interface{})
	require.Len(t, matches, 2)
	first := int(matches[0].(map[string]interface{})["id"].(float64))
	second := int(matches[1].(map[string]interface{})["id"].(float64))

	res = call(t, router, http.MethodGet, fmt.Sprintf("/tournaments/%d/matches?side=middle", tournamentID), "", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// result entry and stale versions
	res = call(t, router, http.MethodPatch, fmt.Sprintf("/matches/%d", first), alice, `{"version":1,"score1":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = call(t, router, http.MethodPatch, fmt.Sprintf("/matches/%d", first), alice, `{"version":1,"score1":5,"score2":2}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, "completed", field(t, res.Body, "match", "status"))
	assert.Len(t, field(t, res.Body, "advanced").([]interface{}), 1)

	res = call(t, router, http.MethodPatch, fmt.Sprintf("/matches/%d", first), alice, `{"version":1,"score1":5,"score2":3}`)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, float64(2), field(t, res.Body, "latest", "version"))

	// advisory locks
	res = call(t, router, http.MethodPost, fmt.Sprintf("/matches/%d/lock", second), alice, "")
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	lockID := field(t, res.Body, "lock", "lock_id").(string)

	res = call(t, router, http.MethodPatch, fmt.Sprintf("/matches/%d", second), bob, `{"version":1,"score1":1}`)
	assert.Equal(t, http.StatusLocked, res.Code)
	assert.Equal(t, "user:1:alice", field(t, res.Body, "holder"))
	assert.Equal(t, lockID, field(t, res.Body, "lock_id"))

	res = call(t, router, http.MethodDelete, fmt.Sprintf("/matches/%d/lock?lock_id=%s", second, lockID), alice, "")
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = call(t, router, http.MethodPatch, fmt.Sprintf("/matches/%d", second), bob, `{"version":1,"score1":5,"score2":4}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)

	// corrections
	res = call(t, router, http.MethodPost, fmt.Sprintf("/matches/%d/correction", first), alice, `{"version":2,"score1":4,"score2":5}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Len(t, field(t, res.Body, "rewound").([]interface{}), 1)

	res = call(t, router, http.MethodPost, fmt.Sprintf("/stages/%d/complete", stageID), alice, "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = call(t, router, http.MethodGet, fmt.Sprintf("/stages/%d/standings", stageID), "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = call(t, router, http.MethodGet, "/matches/9999", "", "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = call(t, router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Raw, "poolmate_match_version_conflicts_total 1")
	assert.Contains(t, res.Raw, "poolmate_match_lock_conflicts_total 1")
	assert.Contains(t, res.Raw, `poolmate_brackets_created_total{bracket_type="single_elimination"} 1`)
}
