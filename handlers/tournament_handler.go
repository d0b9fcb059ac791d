package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tonnahe171051/poolmate-sub002/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	stageService      services.StageService
	responder
}

func NewTournamentHandler(ts services.TournamentService, ss services.StageService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		stageService:      ss,
		responder:         responder{logger: logger},
	}
}

// CreateHandler обрабатывает POST /tournaments
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Параметры турнира"
// @Success 201 {object} map[string]interface{} "Созданный турнир"
// @Failure 400 {object} map[string]string "Некорректный запрос"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
// @Summary Получить турнир по ID
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Турнир со стадиями и игроками"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// ListHandler обрабатывает GET /tournaments
// @Summary Список турниров
// @Tags tournaments
// @Produce json
// @Param limit query int false "Лимит (по умолчанию 20)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{} "Список турниров"
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := 20, 0

	if limitStr := query.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 || v > 100 {
			h.badRequest(w, r, errors.New("invalid limit query parameter (1-100)"))
			return
		}
		limit = v
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			h.badRequest(w, r, errors.New("invalid offset query parameter"))
			return
		}
		offset = v
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), limit, offset)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// RegisterPlayerHandler обрабатывает POST /tournaments/{tournamentID}/players
// @Summary Зарегистрировать игрока
// @Tags players
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.RegisterPlayerInput true "Игрок"
// @Success 201 {object} map[string]interface{} "Зарегистрированный игрок"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/players [post]
func (h *TournamentHandler) RegisterPlayerHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input services.RegisterPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	player, err := h.tournamentService.RegisterPlayer(r.Context(), tournamentID, input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusCreated, jsonResponse{"player": player})
}

// ListPlayersHandler обрабатывает GET /tournaments/{tournamentID}/players
func (h *TournamentHandler) ListPlayersHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	players, err := h.tournamentService.ListPlayers(r.Context(), tournamentID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"players": players})
}

// ListStagesHandler обрабатывает GET /tournaments/{tournamentID}/stages
func (h *TournamentHandler) ListStagesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	stages, err := h.stageService.ListStages(r.Context(), tournamentID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"stages": stages})
}
