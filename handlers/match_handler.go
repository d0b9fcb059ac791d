package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tonnahe171051/poolmate-sub002/middleware"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"github.com/tonnahe171051/poolmate-sub002/services"
)

type MatchHandler struct {
	matchService services.MatchService
	responder
}

func NewMatchHandler(ms services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matchService: ms, responder: responder{logger: logger}}
}

type startMatchInput struct {
	Version int64 `json:"version"`
	TableID *int  `json:"table_id,omitempty"`
}

// ListTournamentMatchesHandler обрабатывает GET /tournaments/{tournamentID}/matches
// @Summary Список матчей турнира
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage_id query int false "Фильтр по стадии"
// @Param side query string false "winners, losers, knockout, finals"
// @Param round query int false "Фильтр по раунду"
// @Param table_id query int false "Фильтр по столу"
// @Param status query string false "Статусы через запятую"
// @Success 200 {object} map[string]interface{} "Матчи"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/{tournamentID}/matches [get]
func (h *MatchHandler) ListTournamentMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	filter := repositories.MatchFilter{TournamentID: tournamentID}
	if filter.StageID, err = optionalIntQuery(r, "stage_id"); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if filter.Round, err = optionalIntQuery(r, "round"); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if filter.TableID, err = optionalIntQuery(r, "table_id"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	query := r.URL.Query()
	if side := query.Get("side"); side != "" {
		s := models.BracketSide(side)
		switch s {
		case models.SideWinners, models.SideLosers, models.SideKnockout, models.SideFinals:
			filter.Side = &s
		default:
			h.badRequest(w, r, errors.New("invalid side query parameter"))
			return
		}
	}
	if statuses := query.Get("status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			st := models.MatchStatus(strings.TrimSpace(raw))
			switch st {
			case models.MatchNotStarted, models.MatchInProgress, models.MatchCompleted:
				filter.Statuses = append(filter.Statuses, st)
			default:
				h.badRequest(w, r, errors.New("invalid status query parameter"))
				return
			}
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), filter)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// GetHandler обрабатывает GET /matches/{matchID}
// @Summary Получить матч
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Матч"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"match": match})
}

// UpdateHandler обрабатывает PATCH /matches/{matchID}
// @Summary Записать счет или результат матча
// @Description Требует актуальную версию матча. Победитель продвигается по сетке автоматически.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param input body services.UpdateMatchInput true "Счет и результат"
// @Success 200 {object} map[string]interface{} "Матч и продвинутые матчи"
// @Failure 409 {object} map[string]interface{} "Версия устарела, в ответе актуальный матч"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Failure 423 {object} map[string]interface{} "Матч заблокирован другим судьей или стадия завершена"
// @Security BearerAuth
// @Router /matches/{matchID} [patch]
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}
	input.MatchID = matchID
	input.Actor = middleware.ActorFromContext(r.Context())

	result, err := h.matchService.UpdateMatch(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, result)
}

// StartHandler обрабатывает POST /matches/{matchID}/start
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input startMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), matchID, input.Version, input.TableID, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"match": match})
}

// CorrectHandler обрабатывает POST /matches/{matchID}/correction
// @Summary Исправить результат завершенного матча
// @Description Если смена победителя затрагивает уже сыгранные матчи, нужен флаг acknowledge_downstream_results.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param input body services.CorrectMatchInput true "Новый результат"
// @Success 200 {object} map[string]interface{} "Исправленный матч и откатанные матчи"
// @Failure 409 {object} map[string]interface{} "Конфликт версии или затронуты сыгранные матчи"
// @Failure 423 {object} map[string]interface{} "Матч заблокирован"
// @Security BearerAuth
// @Router /matches/{matchID}/correction [post]
func (h *MatchHandler) CorrectHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input services.CorrectMatchInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}
	input.MatchID = matchID
	input.Actor = middleware.ActorFromContext(r.Context())

	result, err := h.matchService.CorrectMatch(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, result)
}

// AcquireLockHandler обрабатывает POST /matches/{matchID}/lock
// @Summary Взять блокировку матча
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Блокировка"
// @Failure 423 {object} map[string]interface{} "Матч заблокирован другим судьей"
// @Security BearerAuth
// @Router /matches/{matchID}/lock [post]
func (h *MatchHandler) AcquireLockHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	lock, err := h.matchService.AcquireLock(r.Context(), matchID, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"lock": lock})
}

// GetLockHandler обрабатывает GET /matches/{matchID}/lock
func (h *MatchHandler) GetLockHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	lock, err := h.matchService.GetLock(r.Context(), matchID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"lock": lock})
}

// ReleaseLockHandler обрабатывает DELETE /matches/{matchID}/lock?lock_id=...
func (h *MatchHandler) ReleaseLockHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.matchService.ReleaseLock(r.Context(), matchID, r.URL.Query().Get("lock_id")); err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
