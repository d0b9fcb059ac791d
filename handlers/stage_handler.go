package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tonnahe171051/poolmate-sub002/services"
)

type StageHandler struct {
	stageService services.StageService
	matchService services.MatchService
	responder
}

func NewStageHandler(ss services.StageService, ms services.MatchService, logger *slog.Logger) *StageHandler {
	return &StageHandler{stageService: ss, matchService: ms, responder: responder{logger: logger}}
}

// SettleHandler обрабатывает POST /stages/{stageID}/settle
// @Summary Довести сетку стадии до согласованного состояния
// @Description Проводит готовые байи и заполняет слоты из уже завершенных матчей. Повторный вызов ничего не меняет.
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} map[string]interface{} "Измененные матчи"
// @Failure 404 {object} map[string]string "Стадия не найдена"
// @Security BearerAuth
// @Router /stages/{stageID}/settle [post]
func (h *StageHandler) SettleHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	changed, err := h.matchService.Settle(r.Context(), stageID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"changed": changed})
}

// CompleteHandler обрабатывает POST /stages/{stageID}/complete
// @Summary Завершить стадию
// @Tags stages
// @Produce json
// @Param stageID path int true "Stage ID"
// @Success 200 {object} map[string]interface{} "Завершенная стадия"
// @Failure 422 {object} map[string]string "Не все матчи завершены"
// @Security BearerAuth
// @Router /stages/{stageID}/complete [post]
func (h *StageHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	stage, err := h.stageService.CompleteStage(r.Context(), stageID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"stage": stage})
}

// StandingsHandler обрабатывает GET /stages/{stageID}/standings
func (h *StageHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	standings, err := h.stageService.Standings(r.Context(), stageID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"standings": standings})
}
