package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tonnahe171051/poolmate-sub002/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	responder
}

func NewBracketHandler(bs services.BracketService, logger *slog.Logger) *BracketHandler {
	return &BracketHandler{bracketService: bs, responder: responder{logger: logger}}
}

// CreateHandler обрабатывает POST /tournaments/{tournamentID}/bracket
// @Summary Построить сетку стадии
// @Description Расставляет подтвержденных игроков, создает все матчи стадии и проводит байи. Тело запроса необязательно.
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param input body services.CreateBracketInput false "Номер стадии и ручная расстановка"
// @Success 201 {object} map[string]interface{} "Построенная сетка"
// @Failure 400 {object} map[string]string "Некорректная конфигурация или сетка уже создана"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input services.CreateBracketInput
	if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errEmptyBody) {
		h.badRequest(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	view, err := h.bracketService.CreateBracket(r.Context(), input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusCreated, jsonResponse{"bracket": view})
}

// GetHandler обрабатывает GET /tournaments/{tournamentID}/bracket?stage=1
// @Summary Получить сетку стадии
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stage query int false "Номер стадии (по умолчанию 1)"
// @Success 200 {object} map[string]interface{} "Сетка, сгруппированная по сторонам и раундам"
// @Failure 404 {object} map[string]string "Турнир или стадия не найдены"
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	stage, err := optionalIntQuery(r, "stage")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	stageNumber := 1
	if stage != nil && *stage > 0 {
		stageNumber = *stage
	}

	view, err := h.bracketService.GetBracket(r.Context(), tournamentID, stageNumber)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeOrFail(w, r, http.StatusOK, jsonResponse{"bracket": view})
}
