package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tonnahe171051/poolmate-sub002/services"
)

type jsonResponse map[string]interface{}

var errEmptyBody = errors.New("body must not be empty")

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// responder пишет ответы об ошибках и логирует серверные ошибки.
type responder struct {
	logger *slog.Logger
}

func (rs responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, body jsonResponse) {
	if err := writeJSON(w, status, body, nil); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (rs responder) message(w http.ResponseWriter, r *http.Request, status int, message string) {
	rs.errorResponse(w, r, status, jsonResponse{"error": message})
}

func (rs responder) serverError(w http.ResponseWriter, r *http.Request, err error) {
	rs.logger.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	rs.message(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (rs responder) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	rs.message(w, r, http.StatusBadRequest, err.Error())
}

func (rs responder) writeOrFail(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		rs.serverError(w, r, err)
	}
}

// serviceError преобразует ошибки сервисного слоя в HTTP-ответы.
func (rs responder) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		concurrencyErr *services.ConcurrencyError
		lockedErr      *services.MatchLockedError
		correctionErr  *services.CorrectionConflictError
	)
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrPlayerNotFound):
		rs.message(w, r, http.StatusNotFound, err.Error())

	case errors.As(err, &concurrencyErr):
		rs.errorResponse(w, r, http.StatusConflict, jsonResponse{
			"error":  concurrencyErr.Error(),
			"latest": concurrencyErr.Latest,
		})
	case errors.As(err, &lockedErr):
		rs.errorResponse(w, r, http.StatusLocked, jsonResponse{
			"error":      lockedErr.Error(),
			"lock_id":    lockedErr.LockID,
			"holder":     lockedErr.Holder,
			"expires_at": lockedErr.ExpiresAt,
		})
	case errors.As(err, &correctionErr):
		rs.errorResponse(w, r, http.StatusConflict, jsonResponse{
			"error":              correctionErr.Error(),
			"affected_match_ids": correctionErr.AffectedMatchIDs(),
			"affected":           correctionErr.Affected,
		})

	case errors.Is(err, services.ErrStageLocked):
		rs.message(w, r, http.StatusLocked, err.Error())
	case errors.Is(err, services.ErrValidationFailed):
		rs.message(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInvalidConfiguration):
		rs.message(w, r, http.StatusBadRequest, err.Error())

	default:
		rs.serverError(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", paramName)
	}
	return id, nil
}

// optionalIntQuery parses an optional positive integer query parameter.
func optionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid %s query parameter", name)
	}
	return &v, nil
}
