package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

// Ошибки движка сетки. Хендлеры маппят их в HTTP статусы один к одному.
var (
	// Ресурс не найден
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrStageNotFound      = errors.New("tournament stage not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("tournament player not found")

	// Ошибки конфигурации турнира
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrBracketAlreadyCreated = fmt.Errorf("%w: bracket already created", ErrInvalidConfiguration)

	// Ошибки валидации (в тексте всегда конкретное правило)
	ErrValidationFailed = errors.New("validation failed")

	ErrStageLocked         = errors.New("stage is completed and can no longer be changed")
	ErrConcurrencyConflict = errors.New("match was modified by another client")
	ErrMatchLocked         = errors.New("match is locked by another holder")
	ErrCorrectionConflict  = errors.New("correction would discard downstream results")

	// Внутренняя несогласованность графа матчей
	ErrInvariantViolation = brackets.ErrInvariantViolation
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// ConcurrencyError возвращается, когда запись пришла с устаревшей версией.
// Latest содержит матч в том виде, в каком он сейчас хранится.
type ConcurrencyError struct {
	MatchID         int
	ExpectedVersion int64
	Latest          *models.Match
}

func (e *ConcurrencyError) Error() string {
	if e.Latest != nil {
		return fmt.Sprintf("match %d was modified by another client (version %d, latest %d)", e.MatchID, e.ExpectedVersion, e.Latest.Version)
	}
	return fmt.Sprintf("match %d was modified by another client (version %d)", e.MatchID, e.ExpectedVersion)
}

func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

type MatchLockedError struct {
	MatchID   int
	LockID    string
	Holder    string
	ExpiresAt time.Time
}

func (e *MatchLockedError) Error() string {
	return fmt.Sprintf("match %d is locked by %s until %s", e.MatchID, e.Holder, e.ExpiresAt.Format(time.RFC3339))
}

func (e *MatchLockedError) Is(target error) bool {
	return target == ErrMatchLocked
}

// CorrectionConflictError перечисляет последующие матчи, чьи введенные вручную
// результаты были бы потеряны при исправлении.
type CorrectionConflictError struct {
	MatchID  int
	Affected []brackets.RewoundMatch
}

func (e *CorrectionConflictError) Error() string {
	ids := make([]string, 0, len(e.Affected))
	for _, a := range e.Affected {
		ids = append(ids, fmt.Sprintf("%d", a.MatchID))
	}
	return fmt.Sprintf("correcting match %d would discard results of matches %s", e.MatchID, strings.Join(ids, ", "))
}

func (e *CorrectionConflictError) Is(target error) bool {
	return target == ErrCorrectionConflict
}

func (e *CorrectionConflictError) AffectedMatchIDs() []int {
	ids := make([]int, 0, len(e.Affected))
	for _, a := range e.Affected {
		ids = append(ids, a.MatchID)
	}
	return ids
}
