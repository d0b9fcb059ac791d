package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBracketSize   = errors.New("invalid bracket size")
	ErrNotEnoughPlayers     = errors.New("not enough players")
	ErrInvalidSlotPlacement = errors.New("invalid slot placement")
	ErrUnknownOrdering      = errors.New("unknown ordering mode")

	// ErrInvariantViolation is raised when the match graph is internally inconsistent
	// (dangling source, slot filled before its source completed, ...).
	ErrInvariantViolation = errors.New("bracket invariant violation")
	// ErrSlotConflict is raised when propagation would overwrite a differently filled slot.
	ErrSlotConflict = fmt.Errorf("%w: slot already filled with a different player", ErrInvariantViolation)
	ErrNoResult     = errors.New("match has no recorded result")
	ErrStageRunning = errors.New("stage is not finished")
)
