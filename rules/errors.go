package rules

import (
	"errors"
	"fmt"

	"github.com/wfunc/settlers/board"
)

var (
	// ErrInvalidMove rejects a move that breaks a rule. The match is left untouched.
	ErrInvalidMove = errors.New("invalid move")

	// ErrLookup rejects a move naming an id the board or seating never produced.
	// It points at a client/board mismatch rather than a player mistake.
	ErrLookup = errors.New("lookup failed")

	// ErrGameOver rejects every move once a winner exists.
	ErrGameOver = fmt.Errorf("%w: game over", ErrInvalidMove)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}

func unknown(kind, id string) error {
	return fmt.Errorf("%w: %s %q: %w", ErrLookup, kind, id, board.ErrNotFound)
}
