package scheme

import "errors"

var (
	ErrMalformed      = errors.New("malformed scheme")
	ErrEmptyTiles     = errors.New("scheme has no tiles")
	ErrBudgetExceeded = errors.New("degenerate k-mer budget exceeded")
	ErrUnknownScheme  = errors.New("scheme not available")
)
