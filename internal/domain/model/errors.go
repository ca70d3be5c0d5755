package model

import "errors"

// ErrInvalidGrid reports a probability grid whose shape or axes are unusable.
var ErrInvalidGrid = errors.New("invalid probability grid")
