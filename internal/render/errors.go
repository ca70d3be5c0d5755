package render

import (
	"errors"

	"github.com/okian/pitchmap/internal/domain/model"
)

var (
	// ErrUnknownColor is returned for colour strings that cannot be parsed.
	ErrUnknownColor = errors.New("unknown color")
	// ErrInvalidGrid is returned when an overlay grid has the wrong shape.
	ErrInvalidGrid = model.ErrInvalidGrid
	// ErrUnknownStyle is returned for an unrecognised pitch style name.
	ErrUnknownStyle = errors.New("unknown pitch style")
)
