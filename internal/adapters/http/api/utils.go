package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/okian/pitchmap/internal/render"
)

// floatParam parses a float query parameter. A missing parameter yields def,
// or an error when required.
func floatParam(r *http.Request, name string, def float64, required bool) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, name, raw)
	}
	return v, nil
}

// renderOptions reads vectors, numbers, dominance, time, players and
// highlight from the query string.
func renderOptions(r *http.Request) (render.Options, error) {
	var (
		o   render.Options
		err error
	)
	if o.Vectors, err = boolParam(r, "vectors", false); err != nil {
		return o, err
	}
	if o.Numbers, err = boolParam(r, "numbers", true); err != nil {
		return o, err
	}
	if o.Dominance, err = boolParam(r, "dominance", false); err != nil {
		return o, err
	}
	if o.Time, err = boolParam(r, "time", false); err != nil {
		return o, err
	}
	players, err := boolParam(r, "players", true)
	if err != nil {
		return o, err
	}
	o.HidePlayers = !players
	if raw := r.URL.Query().Get("highlight"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return o, fmt.Errorf("%w: invalid highlight %q", ErrBadRequest, raw)
		}
		o.Highlight = &id
	}
	return o, nil
}
