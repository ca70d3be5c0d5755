package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row is one entity at one sample of a tracking table. JSON names follow
// the column names of the tracking exports this service consumes.
type Row struct {
	Sample int      `json:"frame"`
	Entity int      `json:"player"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	DX     *float64 `json:"dx,omitempty"`
	DY     *float64 `json:"dy,omitempty"`
	Z      *float64 `json:"z,omitempty"`
	Team   string   `json:"team,omitempty"`
	Fill   string   `json:"bgcolor,omitempty"`
	Edge   string   `json:"edgecolor,omitempty"`
	Number Label    `json:"player_num,omitempty"`
}

// Label is an optional display label. It decodes from a JSON string, a
// number or null; integral numbers lose their fraction ("7.0" -> "7").
type Label string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(NormalizeLabel(s))
		return nil
	}
	*l = Label(NormalizeLabel(string(b)))
	return nil
}

// NormalizeLabel renders a jersey label the way it is displayed. Numeric
// labels are printed as integers; anything unparsable (including NaN)
// becomes empty.
func NormalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

// Table is a tracking table indexed by sample. It is read-only once built.
type Table struct {
	bySample map[int][]Row
	samples  []int
	rows     int
}

// NewTable indexes rows by sample. Row order within a sample is kept.
func NewTable(rows []Row) *Table {
	t := &Table{bySample: make(map[int][]Row)}
	for _, r := range rows {
		if _, ok := t.bySample[r.Sample]; !ok {
			t.samples = append(t.samples, r.Sample)
		}
		t.bySample[r.Sample] = append(t.bySample[r.Sample], r)
	}
	sort.Ints(t.samples)
	t.rows = len(rows)
	return t
}

// Rows returns a copy of the rows recorded at sample.
func (t *Table) Rows(sample int) []Row {
	src := t.bySample[sample]
	if len(src) == 0 {
		return nil
	}
	out := make([]Row, len(src))
	copy(out, src)
	return out
}

// Samples returns the recorded sample indices in ascending order.
func (t *Table) Samples() []int {
	out := make([]int, len(t.samples))
	copy(out, t.samples)
	return out
}

// Len returns the total number of rows.
func (t *Table) Len() int { return t.rows }

// Span returns the first and last recorded sample. ok is false for an
// empty table.
func (t *Table) Span() (first, last int, ok bool) {
	if len(t.samples) == 0 {
		return 0, 0, false
	}
	return t.samples[0], t.samples[len(t.samples)-1], true
}

// AllRows returns every row ordered by sample.
func (t *Table) AllRows() []Row {
	out := make([]Row, 0, t.rows)
	for _, s := range t.samples {
		out = append(out, t.bySample[s]...)
	}
	return out
}
