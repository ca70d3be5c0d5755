package model

import "sort"

// Frame is the set of entities valid at one sample. It holds at most one
// entity per id; the ball is optional.
type Frame struct {
	Sample    int            `json:"sample"`
	Timestamp float64        `json:"t"`
	Entities  map[int]Entity `json:"entities"`
}

// Entity looks up an entity by id.
func (f Frame) Entity(id int) (Entity, bool) {
	e, ok := f.Entities[id]
	return e, ok
}

// Ball returns the ball if it was tracked at this sample.
func (f Frame) Ball() (Entity, bool) {
	e, ok := f.Entities[BallID]
	if !ok || !e.IsBall() {
		return Entity{}, false
	}
	return e, true
}

// Players returns the non-ball entities ordered by id.
func (f Frame) Players() []Entity {
	out := make([]Entity, 0, len(f.Entities))
	for _, id := range f.IDs() {
		if e := f.Entities[id]; !e.IsBall() {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns every entity id in ascending order.
func (f Frame) IDs() []int {
	ids := make([]int, 0, len(f.Entities))
	for id := range f.Entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
