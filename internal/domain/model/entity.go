// Package model contains the domain types passed between the frame
// extractor, the dominance builder and the renderer.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// BallID is the entity id reserved for the ball.
const BallID = 0

// Team is the side a player belongs to.
type Team string

// Teams.
const (
	TeamAttack  Team = "attack"
	TeamDefense Team = "defense"
)

// ParseTeam accepts "attack" and "defense" (or "defence"), case-insensitive.
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack":
		return TeamAttack, nil
	case "defense", "defence":
		return TeamDefense, nil
	default:
		return "", fmt.Errorf("unknown team %q", s)
	}
}

// Kind tags an Entity as ball or player.
type Kind uint8

// Entity kinds.
const (
	KindBall Kind = iota
	KindPlayer
)

func (k Kind) String() string {
	if k == KindBall {
		return "ball"
	}
	return "player"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Vector is a displacement per sample.
type Vector struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Length returns the Euclidean norm of v.
func (v Vector) Length() float64 { return math.Hypot(v.DX, v.DY) }

// IsZero reports whether v has no length.
func (v Vector) IsZero() bool { return v.DX == 0 && v.DY == 0 }

// Style carries rendering attributes. Geometry never reads it.
type Style struct {
	Fill string `json:"fill,omitempty"`
	Edge string `json:"edge,omitempty"`
}

// BallInfo holds ball-only attributes.
type BallInfo struct {
	// Height is the ball's z above ground; zero when not tracked.
	Height float64 `json:"height"`
}

// PlayerInfo holds player-only attributes.
type PlayerInfo struct {
	Team         Team   `json:"team"`
	JerseyNumber string `json:"jersey_number,omitempty"`
}

// Entity is one tracked object at one instant. Exactly one of Ball and
// Player is set, matching Kind.
type Entity struct {
	ID       int         `json:"id"`
	Kind     Kind        `json:"kind"`
	Position orb.Point   `json:"position"`
	Velocity *Vector     `json:"velocity,omitempty"`
	Style    Style       `json:"style"`
	Ball     *BallInfo   `json:"ball,omitempty"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

// NewBall builds the ball entity.
func NewBall(pos orb.Point, vel *Vector, height float64, style Style) Entity {
	return Entity{
		ID:       BallID,
		Kind:     KindBall,
		Position: pos,
		Velocity: vel,
		Style:    style,
		Ball:     &BallInfo{Height: height},
	}
}

// NewPlayer builds a player entity.
func NewPlayer(id int, pos orb.Point, vel *Vector, style Style, team Team, jersey string) Entity {
	return Entity{
		ID:       id,
		Kind:     KindPlayer,
		Position: pos,
		Velocity: vel,
		Style:    style,
		Player:   &PlayerInfo{Team: team, JerseyNumber: jersey},
	}
}

// IsBall reports whether e is the ball.
func (e Entity) IsBall() bool { return e.Kind == KindBall }

// Team returns the player's team, or "" for the ball.
func (e Entity) Team() Team {
	if e.Player == nil {
		return ""
	}
	return e.Player.Team
}

// JerseyNumber returns the player's label, or "" for the ball.
func (e Entity) JerseyNumber() string {
	if e.Player == nil {
		return ""
	}
	return e.Player.JerseyNumber
}

// Height returns the ball height, or 0 for players.
func (e Entity) Height() float64 {
	if e.Ball == nil {
		return 0
	}
	return e.Ball.Height
}
