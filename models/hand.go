package models

import (
	"github.com/wfunc/settlers/board"
)

// Resource is one of the five tradeable resource kinds.
type Resource string

const (
	Wood  Resource = "wood"
	Brick Resource = "brick"
	Sheep Resource = "sheep"
	Wheat Resource = "wheat"
	Ore   Resource = "ore"
)

// Resources lists every resource kind in display order.
var Resources = []Resource{Wood, Brick, Sheep, Wheat, Ore}

// ResourceOf maps a productive tile type to the resource it yields.
func ResourceOf(t board.TileType) (Resource, bool) {
	switch t {
	case board.TileWood:
		return Wood, true
	case board.TileBrick:
		return Brick, true
	case board.TileSheep:
		return Sheep, true
	case board.TileWheat:
		return Wheat, true
	case board.TileOre:
		return Ore, true
	}
	return "", false
}

// Hand holds a count per resource. Trade offers reuse it with signed counts.
type Hand struct {
	Wood  int `json:"wood"`
	Brick int `json:"brick"`
	Sheep int `json:"sheep"`
	Wheat int `json:"wheat"`
	Ore   int `json:"ore"`
}

func (h *Hand) slot(r Resource) *int {
	switch r {
	case Wood:
		return &h.Wood
	case Brick:
		return &h.Brick
	case Sheep:
		return &h.Sheep
	case Wheat:
		return &h.Wheat
	case Ore:
		return &h.Ore
	}
	return nil
}

// Get returns the count of r; unknown kinds count as zero.
func (h Hand) Get(r Resource) int {
	if p := h.slot(r); p != nil {
		return *p
	}
	return 0
}

// Add adds n (possibly negative) units of r.
func (h *Hand) Add(r Resource, n int) {
	if p := h.slot(r); p != nil {
		*p += n
	}
}

func (h Hand) Plus(o Hand) Hand {
	return Hand{
		Wood:  h.Wood + o.Wood,
		Brick: h.Brick + o.Brick,
		Sheep: h.Sheep + o.Sheep,
		Wheat: h.Wheat + o.Wheat,
		Ore:   h.Ore + o.Ore,
	}
}

func (h Hand) Minus(o Hand) Hand {
	return h.Plus(o.Negate())
}

func (h Hand) Negate() Hand {
	return Hand{Wood: -h.Wood, Brick: -h.Brick, Sheep: -h.Sheep, Wheat: -h.Wheat, Ore: -h.Ore}
}

// HasNegative reports whether any count is below zero.
func (h Hand) HasNegative() bool {
	return h.Wood < 0 || h.Brick < 0 || h.Sheep < 0 || h.Wheat < 0 || h.Ore < 0
}

func (h Hand) IsZero() bool {
	return h == Hand{}
}

// Total sums all counts.
func (h Hand) Total() int {
	return h.Wood + h.Brick + h.Sheep + h.Wheat + h.Ore
}
