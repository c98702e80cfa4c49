// Package board generates the tile/corner/edge graph of a hex board and
// provides id lookups and adjacency predicates over it.
package board

import (
	"errors"

	"github.com/wfunc/settlers/geometry"
)

// ErrNotFound is returned when an id does not name an element of the board.
var ErrNotFound = errors.New("not found")

// TileType is the terrain of a tile.
type TileType string

const (
	TileWood   TileType = "wood"
	TileBrick  TileType = "brick"
	TileOre    TileType = "ore"
	TileWheat  TileType = "wheat"
	TileSheep  TileType = "sheep"
	TileDesert TileType = "desert"
	TileSea    TileType = "sea"
)

// Productive reports whether the tile yields a resource on a matching roll.
func (t TileType) Productive() bool {
	switch t {
	case TileWood, TileBrick, TileOre, TileWheat, TileSheep:
		return true
	}
	return false
}

// Building is what stands on a corner.
type Building string

const (
	BuildingNone       Building = ""
	BuildingSettlement Building = "settlement"
	BuildingCity       Building = "city"
)

type Tile struct {
	ID      string               `json:"id"`
	Center  geometry.Coordinates `json:"center"`
	Type    TileType             `json:"type,omitempty"`
	Value   int                  `json:"value"` // 0 on sea and desert
	Corners []string             `json:"corners"`
}

type Corner struct {
	ID              string               `json:"id"`
	Center          geometry.Coordinates `json:"center"`
	Player          string               `json:"player,omitempty"`
	Tiles           []string             `json:"tiles"`
	AdjacentCorners []string             `json:"adjacentCorners"`
	Building        Building             `json:"building,omitempty"`
}

// Claimed reports whether any player owns the corner.
func (c *Corner) Claimed() bool {
	return c.Player != ""
}

type Edge struct {
	ID            string                  `json:"id"`
	Center        geometry.Coordinates    `json:"center"`
	Ends          [2]geometry.Coordinates `json:"ends"`
	Player        string                  `json:"player,omitempty"`
	AdjacentEdges []string                `json:"adjacentEdges"`
}

// Claimed reports whether any player owns the edge.
func (e *Edge) Claimed() bool {
	return e.Player != ""
}

// Board is the static graph of a match. Only ownership and building fields
// change after generation.
type Board struct {
	Height  float64  `json:"height"`
	Width   float64  `json:"width"`
	Tiles   []Tile   `json:"tiles"`
	Corners []Corner `json:"corners"`
	Edges   []Edge   `json:"edges"`
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() Board {
	out := Board{
		Height:  b.Height,
		Width:   b.Width,
		Tiles:   make([]Tile, len(b.Tiles)),
		Corners: make([]Corner, len(b.Corners)),
		Edges:   make([]Edge, len(b.Edges)),
	}
	for i, t := range b.Tiles {
		t.Corners = cloneIDs(t.Corners)
		out.Tiles[i] = t
	}
	for i, c := range b.Corners {
		c.Tiles = cloneIDs(c.Tiles)
		c.AdjacentCorners = cloneIDs(c.AdjacentCorners)
		out.Corners[i] = c
	}
	for i, e := range b.Edges {
		e.AdjacentEdges = cloneIDs(e.AdjacentEdges)
		out.Edges[i] = e
	}
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
