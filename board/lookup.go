package board

import (
	"strconv"

	"github.com/wfunc/settlers/geometry"
)

func IsTile(id string) bool   { return hasPrefix(id, 'T') }
func IsCorner(id string) bool { return hasPrefix(id, 'C') }
func IsEdge(id string) bool   { return hasPrefix(id, 'E') }

func hasPrefix(id string, p byte) bool {
	return len(id) > 1 && id[0] == p
}

// ordinal returns the zero-based index encoded in a generated id such as "C12".
func ordinal(id string, p byte) (int, bool) {
	if !hasPrefix(id, p) {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Tile returns the tile with the given id. Sea tiles are listed first, so
// tile ids are not positional.
func (b *Board) Tile(id string) (*Tile, bool) {
	if _, ok := ordinal(id, 'T'); !ok {
		return nil, false
	}
	for i := range b.Tiles {
		if b.Tiles[i].ID == id {
			return &b.Tiles[i], true
		}
	}
	return nil, false
}

// Corner returns the corner with the given id.
func (b *Board) Corner(id string) (*Corner, bool) {
	i, ok := ordinal(id, 'C')
	if !ok || i >= len(b.Corners) || b.Corners[i].ID != id {
		return nil, false
	}
	return &b.Corners[i], true
}

// Edge returns the edge with the given id.
func (b *Board) Edge(id string) (*Edge, bool) {
	i, ok := ordinal(id, 'E')
	if !ok || i >= len(b.Edges) || b.Edges[i].ID != id {
		return nil, false
	}
	return &b.Edges[i], true
}

// CornerAt returns the corner whose center matches p within tolerance.
func (b *Board) CornerAt(p geometry.Coordinates) (*Corner, bool) {
	if i := b.cornerIndexAt(p); i >= 0 {
		return &b.Corners[i], true
	}
	return nil, false
}

// EdgeTouchesCorner reports whether one of the edge's ends is the corner.
func EdgeTouchesCorner(e *Edge, c *Corner) bool {
	return geometry.AreCoordinatesEqual(e.Ends[0], c.Center) ||
		geometry.AreCoordinatesEqual(e.Ends[1], c.Center)
}

// EdgesShareEnd reports whether two distinct edges meet at a corner.
func EdgesShareEnd(a, b *Edge) bool {
	if a.ID == b.ID {
		return false
	}
	for _, p := range a.Ends {
		for _, q := range b.Ends {
			if geometry.AreCoordinatesEqual(p, q) {
				return true
			}
		}
	}
	return false
}

// EdgeCorners returns the corners at both ends of e.
func (b *Board) EdgeCorners(e *Edge) []*Corner {
	out := make([]*Corner, 0, 2)
	for _, end := range e.Ends {
		if c, ok := b.CornerAt(end); ok {
			out = append(out, c)
		}
	}
	return out
}

// HasClaimedNeighbor reports whether any corner adjacent to c is owned.
// A corner with a claimed neighbor breaks the distance rule.
func (b *Board) HasClaimedNeighbor(c *Corner) bool {
	for _, id := range c.AdjacentCorners {
		if n, ok := b.Corner(id); ok && n.Claimed() {
			return true
		}
	}
	return false
}

// EdgeReachable reports whether e touches a corner owned by player or an
// edge owned by player.
func (b *Board) EdgeReachable(e *Edge, player string) bool {
	for _, c := range b.EdgeCorners(e) {
		if c.Player == player {
			return true
		}
	}
	for _, id := range e.AdjacentEdges {
		if n, ok := b.Edge(id); ok && n.Player == player {
			return true
		}
	}
	return false
}

// TilesWithValue returns the productive tiles whose number equals value.
func (b *Board) TilesWithValue(value int) []*Tile {
	var out []*Tile
	for i := range b.Tiles {
		if b.Tiles[i].Value == value && b.Tiles[i].Type.Productive() {
			out = append(out, &b.Tiles[i])
		}
	}
	return out
}
