package board

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wfunc/settlers/geometry"
	"github.com/wfunc/settlers/scenario"
)

// Circumradius is the hexagon center-to-vertex distance in pixels. Dedup
// rounds to whole pixels, so distinct vertices must stay well over a pixel apart.
const Circumradius = 50.0

// Apothem is the hexagon center-to-edge-midpoint distance.
var Apothem = math.Sqrt(Circumradius*Circumradius - (Circumradius/2)*(Circumradius/2))

const (
	tokenEmpty = "-"
	tokenSea   = "s"
)

var terrainLetters = map[string]TileType{
	"d": TileDesert,
	"b": TileBrick,
	"g": TileWheat,
	"l": TileWood,
	"o": TileOre,
	"w": TileSheep,
}

// grid is a padded tile map with its pixel metrics.
type grid struct {
	rows         [][]string
	maxRowLength int
	height       float64
	width        float64
	offsetX      [2]float64
	offsetY      float64
}

type edgeCandidate struct {
	center geometry.Coordinates
	ends   [2]geometry.Coordinates
}

// Generate builds the board described by layout. Identical layouts always
// produce identical ids.
func Generate(layout scenario.Layout) (*Board, error) {
	g, err := newGrid(layout.Tiles)
	if err != nil {
		return nil, err
	}
	terrain, err := parseTerrain(layout.TerrainTiles)
	if err != nil {
		return nil, err
	}

	var sea []Tile
	land := make(map[int]Tile)
	tileID := 0
	for i, row := range g.rows {
		for j, token := range row {
			if token == "" || token == tokenEmpty {
				continue
			}
			tileID++
			center := geometry.Coordinates{
				X: geometry.Round(g.offsetX[i%2]+Circumradius*3*float64(j), 3),
				Y: geometry.Round(Apothem*float64(i)+g.offsetY, 3),
			}
			tile := Tile{ID: "T" + strconv.Itoa(tileID), Center: center, Corners: []string{}}

			switch {
			case token == tokenSea:
				tile.Type = TileSea
				sea = append(sea, tile)
			case strings.HasPrefix(token, "t"):
				n, err := strconv.Atoi(token[1:])
				if err != nil || n < 1 {
					return nil, fmt.Errorf("%w: bad tile token %q in row %d", scenario.ErrConfiguration, token, i+1)
				}
				if _, dup := land[n-1]; dup {
					return nil, fmt.Errorf("%w: tile token %q used twice", scenario.ErrConfiguration, token)
				}
				land[n-1] = tile
			default:
				return nil, fmt.Errorf("%w: unknown tile token %q in row %d", scenario.ErrConfiguration, token, i+1)
			}
		}
	}

	resources := make([]Tile, len(land))
	desert := 0
	for index := range resources {
		tile, ok := land[index]
		if !ok {
			return nil, fmt.Errorf("%w: resource tile t%d missing from layout", scenario.ErrConfiguration, index+1)
		}
		if index >= len(terrain) {
			return nil, fmt.Errorf("%w: no terrain for resource tile t%d", scenario.ErrConfiguration, index+1)
		}
		tile.Type = terrain[index]
		if tile.Type == TileDesert {
			desert++
		} else {
			token := index - desert
			if token >= len(layout.NumberTokens) {
				return nil, fmt.Errorf("%w: no number token for resource tile t%d", scenario.ErrConfiguration, index+1)
			}
			tile.Value = layout.NumberTokens[token]
			if tile.Value < 2 || tile.Value > 12 || tile.Value == 7 {
				return nil, fmt.Errorf("%w: number token %d out of range", scenario.ErrConfiguration, tile.Value)
			}
		}
		resources[index] = tile
	}

	var cornerPoints []geometry.Coordinates
	var edgePoints []edgeCandidate
	for _, tile := range resources {
		corners := hexCorners(tile.Center)
		cornerPoints = append(cornerPoints, corners[:]...)
		edges := hexEdges(tile.Center)
		edgePoints = append(edgePoints, edges[:]...)
	}

	b := &Board{
		Height: g.height,
		Width:  g.width,
		Tiles:  append(sea, resources...),
	}

	for n, idx := range dedupe(cornerPoints, func(p geometry.Coordinates) geometry.Coordinates { return p }) {
		b.Corners = append(b.Corners, Corner{
			ID:     "C" + strconv.Itoa(n+1),
			Center: cornerPoints[idx],
		})
	}
	for n, idx := range dedupe(edgePoints, func(e edgeCandidate) geometry.Coordinates { return e.center }) {
		b.Edges = append(b.Edges, Edge{
			ID:     "E" + strconv.Itoa(n+1),
			Center: edgePoints[idx].center,
			Ends:   edgePoints[idx].ends,
		})
	}

	if err := b.linkTiles(len(sea)); err != nil {
		return nil, err
	}
	if err := b.linkGraph(); err != nil {
		return nil, err
	}
	return b, nil
}

func newGrid(rows []string) (grid, error) {
	if len(rows) == 0 {
		return grid{}, fmt.Errorf("%w: layout has no tile rows", scenario.ErrConfiguration)
	}

	g := grid{rows: make([][]string, len(rows))}
	maxIndex := -1
	for i, row := range rows {
		tokens := strings.Split(row, ",")
		for k := range tokens {
			tokens[k] = strings.TrimSpace(tokens[k])
		}
		g.rows[i] = tokens
		if len(tokens) > g.maxRowLength {
			g.maxRowLength = len(tokens)
			maxIndex = i % 2
		}
	}

	// rows of the widest parity get max cells, the others one fewer, so
	// that alternate rows interlock
	for i, row := range g.rows {
		length := g.maxRowLength - 1
		if i%2 == maxIndex {
			length = g.maxRowLength
		}
		for len(row) < length {
			row = append(row, tokenEmpty)
		}
		g.rows[i] = row
	}

	g.height = Apothem * float64(len(g.rows)+1)
	g.width = float64(g.maxRowLength*2+(g.maxRowLength-1)) * Circumradius
	maxOffsetX := -(g.width/2 - Circumradius)
	minOffsetX := Circumradius*1.5 + maxOffsetX
	if maxIndex == 0 {
		g.offsetX = [2]float64{maxOffsetX, minOffsetX}
	} else {
		g.offsetX = [2]float64{minOffsetX, maxOffsetX}
	}
	g.offsetY = -(g.height/2 - Apothem)
	return g, nil
}

func parseTerrain(terrain string) ([]TileType, error) {
	if strings.TrimSpace(terrain) == "" {
		return nil, nil
	}
	letters := strings.Split(terrain, ",")
	out := make([]TileType, len(letters))
	for i, letter := range letters {
		t, ok := terrainLetters[strings.TrimSpace(letter)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown terrain %q", scenario.ErrConfiguration, letter)
		}
		out[i] = t
	}
	return out, nil
}

func hexCorners(center geometry.Coordinates) [6]geometry.Coordinates {
	var out [6]geometry.Coordinates
	for k := range out {
		out[k] = geometry.Endpoint(center, float64(60*k), Circumradius)
	}
	return out
}

func hexEdges(center geometry.Coordinates) [6]edgeCandidate {
	var out [6]edgeCandidate
	for k := range out {
		angle := float64(30 + 60*k)
		out[k] = edgeCandidate{
			center: geometry.Endpoint(center, angle, Apothem),
			ends: [2]geometry.Coordinates{
				geometry.Endpoint(center, angle-30, Circumradius),
				geometry.Endpoint(center, angle+30, Circumradius),
			},
		}
	}
	return out
}

// dedupe groups candidates by their whole-pixel position, keeps the first of
// each group and returns the kept indices ordered by y, then x.
func dedupe[T any](candidates []T, at func(T) geometry.Coordinates) []int {
	type rep struct {
		x, y  float64
		index int
	}
	seen := make(map[[2]float64]struct{}, len(candidates))
	reps := make([]rep, 0, len(candidates))
	for i, c := range candidates {
		p := at(c)
		key := [2]float64{geometry.Round(p.X, 0), geometry.Round(p.Y, 0)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		reps = append(reps, rep{x: key[0], y: key[1], index: i})
	}
	sort.SliceStable(reps, func(a, b int) bool {
		if reps[a].y != reps[b].y {
			return reps[a].y < reps[b].y
		}
		return reps[a].x < reps[b].x
	})

	out := make([]int, len(reps))
	for i, r := range reps {
		out[i] = r.index
	}
	return out
}

// linkTiles records which land tiles touch each corner, matching regenerated
// vertices by tolerance rather than by rounding.
func (b *Board) linkTiles(firstLand int) error {
	for i := firstLand; i < len(b.Tiles); i++ {
		tile := &b.Tiles[i]
		for _, p := range hexCorners(tile.Center) {
			idx := b.cornerIndexAt(p)
			if idx < 0 {
				return fmt.Errorf("%w: vertex %v of %s matches no corner", scenario.ErrConfiguration, p, tile.ID)
			}
			corner := &b.Corners[idx]
			corner.Tiles = append(corner.Tiles, tile.ID)
			tile.Corners = append(tile.Corners, corner.ID)
		}
	}
	return nil
}

// linkGraph fills AdjacentCorners (joined by an edge) and AdjacentEdges
// (sharing an endpoint).
func (b *Board) linkGraph() error {
	edgeEnds := make([][2]int, len(b.Edges))
	incident := make([][]int, len(b.Corners))
	cornerAdj := make([][]int, len(b.Corners))

	for i := range b.Edges {
		edge := &b.Edges[i]
		for k, end := range edge.Ends {
			idx := b.cornerIndexAt(end)
			if idx < 0 {
				return fmt.Errorf("%w: end %v of %s matches no corner", scenario.ErrConfiguration, end, edge.ID)
			}
			edgeEnds[i][k] = idx
			incident[idx] = append(incident[idx], i)
		}
		a, c := edgeEnds[i][0], edgeEnds[i][1]
		cornerAdj[a] = append(cornerAdj[a], c)
		cornerAdj[c] = append(cornerAdj[c], a)
	}

	for i := range b.Corners {
		b.Corners[i].AdjacentCorners = idsOf(cornerAdj[i], -1, func(n int) string { return b.Corners[n].ID })
	}
	for i := range b.Edges {
		var near []int
		near = append(near, incident[edgeEnds[i][0]]...)
		near = append(near, incident[edgeEnds[i][1]]...)
		b.Edges[i].AdjacentEdges = idsOf(near, i, func(n int) string { return b.Edges[n].ID })
	}
	return nil
}

// idsOf sorts and dedupes indices, drops self and maps them to ids.
func idsOf(indices []int, self int, id func(int) string) []string {
	sort.Ints(indices)
	out := make([]string, 0, len(indices))
	last := -1
	for _, n := range indices {
		if n == self || n == last {
			continue
		}
		last = n
		out = append(out, id(n))
	}
	return out
}

func (b *Board) cornerIndexAt(p geometry.Coordinates) int {
	for i := range b.Corners {
		if geometry.AreCoordinatesEqual(b.Corners[i].Center, p) {
			return i
		}
	}
	return -1
}
