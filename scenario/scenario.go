// Package scenario describes the board layouts a match can be generated from.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is returned when no usable layout exists or a layout is malformed.
var ErrConfiguration = errors.New("configuration error")

// PlayerRange is the inclusive-ish player range a layout was designed for.
type PlayerRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Layout is a row-based ASCII tile map plus the terrain and number sequences
// consumed, in order, by its resource tiles.
//
// Tile tokens: "-" empty, "s" sea, "tN" the N-th resource tile (1-based).
// TerrainTiles is a comma separated list of terrain letters:
// d desert, b brick, g wheat, l wood, o ore, w sheep.
type Layout struct {
	Players      PlayerRange `yaml:"players" json:"players"`
	NumberTokens []int       `yaml:"number_tokens" json:"numberTokens"`
	TerrainTiles string      `yaml:"terrain_tiles" json:"terrainTiles"`
	Tiles        []string    `yaml:"tiles" json:"tiles"`
}

// Allowance caps the number of pieces each player may have on the board.
type Allowance struct {
	Roads       int `yaml:"roads" json:"roads"`
	Settlements int `yaml:"settlements" json:"settlements"`
	Cities      int `yaml:"cities" json:"cities"`
}

// Scenario bundles the layouts with the match-wide rule parameters.
type Scenario struct {
	Name          string    `yaml:"name" json:"name"`
	VictoryPoints int       `yaml:"victory_points" json:"victoryPoints"`
	Allowance     Allowance `yaml:"allowance" json:"allowance"`
	Layouts       []Layout  `yaml:"layouts" json:"layouts"`
}

// Default returns the base game scenario.
func Default() Scenario {
	return Scenario{
		Name:          "Base game",
		VictoryPoints: 10,
		Allowance: Allowance{
			Roads:       15,
			Settlements: 5,
			Cities:      4,
		},
		Layouts: []Layout{
			{
				Players:      PlayerRange{Min: 3, Max: 4},
				NumberTokens: []int{5, 2, 6, 3, 8, 10, 9, 12, 11, 4, 8, 10, 9, 4, 5, 6, 3, 11},
				TerrainTiles: "o,g,l,o,g,w,g,w,l,b,d,b,w,w,l,b,o,l,g",
				Tiles: []string{
					"-,s",
					"-,s,s",
					"s,t3,s",
					"s,t4,t2,s",
					"t5,t14,t1",
					"s,t15,t13,s",
					"t6,t19,t12",
					"s,t16,t18,s",
					"t7,t17,t11",
					"s,t8,t10,s",
					"s,t9,s",
					"-,s,s",
					"-,s",
				},
			},
		},
	}
}

// SelectLayout returns the first layout whose player range matches numPlayers.
func (s Scenario) SelectLayout(numPlayers int) (Layout, error) {
	if numPlayers < 1 {
		return Layout{}, fmt.Errorf("%w: invalid player count %d", ErrConfiguration, numPlayers)
	}
	for _, layout := range s.Layouts {
		if layout.Players.Min == numPlayers || layout.Players.Max >= numPlayers {
			return layout, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: no layout in %q for %d players", ErrConfiguration, s.Name, numPlayers)
}

// Validate checks the scenario-wide parameters. Layout tokens are checked by
// the board generator.
func (s Scenario) Validate() error {
	if len(s.Layouts) == 0 {
		return fmt.Errorf("%w: scenario %q has no layouts", ErrConfiguration, s.Name)
	}
	if s.VictoryPoints <= 0 {
		return fmt.Errorf("%w: scenario %q needs positive victory points", ErrConfiguration, s.Name)
	}
	a := s.Allowance
	if a.Roads <= 0 || a.Settlements < 2 || a.Cities < 0 {
		return fmt.Errorf("%w: scenario %q has an unusable allowance %+v", ErrConfiguration, s.Name, a)
	}
	return nil
}

// Load reads a scenario from a YAML file.
func Load(path string) (Scenario, error) {
	var s Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
