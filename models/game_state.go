// Package models holds the serializable match document: players, hands,
// trade offers and the board they play on.
package models

import (
	"fmt"
	"strconv"

	"github.com/wfunc/settlers/board"
	"github.com/wfunc/settlers/scenario"
)

// PlayerColors is the seat color palette; it also caps the player count.
var PlayerColors = []string{"red", "blue", "green", "orange", "white"}

type Player struct {
	ID          string   `json:"id"`
	Color       string   `json:"color"`
	Settlements []string `json:"settlements"`
	Roads       []string `json:"roads"`
	Cities      []string `json:"cities"`
	Hand        Hand     `json:"hand"`
}

// VictoryPoints scores one per settlement and two per city.
func (p *Player) VictoryPoints() int {
	return len(p.Settlements) + 2*len(p.Cities)
}

// TradeOffer is an outstanding offer. Offer is signed from the accepting
// player's side: positive counts flow to the accepter, negative ones to the
// offering player.
type TradeOffer struct {
	PlayerID string `json:"playerID"`
	Offer    Hand   `json:"offer"`
}

type GameState struct {
	Allowance     scenario.Allowance `json:"allowance"`
	Board         board.Board        `json:"board"`
	VictoryPoints int                `json:"victoryPoints"`
	Players       []Player           `json:"players"`
	DiceRoll      []int              `json:"diceRoll"`
	TradeOffer    *TradeOffer        `json:"tradeOffer"`
}

// BuildGameState selects the layout for numPlayers, generates its board and
// seats numPlayers players with ids "0".."N-1".
func BuildGameState(s scenario.Scenario, numPlayers int) (*GameState, error) {
	if numPlayers < 1 || numPlayers > len(PlayerColors) {
		return nil, fmt.Errorf("%w: %d players not supported", scenario.ErrConfiguration, numPlayers)
	}
	layout, err := s.SelectLayout(numPlayers)
	if err != nil {
		return nil, err
	}
	b, err := board.Generate(layout)
	if err != nil {
		return nil, err
	}

	players := make([]Player, numPlayers)
	for i := range players {
		players[i] = Player{
			ID:          strconv.Itoa(i),
			Color:       PlayerColors[i],
			Settlements: []string{},
			Roads:       []string{},
			Cities:      []string{},
		}
	}

	return &GameState{
		Allowance:     s.Allowance,
		Board:         *b,
		VictoryPoints: s.VictoryPoints,
		Players:       players,
		DiceRoll:      []int{},
	}, nil
}

// Player returns the player seated under id.
func (g *GameState) Player(id string) (*Player, bool) {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// Rolled reports whether the current turn has rolled.
func (g *GameState) Rolled() bool {
	return len(g.DiceRoll) == 2
}

// Clone returns a deep copy that shares no slices or pointers with g.
func (g *GameState) Clone() GameState {
	out := GameState{
		Allowance:     g.Allowance,
		Board:         g.Board.Clone(),
		VictoryPoints: g.VictoryPoints,
		Players:       make([]Player, len(g.Players)),
		DiceRoll:      cloneInts(g.DiceRoll),
	}
	for i, p := range g.Players {
		p.Settlements = cloneStrings(p.Settlements)
		p.Roads = cloneStrings(p.Roads)
		p.Cities = cloneStrings(p.Cities)
		out.Players[i] = p
	}
	if g.TradeOffer != nil {
		offer := *g.TradeOffer
		out.TradeOffer = &offer
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append(make([]int, 0, len(s)), s...)
}
