package rules

import (
	"strconv"
)

// Phase is one of the three states of a match.
type Phase string

const (
	PhaseSetupForward Phase = "setupForward"
	PhaseSetupReverse Phase = "setupReverse"
	PhaseMain         Phase = "main"
)

func (p Phase) IsSetup() bool {
	return p == PhaseSetupForward || p == PhaseSetupReverse
}

// Setup sub-steps: every setup turn is a settlement then a road.
const (
	StepSettlement = 0
	StepRoad       = 1
)

// Context is the turn bookkeeping of a match.
type Context struct {
	Phase          Phase  `json:"phase"`
	NumPlayers     int    `json:"numPlayers"`
	PlayOrderPos   int    `json:"playOrderPos"`
	CurrentPlayer  string `json:"currentPlayer"`
	Turn           int    `json:"turn"`
	Step           int    `json:"step"`
	LastSettlement string `json:"lastSettlement,omitempty"`
	Seed           int64  `json:"seed"`
	Rolls          int    `json:"rolls"`
	Winner         string `json:"winner,omitempty"`
}

func newContext(numPlayers int, seed int64) Context {
	return Context{
		Phase:         PhaseSetupForward,
		NumPlayers:    numPlayers,
		CurrentPlayer: "0",
		Turn:          1,
		Seed:          seed,
	}
}

// Next returns the context of the following turn.
//
// SetupForward walks seats upwards; after the last seat the same seat opens
// SetupReverse, which walks back down. Falling below seat 0 starts Main at
// seat 0, which then cycles.
func (c Context) Next() Context {
	switch c.Phase {
	case PhaseSetupForward:
		if c.PlayOrderPos+1 < c.NumPlayers {
			c.PlayOrderPos++
		} else {
			c.Phase = PhaseSetupReverse
		}
	case PhaseSetupReverse:
		if c.PlayOrderPos-1 >= 0 {
			c.PlayOrderPos--
		} else {
			c.Phase = PhaseMain
			c.PlayOrderPos = 0
		}
	default:
		c.PlayOrderPos = (c.PlayOrderPos + 1) % c.NumPlayers
	}
	c.CurrentPlayer = strconv.Itoa(c.PlayOrderPos)
	c.Turn++
	c.Step = StepSettlement
	c.LastSettlement = ""
	return c
}
