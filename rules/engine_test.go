package rules

import (
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/settlers/board"
	"github.com/wfunc/settlers/models"
	"github.com/wfunc/settlers/scenario"
)

func fixedDice(pairs ...[2]int) Roller {
	return func(_ int64, index int) [2]int {
		return pairs[index%len(pairs)]
	}
}

func newMatch(t *testing.T, numPlayers int) Match {
	t.Helper()
	m, err := NewMatch(scenario.Default(), numPlayers, 1)
	require.NoError(t, err)
	return *m
}

func singleTileMatch(t *testing.T) Match {
	t.Helper()
	s := scenario.Default()
	s.Layouts = []scenario.Layout{{
		Players:      scenario.PlayerRange{Min: 3, Max: 4},
		NumberTokens: []int{9},
		TerrainTiles: "o",
		Tiles:        []string{"-,s", "-,s,s", "-,t1", "-,s,s", "-,s"},
	}}
	m, err := NewMatch(s, 3, 1)
	require.NoError(t, err)
	m.Ctx.Phase = PhaseMain
	return *m
}

func apply(t *testing.T, e *Engine, m Match, pid string, c Command) Match {
	t.Helper()
	next, err := e.Apply(m, Move{PlayerID: pid, Command: c})
	require.NoError(t, err, "%s by %s", c.Name(), pid)
	return next
}

func encode(t *testing.T, m Match) string {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return string(raw)
}

// legalCorner returns the first corner that passes the distance rule.
func legalCorner(m Match) string {
	for i := range m.G.Board.Corners {
		c := &m.G.Board.Corners[i]
		if !c.Claimed() && !m.G.Board.HasClaimedNeighbor(c) {
			return c.ID
		}
	}
	return ""
}

// freeEdgeAt returns the first unclaimed edge touching corner id.
func freeEdgeAt(m Match, id string) string {
	c, _ := m.G.Board.Corner(id)
	for i := range m.G.Board.Edges {
		e := &m.G.Board.Edges[i]
		if !e.Claimed() && board.EdgeTouchesCorner(e, c) {
			return e.ID
		}
	}
	return ""
}

// runSetup plays both setup rounds and returns the match plus each
// player's second settlement.
func runSetup(t *testing.T, e *Engine, m Match) (Match, map[string]string) {
	t.Helper()
	second := make(map[string]string)
	for m.Ctx.Phase.IsSetup() {
		pid := m.Ctx.CurrentPlayer
		reverse := m.Ctx.Phase == PhaseSetupReverse
		corner := legalCorner(m)
		require.NotEmpty(t, corner)
		m = apply(t, e, m, pid, PlaceSettlement{Corner: corner})
		if reverse {
			second[pid] = corner
		}
		m = apply(t, e, m, pid, PlaceRoad{Edge: freeEdgeAt(m, corner)})
	}
	return m, second
}

func TestContextNext(t *testing.T) {
	c := newContext(3, 0)
	type seat struct {
		phase Phase
		pos   int
	}
	want := []seat{
		{PhaseSetupForward, 0}, {PhaseSetupForward, 1}, {PhaseSetupForward, 2},
		{PhaseSetupReverse, 2}, {PhaseSetupReverse, 1}, {PhaseSetupReverse, 0},
		{PhaseMain, 0}, {PhaseMain, 1}, {PhaseMain, 2}, {PhaseMain, 0},
	}
	for i, w := range want {
		assert.Equal(t, w.phase, c.Phase, "turn %d", i+1)
		assert.Equal(t, w.pos, c.PlayOrderPos, "turn %d", i+1)
		assert.Equal(t, strconv.Itoa(w.pos), c.CurrentPlayer)
		assert.Equal(t, i+1, c.Turn)
		c = c.Next()
	}
}

func TestSetup_SnakeOrderAndCompensation(t *testing.T) {
	e := NewEngine()
	m, second := runSetup(t, e, newMatch(t, 3))

	assert.Equal(t, PhaseMain, m.Ctx.Phase)
	assert.Equal(t, "0", m.Ctx.CurrentPlayer)
	assert.Empty(t, m.G.DiceRoll)

	for _, p := range m.G.Players {
		assert.Len(t, p.Settlements, 2)
		assert.Len(t, p.Roads, 2)

		var want models.Hand
		c, ok := m.G.Board.Corner(second[p.ID])
		require.True(t, ok)
		for _, tid := range c.Tiles {
			tile, _ := m.G.Board.Tile(tid)
			if r, ok := models.ResourceOf(tile.Type); ok {
				want.Add(r, 1)
			}
		}
		assert.Equal(t, want, p.Hand, "player %s", p.ID)
	}
}

func TestSetup_FirstSettlementPaysNothing(t *testing.T) {
	e := NewEngine()
	m := apply(t, e, newMatch(t, 3), "0", PlaceSettlement{Corner: "C20"})
	assert.True(t, m.G.Players[0].Hand.IsZero())
	assert.Equal(t, StepRoad, m.Ctx.Step)
	assert.Equal(t, "C20", m.Ctx.LastSettlement)
}

func TestSetup_TurnAndStepGating(t *testing.T) {
	e := NewEngine()
	m := newMatch(t, 3)

	_, err := e.Apply(m, Move{PlayerID: "1", Command: PlaceSettlement{Corner: "C1"}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = e.Apply(m, Move{PlayerID: "0", Command: PlaceRoad{Edge: "E1"}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = e.Apply(m, Move{PlayerID: "0", Command: RollDice{}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = e.Apply(m, Move{PlayerID: "0", Command: BuildSettlement{Corner: "C1"}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	m = apply(t, e, m, "0", PlaceSettlement{Corner: "C1"})
	_, err = e.Apply(m, Move{PlayerID: "0", Command: PlaceSettlement{Corner: "C30"}})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestSetup_DistanceRule(t *testing.T) {
	e := NewEngine()
	m := apply(t, e, newMatch(t, 3), "0", PlaceSettlement{Corner: "C20"})
	m = apply(t, e, m, "0", PlaceRoad{Edge: freeEdgeAt(m, "C20")})

	c, _ := m.G.Board.Corner("C20")
	before := encode(t, m)
	for _, id := range append([]string{"C20"}, c.AdjacentCorners...) {
		got, err := e.Apply(m, Move{PlayerID: "1", Command: PlaceSettlement{Corner: id}})
		assert.ErrorIs(t, err, ErrInvalidMove, "corner %s", id)
		assert.Equal(t, before, encode(t, got))
	}
}

func TestSetup_RoadMustTouchNewSettlement(t *testing.T) {
	e := NewEngine()
	m := apply(t, e, newMatch(t, 3), "0", PlaceSettlement{Corner: "C5"})

	c5, _ := m.G.Board.Corner("C5")
	var far string
	for i := range m.G.Board.Edges {
		edge := &m.G.Board.Edges[i]
		if !board.EdgeTouchesCorner(edge, c5) {
			far = edge.ID
			break
		}
	}
	require.NotEmpty(t, far)

	before := encode(t, m)
	got, err := e.Apply(m, Move{PlayerID: "0", Command: PlaceRoad{Edge: far}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, before, encode(t, got))

	m = apply(t, e, m, "0", PlaceRoad{Edge: freeEdgeAt(m, "C5")})
	assert.Equal(t, "1", m.Ctx.CurrentPlayer)
}

func TestMain_BuildBeforeRollLeavesStateUnchanged(t *testing.T) {
	e := NewEngine()
	m, _ := runSetup(t, e, newMatch(t, 3))
	m.G.Players[0].Hand = models.Hand{Wood: 5, Brick: 5}

	road := m.G.Players[0].Roads[0]
	edge, _ := m.G.Board.Edge(road)
	target := edge.AdjacentEdges[0]

	before := encode(t, m)
	got, err := e.Apply(m, Move{PlayerID: "0", Command: BuildRoad{Edge: target}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, before, encode(t, got))
	assert.Equal(t, before, encode(t, m))

	_, err = e.Apply(m, Move{PlayerID: "0", Command: EndTurn{}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	_, err = e.Apply(m, Move{PlayerID: "0", Command: OfferTrade{Offer: models.Hand{Wood: 1}}})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestRollDice_SingleTileScenario(t *testing.T) {
	e := NewEngineWithRoller(fixedDice([2]int{4, 5}))
	m := singleTileMatch(t)

	c1, ok := m.G.Board.Corner("C1")
	require.True(t, ok)
	c1.Player = "0"
	c1.Building = board.BuildingSettlement
	m.G.Players[0].Settlements = append(m.G.Players[0].Settlements, "C1")

	m = apply(t, e, m, "0", RollDice{})
	assert.Equal(t, []int{4, 5}, m.G.DiceRoll)
	assert.Equal(t, 1, m.Ctx.Rolls)
	assert.Equal(t, models.Hand{Ore: 1}, m.G.Players[0].Hand)
	assert.True(t, m.G.Players[1].Hand.IsZero())
	assert.True(t, m.G.Players[2].Hand.IsZero())

	_, err := e.Apply(m, Move{PlayerID: "0", Command: RollDice{}})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestRollDice_CityPaysDouble(t *testing.T) {
	e := NewEngineWithRoller(fixedDice([2]int{6, 3}, [2]int{1, 1}))
	m := singleTileMatch(t)

	c1, _ := m.G.Board.Corner("C1")
	c1.Player, c1.Building = "0", board.BuildingCity
	c4, _ := m.G.Board.Corner("C4")
	c4.Player, c4.Building = "1", board.BuildingSettlement

	m = apply(t, e, m, "0", RollDice{})
	assert.Equal(t, 2, m.G.Players[0].Hand.Ore)
	assert.Equal(t, 1, m.G.Players[1].Hand.Ore)

	m = apply(t, e, m, "0", EndTurn{})
	m = apply(t, e, m, "1", RollDice{})
	assert.Equal(t, []int{1, 1}, m.G.DiceRoll)
	assert.Equal(t, 2, m.G.Players[0].Hand.Total())
	assert.Equal(t, 1, m.G.Players[1].Hand.Total())
}

func TestRollDice_ResourceConservation(t *testing.T) {
	setup, _ := runSetup(t, NewEngine(), newMatch(t, 4))

	// promote one settlement so cities are covered as well
	city := setup.G.Players[1].Settlements[0]
	c, _ := setup.G.Board.Corner(city)
	c.Building = board.BuildingCity
	setup.G.Players[1].Settlements = setup.G.Players[1].Settlements[1:]
	setup.G.Players[1].Cities = []string{city}

	for sum := 2; sum <= 12; sum++ {
		pair := [2]int{1, sum - 1}
		if sum > 7 {
			pair = [2]int{6, sum - 6}
		}
		e := NewEngineWithRoller(fixedDice(pair))

		want := 0
		for _, tile := range setup.G.Board.Tiles {
			if tile.Value != sum || !tile.Type.Productive() {
				continue
			}
			for _, cid := range tile.Corners {
				corner, _ := setup.G.Board.Corner(cid)
				switch corner.Building {
				case board.BuildingSettlement:
					want++
				case board.BuildingCity:
					want += 2
				}
			}
		}

		before := 0
		for _, p := range setup.G.Players {
			before += p.Hand.Total()
		}
		after := apply(t, e, setup, "0", RollDice{})
		got := 0
		for _, p := range after.G.Players {
			got += p.Hand.Total()
		}
		assert.Equal(t, want, got-before, "sum %d", sum)
	}
}

func rolled(t *testing.T, numPlayers int) (*Engine, Match) {
	t.Helper()
	e := NewEngineWithRoller(fixedDice([2]int{1, 1}))
	m, _ := runSetup(t, e, newMatch(t, numPlayers))
	m = apply(t, e, m, "0", RollDice{})
	return e, m
}

func TestBuildRoad(t *testing.T) {
	e, m := rolled(t, 3)

	own, _ := m.G.Board.Edge(m.G.Players[0].Roads[0])
	var next string
	for _, id := range own.AdjacentEdges {
		if candidate, _ := m.G.Board.Edge(id); !candidate.Claimed() {
			next = id
			break
		}
	}
	require.NotEmpty(t, next)

	m.G.Players[0].Hand = models.Hand{}
	_, err := e.Apply(m, Move{PlayerID: "0", Command: BuildRoad{Edge: next}})
	assert.ErrorIs(t, err, ErrInvalidMove, "no resources")

	m.G.Players[0].Hand = models.Hand{Wood: 2, Brick: 2}
	var far string
	for i := range m.G.Board.Edges {
		edge := &m.G.Board.Edges[i]
		if !edge.Claimed() && !m.G.Board.EdgeReachable(edge, "0") {
			far = edge.ID
			break
		}
	}
	_, err = e.Apply(m, Move{PlayerID: "0", Command: BuildRoad{Edge: far}})
	assert.ErrorIs(t, err, ErrInvalidMove, "unconnected")

	_, err = e.Apply(m, Move{PlayerID: "0", Command: BuildRoad{Edge: own.ID}})
	assert.ErrorIs(t, err, ErrInvalidMove, "taken")

	m = apply(t, e, m, "0", BuildRoad{Edge: next})
	assert.Contains(t, m.G.Players[0].Roads, next)
	assert.Equal(t, models.Hand{Wood: 1, Brick: 1}, m.G.Players[0].Hand)
	built, _ := m.G.Board.Edge(next)
	assert.Equal(t, "0", built.Player)
}

func TestBuildSettlement(t *testing.T) {
	e, m := rolled(t, 3)
	target := legalCorner(m)

	m.G.Players[0].Hand = models.Hand{Wood: 1, Brick: 1, Wheat: 1}
	before := encode(t, m)
	got, err := e.Apply(m, Move{PlayerID: "0", Command: BuildSettlement{Corner: target}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, before, encode(t, got))

	m.G.Players[0].Hand = models.Hand{Wood: 2, Brick: 1, Wheat: 1, Sheep: 1}
	theirs := m.G.Players[1].Settlements[0]
	c, _ := m.G.Board.Corner(theirs)
	for _, id := range append([]string{theirs}, c.AdjacentCorners...) {
		_, err := e.Apply(m, Move{PlayerID: "0", Command: BuildSettlement{Corner: id}})
		assert.ErrorIs(t, err, ErrInvalidMove, "corner %s", id)
	}

	m = apply(t, e, m, "0", BuildSettlement{Corner: target})
	assert.Equal(t, models.Hand{Wood: 1}, m.G.Players[0].Hand)
	assert.Len(t, m.G.Players[0].Settlements, 3)
	built, _ := m.G.Board.Corner(target)
	assert.Equal(t, board.BuildingSettlement, built.Building)
}

func TestBuildCity(t *testing.T) {
	e, m := rolled(t, 3)
	mine := m.G.Players[0].Settlements[0]
	theirs := m.G.Players[1].Settlements[0]

	m.G.Players[0].Hand = models.Hand{Ore: 6, Wheat: 4}
	_, err := e.Apply(m, Move{PlayerID: "0", Command: BuildCity{Corner: theirs}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	_, err = e.Apply(m, Move{PlayerID: "0", Command: BuildCity{Corner: legalCorner(m)}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	m = apply(t, e, m, "0", BuildCity{Corner: mine})
	p := m.G.Players[0]
	assert.Equal(t, []string{mine}, p.Cities)
	assert.NotContains(t, p.Settlements, mine)
	assert.Len(t, p.Settlements, 1)
	assert.Equal(t, models.Hand{Ore: 3, Wheat: 2}, p.Hand)
	assert.Equal(t, 3, p.VictoryPoints())

	_, err = e.Apply(m, Move{PlayerID: "0", Command: BuildCity{Corner: mine}})
	assert.ErrorIs(t, err, ErrInvalidMove, "already a city")
}

func TestAllowance_CityFreesSettlementSlot(t *testing.T) {
	e, m := rolled(t, 3)
	m.G.Allowance.Settlements = 2
	m.G.Players[0].Hand = models.Hand{Wood: 1, Brick: 1, Wheat: 3, Sheep: 1, Ore: 3}
	target := legalCorner(m)

	hand := m.G.Players[0].Hand
	got, err := e.Apply(m, Move{PlayerID: "0", Command: BuildSettlement{Corner: target}})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, hand, got.G.Players[0].Hand)

	m = apply(t, e, m, "0", BuildCity{Corner: m.G.Players[0].Settlements[0]})
	m = apply(t, e, m, "0", BuildSettlement{Corner: target})
	assert.Len(t, m.G.Players[0].Settlements, 2)
	assert.Len(t, m.G.Players[0].Cities, 1)
}

func TestVictoryEndsMatch(t *testing.T) {
	e, m := rolled(t, 3)
	m.G.VictoryPoints = 4
	m.G.Players[0].Hand = models.Hand{Ore: 6, Wheat: 4}

	m = apply(t, e, m, "0", BuildCity{Corner: m.G.Players[0].Settlements[0]})
	assert.Empty(t, m.Ctx.Winner)
	m = apply(t, e, m, "0", BuildCity{Corner: m.G.Players[0].Settlements[0]})
	assert.Equal(t, "0", m.Ctx.Winner)

	_, err := e.Apply(m, Move{PlayerID: "0", Command: EndTurn{}})
	assert.ErrorIs(t, err, ErrGameOver)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Empty(t, Available(m, "0"))
}

func TestEndTurn(t *testing.T) {
	e, m := rolled(t, 3)
	m = apply(t, e, m, "0", OfferTrade{Offer: models.Hand{Wood: 1}})

	_, err := e.Apply(m, Move{PlayerID: "1", Command: EndTurn{}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	m = apply(t, e, m, "0", EndTurn{})
	assert.Empty(t, m.G.DiceRoll)
	assert.NotNil(t, m.G.DiceRoll)
	assert.Nil(t, m.G.TradeOffer)
	assert.Equal(t, "1", m.Ctx.CurrentPlayer)

	m = apply(t, e, m, "1", RollDice{})
	m = apply(t, e, m, "1", EndTurn{})
	m = apply(t, e, m, "2", RollDice{})
	m = apply(t, e, m, "2", EndTurn{})
	assert.Equal(t, "0", m.Ctx.CurrentPlayer)
	assert.Equal(t, 3, m.Ctx.Rolls)
}

func TestTrade(t *testing.T) {
	e, m := rolled(t, 3)
	m.G.Players[0].Hand = models.Hand{Wood: 2}
	m.G.Players[1].Hand = models.Hand{Ore: 1}
	m.G.Players[2].Hand = models.Hand{}

	// player 0 gives 2 wood and wants 1 ore
	offer := models.Hand{Wood: 2, Ore: -1}

	_, err := e.Apply(m, Move{PlayerID: "0", Command: OfferTrade{}})
	assert.ErrorIs(t, err, ErrInvalidMove, "empty offer")
	_, err = e.Apply(m, Move{PlayerID: "1", Command: OfferTrade{Offer: offer}})
	assert.ErrorIs(t, err, ErrInvalidMove, "not their turn")

	m = apply(t, e, m, "0", OfferTrade{Offer: offer})
	require.NotNil(t, m.G.TradeOffer)
	assert.Equal(t, "0", m.G.TradeOffer.PlayerID)

	_, err = e.Apply(m, Move{PlayerID: "0", Command: OfferTrade{Offer: offer}})
	assert.ErrorIs(t, err, ErrInvalidMove, "offer outstanding")
	_, err = e.Apply(m, Move{PlayerID: "0", Command: AcceptTrade{}})
	assert.ErrorIs(t, err, ErrInvalidMove, "own offer")
	_, err = e.Apply(m, Move{PlayerID: "2", Command: AcceptTrade{}})
	assert.ErrorIs(t, err, ErrInvalidMove, "player 2 has no ore")

	before := [2]models.Hand{m.G.Players[0].Hand, m.G.Players[1].Hand}
	m = apply(t, e, m, "1", AcceptTrade{})
	assert.Nil(t, m.G.TradeOffer)
	assert.Equal(t, models.Hand{Ore: 1}, m.G.Players[0].Hand)
	assert.Equal(t, models.Hand{Wood: 2}, m.G.Players[1].Hand)
	assert.Equal(t, before[0].Plus(before[1]), m.G.Players[0].Hand.Plus(m.G.Players[1].Hand))

	_, err = e.Apply(m, Move{PlayerID: "1", Command: AcceptTrade{}})
	assert.ErrorIs(t, err, ErrInvalidMove, "no offer")

	m = apply(t, e, m, "0", OfferTrade{Offer: models.Hand{Sheep: 1}})
	m = apply(t, e, m, "2", RejectTrade{})
	assert.Nil(t, m.G.TradeOffer)
	m = apply(t, e, m, "2", RejectTrade{})
	assert.Nil(t, m.G.TradeOffer)
}

func TestLookupErrors(t *testing.T) {
	e := NewEngine()
	m := newMatch(t, 3)

	_, err := e.Apply(m, Move{PlayerID: "0", Command: PlaceSettlement{Corner: "C999"}})
	assert.ErrorIs(t, err, ErrLookup)
	assert.ErrorIs(t, err, board.ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidMove)

	_, err = e.Apply(m, Move{PlayerID: "7", Command: RollDice{}})
	assert.ErrorIs(t, err, ErrLookup)

	m = apply(t, e, m, "0", PlaceSettlement{Corner: "C10"})
	_, err = e.Apply(m, Move{PlayerID: "0", Command: PlaceRoad{Edge: "X1"}})
	assert.ErrorIs(t, err, ErrLookup)
}

func TestLookupErrors_BeforePayment(t *testing.T) {
	e, m := rolled(t, 3)
	m.G.Players[0].Hand = models.Hand{}
	before := encode(t, m)

	for _, c := range []Command{
		BuildSettlement{Corner: "C9999"},
		BuildRoad{Edge: "E9999"},
		BuildCity{Corner: "C9999"},
	} {
		got, err := e.Apply(m, Move{PlayerID: "0", Command: c})
		assert.ErrorIs(t, err, ErrLookup, c.Name())
		assert.NotErrorIs(t, err, ErrInvalidMove, c.Name())
		assert.Equal(t, before, encode(t, got), c.Name())
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	play := func() string {
		e := NewEngine()
		m, _ := runSetup(t, e, newMatch(t, 3))
		for i := 0; i < 9; i++ {
			pid := m.Ctx.CurrentPlayer
			m = apply(t, e, m, pid, RollDice{})
			m = apply(t, e, m, pid, EndTurn{})
		}
		return encode(t, m)
	}
	assert.Equal(t, play(), play())
}

func TestAvailable(t *testing.T) {
	e, m := rolled(t, 3)
	assert.Equal(t, []string{MoveBuildSettlement, MoveBuildRoad, MoveBuildCity, MoveEndTurn, MoveOfferTrade}, Available(m, "0"))
	assert.Empty(t, Available(m, "1"))

	m = apply(t, e, m, "0", OfferTrade{Offer: models.Hand{Wood: 1}})
	assert.Equal(t, []string{MoveAcceptTrade, MoveRejectTrade}, Available(m, "1"))

	fresh := newMatch(t, 3)
	assert.Equal(t, []string{MovePlaceSettlement}, Available(fresh, "0"))
}

// TestRandomMovesKeepInvariants fires a long stream of random, mostly
// illegal moves and checks the document invariants after each one.
func TestRandomMovesKeepInvariants(t *testing.T) {
	e := NewEngine()
	m, _ := runSetup(t, e, newMatch(t, 4))
	for i := range m.G.Players {
		m.G.Players[i].Hand = models.Hand{Wood: 20, Brick: 20, Sheep: 20, Wheat: 20, Ore: 20}
	}
	m.G.VictoryPoints = 1000

	rng := rand.New(rand.NewPCG(3, 4))
	corner := func() string { return "C" + strconv.Itoa(rng.IntN(len(m.G.Board.Corners)+2)+1) }
	edge := func() string { return "E" + strconv.Itoa(rng.IntN(len(m.G.Board.Edges)+2)+1) }
	small := func() int { return rng.IntN(5) - 2 }

	accepted := 0
	for step := 0; step < 3000; step++ {
		pid := m.Ctx.CurrentPlayer
		if rng.IntN(4) == 0 {
			pid = strconv.Itoa(rng.IntN(4))
		}
		var c Command
		switch rng.IntN(9) {
		case 0:
			c = RollDice{}
		case 1:
			c = BuildSettlement{Corner: corner()}
		case 2:
			c = BuildRoad{Edge: edge()}
		case 3:
			c = BuildCity{Corner: corner()}
		case 4:
			c = EndTurn{}
		case 5:
			c = OfferTrade{Offer: models.Hand{Wood: small(), Brick: small(), Sheep: small(), Wheat: small(), Ore: small()}}
		case 6:
			c = AcceptTrade{}
		case 7:
			c = RejectTrade{}
		default:
			c = PlaceSettlement{Corner: corner()}
		}

		before := encode(t, m)
		next, err := e.Apply(m, Move{PlayerID: pid, Command: c})
		if err != nil {
			require.Equal(t, before, encode(t, next), "rejected %s changed the match", c.Name())
			continue
		}
		accepted++

		if _, ok := c.(AcceptTrade); ok {
			offerer := m.G.TradeOffer.PlayerID
			a, _ := m.G.Player(offerer)
			b, _ := m.G.Player(pid)
			na, _ := next.G.Player(offerer)
			nb, _ := next.G.Player(pid)
			require.Equal(t, a.Hand.Plus(b.Hand), na.Hand.Plus(nb.Hand))
		}
		m = next

		require.Contains(t, []int{0, 2}, len(m.G.DiceRoll))
		for _, p := range m.G.Players {
			require.False(t, p.Hand.HasNegative(), "player %s hand %+v", p.ID, p.Hand)
		}
		for _, c := range m.G.Board.Corners {
			if c.Building == board.BuildingNone {
				continue
			}
			for _, id := range c.AdjacentCorners {
				n, _ := m.G.Board.Corner(id)
				require.Equal(t, board.BuildingNone, n.Building, "%s and %s both built", c.ID, n.ID)
			}
		}
	}
	assert.Greater(t, accepted, 100)
}
