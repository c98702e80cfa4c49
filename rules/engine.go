// Package rules is the phase-gated move engine. Apply is a pure reducer:
// it never mutates the match it is given and returns either the next match
// or an error explaining the rejection.
package rules

import (
	"slices"

	"github.com/wfunc/settlers/board"
	"github.com/wfunc/settlers/dice"
	"github.com/wfunc/settlers/models"
	"github.com/wfunc/settlers/scenario"
)

// Building costs.
var (
	SettlementCost = models.Hand{Wood: 1, Brick: 1, Wheat: 1, Sheep: 1}
	RoadCost       = models.Hand{Wood: 1, Brick: 1}
	CityCost       = models.Hand{Ore: 3, Wheat: 2}
)

// Match is the full serializable document of one game.
type Match struct {
	Ctx Context          `json:"ctx"`
	G   models.GameState `json:"G"`
}

// NewMatch sets up a match for numPlayers in SetupForward.
func NewMatch(s scenario.Scenario, numPlayers int, seed int64) (*Match, error) {
	g, err := models.BuildGameState(s, numPlayers)
	if err != nil {
		return nil, err
	}
	return &Match{Ctx: newContext(numPlayers, seed), G: *g}, nil
}

func (m *Match) Clone() Match {
	return Match{Ctx: m.Ctx, G: m.G.Clone()}
}

// Roller produces the index-th dice pair for a seed.
type Roller func(seed int64, index int) [2]int

type Engine struct {
	roll Roller
}

// NewEngine returns an engine rolling with dice.Pair.
func NewEngine() *Engine {
	return &Engine{roll: dice.Pair}
}

// NewEngineWithRoller returns an engine using a custom dice source.
func NewEngineWithRoller(roll Roller) *Engine {
	return &Engine{roll: roll}
}

// Apply applies mv to m. On error the returned match is m itself.
func (e *Engine) Apply(m Match, mv Move) (Match, error) {
	if m.Ctx.Winner != "" {
		return m, ErrGameOver
	}
	if _, ok := m.G.Player(mv.PlayerID); !ok {
		return m, unknown("player", mv.PlayerID)
	}
	if mv.Command == nil {
		return m, invalid("empty move")
	}

	next := m.Clone()
	if err := e.apply(&next, mv); err != nil {
		return m, err
	}
	return next, nil
}

func (e *Engine) apply(m *Match, mv Move) error {
	pid := mv.PlayerID
	switch c := mv.Command.(type) {
	case PlaceSettlement:
		return placeSettlement(m, pid, c.Corner)
	case PlaceRoad:
		return placeRoad(m, pid, c.Edge)
	case RollDice:
		return e.rollDice(m, pid)
	case BuildSettlement:
		return buildSettlement(m, pid, c.Corner)
	case BuildRoad:
		return buildRoad(m, pid, c.Edge)
	case BuildCity:
		return buildCity(m, pid, c.Corner)
	case EndTurn:
		return endTurn(m, pid)
	case OfferTrade:
		return offerTrade(m, pid, c.Offer)
	case AcceptTrade:
		return acceptTrade(m, pid)
	case RejectTrade:
		m.G.TradeOffer = nil
		return nil
	}
	return invalid("unsupported move %s", mv.Command.Name())
}

// requireTurn checks the phase and that pid is the player to act.
func requireTurn(m *Match, pid string, setup bool) error {
	if m.Ctx.Phase.IsSetup() != setup {
		return invalid("not allowed in phase %s", m.Ctx.Phase)
	}
	if pid != m.Ctx.CurrentPlayer {
		return invalid("player %s acted during player %s's turn", pid, m.Ctx.CurrentPlayer)
	}
	return nil
}

// requireRolled gates main-phase moves that need a roll this turn.
func requireRolled(m *Match, pid string) error {
	if err := requireTurn(m, pid, false); err != nil {
		return err
	}
	if !m.G.Rolled() {
		return invalid("roll the dice first")
	}
	return nil
}

func (m *Match) player(pid string) (*models.Player, error) {
	p, ok := m.G.Player(pid)
	if !ok {
		return nil, unknown("player", pid)
	}
	return p, nil
}

func (m *Match) corner(id string) (*board.Corner, error) {
	c, ok := m.G.Board.Corner(id)
	if !ok {
		return nil, unknown("corner", id)
	}
	return c, nil
}

func (m *Match) edge(id string) (*board.Edge, error) {
	e, ok := m.G.Board.Edge(id)
	if !ok {
		return nil, unknown("edge", id)
	}
	return e, nil
}

// claimSettlement applies the distance rule and the allowance, then builds.
func claimSettlement(m *Match, p *models.Player, id string) (*board.Corner, error) {
	c, err := m.corner(id)
	if err != nil {
		return nil, err
	}
	if c.Claimed() {
		return nil, invalid("corner %s is taken", id)
	}
	if m.G.Board.HasClaimedNeighbor(c) {
		return nil, invalid("corner %s is next to a building", id)
	}
	if len(p.Settlements) >= m.G.Allowance.Settlements {
		return nil, invalid("no settlements left")
	}
	c.Player = p.ID
	c.Building = board.BuildingSettlement
	p.Settlements = append(p.Settlements, c.ID)
	return c, nil
}

func claimRoad(m *Match, p *models.Player, e *board.Edge) error {
	if e.Claimed() {
		return invalid("edge %s is taken", e.ID)
	}
	if len(p.Roads) >= m.G.Allowance.Roads {
		return invalid("no roads left")
	}
	e.Player = p.ID
	p.Roads = append(p.Roads, e.ID)
	return nil
}

func placeSettlement(m *Match, pid, id string) error {
	if err := requireTurn(m, pid, true); err != nil {
		return err
	}
	if m.Ctx.Step != StepSettlement {
		return invalid("place a road next")
	}
	p, err := m.player(pid)
	if err != nil {
		return err
	}
	c, err := claimSettlement(m, p, id)
	if err != nil {
		return err
	}

	// the second settlement pays out its surrounding tiles once
	if m.Ctx.Phase == PhaseSetupReverse {
		for _, tid := range c.Tiles {
			tile, ok := m.G.Board.Tile(tid)
			if !ok {
				return unknown("tile", tid)
			}
			if r, ok := models.ResourceOf(tile.Type); ok {
				p.Hand.Add(r, 1)
			}
		}
	}

	m.Ctx.Step = StepRoad
	m.Ctx.LastSettlement = c.ID
	return nil
}

func placeRoad(m *Match, pid, id string) error {
	if err := requireTurn(m, pid, true); err != nil {
		return err
	}
	if m.Ctx.Step != StepRoad {
		return invalid("place a settlement first")
	}
	p, err := m.player(pid)
	if err != nil {
		return err
	}
	e, err := m.edge(id)
	if err != nil {
		return err
	}
	last, err := m.corner(m.Ctx.LastSettlement)
	if err != nil {
		return err
	}
	if !board.EdgeTouchesCorner(e, last) {
		return invalid("edge %s does not touch settlement %s", id, last.ID)
	}
	if err := claimRoad(m, p, e); err != nil {
		return err
	}
	m.Ctx = m.Ctx.Next()
	return nil
}

func (e *Engine) rollDice(m *Match, pid string) error {
	if err := requireTurn(m, pid, false); err != nil {
		return err
	}
	if m.G.Rolled() {
		return invalid("dice already rolled this turn")
	}

	pair := e.roll(m.Ctx.Seed, m.Ctx.Rolls)
	m.Ctx.Rolls++
	m.G.DiceRoll = []int{pair[0], pair[1]}
	return distribute(m, pair[0]+pair[1])
}

// distribute pays every built corner on tiles numbered sum: one unit for a
// settlement, two for a city.
func distribute(m *Match, sum int) error {
	for _, tile := range m.G.Board.TilesWithValue(sum) {
		r, ok := models.ResourceOf(tile.Type)
		if !ok {
			continue
		}
		for _, cid := range tile.Corners {
			c, err := m.corner(cid)
			if err != nil {
				return err
			}
			if !c.Claimed() {
				continue
			}
			owner, err := m.player(c.Player)
			if err != nil {
				return err
			}
			n := 1
			if c.Building == board.BuildingCity {
				n = 2
			}
			owner.Hand.Add(r, n)
		}
	}
	return nil
}

// pay debits cost only if every resource is covered.
func pay(p *models.Player, cost models.Hand) error {
	rest := p.Hand.Minus(cost)
	if rest.HasNegative() {
		return invalid("not enough resources")
	}
	p.Hand = rest
	return nil
}

func buildSettlement(m *Match, pid, id string) error {
	if err := requireRolled(m, pid); err != nil {
		return err
	}
	p, err := m.player(pid)
	if err != nil {
		return err
	}
	if _, err := m.corner(id); err != nil {
		return err
	}
	if err := pay(p, SettlementCost); err != nil {
		return err
	}
	if _, err := claimSettlement(m, p, id); err != nil {
		return err
	}
	checkVictory(m, p)
	return nil
}

func buildRoad(m *Match, pid, id string) error {
	if err := requireRolled(m, pid); err != nil {
		return err
	}
	p, err := m.player(pid)
	if err != nil {
		return err
	}
	e, err := m.edge(id)
	if err != nil {
		return err
	}
	if err := pay(p, RoadCost); err != nil {
		return err
	}
	if !e.Claimed() && !m.G.Board.EdgeReachable(e, pid) {
		return invalid("edge %s is not connected to player %s", id, pid)
	}
	return claimRoad(m, p, e)
}

func buildCity(m *Match, pid, id string) error {
	if err := requireRolled(m, pid); err != nil {
		return err
	}
	p, err := m.player(pid)
	if err != nil {
		return err
	}
	c, err := m.corner(id)
	if err != nil {
		return err
	}
	if err := pay(p, CityCost); err != nil {
		return err
	}
	if c.Player != pid || c.Building != board.BuildingSettlement {
		return invalid("corner %s is not a settlement of player %s", id, pid)
	}
	if len(p.Cities) >= m.G.Allowance.Cities {
		return invalid("no cities left")
	}
	c.Building = board.BuildingCity
	p.Settlements = slices.DeleteFunc(p.Settlements, func(s string) bool { return s == id })
	p.Cities = append(p.Cities, id)
	checkVictory(m, p)
	return nil
}

func checkVictory(m *Match, p *models.Player) {
	if p.VictoryPoints() >= m.G.VictoryPoints {
		m.Ctx.Winner = p.ID
	}
}

func endTurn(m *Match, pid string) error {
	if err := requireRolled(m, pid); err != nil {
		return err
	}
	m.G.DiceRoll = []int{}
	m.G.TradeOffer = nil
	m.Ctx = m.Ctx.Next()
	return nil
}

func offerTrade(m *Match, pid string, offer models.Hand) error {
	if err := requireRolled(m, pid); err != nil {
		return err
	}
	if m.G.TradeOffer != nil {
		return invalid("a trade offer is already outstanding")
	}
	if offer.IsZero() {
		return invalid("empty trade offer")
	}
	m.G.TradeOffer = &models.TradeOffer{PlayerID: pid, Offer: offer}
	return nil
}

func acceptTrade(m *Match, pid string) error {
	if m.Ctx.Phase != PhaseMain {
		return invalid("not allowed in phase %s", m.Ctx.Phase)
	}
	offer := m.G.TradeOffer
	if offer == nil {
		return invalid("no trade offer outstanding")
	}
	if offer.PlayerID == pid {
		return invalid("player %s cannot accept their own offer", pid)
	}
	offerer, err := m.player(offer.PlayerID)
	if err != nil {
		return err
	}
	accepter, err := m.player(pid)
	if err != nil {
		return err
	}

	give := offerer.Hand.Minus(offer.Offer)
	take := accepter.Hand.Plus(offer.Offer)
	if give.HasNegative() || take.HasNegative() {
		return invalid("trade leaves a hand negative")
	}
	offerer.Hand = give
	accepter.Hand = take
	m.G.TradeOffer = nil
	return nil
}

// Available lists the moves pid may attempt now, ignoring targets and costs.
func Available(m Match, pid string) []string {
	if m.Ctx.Winner != "" {
		return nil
	}
	var out []string
	mine := pid == m.Ctx.CurrentPlayer
	switch {
	case m.Ctx.Phase.IsSetup():
		if mine && m.Ctx.Step == StepSettlement {
			out = append(out, MovePlaceSettlement)
		}
		if mine && m.Ctx.Step == StepRoad {
			out = append(out, MovePlaceRoad)
		}
	case mine && !m.G.Rolled():
		out = append(out, MoveRollDice)
	case mine:
		out = append(out, MoveBuildSettlement, MoveBuildRoad, MoveBuildCity, MoveEndTurn)
		if m.G.TradeOffer == nil {
			out = append(out, MoveOfferTrade)
		}
	}
	if offer := m.G.TradeOffer; offer != nil {
		if offer.PlayerID != pid {
			out = append(out, MoveAcceptTrade)
		}
		out = append(out, MoveRejectTrade)
	}
	return out
}
