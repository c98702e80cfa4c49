package rules

import (
	"encoding/json"

	"github.com/wfunc/settlers/models"
)

// Move names as they appear on the wire and in the move log.
const (
	MovePlaceSettlement = "placeSettlement"
	MovePlaceRoad       = "placeRoad"
	MoveRollDice        = "rollDice"
	MoveBuildSettlement = "buildSettlement"
	MoveBuildRoad       = "buildRoad"
	MoveBuildCity       = "buildCity"
	MoveEndTurn         = "endTurn"
	MoveOfferTrade      = "offerTrade"
	MoveAcceptTrade     = "acceptTrade"
	MoveRejectTrade     = "rejectTrade"
)

// Command is one of the move variants below.
type Command interface {
	Name() string
	payload() any
}

// PlaceSettlement claims a corner for free during setup.
type PlaceSettlement struct{ Corner string }

// PlaceRoad claims an edge next to the settlement just placed in setup.
type PlaceRoad struct{ Edge string }

// RollDice draws the turn's dice and hands out resources.
type RollDice struct{}

// BuildSettlement buys a settlement on a free corner.
type BuildSettlement struct{ Corner string }

// BuildRoad buys a road connected to the player's network.
type BuildRoad struct{ Edge string }

// BuildCity upgrades one of the player's settlements.
type BuildCity struct{ Corner string }

// EndTurn passes play to the next seat.
type EndTurn struct{}

// OfferTrade posts Offer; positive counts are asked for, negative given.
type OfferTrade struct{ Offer models.Hand }

// AcceptTrade completes the outstanding offer.
type AcceptTrade struct{}

// RejectTrade withdraws the outstanding offer.
type RejectTrade struct{}

func (PlaceSettlement) Name() string { return MovePlaceSettlement }
func (PlaceRoad) Name() string       { return MovePlaceRoad }
func (RollDice) Name() string        { return MoveRollDice }
func (BuildSettlement) Name() string { return MoveBuildSettlement }
func (BuildRoad) Name() string       { return MoveBuildRoad }
func (BuildCity) Name() string       { return MoveBuildCity }
func (EndTurn) Name() string         { return MoveEndTurn }
func (OfferTrade) Name() string      { return MoveOfferTrade }
func (AcceptTrade) Name() string     { return MoveAcceptTrade }
func (RejectTrade) Name() string     { return MoveRejectTrade }

func (c PlaceSettlement) payload() any { return c.Corner }
func (c PlaceRoad) payload() any       { return c.Edge }
func (RollDice) payload() any          { return nil }
func (c BuildSettlement) payload() any { return c.Corner }
func (c BuildRoad) payload() any       { return c.Edge }
func (c BuildCity) payload() any       { return c.Corner }
func (EndTurn) payload() any           { return nil }
func (c OfferTrade) payload() any      { return c.Offer }
func (AcceptTrade) payload() any       { return nil }
func (RejectTrade) payload() any       { return nil }

// Move is a command submitted by a seated player.
type Move struct {
	PlayerID string
	Command  Command
}

// Action is the wire form of a command.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeCommand converts c to its wire form.
func EncodeCommand(c Command) (Action, error) {
	a := Action{Type: c.Name()}
	if p := c.payload(); p != nil {
		raw, err := json.Marshal(p)
		if err != nil {
			return Action{}, err
		}
		a.Payload = raw
	}
	return a, nil
}

// DecodeCommand parses a wire action. Unknown names and malformed payloads
// are invalid moves.
func DecodeCommand(a Action) (Command, error) {
	switch a.Type {
	case MoveRollDice:
		return RollDice{}, nil
	case MoveEndTurn:
		return EndTurn{}, nil
	case MoveAcceptTrade:
		return AcceptTrade{}, nil
	case MoveRejectTrade:
		return RejectTrade{}, nil
	case MoveOfferTrade:
		var offer models.Hand
		if err := json.Unmarshal(a.Payload, &offer); err != nil {
			return nil, invalid("%s payload: %v", a.Type, err)
		}
		return OfferTrade{Offer: offer}, nil
	}

	build, ok := idMoves[a.Type]
	if !ok {
		return nil, invalid("unknown move %q", a.Type)
	}
	var id string
	if err := json.Unmarshal(a.Payload, &id); err != nil {
		return nil, invalid("%s payload: %v", a.Type, err)
	}
	return build(id), nil
}

var idMoves = map[string]func(string) Command{
	MovePlaceSettlement: func(id string) Command { return PlaceSettlement{Corner: id} },
	MovePlaceRoad:       func(id string) Command { return PlaceRoad{Edge: id} },
	MoveBuildSettlement: func(id string) Command { return BuildSettlement{Corner: id} },
	MoveBuildRoad:       func(id string) Command { return BuildRoad{Edge: id} },
	MoveBuildCity:       func(id string) Command { return BuildCity{Corner: id} },
}
