package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/settlers/models"
	"github.com/wfunc/settlers/network"
	"github.com/wfunc/settlers/rules"
)

const usage = `commands:
  create                      open a room
  join [room]                 join a room, or any open one
  leave
  settle C#  | road E#        setup placements
  roll
  build settlement C# | build road E# | build city C#
  offer wood=1,ore=-1         negative counts are asked for
  accept | reject
  end`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func parseOffer(arg string) (models.Hand, error) {
	var offer models.Hand
	for _, part := range strings.Split(arg, ",") {
		name, count, ok := strings.Cut(part, "=")
		if !ok {
			return offer, fmt.Errorf("expected resource=count, got %q", part)
		}
		r := models.Resource(strings.TrimSpace(name))
		if !slices.Contains(models.Resources, r) {
			return offer, fmt.Errorf("unknown resource %q", name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return offer, err
		}
		offer.Add(r, n)
	}
	return offer, nil
}

// parseCommand turns one input line into a packet.
func parseCommand(line string) (uint16, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	var cmd rules.Command
	switch fields[0] {
	case "create":
		return network.MsgTypeCreateRoom, nil, nil
	case "join":
		var data []byte
		if id := arg(1); id != "" {
			data, _ = json.Marshal(network.JoinRoomRequest{RoomID: id})
		}
		return network.MsgTypeJoinRoom, data, nil
	case "leave":
		return network.MsgTypeLeaveRoom, nil, nil
	case "settle":
		cmd = rules.PlaceSettlement{Corner: arg(1)}
	case "road":
		cmd = rules.PlaceRoad{Edge: arg(1)}
	case "roll":
		cmd = rules.RollDice{}
	case "build":
		switch arg(1) {
		case "settlement":
			cmd = rules.BuildSettlement{Corner: arg(2)}
		case "road":
			cmd = rules.BuildRoad{Edge: arg(2)}
		case "city":
			cmd = rules.BuildCity{Corner: arg(2)}
		default:
			return 0, nil, fmt.Errorf("build what? %q", arg(1))
		}
	case "offer":
		offer, err := parseOffer(arg(1))
		if err != nil {
			return 0, nil, err
		}
		cmd = rules.OfferTrade{Offer: offer}
	case "accept":
		cmd = rules.AcceptTrade{}
	case "reject":
		cmd = rules.RejectTrade{}
	case "end":
		cmd = rules.EndTurn{}
	default:
		return 0, nil, fmt.Errorf("unknown command %q", fields[0])
	}

	action, err := rules.EncodeCommand(cmd)
	if err != nil {
		return 0, nil, err
	}
	data, err := json.Marshal(action)
	return network.MsgTypePlayerAction, data, err
}

// summarize prints the parts of a match a player cares about.
func summarize(data []byte) string {
	var m rules.Match
	if err := json.Unmarshal(data, &m); err != nil {
		return string(data)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s turn=%d current=%s", m.Ctx.Phase, m.Ctx.Turn, m.Ctx.CurrentPlayer)
	if m.Ctx.Winner != "" {
		fmt.Fprintf(&b, " winner=%s", m.Ctx.Winner)
	}
	for _, p := range m.G.Players {
		fmt.Fprintf(&b, "\n  player %s hand=%+v settlements=%v cities=%v roads=%v",
			p.ID, p.Hand, p.Settlements, p.Cities, p.Roads)
	}
	return b.String()
}

func main() {
	addr := flag.String("addr", "localhost:8080", "game server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			p, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet: %v", err)
				continue
			}
			switch p.MsgID {
			case network.MsgTypeGameStart, network.MsgTypeGameSync, network.MsgTypeGameEnd:
				log.Printf("<- %d %s", p.MsgID, summarize(p.Data))
			default:
				log.Printf("<- %d %s", p.MsgID, string(p.Data))
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println(usage)

	// Write loop
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			msgID, data, err := parseCommand(line)
			if err != nil {
				log.Println(err)
				continue
			}
			if err := send(c, msgID, data); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
