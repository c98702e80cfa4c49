package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/wfunc/settlers/persistence"
	"github.com/wfunc/settlers/rules"
	"github.com/wfunc/settlers/services"
)

func main() {
	var (
		archivePath = flag.String("archive", "", "path to match-<room>.jsonl.zst")
		dump        = flag.Bool("dump", false, "print the replayed match document")
	)
	flag.Parse()

	if *archivePath == "" {
		fmt.Fprintln(os.Stderr, "missing -archive")
		os.Exit(2)
	}

	rec, moves, err := persistence.OpenArchive(*archivePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read archive:", err)
		os.Exit(1)
	}
	fmt.Printf("match room=%s players=%d seed=%d moves=%d winner=%q\n",
		rec.RoomID, rec.NumPlayers, rec.Seed, len(moves), rec.Winner)

	m, err := services.Verify(rules.NewEngine(), rec, moves)
	if err != nil {
		if errors.Is(err, services.ErrReplayMismatch) {
			fmt.Fprintln(os.Stderr, "MISMATCH:", err)
			os.Exit(3)
		}
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	fmt.Printf("OK phase=%s turn=%d rolls=%d\n", m.Ctx.Phase, m.Ctx.Turn, m.Ctx.Rolls)
	for _, p := range m.G.Players {
		fmt.Printf("  player %s vp=%d hand=%+v\n", p.ID, p.VictoryPoints(), p.Hand)
	}

	if *dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
	}
}
