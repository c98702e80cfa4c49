package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/settlers/config"
	"github.com/wfunc/settlers/logger"
	"github.com/wfunc/settlers/monitor"
	"github.com/wfunc/settlers/persistence"
	gamerpc "github.com/wfunc/settlers/rpc"
	"github.com/wfunc/settlers/rules"
	"github.com/wfunc/settlers/scenario"
	"github.com/wfunc/settlers/server"
	"github.com/wfunc/settlers/services"
)

func openDatabase(cfg config.DatabaseConfig) (persistence.Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case config.DriverGorm:
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case config.DriverPostgres:
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case config.DriverMemory:
		return persistence.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func loadScenario(path string) (scenario.Scenario, error) {
	if path == "" {
		return scenario.Default(), nil
	}
	return scenario.Load(path)
}

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := loadScenario(cfg.Game.ScenarioFile)
	if err != nil {
		logger.Log.Fatalf("Failed to load scenario: %v", err)
	}
	if _, err := s.SelectLayout(cfg.Game.Players); err != nil {
		logger.Log.Fatalf("Scenario cannot seat %d players: %v", cfg.Game.Players, err)
	}

	// Initialize Database
	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Database ready (driver %s).", cfg.Database.Driver)

	matches := services.NewMatchService(db, s, rules.NewEngine())

	mon := monitor.NewMonitor("settlers")
	mon.StartServer(cfg.Server.MetricsAddress)

	rpcServer, err := gamerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to listen for RPC: %v", err)
	}
	if err := rpcServer.Register(gamerpc.NewGameService(matches)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Game, matches, mon)
	gameServer.AttachRPC(rpcServer)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown: %v", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
