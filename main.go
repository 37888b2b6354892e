package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/turtlesoup/config"
	"github.com/wfunc/turtlesoup/engine"
	"github.com/wfunc/turtlesoup/logger"
	"github.com/wfunc/turtlesoup/monitor"
	"github.com/wfunc/turtlesoup/persistence"
	"github.com/wfunc/turtlesoup/room"
	"github.com/wfunc/turtlesoup/server"
	"github.com/wfunc/turtlesoup/services"
	"github.com/wfunc/turtlesoup/story"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// 数据库只负责对局记录，连不上时照常开服，只是不留历史
	var db persistence.Database
	switch cfg.Database.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
	default:
		db, err = persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
	}
	if err != nil {
		logger.Log.Warnf("Database unavailable, running without game history: %v", err)
		db = nil
	} else {
		logger.Log.Info("Database connection successful.")
		defer db.Close()
	}

	// 监控
	mon := monitor.NewMonitor("turtlesoup")
	mon.StartServer(cfg.Server.MonitorAddress)

	// 叙述者引擎：本地启发式，或远程推理服务+本地兜底
	local := engine.NewLocalEngine(time.Now().UnixNano())
	var narrator room.Narrator = local
	if cfg.Engine.Mode == "remote" && cfg.Engine.Endpoint != "" {
		remote := engine.NewRemoteEngine(cfg.Engine.Endpoint, cfg.Engine.Timeout)
		narrator = engine.NewFallbackEngine(remote, local, mon.IncEngineFallbacks)
		logger.Log.Infof("Using remote reasoning engine at %s", cfg.Engine.Endpoint)
	}

	// 题库与房间管理器
	registry := story.NewRegistry(time.Now().UnixNano())
	roomManager := room.NewManager(narrator, registry.Pick, room.Options{
		MaxHealth:         cfg.Game.MaxHealth,
		DefaultMaxPlayers: cfg.Game.MaxPlayers,
		DefaultTimeLimit:  cfg.Game.TimeLimit,
	})

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, roomManager, services.NewGameRecordService(db), mon)

	// 收到终止信号时停掉定时器和RPC监听，再退出进程
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Log.Info("Shutting down...")
		gameServer.Shutdown()
		logger.Sync()
		os.Exit(0)
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
