package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"devicehub/internal/actuation"
	"devicehub/internal/alerts"
	"devicehub/internal/bindings"
	"devicehub/internal/bus"
	"devicehub/internal/config"
	"devicehub/internal/db"
	"devicehub/internal/logger"
	"devicehub/internal/models"
	"devicehub/internal/rules"
	"devicehub/internal/scheduler"
	"devicehub/internal/taskqueue"
	"devicehub/internal/transport"
	"devicehub/internal/web"
	"devicehub/internal/web/api"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "devicehub")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	dbConn, err := db.NewDB(ctx, cfg.DBURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()
	bindingStore := bindings.NewStore(redisClient)

	mqttClient, err := transport.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		zlog.Fatal("failed to connect to MQTT broker", zap.Error(err))
	}
	mqttPublisher := transport.NewMQTTPublisher(mqttClient, zlog)
	defer mqttPublisher.Close()

	wsPublisher := transport.NewWSPublisher(cfg.WSGatewayURL, zlog)
	defer wsPublisher.Close()

	registry := transport.NewRegistry(zlog)
	registry.Register(models.TransportMQTT, mqttPublisher)
	registry.Register(models.TransportWS, wsPublisher)

	eventBus := bus.New()

	dispatcher := actuation.NewDispatcher(dbConn, dbConn, bindingStore, dbConn, registry, eventBus, zlog)
	commands := actuation.NewCommands(dbConn, dispatcher, zlog)
	resolver := actuation.NewResolver(dbConn, dbConn, bindingStore, dispatcher, zlog)

	ruleService := rules.NewService(dbConn, dbConn, zlog)

	queue := taskqueue.NewQueue(cfg.RedisAddr, zlog)
	defer func() { _ = queue.Close() }()

	alertService := alerts.NewService(dbConn, ruleService, queue, eventBus, zlog)

	worker := taskqueue.NewWorker(cfg.RedisAddr, cfg.WorkerCount, ruleService, resolver, zlog)
	go func() {
		if err := worker.Run(); err != nil {
			zlog.Fatal("task worker failed", zap.Error(err))
		}
	}()

	sweeper := scheduler.NewSweeper(dbConn, cfg.SweepCron, zlog)
	if err := sweeper.Start(); err != nil {
		zlog.Fatal("failed to start reset sweeper", zap.Error(err))
	}

	server := web.NewServer(api.Dependencies{
		Rules:      ruleService,
		Alerts:     alertService,
		Dispatcher: dispatcher,
		Commands:   commands,
	}, zlog)
	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.Start(cfg.HTTPAddr); err != nil {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sweeper.Stop()
	worker.Shutdown()
	zlog.Info("shutdown complete")
}
