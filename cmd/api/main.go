package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tuis-oj-prototype/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	denylist, err := core.LoadDenylist(cfg.DenylistPath)
	if err != nil {
		log.Fatalf("failed to load denylist: %v", err)
	}

	var sink core.PersistenceSink
	if cfg.DatabaseURL != "" {
		db, err := core.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer db.Close()

		pgSink, err := core.NewPgPersistenceSink(ctx, db)
		if err != nil {
			log.Fatalf("failed to prepare persistence sink: %v", err)
		}
		sink = pgSink
	} else {
		log.Printf("DATABASE_URL not set: submit will run judging but report saved_to_db=false")
	}

	var redisRaw core.RedisClientRaw
	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Printf("redis unavailable, heartbeat disabled: %v", err)
	} else {
		defer redisClient.Close()
		redisRaw = redisClient
		publisher := core.NewHeartbeatPublisher(redisRaw, cfg.ReplicaName, cfg.Hostname, cfg.Version)
		publisher.Start(ctx, time.Duration(cfg.HeartbeatIntervalSec)*time.Second)
	}

	limiter := core.NewResourceLimiter(core.DefaultResourceLimits())
	limiter.Limits.AddressSpace = cfg.AddressSpaceCapBytes
	adapters := core.NewAdapterTable(cfg.SandboxRoot, limiter)
	validator := core.NewStaticValidator(denylist, cfg.ValidatorObfuscationCheck)

	orchestrator := core.NewOrchestrator(adapters, validator, sink, core.OrchestratorConfig{
		MinTimeout:          durationFromSeconds(cfg.MinTimeoutSec),
		MaxTimeout:          durationFromSeconds(cfg.MaxTimeoutSec),
		DefaultTimeout:      durationFromSeconds(cfg.DefaultTimeoutSec),
		AddressSpaceCap:     cfg.AddressSpaceCapBytes,
		AllowedFilePrefixes: cfg.AllowedFilePrefixes,
		Replica:             cfg.ReplicaName,
		Host:                cfg.Hostname,
	})

	router := core.NewRouter(core.RouterDeps{
		Orchestrator: orchestrator,
		Redis:        redisRaw,
		Config:       cfg,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting judging api on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
