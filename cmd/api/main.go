/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/zeeshan-atrule/timereport-backend/internal/adapters/monday"
    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/crypto"
    apihttp "github.com/zeeshan-atrule/timereport-backend/internal/http"
    "github.com/zeeshan-atrule/timereport-backend/internal/jobs"
    "github.com/zeeshan-atrule/timereport-backend/internal/logger"
    "github.com/zeeshan-atrule/timereport-backend/internal/repo"
    "github.com/zeeshan-atrule/timereport-backend/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()
    if err := db.EnsureSchema(ctx); err != nil {
        log.Fatal().Err(err).Msg("schema init failed")
    }

    codec, err := crypto.NewCodec(cfg.TokenSecretKey)
    if err != nil {
        log.Fatal().Err(err).Msg("TOKEN_SECRET_KEY is required")
    }

    // Adapters & services
    board := monday.NewClient(cfg, log)
    repository := repo.NewRepository(db, log)
    svc := services.New(cfg, log, repository, board, codec)

    // Seed board configs from file for boards not yet configured
    if seeds, err := config.LoadBoardSeeds(cfg.BoardSeedFile); err != nil {
        log.Error().Err(err).Str("file", cfg.BoardSeedFile).Msg("board seed file unreadable")
    } else if len(seeds) > 0 {
        ctx2, cancel2 := context.WithTimeout(ctx, 20*time.Second)
        svc.SeedBoards(ctx2, seeds)
        cancel2()
    }

    // HTTP server (Gin)
    router := apihttp.NewRouter(cfg, log, svc, repository)

    // Cron
    cr := jobs.NewCron(cfg, log, svc)
    cr.Start()
    defer cr.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
