/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */

// Package logger builds the process-wide zerolog logger: a human console
// writer in dev, JSON lines everywhere else.
package logger

import (
    "io"
    "os"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
)

func New(cfg config.Config) zerolog.Logger {
    zerolog.TimeFieldFormat = time.RFC3339
    var out io.Writer = os.Stdout
    if cfg.AppEnv == "dev" {
        out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    }
    l := zerolog.New(out).With().Timestamp().Logger()
    log.Logger = l
    return l
}
