/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/repo"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc any, r *repo.Repository) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    e := gin.New()
    e.Use(gin.Recovery())
    e.Use(func(c *gin.Context){
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc, r)

    e.GET("/healthz", h.Healthz)

    api := e.Group("/api")
    api.GET("/config/:boardId", h.GetConfig)
    api.POST("/config/:boardId", h.PostConfig)
    api.GET("/target-config/:sourceBoardId", h.GetTargetConfig)
    api.POST("/target-config/:sourceBoardId", h.PostTargetConfig)
    api.POST("/sync/:boardId", h.SyncBoard)
    api.GET("/sync/:boardId/:monthKey", h.GetReport)
    api.GET("/sync/:boardId/:monthKey/export", h.ExportReport)
    api.POST("/audit-logs", h.PostAuditLog)

    e.POST("/admin/run", h.RunNow)
    e.GET("/admin/last-run", h.LastRun)

    return e
}
