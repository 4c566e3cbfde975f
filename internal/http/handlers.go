/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "bytes"
    "context"
    "fmt"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
    "github.com/zeeshan-atrule/timereport-backend/internal/repo"
    "github.com/zeeshan-atrule/timereport-backend/internal/services"
)

type service interface {
    RunMonthlyReports(ctx context.Context, trigger string)
    SyncBoard(ctx context.Context, boardID int64) (*domain.MonthlyReport, []domain.FlatEntry, error)
    EncryptToken(token string) (string, error)
}

type Handlers struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    repo *repo.Repository
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any, r *repo.Repository) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service), repo: r}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func boardID(c *gin.Context, param string) (int64, bool) {
    id, err := strconv.ParseInt(c.Param(param), 10, 64)
    if err != nil || id <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid board id"})
        return 0, false
    }
    return id, true
}

// ---- board config ----

func (h *Handlers) GetConfig(c *gin.Context) {
    id, ok := boardID(c, "boardId")
    if !ok { return }
    cfg, err := h.repo.GetBoardConfig(c.Request.Context(), id)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if cfg == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "config not found"})
        return
    }
    c.JSON(http.StatusOK, cfg)
}

func (h *Handlers) PostConfig(c *gin.Context) {
    id, ok := boardID(c, "boardId")
    if !ok { return }
    var body struct {
        Columns           domain.ColumnRoles  `json:"columns"`
        GroupConfig       map[string][]string `json:"groupConfig"`
        APIToken          string              `json:"apiToken"`
        ExcludedEmployees []string            `json:"excludedEmployees"`
    }
    if err := c.ShouldBindJSON(&body); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    if body.Columns.Employee == "" || body.Columns.Client == "" ||
        body.Columns.TimeTracking1 == "" || body.Columns.TimeTracking2 == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "all four column roles are required"})
        return
    }
    cfg := domain.BoardConfig{
        BoardID:           id,
        Columns:           body.Columns,
        GroupConfig:       body.GroupConfig,
        ExcludedEmployees: body.ExcludedEmployees,
    }
    if body.APIToken != "" {
        enc, err := h.svc.EncryptToken(body.APIToken)
        if err != nil {
            c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
            return
        }
        cfg.APIToken = enc
    }
    if err := h.repo.UpsertBoardConfig(c.Request.Context(), cfg); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ---- target board config ----

func (h *Handlers) GetTargetConfig(c *gin.Context) {
    id, ok := boardID(c, "sourceBoardId")
    if !ok { return }
    cfg, err := h.repo.GetTargetConfig(c.Request.Context(), id)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if cfg == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "target config not found"})
        return
    }
    c.JSON(http.StatusOK, cfg)
}

func (h *Handlers) PostTargetConfig(c *gin.Context) {
    id, ok := boardID(c, "sourceBoardId")
    if !ok { return }
    var cfg domain.TargetBoardConfig
    if err := c.ShouldBindJSON(&cfg); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    cfg.SourceBoardID = id
    if cfg.TargetBoardID <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "targetBoardId is required"})
        return
    }
    expandGlobalClientColumns(&cfg)
    if err := h.repo.UpsertTargetConfig(c.Request.Context(), cfg); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// expandGlobalClientColumns copies a "__global" client-column map onto every
// group referenced by the employee mapping. Group-specific entries win.
func expandGlobalClientColumns(cfg *domain.TargetBoardConfig) {
    global, ok := cfg.GroupClientColumns["__global"]
    if !ok { return }
    delete(cfg.GroupClientColumns, "__global")
    for _, groupRef := range cfg.EmployeeGroups {
        if groupRef == "" { continue }
        existing := cfg.GroupClientColumns[groupRef]
        if existing == nil {
            existing = map[string]string{}
            cfg.GroupClientColumns[groupRef] = existing
        }
        for client, colID := range global {
            if _, set := existing[client]; !set { existing[client] = colID }
        }
    }
}

// ---- sync & reports ----

func (h *Handlers) SyncBoard(c *gin.Context) {
    id, ok := boardID(c, "boardId")
    if !ok { return }
    report, flat, err := h.svc.SyncBoard(c.Request.Context(), id)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"report": report, "flat": flat})
}

func (h *Handlers) GetReport(c *gin.Context) {
    id, ok := boardID(c, "boardId")
    if !ok { return }
    rep, err := h.repo.GetMonthlyReport(c.Request.Context(), id, c.Param("monthKey"))
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if rep == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
        return
    }
    c.JSON(http.StatusOK, rep)
}

func (h *Handlers) ExportReport(c *gin.Context) {
    id, ok := boardID(c, "boardId")
    if !ok { return }
    monthKey := c.Param("monthKey")
    rep, err := h.repo.GetMonthlyReport(c.Request.Context(), id, monthKey)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if rep == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
        return
    }
    f, err := services.BuildReportWorkbook(rep)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    var buf bytes.Buffer
    if err := f.Write(&buf); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    filename := fmt.Sprintf("report-%d-%s.xlsx", id, monthKey)
    c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
    c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ---- admin ----

func (h *Handlers) RunNow(c *gin.Context) {
    // Run in background detached from the HTTP request to avoid context cancellation
    go h.svc.RunMonthlyReports(context.Background(), "http")
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.repo.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    if lr == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded"})
        return
    }
    c.JSON(http.StatusOK, lr)
}

// ---- audit logs ----

func (h *Handlers) PostAuditLog(c *gin.Context) {
    var e domain.AuditEntry
    if err := c.ShouldBindJSON(&e); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    if e.ExecutedQuery == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "executedQuery is required"})
        return
    }
    if e.QueryType == "" { e.QueryType = "manual" }
    if err := h.repo.BulkInsertAuditLogs(c.Request.Context(), []domain.AuditEntry{e}); err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusCreated, gin.H{"ok": true})
}
