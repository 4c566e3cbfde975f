/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
    "context"
    "time"

    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/services"
)

type service interface { RunMonthlyReports(ctx context.Context, trigger string) }

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    svc service
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
    loc, err := time.LoadLocation(cfg.TZ)
    if err != nil { loc = time.UTC }
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
    _, _ = c.AddFunc(cfg.ReportCron, cr.daily)
    if cfg.DebugCron != "" {
        _, _ = c.AddFunc(cfg.DebugCron, cr.debug)
    }
    return cr
}

func (cr *Cron) Start(){ cr.c.Start() }
func (cr *Cron) Stop(){ cr.c.Stop() }

// daily fires every day but only runs the pipeline on the last day of the
// month. Overlap protection lives in the service's run guard, not here.
func (cr *Cron) daily(){
    if !services.IsLastDayOfMonth(time.Now()) {
        cr.log.Debug().Msg("cron: not last day of month, skipping")
        return
    }
    cr.log.Info().Msg("cron: monthly report")
    // no deadline: a large board set legitimately takes a while
    cr.svc.RunMonthlyReports(context.Background(), "cron")
}

// debug runs unconditionally on the extra cadence, for testing schedules.
func (cr *Cron) debug(){
    cr.log.Info().Msg("cron: debug run")
    cr.svc.RunMonthlyReports(context.Background(), "cron-debug")
}
