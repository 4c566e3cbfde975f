/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "errors"
    "fmt"
    "sync/atomic"
    "time"

    "github.com/rs/zerolog"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/crypto"
    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
    "github.com/zeeshan-atrule/timereport-backend/internal/repo"
)

// BoardClient is the board-service surface the pipeline needs. Credentials
// are per board, so every call takes the token.
type BoardClient interface {
    Execute(ctx context.Context, query, token string) (map[string]any, error)
    BoardMeta(ctx context.Context, token string, boardID int64) ([]domain.BoardColumn, []domain.BoardGroup, error)
    GroupItems(ctx context.Context, token string, boardID int64, groupID string, limit int) ([]domain.ItemRef, error)
    CreateItem(ctx context.Context, token string, boardID int64, groupID, name string) (string, error)
    ChangeColumnValues(ctx context.Context, token string, boardID int64, itemID string, values map[string]any) error
    Subitems(ctx context.Context, token, itemID string) ([]domain.ItemRef, error)
    ArchiveItem(ctx context.Context, token, itemID string) error
    CreateSubitem(ctx context.Context, token, parentID, name string, values map[string]any) (string, error)
}

type Service struct {
    cfg   config.Config
    log   zerolog.Logger
    repo  *repo.Repository
    board BoardClient
    codec *crypto.Codec

    // single-slot run guard: a trigger that finds it held is dropped
    running atomic.Bool
}

func New(cfg config.Config, log zerolog.Logger, r *repo.Repository, board BoardClient, codec *crypto.Codec) *Service {
    return &Service{cfg: cfg, log: log, repo: r, board: board, codec: codec}
}

// EncryptToken encrypts a plaintext board credential for storage.
func (s *Service) EncryptToken(token string) (string, error) {
    if s.codec == nil { return "", errors.New("credential encryption not configured") }
    return s.codec.Encrypt(token)
}

// RunMonthlyReports executes the full pipeline over every configured board.
// Overlapping triggers are dropped; boards run strictly sequentially and a
// failing board does not stop the rest.
func (s *Service) RunMonthlyReports(ctx context.Context, trigger string) {
    if !s.running.CompareAndSwap(false, true) {
        s.log.Warn().Str("trigger", trigger).Msg("run already in progress, dropping trigger")
        return
    }
    defer s.running.Store(false)

    runID, err := s.repo.StartJobRun(ctx, trigger)
    if err != nil {
        s.log.Error().Err(err).Msg("start job run failed")
        return
    }
    start := time.Now()
    win := MonthWindowFor(time.Now())
    s.log.Info().Str("run_id", runID).Str("trigger", trigger).Str("month", win.Key).Msg("monthly report run started")

    boards, err := s.repo.ListBoardConfigs(ctx)
    if err != nil {
        s.log.Error().Err(err).Msg("list board configs failed")
        _ = s.repo.FinishJobRun(ctx, runID, 0, 0, false, err.Error())
        return
    }

    processed, totalTasks := 0, 0
    var lastErr string
    for _, cfg := range boards {
        n, err := s.processBoard(ctx, runID, cfg, win)
        if err != nil {
            lastErr = err.Error()
            s.log.Error().Err(err).Int64("board", cfg.BoardID).Msg("board run failed")
            continue
        }
        processed++
        totalTasks += n
    }
    if err := s.repo.FinishJobRun(ctx, runID, processed, totalTasks, lastErr == "", lastErr); err != nil {
        s.log.Error().Err(err).Msg("finish job run failed")
    }
    s.log.Info().Str("run_id", runID).
        Int("boards", processed).
        Int("tasks", totalTasks).
        Dur("took", time.Since(start)).
        Msg("monthly report run finished")
}

// processBoard runs the pipeline for one board and returns the number of
// extracted tasks. Missing config pieces skip the board; transport errors
// abort it.
func (s *Service) processBoard(ctx context.Context, runID string, cfg domain.BoardConfig, win domain.MonthWindow) (int, error) {
    token := s.decryptToken(cfg)
    if token == "" {
        s.log.Warn().Int64("board", cfg.BoardID).Msg("no usable credential, skipping board")
        return 0, nil
    }

    _, groups, err := s.board.BoardMeta(ctx, token, cfg.BoardID)
    if err != nil { return 0, fmt.Errorf("board meta: %w", err) }
    if err := s.reconcileGroupLabels(ctx, &cfg, groups); err != nil {
        s.log.Warn().Err(err).Int64("board", cfg.BoardID).Msg("group reconciliation failed, continuing with stored config")
    }

    groupIDs := cfg.GroupConfig[win.Key]
    if len(groupIDs) == 0 {
        s.log.Info().Int64("board", cfg.BoardID).Str("month", win.Key).Msg("no groups configured for month, skipping board")
        return 0, nil
    }

    items, err := s.fetchGroupItems(ctx, token, cfg.BoardID, groupIDs, cfg.Columns.IDs(), runID)
    if err != nil { return 0, err }

    tasks := BuildTasks(items, cfg.Columns, &win)
    tasks = FilterExcluded(tasks, cfg.ExcludedEmployees)
    summaries := AggregateTasks(tasks)

    report := domain.MonthlyReport{
        BoardID:   cfg.BoardID,
        MonthKey:  win.Key,
        MonthName: win.Name,
        Tasks:     summaries,
    }
    if err := s.repo.ReplaceMonthlyReport(ctx, report); err != nil {
        return 0, fmt.Errorf("store report: %w", err)
    }

    target, err := s.repo.GetTargetConfig(ctx, cfg.BoardID)
    if err != nil { return 0, fmt.Errorf("target config: %w", err) }
    if target != nil {
        // publish from the stored row so the target board always reflects
        // what a reader of the report store would see
        stored, err := s.repo.GetMonthlyReport(ctx, cfg.BoardID, win.Key)
        if err != nil { return 0, fmt.Errorf("reload report: %w", err) }
        if stored != nil { s.publishSummaries(ctx, token, target, stored) }
    }
    return len(tasks), nil
}

func (s *Service) decryptToken(cfg domain.BoardConfig) string {
    if cfg.APIToken == "" { return "" }
    if s.codec == nil { return "" }
    token, err := s.codec.Decrypt(cfg.APIToken)
    if err != nil {
        s.log.Warn().Err(err).Int64("board", cfg.BoardID).Msg("credential decrypt failed")
        return ""
    }
    return token
}

// SyncBoard runs fetch/extract/aggregate/store for one board on demand and
// returns the stored report plus the flat per-client minute totals. It does
// not publish and does not take the run guard.
func (s *Service) SyncBoard(ctx context.Context, boardID int64) (*domain.MonthlyReport, []domain.FlatEntry, error) {
    cfg, err := s.repo.GetBoardConfig(ctx, boardID)
    if err != nil { return nil, nil, err }
    if cfg == nil { return nil, nil, fmt.Errorf("board %d not configured", boardID) }
    token := s.decryptToken(*cfg)
    if token == "" { return nil, nil, fmt.Errorf("board %d has no usable credential", boardID) }

    win := MonthWindowFor(time.Now())
    _, groups, err := s.board.BoardMeta(ctx, token, boardID)
    if err != nil { return nil, nil, err }
    if err := s.reconcileGroupLabels(ctx, cfg, groups); err != nil {
        s.log.Warn().Err(err).Int64("board", boardID).Msg("group reconciliation failed, continuing with stored config")
    }
    groupIDs := cfg.GroupConfig[win.Key]
    if len(groupIDs) == 0 { return nil, nil, fmt.Errorf("no groups configured for %s", win.Key) }

    items, err := s.fetchGroupItems(ctx, token, boardID, groupIDs, cfg.Columns.IDs(), "")
    if err != nil { return nil, nil, err }
    tasks := BuildTasks(items, cfg.Columns, &win)
    tasks = FilterExcluded(tasks, cfg.ExcludedEmployees)

    report := domain.MonthlyReport{
        BoardID:   boardID,
        MonthKey:  win.Key,
        MonthName: win.Name,
        Tasks:     AggregateTasks(tasks),
    }
    if err := s.repo.ReplaceMonthlyReport(ctx, report); err != nil { return nil, nil, err }
    stored, err := s.repo.GetMonthlyReport(ctx, boardID, win.Key)
    if err != nil { return nil, nil, err }
    return stored, FlatAggregate(tasks), nil
}

// SeedBoards inserts board configs from the seed file for boards that have
// no stored config yet, encrypting plaintext tokens.
func (s *Service) SeedBoards(ctx context.Context, seeds []domain.BoardConfig) {
    for _, seed := range seeds {
        existing, err := s.repo.GetBoardConfig(ctx, seed.BoardID)
        if err != nil {
            s.log.Error().Err(err).Int64("board", seed.BoardID).Msg("seed: config lookup failed")
            continue
        }
        if existing != nil { continue }
        if seed.APIToken != "" {
            enc, err := s.EncryptToken(seed.APIToken)
            if err != nil {
                s.log.Error().Err(err).Int64("board", seed.BoardID).Msg("seed: token encrypt failed")
                continue
            }
            seed.APIToken = enc
        }
        if err := s.repo.UpsertBoardConfig(ctx, seed); err != nil {
            s.log.Error().Err(err).Int64("board", seed.BoardID).Msg("seed: upsert failed")
            continue
        }
        s.log.Info().Int64("board", seed.BoardID).Msg("seeded board config")
    }
}
