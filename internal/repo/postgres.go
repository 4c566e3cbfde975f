/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

// EnsureSchema creates the tables on startup when absent.
func (d *DB) EnsureSchema(ctx context.Context) error {
    const ddl = `
    CREATE TABLE IF NOT EXISTS board_configs (
        board_id                 bigint PRIMARY KEY,
        employee_column          text NOT NULL DEFAULT '',
        client_column            text NOT NULL DEFAULT '',
        time_tracking1_column    text NOT NULL DEFAULT '',
        time_tracking2_column    text NOT NULL DEFAULT '',
        group_config             jsonb NOT NULL DEFAULT '{}'::jsonb,
        api_token                text NOT NULL DEFAULT '',
        excluded_employees       text[] NOT NULL DEFAULT '{}',
        updated_at               timestamptz NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS target_board_configs (
        source_board_id                bigint PRIMARY KEY,
        target_board_id                bigint NOT NULL,
        employee_groups                jsonb NOT NULL DEFAULT '{}'::jsonb,
        group_client_columns           jsonb NOT NULL DEFAULT '{}'::jsonb,
        total_worked_hours_column_id   text NOT NULL DEFAULT '',
        total_client_hours_column_id   text NOT NULL DEFAULT '',
        subitem_worked_hours_column_id text NOT NULL DEFAULT '',
        updated_at                     timestamptz NOT NULL DEFAULT now()
    );
    CREATE TABLE IF NOT EXISTS monthly_reports (
        id           bigserial PRIMARY KEY,
        board_id     bigint NOT NULL,
        month_key    text NOT NULL,
        month_name   text NOT NULL DEFAULT '',
        tasks        jsonb NOT NULL DEFAULT '[]'::jsonb,
        generated_at timestamptz NOT NULL DEFAULT now(),
        UNIQUE (board_id, month_key)
    );
    CREATE TABLE IF NOT EXISTS job_runs (
        id         uuid PRIMARY KEY,
        trigger    text NOT NULL,
        started_at timestamptz NOT NULL DEFAULT now(),
        finished_at timestamptz,
        boards_processed int NOT NULL DEFAULT 0,
        tasks_extracted  int NOT NULL DEFAULT 0,
        success    boolean NOT NULL DEFAULT false,
        error      text NOT NULL DEFAULT ''
    );
    CREATE TABLE IF NOT EXISTS audit_logs (
        id             bigserial PRIMARY KEY,
        run_id         text NOT NULL DEFAULT '',
        user_id        text NOT NULL DEFAULT '',
        user_name      text NOT NULL DEFAULT '',
        board_id       bigint NOT NULL DEFAULT 0,
        query_type     text NOT NULL DEFAULT '',
        executed_query text NOT NULL DEFAULT '',
        created_at     timestamptz NOT NULL DEFAULT now()
    );`
    _, err := d.Pool.Exec(ctx, ddl)
    return err
}

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// ---- board configs ----

func (r *Repository) UpsertBoardConfig(ctx context.Context, c domain.BoardConfig) error {
    gc, err := json.Marshal(c.GroupConfig)
    if err != nil { return err }
    const q = `
        INSERT INTO board_configs(board_id, employee_column, client_column,
            time_tracking1_column, time_tracking2_column, group_config,
            api_token, excluded_employees, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,now())
        ON CONFLICT(board_id) DO UPDATE SET
            employee_column=EXCLUDED.employee_column,
            client_column=EXCLUDED.client_column,
            time_tracking1_column=EXCLUDED.time_tracking1_column,
            time_tracking2_column=EXCLUDED.time_tracking2_column,
            group_config=EXCLUDED.group_config,
            api_token=CASE WHEN EXCLUDED.api_token <> '' THEN EXCLUDED.api_token ELSE board_configs.api_token END,
            excluded_employees=EXCLUDED.excluded_employees,
            updated_at=now()`
    _, err = r.db.Pool.Exec(ctx, q, c.BoardID, c.Columns.Employee, c.Columns.Client,
        c.Columns.TimeTracking1, c.Columns.TimeTracking2, gc, c.APIToken, c.ExcludedEmployees)
    return err
}

func (r *Repository) GetBoardConfig(ctx context.Context, boardID int64) (*domain.BoardConfig, error) {
    const q = `SELECT board_id, employee_column, client_column, time_tracking1_column,
        time_tracking2_column, group_config, api_token, excluded_employees
        FROM board_configs WHERE board_id=$1`
    var c domain.BoardConfig
    var gc []byte
    row := r.db.Pool.QueryRow(ctx, q, boardID)
    if err := row.Scan(&c.BoardID, &c.Columns.Employee, &c.Columns.Client,
        &c.Columns.TimeTracking1, &c.Columns.TimeTracking2, &gc, &c.APIToken, &c.ExcludedEmployees); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    if len(gc) > 0 {
        if err := json.Unmarshal(gc, &c.GroupConfig); err != nil { return nil, err }
    }
    return &c, nil
}

func (r *Repository) ListBoardConfigs(ctx context.Context) ([]domain.BoardConfig, error) {
    const q = `SELECT board_id, employee_column, client_column, time_tracking1_column,
        time_tracking2_column, group_config, api_token, excluded_employees
        FROM board_configs ORDER BY board_id`
    rows, err := r.db.Pool.Query(ctx, q)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.BoardConfig
    for rows.Next() {
        var c domain.BoardConfig
        var gc []byte
        if err := rows.Scan(&c.BoardID, &c.Columns.Employee, &c.Columns.Client,
            &c.Columns.TimeTracking1, &c.Columns.TimeTracking2, &gc, &c.APIToken, &c.ExcludedEmployees); err != nil {
            return nil, err
        }
        if len(gc) > 0 {
            if err := json.Unmarshal(gc, &c.GroupConfig); err != nil { return nil, err }
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// UpdateGroupConfig persists only the month -> group-ids mapping.
func (r *Repository) UpdateGroupConfig(ctx context.Context, boardID int64, groupConfig map[string][]string) error {
    gc, err := json.Marshal(groupConfig)
    if err != nil { return err }
    _, err = r.db.Pool.Exec(ctx,
        `UPDATE board_configs SET group_config=$2, updated_at=now() WHERE board_id=$1`, boardID, gc)
    return err
}

// ---- target board configs ----

func (r *Repository) UpsertTargetConfig(ctx context.Context, c domain.TargetBoardConfig) error {
    eg, err := json.Marshal(c.EmployeeGroups)
    if err != nil { return err }
    gcc, err := json.Marshal(c.GroupClientColumns)
    if err != nil { return err }
    const q = `
        INSERT INTO target_board_configs(source_board_id, target_board_id, employee_groups,
            group_client_columns, total_worked_hours_column_id, total_client_hours_column_id,
            subitem_worked_hours_column_id, updated_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,now())
        ON CONFLICT(source_board_id) DO UPDATE SET
            target_board_id=EXCLUDED.target_board_id,
            employee_groups=EXCLUDED.employee_groups,
            group_client_columns=EXCLUDED.group_client_columns,
            total_worked_hours_column_id=EXCLUDED.total_worked_hours_column_id,
            total_client_hours_column_id=EXCLUDED.total_client_hours_column_id,
            subitem_worked_hours_column_id=EXCLUDED.subitem_worked_hours_column_id,
            updated_at=now()`
    _, err = r.db.Pool.Exec(ctx, q, c.SourceBoardID, c.TargetBoardID, eg, gcc,
        c.TotalWorkedHoursColumnID, c.TotalClientHoursColumnID, c.SubitemWorkedHoursColumnID)
    return err
}

func (r *Repository) GetTargetConfig(ctx context.Context, sourceBoardID int64) (*domain.TargetBoardConfig, error) {
    const q = `SELECT source_board_id, target_board_id, employee_groups, group_client_columns,
        total_worked_hours_column_id, total_client_hours_column_id, subitem_worked_hours_column_id
        FROM target_board_configs WHERE source_board_id=$1`
    var c domain.TargetBoardConfig
    var eg, gcc []byte
    row := r.db.Pool.QueryRow(ctx, q, sourceBoardID)
    if err := row.Scan(&c.SourceBoardID, &c.TargetBoardID, &eg, &gcc,
        &c.TotalWorkedHoursColumnID, &c.TotalClientHoursColumnID, &c.SubitemWorkedHoursColumnID); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    if len(eg) > 0 {
        if err := json.Unmarshal(eg, &c.EmployeeGroups); err != nil { return nil, err }
    }
    if len(gcc) > 0 {
        if err := json.Unmarshal(gcc, &c.GroupClientColumns); err != nil { return nil, err }
    }
    return &c, nil
}

// ---- monthly reports ----

// ReplaceMonthlyReport deletes and reinserts the report for (boardID, monthKey)
// in one transaction; reruns for the same month leave exactly one row.
func (r *Repository) ReplaceMonthlyReport(ctx context.Context, rep domain.MonthlyReport) error {
    tasks, err := json.Marshal(rep.Tasks)
    if err != nil { return err }
    tx, err := r.db.Pool.Begin(ctx)
    if err != nil { return err }
    defer tx.Rollback(ctx)
    if _, err := tx.Exec(ctx,
        `DELETE FROM monthly_reports WHERE board_id=$1 AND month_key=$2`, rep.BoardID, rep.MonthKey); err != nil {
        return err
    }
    if _, err := tx.Exec(ctx,
        `INSERT INTO monthly_reports(board_id, month_key, month_name, tasks, generated_at)
         VALUES($1,$2,$3,$4,now())`, rep.BoardID, rep.MonthKey, rep.MonthName, tasks); err != nil {
        return err
    }
    return tx.Commit(ctx)
}

func (r *Repository) GetMonthlyReport(ctx context.Context, boardID int64, monthKey string) (*domain.MonthlyReport, error) {
    const q = `SELECT board_id, month_key, month_name, tasks, generated_at
        FROM monthly_reports WHERE board_id=$1 AND month_key=$2`
    var rep domain.MonthlyReport
    var tasks []byte
    row := r.db.Pool.QueryRow(ctx, q, boardID, monthKey)
    if err := row.Scan(&rep.BoardID, &rep.MonthKey, &rep.MonthName, &tasks, &rep.GeneratedAt); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    if len(tasks) > 0 {
        if err := json.Unmarshal(tasks, &rep.Tasks); err != nil { return nil, err }
    }
    return &rep, nil
}

// ---- job runs ----

func (r *Repository) StartJobRun(ctx context.Context, trigger string) (string, error) {
    id := uuid.NewString()
    const q = `INSERT INTO job_runs(id, trigger, started_at, success) VALUES($1,$2,now(),false)`
    if _, err := r.db.Pool.Exec(ctx, q, id, trigger); err != nil { return "", err }
    return id, nil
}

func (r *Repository) FinishJobRun(ctx context.Context, id string, boardsProcessed, tasksExtracted int, success bool, errStr string) error {
    const q = `UPDATE job_runs SET finished_at=now(), boards_processed=$2, tasks_extracted=$3,
        success=$4, error=$5 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, boardsProcessed, tasksExtracted, success, errStr)
    return err
}

func (r *Repository) GetLastRun(ctx context.Context) (*domain.JobRun, error) {
    const q = `SELECT id, trigger, started_at, finished_at, boards_processed, tasks_extracted,
        success, error FROM job_runs ORDER BY started_at DESC LIMIT 1`
    var jr domain.JobRun
    row := r.db.Pool.QueryRow(ctx, q)
    if err := row.Scan(&jr.ID, &jr.Trigger, &jr.StartedAt, &jr.FinishedAt,
        &jr.BoardsProcessed, &jr.TasksExtracted, &jr.Success, &jr.Error); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    return &jr, nil
}

// ---- audit logs ----

func (r *Repository) BulkInsertAuditLogs(ctx context.Context, entries []domain.AuditEntry) error {
    if len(entries) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO audit_logs(run_id, user_id, user_name, board_id, query_type, executed_query, created_at)
        VALUES($1,$2,$3,$4,$5,$6,$7)`
    for _, e := range entries {
        at := e.CreatedAt
        if at.IsZero() { at = time.Now().UTC() }
        batch.Queue(q, e.RunID, e.UserID, e.UserName, e.BoardID, e.QueryType, e.ExecutedQuery, at)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range entries { if _, err := br.Exec(); err != nil { return err } }
    return nil
}
