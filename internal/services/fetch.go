/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// followUpCap bounds pagination requests per board so a cursor that never
// advances server-side cannot loop forever.
const followUpCap = 1000

// columnValuesFragment selects the declared columns with the people and
// time-tracking shapes inlined.
func columnValuesFragment(columnIDs []string) string {
    ids := make([]string, 0, len(columnIDs))
    for _, id := range columnIDs { ids = append(ids, strconv.Quote(id)) }
    return fmt.Sprintf(`column_values(ids: [%s]) { id text
        ... on PeopleValue { persons_and_teams { id kind } }
        ... on TimeTrackingValue { history { started_user_id ended_user_id started_at ended_at } } }`,
        strings.Join(ids, ", "))
}

// fetchGroupItems pulls every item in the given groups: one initial query
// covering all groups, then per-group cursor follow-ups in the configured
// group order. A group is finished when its cursor is absent or unchanged.
// Every executed query is recorded as an audit entry.
func (s *Service) fetchGroupItems(ctx context.Context, token string, boardID int64, groupIDs, columnIDs []string, runID string) ([]domain.WorkItem, error) {
    if len(groupIDs) == 0 { return nil, nil }
    frag := columnValuesFragment(columnIDs)
    quoted := make([]string, 0, len(groupIDs))
    for _, g := range groupIDs { quoted = append(quoted, strconv.Quote(g)) }

    initial := fmt.Sprintf(`query { boards(ids: [%d]) { groups(ids: [%s]) { id items_page(limit: %d) { cursor items { id name %s } } } } }`,
        boardID, strings.Join(quoted, ", "), s.pageSize(), frag)

    var audits []domain.AuditEntry
    audit := func(kind, query string) {
        audits = append(audits, domain.AuditEntry{
            RunID: runID, BoardID: boardID, QueryType: kind,
            ExecutedQuery: query, CreatedAt: time.Now().UTC(),
        })
    }

    audit("initial", initial)
    data, err := s.board.Execute(ctx, initial, token)
    if err != nil {
        s.storeAudits(ctx, audits)
        return nil, fmt.Errorf("fetch board %d: %w", boardID, err)
    }

    var items []domain.WorkItem
    cursors := map[string]string{}
    for _, g := range groupsOf(data) {
        gid := toStr(g["id"])
        page, _ := g["items_page"].(map[string]any)
        items = append(items, parseItems(page)...)
        if cur := toStr(page["cursor"]); cur != "" { cursors[gid] = cur }
    }

    followUps := 0
    for _, gid := range groupIDs {
        cursor := cursors[gid]
        for cursor != "" && followUps < followUpCap {
            q := fmt.Sprintf(`query { boards(ids: [%d]) { groups(ids: [%s]) { id items_page(limit: %d, cursor: %s) { cursor items { id name %s } } } } }`,
                boardID, strconv.Quote(gid), s.pageSize(), strconv.Quote(cursor), frag)
            audit("pagination", q)
            data, err := s.board.Execute(ctx, q, token)
            if err != nil {
                s.storeAudits(ctx, audits)
                return nil, fmt.Errorf("fetch board %d group %s: %w", boardID, gid, err)
            }
            followUps++
            next := ""
            for _, g := range groupsOf(data) {
                page, _ := g["items_page"].(map[string]any)
                items = append(items, parseItems(page)...)
                next = toStr(page["cursor"])
            }
            if next == "" || next == cursor { break }
            cursor = next
        }
    }
    s.storeAudits(ctx, audits)
    return items, nil
}

func (s *Service) pageSize() int {
    if s.cfg.PageSize > 0 { return s.cfg.PageSize }
    return 100
}

func (s *Service) storeAudits(ctx context.Context, audits []domain.AuditEntry) {
    if len(audits) == 0 || s.repo == nil { return }
    if err := s.repo.BulkInsertAuditLogs(ctx, audits); err != nil {
        s.log.Warn().Err(err).Int("count", len(audits)).Msg("audit log insert failed")
    }
}

func groupsOf(data map[string]any) []map[string]any {
    boards, _ := data["boards"].([]any)
    if len(boards) == 0 { return nil }
    b, _ := boards[0].(map[string]any)
    raw, _ := b["groups"].([]any)
    out := make([]map[string]any, 0, len(raw))
    for _, g0 := range raw {
        if g, _ := g0.(map[string]any); g != nil { out = append(out, g) }
    }
    return out
}

func parseItems(page map[string]any) []domain.WorkItem {
    raw, _ := page["items"].([]any)
    out := make([]domain.WorkItem, 0, len(raw))
    for _, it0 := range raw {
        m, _ := it0.(map[string]any)
        if m == nil { continue }
        item := domain.WorkItem{ID: toStr(m["id"]), Name: toStr(m["name"])}
        cvs, _ := m["column_values"].([]any)
        for _, cv0 := range cvs {
            cv, _ := cv0.(map[string]any)
            if cv == nil { continue }
            val := domain.ColumnValue{ID: toStr(cv["id"]), Text: toStr(cv["text"])}
            if persons, ok := cv["persons_and_teams"].([]any); ok {
                for _, p0 := range persons {
                    if p, _ := p0.(map[string]any); p != nil {
                        val.Persons = append(val.Persons, domain.Person{ID: toStr(p["id"]), Kind: toStr(p["kind"])})
                    }
                }
            }
            if history, ok := cv["history"].([]any); ok {
                for _, h0 := range history {
                    if h, _ := h0.(map[string]any); h != nil {
                        val.History = append(val.History, domain.TimeEntry{
                            StartedAt:     toStr(h["started_at"]),
                            EndedAt:       toStr(h["ended_at"]),
                            StartedUserID: toStr(h["started_user_id"]),
                            EndedUserID:   toStr(h["ended_user_id"]),
                        })
                    }
                }
            }
            item.ColumnValues = append(item.ColumnValues, val)
        }
        out = append(out, item)
    }
    return out
}

// toStr renders a decoded JSON scalar as a string. Person ids arrive as JSON
// numbers, so float64 must not format with an exponent.
func toStr(v any) string {
    switch t := v.(type) {
    case string:
        return t
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64)
    case bool:
        return strconv.FormatBool(t)
    case nil:
        return ""
    default:
        return fmt.Sprint(t)
    }
}
