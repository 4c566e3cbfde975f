/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "strconv"
    "strings"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

var monthNumbers = map[string]int{
    "january": 1, "february": 2, "march": 3, "april": 4,
    "may": 5, "june": 6, "july": 7, "august": 8,
    "september": 9, "october": 10, "november": 11, "december": 12,
}

// parseMonthTitle reads a "<MonthName> <Year>" group title into a month key.
func parseMonthTitle(title string) (string, bool) {
    fields := strings.Fields(strings.TrimSpace(title))
    if len(fields) != 2 { return "", false }
    m, ok := monthNumbers[strings.ToLower(fields[0])]
    if !ok { return "", false }
    year, err := strconv.Atoi(fields[1])
    if err != nil || year < 1000 || year > 9999 { return "", false }
    return fmt.Sprintf("%04d-%02d", year, m), true
}

// monthGroupIndex maps month keys to the group currently labeled with them.
// The first group wins when a label repeats.
func monthGroupIndex(groups []domain.BoardGroup) map[string]string {
    idx := map[string]string{}
    for _, g := range groups {
        if key, ok := parseMonthTitle(g.Title); ok {
            if _, exists := idx[key]; !exists { idx[key] = g.ID }
        }
    }
    return idx
}

// repairGroupConfig fixes a month -> group mapping in place against the live
// board groups. A configured group that is gone, or that now carries a
// different month's label, is swapped for the group freshly labeled with the
// configured month. Reports whether anything changed.
func repairGroupConfig(gc map[string][]string, groups []domain.BoardGroup) bool {
    byID := map[string]domain.BoardGroup{}
    for _, g := range groups { byID[g.ID] = g }
    monthIdx := monthGroupIndex(groups)

    changed := false
    for monthKey, ids := range gc {
        fresh := monthIdx[monthKey]
        if fresh == "" { continue }
        for i, gid := range ids {
            live, exists := byID[gid]
            stale := !exists
            if exists {
                if key, isMonth := parseMonthTitle(live.Title); isMonth && key != monthKey {
                    stale = true
                }
            }
            if stale && gid != fresh {
                ids[i] = fresh
                changed = true
            }
        }
        deduped := dedupeStrings(ids)
        if len(deduped) != len(ids) { changed = true }
        gc[monthKey] = deduped
    }
    return changed
}

// reconcileGroupLabels repairs the stored group config against the live board
// and persists it only when something changed.
func (s *Service) reconcileGroupLabels(ctx context.Context, cfg *domain.BoardConfig, groups []domain.BoardGroup) error {
    if len(cfg.GroupConfig) == 0 { return nil }
    if !repairGroupConfig(cfg.GroupConfig, groups) { return nil }
    s.log.Info().Int64("board", cfg.BoardID).Msg("group config: repaired stale month groups")
    return s.repo.UpdateGroupConfig(ctx, cfg.BoardID, cfg.GroupConfig)
}

func dedupeStrings(in []string) []string {
    seen := map[string]bool{}
    out := make([]string, 0, len(in))
    for _, v := range in {
        if v == "" || seen[v] { continue }
        seen[v] = true
        out = append(out, v)
    }
    return out
}
