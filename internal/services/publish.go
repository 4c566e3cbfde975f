/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "strconv"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// scalarColumn reports whether a column type accepts a plain scalar write.
// Unknown types are written; structured types (people, time tracking,
// status and the rest) are skipped.
func scalarColumn(colType string) bool {
    switch colType {
    case "numbers", "numeric", "text", "long-text", "long_text", "":
        return true
    default:
        return false
    }
}

func formatHours(h float64) string { return strconv.FormatFloat(h, 'f', -1, 64) }

// publishSummaries pushes one stored report onto the target board: one item
// per employee named after the month, scalar column writes for hours, and
// subitems rebuilt from scratch per client. A failing employee is logged and
// the rest of the batch continues.
func (s *Service) publishSummaries(ctx context.Context, token string, target *domain.TargetBoardConfig, report *domain.MonthlyReport) {
    columns, groups, err := s.board.BoardMeta(ctx, token, target.TargetBoardID)
    if err != nil {
        s.log.Error().Err(err).Int64("target_board", target.TargetBoardID).Msg("publish: board meta failed")
        return
    }
    colTypes := map[string]string{}
    for _, c := range columns { colTypes[c.ID] = c.Type }

    for _, sum := range report.Tasks {
        if err := s.publishEmployee(ctx, token, target, report, sum, groups, colTypes); err != nil {
            s.log.Error().Err(err).
                Int64("target_board", target.TargetBoardID).
                Str("employee", sum.EmployeeName).
                Msg("publish: employee failed")
        }
    }
}

func (s *Service) publishEmployee(ctx context.Context, token string, target *domain.TargetBoardConfig, report *domain.MonthlyReport, sum domain.EmployeeSummary, groups []domain.BoardGroup, colTypes map[string]string) error {
    // config may key the group by person id or by display name; id wins
    groupRef := target.EmployeeGroups[sum.EmployeeID]
    if groupRef == "" { groupRef = target.EmployeeGroups[sum.EmployeeName] }
    if groupRef == "" {
        s.log.Warn().Str("employee", sum.EmployeeName).Msg("publish: no group configured, skipping")
        return nil
    }
    groupID := resolveGroup(groups, groupRef)
    if groupID == "" {
        s.log.Warn().Str("employee", sum.EmployeeName).Str("group", groupRef).Msg("publish: group not on board, skipping")
        return nil
    }

    itemID, err := s.getOrCreateMonthItem(ctx, token, target.TargetBoardID, groupID, report.MonthName)
    if err != nil { return err }

    values := buildColumnValues(sum, target, groupID, colTypes)
    if len(values) > 0 {
        if err := s.board.ChangeColumnValues(ctx, token, target.TargetBoardID, itemID, values); err != nil {
            return err
        }
    }

    if target.SubitemWorkedHoursColumnID == "" { return nil }
    clients := sum.AllClients
    if len(clients) == 0 { clients = sum.OtherClients }
    if len(clients) == 0 { return nil }

    existing, err := s.board.Subitems(ctx, token, itemID)
    if err != nil { return err }
    for _, sub := range existing {
        if err := s.board.ArchiveItem(ctx, token, sub.ID); err != nil { return err }
    }
    for _, c := range clients {
        vals := map[string]any{target.SubitemWorkedHoursColumnID: formatHours(c.Hours)}
        if _, err := s.board.CreateSubitem(ctx, token, itemID, c.ClientName, vals); err != nil {
            return err
        }
    }
    return nil
}

// resolveGroup matches the configured reference against live groups by id
// first, then by title.
func resolveGroup(groups []domain.BoardGroup, ref string) string {
    for _, g := range groups {
        if g.ID == ref { return g.ID }
    }
    for _, g := range groups {
        if g.Title == ref { return g.ID }
    }
    return ""
}

// getOrCreateMonthItem finds the item named exactly monthName in the group,
// creating it when absent. Reruns in the same month land on the same item.
func (s *Service) getOrCreateMonthItem(ctx context.Context, token string, boardID int64, groupID, monthName string) (string, error) {
    items, err := s.board.GroupItems(ctx, token, boardID, groupID, 500)
    if err != nil { return "", err }
    for _, it := range items {
        if it.Name == monthName { return it.ID, nil }
    }
    return s.board.CreateItem(ctx, token, boardID, groupID, monthName)
}

// buildColumnValues assembles the scalar writes for one employee item: one
// write per flattened client the summary actually contains, plus the
// configured totals columns. Mapped columns for clients the employee did not
// work are left untouched, and columns with a non-scalar type are skipped.
func buildColumnValues(sum domain.EmployeeSummary, target *domain.TargetBoardConfig, groupID string, colTypes map[string]string) map[string]any {
    values := map[string]any{}
    clientCols := target.GroupClientColumns[groupID]
    for client, hours := range sum.PerClientHours {
        colID := clientCols[client]
        if colID == "" || !scalarColumn(colTypes[colID]) { continue }
        values[colID] = formatHours(hours)
    }
    if target.TotalWorkedHoursColumnID != "" && scalarColumn(colTypes[target.TotalWorkedHoursColumnID]) {
        values[target.TotalWorkedHoursColumnID] = formatHours(sum.TotalWorkedHours)
    }
    if target.TotalClientHoursColumnID != "" && scalarColumn(colTypes[target.TotalClientHoursColumnID]) {
        values[target.TotalClientHoursColumnID] = formatHours(sum.TotalClientHours)
    }
    return values
}
