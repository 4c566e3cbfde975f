/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "fmt"

    "github.com/xuri/excelize/v2"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// BuildReportWorkbook renders a stored monthly report as a spreadsheet: one
// detail sheet with a row per (employee, client) and one totals sheet.
func BuildReportWorkbook(rep *domain.MonthlyReport) (*excelize.File, error) {
    f := excelize.NewFile()
    const detail = "Report"
    if err := f.SetSheetName("Sheet1", detail); err != nil { return nil, err }

    header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
    if err != nil { return nil, err }

    headers := []string{"Employee", "Client", "Month", "Minutes", "Hours"}
    for i, h := range headers {
        cell, _ := excelize.CoordinatesToCellName(i+1, 1)
        f.SetCellValue(detail, cell, h)
        f.SetCellStyle(detail, cell, cell, header)
    }
    row := 2
    for _, sum := range rep.Tasks {
        for _, c := range sum.AllClients {
            f.SetCellValue(detail, fmt.Sprintf("A%d", row), sum.EmployeeName)
            f.SetCellValue(detail, fmt.Sprintf("B%d", row), c.ClientName)
            f.SetCellValue(detail, fmt.Sprintf("C%d", row), c.Month)
            f.SetCellValue(detail, fmt.Sprintf("D%d", row), c.Minutes)
            f.SetCellValue(detail, fmt.Sprintf("E%d", row), c.Hours)
            row++
        }
    }
    f.SetColWidth(detail, "A", "B", 24)
    f.SetColWidth(detail, "C", "E", 12)

    const totals = "Totals"
    if _, err := f.NewSheet(totals); err != nil { return nil, err }
    for i, h := range []string{"Employee", "Total Worked Hours", "Total Client Hours"} {
        cell, _ := excelize.CoordinatesToCellName(i+1, 1)
        f.SetCellValue(totals, cell, h)
        f.SetCellStyle(totals, cell, cell, header)
    }
    for i, sum := range rep.Tasks {
        f.SetCellValue(totals, fmt.Sprintf("A%d", i+2), sum.EmployeeName)
        f.SetCellValue(totals, fmt.Sprintf("B%d", i+2), sum.TotalWorkedHours)
        f.SetCellValue(totals, fmt.Sprintf("C%d", i+2), sum.TotalClientHours)
    }
    f.SetColWidth(totals, "A", "A", 24)
    f.SetColWidth(totals, "B", "C", 18)
    return f, nil
}
