/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "fmt"
    "time"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// MonthWindowFor resolves the UTC calendar month containing now.
func MonthWindowFor(now time.Time) domain.MonthWindow {
    now = now.UTC()
    start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
    end := start.AddDate(0, 1, 0)
    return domain.MonthWindow{
        Start: start,
        End:   end,
        Key:   fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
        Name:  fmt.Sprintf("%s %d", start.Month().String(), start.Year()),
    }
}

// IsLastDayOfMonth reports whether now falls on the last calendar day of its
// month, in now's own location.
func IsLastDayOfMonth(now time.Time) bool {
    return now.AddDate(0, 0, 1).Day() == 1
}
