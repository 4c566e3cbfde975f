/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "math"
    "strings"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// classifyClient sorts a client label into a billing bucket by
// case-insensitive substring, in precedence order. "dash-sd" is dash.
func classifyClient(client string) string {
    c := strings.ToLower(client)
    switch {
    case strings.Contains(c, "dash"):
        return "dash"
    case strings.Contains(c, "simple day") || strings.Contains(c, "simpleday"):
        return "simpleday"
    case strings.Contains(c, "sd"):
        return "sd"
    default:
        return "other"
    }
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var bucketOrder = []string{"sd", "dash", "simpleday", "other"}

type clientAcc struct {
    order []string // "name\x00month"
    byKey map[string]*domain.ClientHours
}

func newClientAcc() *clientAcc { return &clientAcc{byKey: map[string]*domain.ClientHours{}} }

func (a *clientAcc) add(name, month string, minutes int) {
    key := name + "\x00" + month
    ch, ok := a.byKey[key]
    if !ok {
        ch = &domain.ClientHours{ClientName: name, Month: month}
        a.byKey[key] = ch
        a.order = append(a.order, key)
    }
    ch.Minutes += minutes
}

// entries finalizes hours from minutes, rounding once per merged entry.
func (a *clientAcc) entries() []domain.ClientHours {
    out := make([]domain.ClientHours, 0, len(a.order))
    for _, key := range a.order {
        ch := *a.byKey[key]
        ch.Hours = round2(float64(ch.Minutes) / 60)
        out = append(out, ch)
    }
    return out
}

type employeeAcc struct {
    name    string
    id      string
    buckets map[string]*clientAcc
    total   int
}

// AggregateTasks rolls extracted tasks up into one summary per employee,
// keyed by employee id with the display name as fallback. Entry order follows
// first appearance in the task list.
func AggregateTasks(tasks []domain.ExtractedTask) []domain.EmployeeSummary {
    byKey := map[string]*employeeAcc{}
    var order []string
    for _, t := range tasks {
        key := t.EmployeeID
        if key == "" { key = t.EmployeeName }
        acc, ok := byKey[key]
        if !ok {
            acc = &employeeAcc{name: t.EmployeeName, id: t.EmployeeID, buckets: map[string]*clientAcc{}}
            byKey[key] = acc
            order = append(order, key)
        }
        bucket := classifyClient(t.Client)
        ca, ok := acc.buckets[bucket]
        if !ok {
            ca = newClientAcc()
            acc.buckets[bucket] = ca
        }
        ca.add(t.Client, t.MonthKey, t.MinutesWorked)
        acc.total += t.MinutesWorked
    }

    out := make([]domain.EmployeeSummary, 0, len(order))
    for _, key := range order {
        acc := byKey[key]
        sum := domain.EmployeeSummary{
            EmployeeName:   acc.name,
            EmployeeID:     acc.id,
            PerClientHours: map[string]float64{},
        }
        for _, bucket := range bucketOrder {
            ca := acc.buckets[bucket]
            if ca == nil { continue }
            entries := ca.entries()
            otherMinutes := 0
            for _, e := range entries {
                if bucket == "other" {
                    sum.OtherClients = append(sum.OtherClients, e)
                    otherMinutes += e.Minutes
                } else {
                    sum.PerClientHours[e.ClientName] += e.Hours
                }
                sum.AllClients = append(sum.AllClients, e)
            }
            if bucket == "other" {
                sum.TotalClientHours = round2(float64(otherMinutes) / 60)
            }
        }
        sum.TotalWorkedHours = round2(float64(acc.total) / 60)
        out = append(out, sum)
    }
    return out
}

// FlatAggregate sums minutes per (employee, client, month), preserving first
// appearance order.
func FlatAggregate(tasks []domain.ExtractedTask) []domain.FlatEntry {
    byKey := map[string]*domain.FlatEntry{}
    var order []string
    for _, t := range tasks {
        ek := t.EmployeeID
        if ek == "" { ek = t.EmployeeName }
        key := ek + "\x00" + t.Client + "\x00" + t.MonthKey
        fe, ok := byKey[key]
        if !ok {
            fe = &domain.FlatEntry{
                EmployeeName: t.EmployeeName, EmployeeID: t.EmployeeID,
                Client: t.Client, Month: t.MonthKey,
            }
            byKey[key] = fe
            order = append(order, key)
        }
        fe.TotalMinutes += t.MinutesWorked
    }
    out := make([]domain.FlatEntry, 0, len(order))
    for _, key := range order { out = append(out, *byKey[key]) }
    return out
}
