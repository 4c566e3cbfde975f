/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "strings"
    "time"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// DedupeItems drops repeated item ids, keeping the first occurrence. Items
// without an id are kept as-is.
func DedupeItems(items []domain.WorkItem) []domain.WorkItem {
    seen := map[string]bool{}
    out := make([]domain.WorkItem, 0, len(items))
    for _, it := range items {
        if it.ID != "" {
            if seen[it.ID] { continue }
            seen[it.ID] = true
        }
        out = append(out, it)
    }
    return out
}

// identity links employee display names to person ids, built once across the
// whole item set so an actor id on one item resolves to a name declared on
// another.
type identity struct {
    nameByID map[string]string
    idByName map[string]string
}

// personLinks filters a people column's links down to actual persons. Team
// links carry no tracked time and would shift the positional name pairing.
func personLinks(persons []domain.Person) []domain.Person {
    out := make([]domain.Person, 0, len(persons))
    for _, p := range persons {
        if p.Kind == "" || p.Kind == "person" { out = append(out, p) }
    }
    return out
}

// buildIdentity pairs the comma-separated display names of each employee
// column positionally with its person links. Excess names map to an empty id.
func buildIdentity(items []domain.WorkItem, employeeCol string) identity {
    id := identity{nameByID: map[string]string{}, idByName: map[string]string{}}
    for i := range items {
        cv := items[i].Column(employeeCol)
        if cv == nil { continue }
        persons := personLinks(cv.Persons)
        for j, name := range splitNames(cv.Text) {
            pid := ""
            if j < len(persons) { pid = persons[j].ID }
            if pid != "" {
                if _, ok := id.nameByID[pid]; !ok { id.nameByID[pid] = name }
            }
            if _, ok := id.idByName[name]; !ok { id.idByName[name] = pid }
        }
    }
    return id
}

func splitNames(text string) []string {
    if strings.TrimSpace(text) == "" { return nil }
    parts := strings.Split(text, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

// BuildTasks turns raw work items into per-(item, employee) task entries with
// the minutes each employee tracked inside the window. Entries with no
// positive overlap are dropped. A nil window disables clipping.
func BuildTasks(items []domain.WorkItem, cols domain.ColumnRoles, win *domain.MonthWindow) []domain.ExtractedTask {
    items = DedupeItems(items)
    ident := buildIdentity(items, cols.Employee)

    var tasks []domain.ExtractedTask
    for i := range items {
        item := &items[i]
        client := ""
        if cv := item.Column(cols.Client); cv != nil { client = strings.TrimSpace(cv.Text) }

        minutesByActor := map[string]int{}
        var actorOrder []string
        taskDate := time.Time{}
        seen := map[string]bool{}

        for _, colID := range []string{cols.TimeTracking1, cols.TimeTracking2} {
            cv := item.Column(colID)
            if cv == nil { continue }
            for _, e := range cv.History {
                key := e.StartedAt + "_" + e.EndedAt + "_" + e.StartedUserID + "_" + e.EndedUserID
                if seen[key] { continue }
                seen[key] = true

                startRaw, endRaw := e.StartedAt, e.EndedAt
                if startRaw == "" { startRaw = endRaw }
                if endRaw == "" { endRaw = startRaw }
                if startRaw == "" { continue }
                start, ok1 := parseTimeUTC(startRaw)
                end, ok2 := parseTimeUTC(endRaw)
                if !ok1 || !ok2 || end.Before(start) { continue }

                if win != nil {
                    if start.Before(win.Start) { start = win.Start }
                    if end.After(win.End) { end = win.End }
                    if !start.Before(end) { continue }
                }
                minutes := int(end.Sub(start) / time.Minute)
                if minutes <= 0 { continue }

                actor := e.StartedUserID
                if actor == "" { actor = e.EndedUserID }
                if actor == "" { continue }
                if _, ok := minutesByActor[actor]; !ok { actorOrder = append(actorOrder, actor) }
                minutesByActor[actor] += minutes
                if taskDate.IsZero() { taskDate = start }
            }
        }
        if len(minutesByActor) == 0 { continue }

        date := ""
        monthKey := ""
        if !taskDate.IsZero() {
            date = taskDate.Format("2006-01-02")
            monthKey = taskDate.Format("2006-01")
        }
        if monthKey == "" && win != nil { monthKey = win.Key }

        // Employee-column pairs first, in display order, then actors that
        // tracked time but are not linked on this item.
        credited := map[string]bool{}
        if cv := item.Column(cols.Employee); cv != nil {
            persons := personLinks(cv.Persons)
            for j, name := range splitNames(cv.Text) {
                pid := ""
                if j < len(persons) { pid = persons[j].ID }
                minutes := 0
                if pid != "" { minutes = minutesByActor[pid]; credited[pid] = true }
                if minutes <= 0 { continue }
                tasks = append(tasks, domain.ExtractedTask{
                    ItemID: item.ID, TaskName: item.Name,
                    EmployeeName: name, EmployeeID: pid,
                    Client: client, Date: date, MonthKey: monthKey,
                    MinutesWorked: minutes,
                })
            }
        }
        for _, actor := range actorOrder {
            if credited[actor] { continue }
            minutes := minutesByActor[actor]
            if minutes <= 0 { continue }
            name := ident.nameByID[actor]
            if name == "" { name = actor }
            tasks = append(tasks, domain.ExtractedTask{
                ItemID: item.ID, TaskName: item.Name,
                EmployeeName: name, EmployeeID: actor,
                Client: client, Date: date, MonthKey: monthKey,
                MinutesWorked: minutes,
            })
        }
    }
    return tasks
}

// FilterExcluded removes tasks whose employee name matches the exclusion
// list, case-insensitively.
func FilterExcluded(tasks []domain.ExtractedTask, excluded []string) []domain.ExtractedTask {
    if len(excluded) == 0 { return tasks }
    skip := map[string]bool{}
    for _, n := range excluded { skip[strings.ToLower(strings.TrimSpace(n))] = true }
    out := make([]domain.ExtractedTask, 0, len(tasks))
    for _, t := range tasks {
        if skip[strings.ToLower(strings.TrimSpace(t.EmployeeName))] { continue }
        out = append(out, t)
    }
    return out
}

var timeLayouts = []string{
    time.RFC3339,
    "2006-01-02T15:04:05.000Z07:00",
    "2006-01-02 15:04:05",
    "2006-01-02",
}

func parseTimeUTC(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" { return time.Time{}, false }
    for _, layout := range timeLayouts {
        if t, err := time.Parse(layout, s); err == nil { return t.UTC(), true }
    }
    return time.Time{}, false
}
