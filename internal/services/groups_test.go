package services

import (
    "testing"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

func TestParseMonthTitle(t *testing.T) {
    cases := []struct {
        title string
        key   string
        ok    bool
    }{
        {"January 2025", "2025-01", true},
        {"december 2024", "2024-12", true},
        {"  March 2025 ", "2025-03", true},
        {"Sprint 12", "", false},
        {"January", "", false},
        {"January 2025 backlog", "", false},
        {"Marchtober 2025", "", false},
    }
    for _, c := range cases {
        key, ok := parseMonthTitle(c.title)
        if key != c.key || ok != c.ok {
            t.Fatalf("parseMonthTitle(%q) = %q,%v want %q,%v", c.title, key, ok, c.key, c.ok)
        }
    }
}

func TestRepairGroupConfig_SwapsMissingGroup(t *testing.T) {
    gc := map[string][]string{"2025-01": {"g_old"}}
    groups := []domain.BoardGroup{{ID: "g_new", Title: "January 2025"}}
    if !repairGroupConfig(gc, groups) {
        t.Fatal("expected change")
    }
    if got := gc["2025-01"]; len(got) != 1 || got[0] != "g_new" {
        t.Fatalf("gc = %#v", gc)
    }
}

func TestRepairGroupConfig_SwapsRelabeledGroup(t *testing.T) {
    // g1 still exists but now carries February's label; January's slot moves
    // to the group freshly labeled January
    gc := map[string][]string{"2025-01": {"g1"}}
    groups := []domain.BoardGroup{
        {ID: "g1", Title: "February 2025"},
        {ID: "g2", Title: "January 2025"},
    }
    if !repairGroupConfig(gc, groups) {
        t.Fatal("expected change")
    }
    if got := gc["2025-01"]; len(got) != 1 || got[0] != "g2" {
        t.Fatalf("gc = %#v", gc)
    }
}

func TestRepairGroupConfig_KeepsMatchingGroup(t *testing.T) {
    gc := map[string][]string{"2025-01": {"g1", "g_extra"}}
    groups := []domain.BoardGroup{
        {ID: "g1", Title: "January 2025"},
        {ID: "g_extra", Title: "Carryover"},
    }
    if repairGroupConfig(gc, groups) {
        t.Fatalf("unexpected change: %#v", gc)
    }
}

func TestRepairGroupConfig_NoFreshGroupLeavesConfigAlone(t *testing.T) {
    gc := map[string][]string{"2025-01": {"g_gone"}}
    groups := []domain.BoardGroup{{ID: "g2", Title: "February 2025"}}
    if repairGroupConfig(gc, groups) {
        t.Fatalf("unexpected change: %#v", gc)
    }
    if gc["2025-01"][0] != "g_gone" { t.Fatalf("gc = %#v", gc) }
}

func TestRepairGroupConfig_DedupesAfterSwap(t *testing.T) {
    // both stale entries resolve to the same fresh group
    gc := map[string][]string{"2025-01": {"g_a", "g_b"}}
    groups := []domain.BoardGroup{{ID: "g_new", Title: "January 2025"}}
    if !repairGroupConfig(gc, groups) {
        t.Fatal("expected change")
    }
    if got := gc["2025-01"]; len(got) != 1 || got[0] != "g_new" {
        t.Fatalf("gc = %#v", gc)
    }
}
