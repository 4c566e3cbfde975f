package services

import (
    "math/rand"
    "testing"

    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

func TestClassifyClient(t *testing.T) {
    cases := []struct {
        client string
        want   string
    }{
        {"Dashboards Inc", "dash"},
        {"dash-sd", "dash"},
        {"Simple Day GmbH", "simpleday"},
        {"simpleday", "simpleday"},
        {"SD North", "sd"},
        {"Acme", "other"},
        {"", "other"},
    }
    for _, c := range cases {
        if got := classifyClient(c.client); got != c.want {
            t.Fatalf("classifyClient(%q) = %q, want %q", c.client, got, c.want)
        }
    }
}

func TestAggregateTasks_RoundsOncePerMergedEntry(t *testing.T) {
    // 25 + 25 = 50 minutes must round as one entry: 0.83, not 0.42+0.42
    tasks := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 25},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 25},
    }
    out := AggregateTasks(tasks)
    if len(out) != 1 { t.Fatalf("out = %#v", out) }
    if len(out[0].OtherClients) != 1 { t.Fatalf("other = %#v", out[0].OtherClients) }
    if got := out[0].OtherClients[0].Hours; got != 0.83 {
        t.Fatalf("hours = %v, want 0.83", got)
    }
    if out[0].TotalWorkedHours != 0.83 || out[0].TotalClientHours != 0.83 {
        t.Fatalf("totals = %v/%v", out[0].TotalWorkedHours, out[0].TotalClientHours)
    }
}

func TestAggregateTasks_TotalsSplit(t *testing.T) {
    tasks := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "SD North", MonthKey: "2025-01", MinutesWorked: 60},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Dash Co", MonthKey: "2025-01", MinutesWorked: 120},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 30},
    }
    out := AggregateTasks(tasks)
    if len(out) != 1 { t.Fatalf("out = %#v", out) }
    sum := out[0]
    // worked hours count every bucket, client hours only the "other" bucket
    if sum.TotalWorkedHours != 3.5 { t.Fatalf("worked = %v", sum.TotalWorkedHours) }
    if sum.TotalClientHours != 0.5 { t.Fatalf("client = %v", sum.TotalClientHours) }
    if len(sum.AllClients) != 3 { t.Fatalf("all = %#v", sum.AllClients) }
    if len(sum.OtherClients) != 1 || sum.OtherClients[0].ClientName != "Acme" {
        t.Fatalf("other = %#v", sum.OtherClients)
    }
    if sum.PerClientHours["SD North"] != 1 || sum.PerClientHours["Dash Co"] != 2 {
        t.Fatalf("perClient = %#v", sum.PerClientHours)
    }
    if _, ok := sum.PerClientHours["Acme"]; ok {
        t.Fatalf("other-bucket client leaked into perClient: %#v", sum.PerClientHours)
    }
}

func TestAggregateTasks_KeysByIDWithNameFallback(t *testing.T) {
    tasks := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 30},
        {EmployeeName: "Alice Renamed", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 30},
        {EmployeeName: "Ghost", EmployeeID: "", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 10},
    }
    out := AggregateTasks(tasks)
    if len(out) != 2 { t.Fatalf("out = %#v", out) }
    if out[0].EmployeeName != "Alice" || out[0].TotalWorkedHours != 1 {
        t.Fatalf("first = %#v", out[0])
    }
    if out[1].EmployeeName != "Ghost" { t.Fatalf("second = %#v", out[1]) }
}

func TestAggregateTasks_MergesByClientAndMonth(t *testing.T) {
    tasks := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 30},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-02", MinutesWorked: 30},
    }
    out := AggregateTasks(tasks)
    if len(out[0].OtherClients) != 2 {
        t.Fatalf("entries with different months must not merge: %#v", out[0].OtherClients)
    }
}

func TestAggregateTasks_TotalsUnaffectedByTaskOrder(t *testing.T) {
    base := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 17},
        {EmployeeName: "Bob", EmployeeID: "22", Client: "SD", MonthKey: "2025-01", MinutesWorked: 41},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Dash", MonthKey: "2025-01", MinutesWorked: 23},
        {EmployeeName: "Bob", EmployeeID: "22", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 7},
    }
    want := map[string]float64{}
    for _, s := range AggregateTasks(base) { want[s.EmployeeID] = s.TotalWorkedHours }

    shuffled := make([]domain.ExtractedTask, len(base))
    copy(shuffled, base)
    r := rand.New(rand.NewSource(1))
    for i := 0; i < 10; i++ {
        r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
        for _, s := range AggregateTasks(shuffled) {
            if s.TotalWorkedHours != want[s.EmployeeID] {
                t.Fatalf("total for %s = %v, want %v", s.EmployeeID, s.TotalWorkedHours, want[s.EmployeeID])
            }
        }
    }
}

func TestFlatAggregate(t *testing.T) {
    tasks := []domain.ExtractedTask{
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 30},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Acme", MonthKey: "2025-01", MinutesWorked: 15},
        {EmployeeName: "Alice", EmployeeID: "11", Client: "Beta", MonthKey: "2025-01", MinutesWorked: 5},
    }
    out := FlatAggregate(tasks)
    if len(out) != 2 { t.Fatalf("out = %#v", out) }
    if out[0].TotalMinutes != 45 || out[0].Client != "Acme" {
        t.Fatalf("first = %#v", out[0])
    }
    if out[1].TotalMinutes != 5 { t.Fatalf("second = %#v", out[1]) }
}
