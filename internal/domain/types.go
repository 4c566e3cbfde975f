package domain

import "time"

// Person is a linked person on a people column.
type Person struct {
    ID   string
    Kind string
}

// TimeEntry is one raw interval from a time-tracking column history.
// Timestamps are ISO-8601 strings as returned by the board API; user ids
// reference the actors who started and stopped the timer.
type TimeEntry struct {
    StartedAt     string
    EndedAt       string
    StartedUserID string
    EndedUserID   string
}

type ColumnValue struct {
    ID      string
    Text    string
    Persons []Person
    History []TimeEntry
}

type WorkItem struct {
    ID           string
    Name         string
    ColumnValues []ColumnValue
}

// Column returns the value for the given column id, or nil.
func (w *WorkItem) Column(id string) *ColumnValue {
    if id == "" { return nil }
    for i := range w.ColumnValues {
        if w.ColumnValues[i].ID == id { return &w.ColumnValues[i] }
    }
    return nil
}

type ItemRef struct {
    ID   string
    Name string
}

type BoardColumn struct {
    ID    string
    Title string
    Type  string
}

type BoardGroup struct {
    ID    string
    Title string
}

// MonthWindow is one calendar month in UTC. Start is the first instant of the
// month; End is the first instant of the next month and is exclusive, so
// clipping against [Start, End) keeps the whole final day.
type MonthWindow struct {
    Start time.Time
    End   time.Time
    Key   string // "2025-01"
    Name  string // "January 2025"
}

// StartDate is the first calendar day as "YYYY-MM-DD".
func (w MonthWindow) StartDate() string { return w.Start.Format("2006-01-02") }

// EndDate is the last calendar day as "YYYY-MM-DD".
func (w MonthWindow) EndDate() string { return w.End.AddDate(0, 0, -1).Format("2006-01-02") }

// ExtractedTask is one (item, employee) pairing with positive tracked time
// inside the requested window. MinutesWorked is always > 0.
type ExtractedTask struct {
    ItemID        string `json:"id"`
    TaskName      string `json:"task"`
    EmployeeName  string `json:"employee"`
    EmployeeID    string `json:"employeeId"`
    Client        string `json:"client"`
    Date          string `json:"date"`
    MonthKey      string `json:"month"`
    MinutesWorked int    `json:"timeMinutes"`
}

type ClientHours struct {
    ClientName string  `json:"clientName"`
    Month      string  `json:"month"`
    Minutes    int     `json:"minutes"`
    Hours      float64 `json:"hours"`
}

// EmployeeSummary is the per-employee monthly rollup. PerClientHours flattens
// the sd/dash/simpleday buckets to clientName -> hours; OtherClients is the
// remaining bucket and AllClients the union of every bucket.
//
// TotalClientHours counts only the "other" bucket while TotalWorkedHours
// counts everything; downstream consumers depend on that split, keep it.
type EmployeeSummary struct {
    EmployeeName     string             `json:"employeeName"`
    EmployeeID       string             `json:"employeeId"`
    PerClientHours   map[string]float64 `json:"perClientHours"`
    OtherClients     []ClientHours      `json:"otherClients"`
    AllClients       []ClientHours      `json:"allClients"`
    TotalWorkedHours float64            `json:"totalWorkedHours"`
    TotalClientHours float64            `json:"totalClientHours"`
}

// FlatEntry is a flat (employee, client, month) minute total.
type FlatEntry struct {
    EmployeeName string `json:"employee"`
    EmployeeID   string `json:"employeeId"`
    Client       string `json:"client"`
    Month        string `json:"month"`
    TotalMinutes int    `json:"totalMinutes"`
}

// MonthlyReport is the stored report of record, unique per (BoardID, MonthKey)
// and replaced wholesale on every run.
type MonthlyReport struct {
    BoardID     int64             `json:"boardId"`
    MonthKey    string            `json:"monthKey"`
    MonthName   string            `json:"monthName"`
    Tasks       []EmployeeSummary `json:"tasks"`
    GeneratedAt time.Time         `json:"generatedAt"`
}

type ColumnRoles struct {
    Employee      string `json:"employee" yaml:"employee"`
    Client        string `json:"client" yaml:"client"`
    TimeTracking1 string `json:"timeTracking1" yaml:"timeTracking1"`
    TimeTracking2 string `json:"timeTracking2" yaml:"timeTracking2"`
}

// IDs returns the declared column ids, skipping unset roles.
func (c ColumnRoles) IDs() []string {
    out := make([]string, 0, 4)
    for _, id := range []string{c.Employee, c.Client, c.TimeTracking1, c.TimeTracking2} {
        if id != "" { out = append(out, id) }
    }
    return out
}

// BoardConfig describes one source board: column roles, the month -> group ids
// map, the API credential (encrypted at rest) and employees excluded from
// reports.
type BoardConfig struct {
    BoardID           int64               `json:"boardId" yaml:"boardId"`
    Columns           ColumnRoles         `json:"columns" yaml:"columns"`
    GroupConfig       map[string][]string `json:"groupConfig" yaml:"groupConfig"`
    APIToken          string              `json:"-" yaml:"apiToken"`
    ExcludedEmployees []string            `json:"excludedEmployees" yaml:"excludedEmployees"`
}

// TargetBoardConfig maps a source board to the reporting board that receives
// its monthly summaries.
type TargetBoardConfig struct {
    SourceBoardID              int64                        `json:"sourceBoardId"`
    TargetBoardID              int64                        `json:"targetBoardId"`
    EmployeeGroups             map[string]string            `json:"employeeGroups"`
    GroupClientColumns         map[string]map[string]string `json:"groupClientColumns"`
    TotalWorkedHoursColumnID   string                       `json:"totalWorkedHoursColumnId"`
    TotalClientHoursColumnID   string                       `json:"totalClientHoursColumnId"`
    SubitemWorkedHoursColumnID string                       `json:"subitemWorkedHoursColumnId"`
}

// AuditEntry records one executed board query, either issued by this service
// during a fetch (RunID set) or submitted by the frontend.
type AuditEntry struct {
    RunID         string    `json:"runId,omitempty"`
    UserID        string    `json:"userId,omitempty"`
    UserName      string    `json:"userName,omitempty"`
    BoardID       int64     `json:"boardId"`
    QueryType     string    `json:"queryType"`
    ExecutedQuery string    `json:"executedQuery"`
    CreatedAt     time.Time `json:"createdAt"`
}

// JobRun is one recorded execution of the monthly report pipeline.
type JobRun struct {
    ID              string     `json:"id"`
    Trigger         string     `json:"trigger"`
    StartedAt       time.Time  `json:"startedAt"`
    FinishedAt      *time.Time `json:"finishedAt,omitempty"`
    BoardsProcessed int        `json:"boardsProcessed"`
    TasksExtracted  int        `json:"tasksExtracted"`
    Success         bool       `json:"success"`
    Error           string     `json:"error,omitempty"`
}
