/* Copyright (c) 2025 timereport-backend authors
 * SPDX-License-Identifier: BSD-3-Clause */
package monday

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog"
    "golang.org/x/time/rate"

    "github.com/zeeshan-atrule/timereport-backend/internal/config"
    "github.com/zeeshan-atrule/timereport-backend/internal/domain"
)

// Client speaks the board service's GraphQL API. Credentials are per board,
// so every call takes the token explicitly instead of holding one.
type Client struct {
    apiURL  string
    http    *http.Client
    limiter *rate.Limiter
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    rps := cfg.RatePerSecond
    if rps <= 0 { rps = 5 }
    return &Client{
        apiURL:  cfg.BoardAPIURL,
        http:    &http.Client{ Timeout: cfg.HTTPTimeout },
        limiter: rate.NewLimiter(rate.Limit(rps), rps),
        log:     log,
    }
}

// Execute posts one GraphQL document and returns the decoded "data" object.
// Retries on 429/5xx with backoff; a GraphQL-level error is terminal.
func (c *Client) Execute(ctx context.Context, query, token string) (map[string]any, error) {
    if c.apiURL == "" { return nil, errors.New("monday: empty api url") }
    if token == "" { return nil, errors.New("monday: empty token") }
    body, err := json.Marshal(map[string]string{"query": query})
    if err != nil { return nil, err }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        if err := c.limiter.Wait(ctx); err != nil { return nil, err }
        req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(string(body)))
        if err != nil { return nil, err }
        req.Header.Set("Content-Type", "application/json")
        req.Header.Set("Authorization", token)
        resp, err := c.http.Do(req)
        if err != nil { lastErr = err } else {
            b, _ := io.ReadAll(resp.Body)
            resp.Body.Close()
            if resp.StatusCode >= 300 {
                if resp.StatusCode == 429 || resp.StatusCode >= 500 {
                    lastErr = fmt.Errorf("monday api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                } else {
                    return nil, fmt.Errorf("monday api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                }
            } else {
                var out struct {
                    Data   map[string]any   `json:"data"`
                    Errors []map[string]any `json:"errors"`
                    ErrMsg string           `json:"error_message"`
                }
                if err := json.Unmarshal(b, &out); err != nil { return nil, err }
                if out.ErrMsg != "" { return nil, fmt.Errorf("monday api error: %s", out.ErrMsg) }
                if len(out.Errors) > 0 {
                    msg, _ := out.Errors[0]["message"].(string)
                    return nil, fmt.Errorf("monday api error: %s", msg)
                }
                return out.Data, nil
            }
        }
        // backoff
        time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
    }
    return nil, lastErr
}

// BoardMeta fetches a board's columns and groups in one query.
func (c *Client) BoardMeta(ctx context.Context, token string, boardID int64) ([]domain.BoardColumn, []domain.BoardGroup, error) {
    q := fmt.Sprintf(`query { boards(ids: [%d]) { columns { id title type } groups { id title } } }`, boardID)
    data, err := c.Execute(ctx, q, token)
    if err != nil { return nil, nil, err }
    board := firstBoard(data)
    if board == nil { return nil, nil, fmt.Errorf("monday: board %d not found", boardID) }
    var cols []domain.BoardColumn
    if arr, ok := board["columns"].([]any); ok {
        for _, c0 := range arr {
            if m, _ := c0.(map[string]any); m != nil {
                cols = append(cols, domain.BoardColumn{
                    ID:    str(m["id"]),
                    Title: str(m["title"]),
                    Type:  str(m["type"]),
                })
            }
        }
    }
    var groups []domain.BoardGroup
    if arr, ok := board["groups"].([]any); ok {
        for _, g0 := range arr {
            if m, _ := g0.(map[string]any); m != nil {
                groups = append(groups, domain.BoardGroup{ID: str(m["id"]), Title: str(m["title"])})
            }
        }
    }
    return cols, groups, nil
}

// GroupItems lists item refs in one group, first page only.
func (c *Client) GroupItems(ctx context.Context, token string, boardID int64, groupID string, limit int) ([]domain.ItemRef, error) {
    if limit <= 0 { limit = 500 }
    q := fmt.Sprintf(`query { boards(ids: [%d]) { groups(ids: [%s]) { items_page(limit: %d) { items { id name } } } } }`,
        boardID, strconv.Quote(groupID), limit)
    data, err := c.Execute(ctx, q, token)
    if err != nil { return nil, err }
    board := firstBoard(data)
    if board == nil { return nil, nil }
    groups, _ := board["groups"].([]any)
    if len(groups) == 0 { return nil, nil }
    g, _ := groups[0].(map[string]any)
    page, _ := g["items_page"].(map[string]any)
    items, _ := page["items"].([]any)
    out := make([]domain.ItemRef, 0, len(items))
    for _, it0 := range items {
        if m, _ := it0.(map[string]any); m != nil {
            out = append(out, domain.ItemRef{ID: str(m["id"]), Name: str(m["name"])})
        }
    }
    return out, nil
}

// CreateItem creates an item in a group and returns its id.
func (c *Client) CreateItem(ctx context.Context, token string, boardID int64, groupID, name string) (string, error) {
    q := fmt.Sprintf(`mutation { create_item(board_id: %d, group_id: %s, item_name: %s) { id } }`,
        boardID, strconv.Quote(groupID), strconv.Quote(name))
    data, err := c.Execute(ctx, q, token)
    if err != nil { return "", err }
    m, _ := data["create_item"].(map[string]any)
    id := str(m["id"])
    if id == "" { return "", errors.New("monday: create_item returned no id") }
    return id, nil
}

// ChangeColumnValues writes multiple column values on an item. The values map
// is serialized to JSON and embedded in the mutation as an escaped string.
func (c *Client) ChangeColumnValues(ctx context.Context, token string, boardID int64, itemID string, values map[string]any) error {
    b, err := json.Marshal(values)
    if err != nil { return err }
    q := fmt.Sprintf(`mutation { change_multiple_column_values(board_id: %d, item_id: %s, column_values: %s) { id } }`,
        boardID, itemID, strconv.Quote(string(b)))
    _, err = c.Execute(ctx, q, token)
    return err
}

// Subitems lists an item's subitems.
func (c *Client) Subitems(ctx context.Context, token, itemID string) ([]domain.ItemRef, error) {
    q := fmt.Sprintf(`query { items(ids: [%s]) { subitems { id name } } }`, itemID)
    data, err := c.Execute(ctx, q, token)
    if err != nil { return nil, err }
    items, _ := data["items"].([]any)
    if len(items) == 0 { return nil, nil }
    it, _ := items[0].(map[string]any)
    subs, _ := it["subitems"].([]any)
    out := make([]domain.ItemRef, 0, len(subs))
    for _, s0 := range subs {
        if m, _ := s0.(map[string]any); m != nil {
            out = append(out, domain.ItemRef{ID: str(m["id"]), Name: str(m["name"])})
        }
    }
    return out, nil
}

// ArchiveItem archives an item (or subitem).
func (c *Client) ArchiveItem(ctx context.Context, token, itemID string) error {
    q := fmt.Sprintf(`mutation { archive_item(item_id: %s) { id } }`, itemID)
    _, err := c.Execute(ctx, q, token)
    return err
}

// CreateSubitem creates a subitem under a parent item with column values.
func (c *Client) CreateSubitem(ctx context.Context, token, parentID, name string, values map[string]any) (string, error) {
    b, err := json.Marshal(values)
    if err != nil { return "", err }
    q := fmt.Sprintf(`mutation { create_subitem(parent_item_id: %s, item_name: %s, column_values: %s) { id } }`,
        parentID, strconv.Quote(name), strconv.Quote(string(b)))
    data, err := c.Execute(ctx, q, token)
    if err != nil { return "", err }
    m, _ := data["create_subitem"].(map[string]any)
    return str(m["id"]), nil
}

func firstBoard(data map[string]any) map[string]any {
    boards, _ := data["boards"].([]any)
    if len(boards) == 0 { return nil }
    b, _ := boards[0].(map[string]any)
    return b
}

// str renders a JSON scalar as a string. Ids arrive as JSON numbers on some
// fields, so float64 must format without an exponent.
func str(v any) string {
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
