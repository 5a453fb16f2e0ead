package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Overview is the admin analytics summary.
type Overview struct {
	TotalUsers          int     `json:"total_users"`
	NewUsers            int     `json:"new_users"`
	ActiveUsers         int     `json:"active_users"`
	CompletedQuests     int     `json:"completed_quests"`
	CompletionRate      float64 `json:"completion_rate"`
	AvgCompletionTime   float64 `json:"avg_completion_time"` // seconds
	PromoCodesGenerated int     `json:"promo_codes_generated"`
	PromoUsageRate      float64 `json:"promo_usage_rate"`
}

// User is one row of the admin user listing.
type User struct {
	ID                 int64     `json:"id"`
	TelegramID         string    `json:"telegram_id"`
	Username           string    `json:"username"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	CreatedAt          time.Time `json:"created_at"`
	QuestCompleted     bool      `json:"quest_completed"`
	GeneratedPromoCode *string   `json:"generated_promo_code"`
	LastActivity       time.Time `json:"last_activity"`
}

// UsersQuery filters the user listing.
type UsersQuery struct {
	Skip          int
	Limit         int
	Search        string
	CompletedOnly bool
}

// Export is a server-side user export.
type Export struct {
	Filename string          `json:"filename"`
	Data     json.RawMessage `json:"data"`
}

// CSV returns the export body when the server produced CSV text.
func (e Export) CSV() (string, error) {
	var s string
	if err := json.Unmarshal(e.Data, &s); err != nil {
		return "", fmt.Errorf("export is not csv: %w", err)
	}
	return s, nil
}

// AdminClient reads the admin endpoints with HTTP basic auth.
type AdminClient struct {
	c        *Client
	user     string
	password string
}

func NewAdminClient(c *Client, user, password string) *AdminClient {
	return &AdminClient{c: c, user: user, password: password}
}

func (a *AdminClient) auth(r *http.Request) {
	if a.user != "" || a.password != "" {
		r.SetBasicAuth(a.user, a.password)
	}
}

// Overview fetches the summary for the last days days.
func (a *AdminClient) Overview(ctx context.Context, days int) (Overview, error) {
	if days <= 0 {
		days = 7
	}
	var out Overview
	err := a.c.send(ctx, http.MethodGet, "/api/v1/admin/analytics/overview?days="+strconv.Itoa(days), nil, &out, a.auth)
	return out, err
}

// Users lists players.
func (a *AdminClient) Users(ctx context.Context, q UsersQuery) ([]User, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.CompletedOnly {
		v.Set("completed_only", "true")
	}
	var out struct {
		Users []User `json:"users"`
	}
	if err := a.c.send(ctx, http.MethodGet, "/api/v1/admin/users?"+v.Encode(), nil, &out, a.auth); err != nil {
		return nil, err
	}
	if out.Users == nil {
		return nil, fmt.Errorf("%w: missing users list", ErrMalformedResponse)
	}
	return out.Users, nil
}

// ExportUsers asks the server for a user export in format (csv or json).
func (a *AdminClient) ExportUsers(ctx context.Context, format string) (Export, error) {
	if format == "" {
		format = "csv"
	}
	var out Export
	err := a.c.send(ctx, http.MethodGet, "/api/v1/admin/export/users?format="+url.QueryEscape(format), nil, &out, a.auth)
	return out, err
}
