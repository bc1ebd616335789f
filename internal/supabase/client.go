// Package supabase stores access records through the Supabase REST (PostgREST) API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"brincafacil/entity"
	"brincafacil/lib/sl"
)

type Config struct {
	URL            string
	ServiceRoleKey string
	UsersTable     string
	PaymentsTable  string
	Timeout        time.Duration
}

type Client struct {
	baseURL       string
	key           string
	usersTable    string
	paymentsTable string
	http          *http.Client
	log           *slog.Logger
}

func New(conf Config, log *slog.Logger) (*Client, error) {
	if conf.URL == "" || conf.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase: url and service role key are required")
	}
	if conf.UsersTable == "" {
		conf.UsersTable = "users"
	}
	if conf.PaymentsTable == "" {
		conf.PaymentsTable = "payments"
	}
	if conf.Timeout == 0 {
		conf.Timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:       strings.TrimRight(conf.URL, "/") + "/rest/v1/",
		key:           conf.ServiceRoleKey,
		usersTable:    conf.UsersTable,
		paymentsTable: conf.PaymentsTable,
		http:          &http.Client{Timeout: conf.Timeout},
		log:           log.With(sl.Module("supabase")),
	}
	c.log.With(
		slog.String("url", conf.URL),
		sl.Secret("service_role_key", conf.ServiceRoleKey),
	).Info("supabase client initialized")
	return c, nil
}

// apiError keeps the response body out of the message returned to HTTP callers; it is logged instead.
type apiError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase status %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("supabase status %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, prefer string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(payload, apiErr)
		c.log.With(
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Msg),
		).Warn("supabase error response")
		return apiErr
	}
	if out != nil && len(payload) > 0 {
		if err = json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type accessRow struct {
	Email         string    `json:"email"`
	AccessGranted bool      `json:"access_granted"`
	Source        string    `json:"source,omitempty"`
	LastStatus    string    `json:"last_status"`
	SaleId        string    `json:"sale_id,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r accessRow) record() *entity.UserAccessRecord {
	return &entity.UserAccessRecord{
		Email:         r.Email,
		AccessGranted: r.AccessGranted,
		Source:        entity.Source(r.Source),
		LastStatus:    r.LastStatus,
		SaleId:        r.SaleId,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type upsertRow struct {
	Email         string    `json:"email"`
	AccessGranted bool      `json:"access_granted"`
	LastStatus    string    `json:"last_status"`
	SaleId        string    `json:"sale_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpsertAccess posts with on_conflict=email and merge-duplicates, so PostgREST issues
// INSERT ... ON CONFLICT DO UPDATE. source and created_at are left to the first insert:
// source is set by a follow-up PATCH only when the stored value is NULL or empty.
func (c *Client) UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error) {
	row := upsertRow{
		Email:         rec.Email,
		AccessGranted: rec.AccessGranted,
		LastStatus:    rec.LastStatus,
		SaleId:        rec.SaleId,
		UpdatedAt:     time.Now().UTC(),
	}
	var rows []accessRow
	err := c.do(ctx, http.MethodPost, c.usersTable, url.Values{"on_conflict": {"email"}}, []upsertRow{row},
		"resolution=merge-duplicates,return=representation", &rows)
	if err != nil {
		return nil, fmt.Errorf("upsert access: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("upsert access: empty representation")
	}
	stored := rows[0]
	if stored.Source == "" && rec.Source != "" {
		var patched []accessRow
		q := url.Values{"email": {"eq." + rec.Email}, "or": {"(source.is.null,source.eq.)"}}
		err = c.do(ctx, http.MethodPatch, c.usersTable, q, map[string]string{"source": string(rec.Source)},
			"return=representation", &patched)
		if err != nil {
			return nil, fmt.Errorf("set access source: %w", err)
		}
		if len(patched) > 0 {
			stored = patched[0]
		}
	}
	return stored.record(), nil
}

func (c *Client) GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error) {
	var rows []accessRow
	q := url.Values{"email": {"eq." + email}, "select": {"*"}, "limit": {"1"}}
	if err := c.do(ctx, http.MethodGet, c.usersTable, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("get access: %w", err)
	}
	if len(rows) == 0 {
		return nil, entity.ErrNotFound
	}
	return rows[0].record(), nil
}

type paymentRow struct {
	Id         string                 `json:"id"`
	SaleId     string                 `json:"sale_id"`
	Email      string                 `json:"email"`
	Status     string                 `json:"status"`
	Source     string                 `json:"source"`
	RawPayload map[string]interface{} `json:"raw_payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func (c *Client) AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error {
	row := paymentRow{
		Id:         rec.Id,
		SaleId:     rec.SaleId,
		Email:      rec.Email,
		Status:     rec.Status,
		Source:     string(rec.Source),
		RawPayload: rec.RawPayload,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
	if err := c.do(ctx, http.MethodPost, c.paymentsTable, nil, row, "return=minimal", nil); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (c *Client) PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{
		"email": {"eq." + email},
		"order": {"created_at.desc"},
		"limit": {strconv.Itoa(limit)},
	}
	var rows []paymentRow
	if err := c.do(ctx, http.MethodGet, c.paymentsTable, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	logs := make([]*entity.PaymentLogRecord, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, &entity.PaymentLogRecord{
			Id:         r.Id,
			SaleId:     r.SaleId,
			Email:      r.Email,
			Status:     r.Status,
			Source:     entity.Source(r.Source),
			RawPayload: r.RawPayload,
			CreatedAt:  r.CreatedAt,
		})
	}
	return logs, nil
}

func (c *Client) Close() {}
