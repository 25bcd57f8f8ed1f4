// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/youthgov-queue/models"
)

const defaultTimeout = 15 * time.Second

// APIError is returned for non-2xx replies and success:false envelopes
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client talks to the validation queue API as one staff member
type Client struct {
	base     *url.URL
	http     *http.Client
	staffID  string
	staffKey string
}

// NewClient builds a client for baseURL. A zero timeout uses the default.
func NewClient(baseURL, staffID, staffKey string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		base:     base,
		http:     &http.Client{Timeout: timeout},
		staffID:  staffID,
		staffKey: staffKey,
	}, nil
}

// ListQuery mirrors the query parameters of GET /validation-queue.
// Zero values are omitted so the server defaults apply.
type ListQuery struct {
	Page       int
	Limit      int
	Search     string
	SortBy     string
	SortOrder  string
	Status     string
	Barangay   string
	VoterMatch string
	ScoreMin   *float64
	ScoreMax   *float64
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(key, val)
		}
	}
	set("search", q.Search)
	set("sortBy", q.SortBy)
	set("sortOrder", q.SortOrder)
	set("status", q.Status)
	set("barangay", q.Barangay)
	set("voterMatch", q.VoterMatch)
	if q.ScoreMin != nil {
		v.Set("scoreMin", strconv.FormatFloat(*q.ScoreMin, 'f', -1, 64))
	}
	if q.ScoreMax != nil {
		v.Set("scoreMax", strconv.FormatFloat(*q.ScoreMax, 'f', -1, 64))
	}
	return v
}

// Page is one page of queue items
type Page struct {
	Items      []models.ValidationQueueItem
	Pagination models.Pagination
}

type envelope[T any] struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Error      string             `json:"error"`
	Data       T                  `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
}

// do sends one request and decodes the success envelope into T
func do[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (envelope[T], error) {
	var out envelope[T]

	endpoint := c.base.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return out, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.staffID != "" {
		req.Header.Set("X-Staff-ID", c.staffID)
		req.Header.Set("X-Staff-Key", c.staffKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return out, decodeError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = out.Error
		}
		return out, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return out, nil
}

func decodeError(status int, raw []byte) error {
	var payload models.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil {
		msg := payload.Message
		if msg == "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: status, Message: msg}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
}

// List fetches one page of the queue
func (c *Client) List(ctx context.Context, q ListQuery) (Page, error) {
	resp, err := do[[]models.ValidationQueueItem](ctx, c, http.MethodGet, "/validation-queue", q.values(), nil)
	if err != nil {
		return Page{}, err
	}
	page := Page{Items: resp.Data}
	if resp.Pagination != nil {
		page.Pagination = *resp.Pagination
	}
	return page, nil
}

func (c *Client) Get(ctx context.Context, id string) (models.ValidationQueueItem, error) {
	resp, err := do[models.ValidationQueueItem](ctx, c, http.MethodGet, "/validation-queue/"+url.PathEscape(id), nil, nil)
	return resp.Data, err
}

func (c *Client) Stats(ctx context.Context) (models.QueueStats, error) {
	resp, err := do[models.QueueStats](ctx, c, http.MethodGet, "/validation-queue/stats", nil, nil)
	return resp.Data, err
}

func (c *Client) CompletedToday(ctx context.Context) ([]models.ValidationQueueItem, error) {
	resp, err := do[[]models.ValidationQueueItem](ctx, c, http.MethodGet, "/validation-queue/completed-today", nil, nil)
	return resp.Data, err
}

// Validate approves or rejects one item
func (c *Client) Validate(ctx context.Context, id string, req models.ValidateRequest) (models.ValidateResult, error) {
	resp, err := do[models.ValidateResult](ctx, c, http.MethodPatch, "/validation-queue/"+url.PathEscape(id)+"/validate", nil, req)
	return resp.Data, err
}

// BulkValidate applies one decision to a list of items
func (c *Client) BulkValidate(ctx context.Context, req models.BulkValidateRequest) (models.BulkValidateResult, error) {
	resp, err := do[models.BulkValidateResult](ctx, c, http.MethodPatch, "/validation-queue/bulk-validate", nil, req)
	return resp.Data, err
}

// Reassign completes a mismatched item against a new or the matched profile
func (c *Client) Reassign(ctx context.Context, id string, req models.ReassignRequest) (models.ReassignResult, error) {
	resp, err := do[models.ReassignResult](ctx, c, http.MethodPost, "/validation-queue/"+url.PathEscape(id)+"/reassign", nil, req)
	return resp.Data, err
}

func (c *Client) LogExport(ctx context.Context, req models.ExportLogRequest) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodPost, "/validation-queue/export", nil, req)
	return err
}

func (c *Client) ExportHistory(ctx context.Context) ([]models.ActivityLog, error) {
	resp, err := do[[]models.ActivityLog](ctx, c, http.MethodGet, "/validation-queue/export", nil, nil)
	return resp.Data, err
}

func (c *Client) Me(ctx context.Context) (models.Staff, error) {
	resp, err := do[models.Staff](ctx, c, http.MethodGet, "/staff/me", nil, nil)
	return resp.Data, err
}
