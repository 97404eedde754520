package cohortgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Client talks to a talent match server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ScoreSummary is the part of a scoring response the client reports on.
type ScoreSummary struct {
	RunID       string                    `json:"run_id"`
	RoleVersion int                       `json:"role_version"`
	Ranked      []model.MatchResult       `json:"ranked"`
	Rejected    []*loader.ValidationError `json:"rejected"`
	Failures    []struct {
		EmployeeID string `json:"employee_id"`
		Error      string `json:"error"`
	} `json:"failures"`
	Pattern *model.SuccessPattern `json:"pattern,omitempty"`
}

// RankingPage is one page of a published ranking.
type RankingPage struct {
	RoleVersion int                 `json:"role_version"`
	Results     []model.MatchResult `json:"results"`
	Page        struct {
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"page"`
}

// apiError mirrors the server's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// RegisterRole posts a role definition.
func (c *Client) RegisterRole(ctx context.Context, role loader.RoleRecord) (model.RoleProfile, error) {
	var out model.RoleProfile
	err := c.do(ctx, http.MethodPost, "/roles", role, http.StatusCreated, &out)
	return out, err
}

// Score scores records inline against roleID.
func (c *Client) Score(ctx context.Context, roleID string, records []loader.EmployeeRecord, policy string) (ScoreSummary, error) {
	body := struct {
		Policy    string                  `json:"policy,omitempty"`
		Employees []loader.EmployeeRecord `json:"employees"`
	}{Policy: policy, Employees: records}
	var out ScoreSummary
	err := c.do(ctx, http.MethodPost, "/roles/"+url.PathEscape(roleID)+"/score", body, http.StatusOK, &out)
	return out, err
}

// Ranking fetches one page of the ranking of roleID.
func (c *Client) Ranking(ctx context.Context, roleID string, page, limit int) (RankingPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var out RankingPage
	err := c.do(ctx, http.MethodGet, "/roles/"+url.PathEscape(roleID)+"/ranking?"+q.Encode(), nil, http.StatusOK, &out)
	return out, err
}

// Pattern fetches the success pattern of roleID. topQuantile 0 uses the server default.
func (c *Client) Pattern(ctx context.Context, roleID string, topQuantile float64) (model.SuccessPattern, error) {
	path := "/roles/" + url.PathEscape(roleID) + "/pattern"
	if topQuantile > 0 {
		path += "?top_quantile=" + strconv.FormatFloat(topQuantile, 'f', -1, 64)
	}
	var out model.SuccessPattern
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != want {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Code != "" {
			return fmt.Errorf("%w: %s %s: %d %s: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, ae.Code, ae.Message)
		}
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
