package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Inserter writes one record to a table.
type Inserter interface {
	Insert(ctx context.Context, table string, record map[string]any) error
}

// Reviewer performs the review mutations on existing records.
type Reviewer interface {
	Update(ctx context.Context, table, id string, partial map[string]any) error
	Delete(ctx context.Context, table, id string) error
}

// Store is the full remote data store surface.
type Store interface {
	Inserter
	Reviewer
	Ping(ctx context.Context) error
	ProfileEmail(ctx context.Context, userID string) (string, error)
	List(ctx context.Context, query ListQuery) ([]Submission, error)
	Get(ctx context.Context, id string) (Record, error)
	Stats(ctx context.Context) (Stats, error)
}

// TokenSource supplies the bearer token for the signed-in operator.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Ensure both implementations satisfy Store at compile time.
var (
	_ Store = (*Client)(nil)
	_ Store = (*Postgres)(nil)
)

// Client talks to a PostgREST-compatible HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	tokens    TokenSource
	userAgent string
}

const (
	restPrefix       = "/rest/v1/"
	defaultUserAgent = "cadsocial/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the project at baseURL. tokens may be nil, in
// which case the API key is sent as the bearer token.
func NewClient(baseURL, apiKey string, tokens TokenSource) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		apiKey:    strings.TrimSpace(apiKey),
		tokens:    tokens,
		userAgent: defaultUserAgent,
	}, nil
}

// Insert adds record to table.
func (c *Client) Insert(ctx context.Context, table string, record map[string]any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: restPrefix + table}
	return c.doURL(ctx, http.MethodPost, rel, record, nil)
}

// Update applies partial to the row with id.
func (c *Client) Update(ctx context.Context, table, id string, partial map[string]any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id required")
	}
	rel := &url.URL{Path: restPrefix + table, RawQuery: eqQuery("id", id).Encode()}
	return c.doURL(ctx, http.MethodPatch, rel, partial, nil)
}

// Delete removes the row with id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id required")
	}
	rel := &url.URL{Path: restPrefix + table, RawQuery: eqQuery("id", id).Encode()}
	return c.doURL(ctx, http.MethodDelete, rel, nil, nil)
}

// Ping reports whether the API answers at all. Transport failures and 5xx
// responses count as unreachable; any other status proves the server is up.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(ctx, http.MethodHead, &url.URL{Path: restPrefix}, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// Check lets a Client act as a connectivity probe.
func (c *Client) Check(ctx context.Context) error {
	return c.Ping(ctx)
}

// ProfileEmail returns the e-mail on the profile of userID.
func (c *Client) ProfileEmail(ctx context.Context, userID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	values := eqQuery("id", userID)
	values.Set("select", "email")
	rel := &url.URL{Path: restPrefix + TableProfiles, RawQuery: values.Encode()}

	var rows []struct {
		Email string `json:"email"`
	}
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 || strings.TrimSpace(rows[0].Email) == "" {
		return "", ErrNotFound
	}
	return rows[0].Email, nil
}

// List fetches submissions newest first.
func (c *Client) List(ctx context.Context, query ListQuery) ([]Submission, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("select", submissionColumns)
	values.Set("order", "created_at.desc")
	if status := strings.TrimSpace(query.Status); status != "" {
		values.Set("status", "eq."+status)
	}
	if user := strings.TrimSpace(query.UserID); user != "" {
		values.Set("user_id", "eq."+user)
	}
	if term := searchTerm(query.Search); term != "" {
		pattern := "*" + term + "*"
		clauses := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			clauses[i] = col + ".ilike." + pattern
		}
		values.Set("or", "("+strings.Join(clauses, ",")+")")
	}
	if query.Limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", query.Limit))
	}
	if query.Offset > 0 {
		values.Set("offset", fmt.Sprintf("%d", query.Offset))
	}
	rel := &url.URL{Path: restPrefix + TableSubmissions, RawQuery: values.Encode()}

	var rows []Submission
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get fetches every column of one submission.
func (c *Client) Get(ctx context.Context, id string) (Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id required")
	}
	values := eqQuery("id", id)
	values.Set("select", "*")
	rel := &url.URL{Path: restPrefix + TableSubmissions, RawQuery: values.Encode()}

	var rows []Record
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Stats tallies every submission by status and by city.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	if c == nil {
		return Stats{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("select", "status,cidade,estado")
	rel := &url.URL{Path: restPrefix + TableSubmissions, RawQuery: values.Encode()}

	var rows []struct {
		Status string `json:"status"`
		Cidade string `json:"cidade"`
		Estado string `json:"estado"`
	}
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &rows); err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, row := range rows {
		stats.add(row.Status, row.Cidade, row.Estado, 1)
	}
	stats.finish()
	return stats, nil
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body any) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	bearer := c.apiKey
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("access token: %w", err)
		}
		if token != "" {
			bearer = token
		}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	req, err := c.newRequest(ctx, method, rel, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Details = body.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func eqQuery(column, value string) url.Values {
	values := url.Values{}
	values.Set(column, "eq."+value)
	return values
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("api url required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
