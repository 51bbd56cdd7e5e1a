// Package api is the REST client for the IssueX backend. Responses use a
// {success, data, message} envelope; failures carry the HTTP status and the
// backend's message so callers can branch on them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"issuex/models"
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// IsUserNotFound reports the specific 401 the backend returns while an
// account is still provisioning.
func IsUserNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized && se.Message == "user not found"
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client talks to the IssueX backend. The bearer token is optional; set it
// after login and clear it on sign-out.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

// New returns a client for the given base URL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

// SetToken installs the bearer credential used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer credential.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (json.RawMessage, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	data, err := c.do(ctx, http.MethodGet, path, query, "", nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	data, err := c.do(ctx, method, path, nil, "application/json", body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/api/health", nil, nil)
}

// IssueQuery parameterizes a feed fetch.
type IssueQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Status   string
	Category string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// IssuePage is one page of feed results.
type IssuePage struct {
	Issues      []models.Issue `json:"issues"`
	TotalIssues int            `json:"totalIssues"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

// ListIssues fetches the feed for the given parameters.
func (c *Client) ListIssues(ctx context.Context, q IssueQuery) (*IssuePage, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(q.Lng, 'f', -1, 64))
	query.Set("radius", strconv.FormatFloat(q.RadiusKm, 'f', -1, 64))
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Sort != "" {
		query.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var page IssuePage
	if err := c.getJSON(ctx, "/api/issues", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateIssueInput carries a new issue report.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Severity    string
	Anonymous   bool
	Location    models.Location
	Images      []Upload
}

// Upload is an in-memory file attachment.
type Upload struct {
	Name string
	Data []byte
}

// CreateIssue submits a new issue as multipart/form-data.
func (c *Client) CreateIssue(ctx context.Context, in CreateIssueInput) (*models.Issue, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"category":    in.Category,
		"severity":    in.Severity,
		"anonymous":   strconv.FormatBool(in.Anonymous),
	}
	locJSON, err := json.Marshal(in.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}
	fields["location"] = string(locJSON)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	for _, img := range in.Images {
		part, err := w.CreateFormFile("images", img.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to attach image: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, fmt.Errorf("failed to write image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/api/issues", nil, w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	var issue models.Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssueInput carries a partial issue edit.
type UpdateIssueInput struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Severity    *string          `json:"severity,omitempty"`
	Status      *string          `json:"status,omitempty"`
	Location    *models.Location `json:"location,omitempty"`
}

// UpdateIssue edits an issue and returns the authoritative record.
func (c *Client) UpdateIssue(ctx context.Context, id string, in UpdateIssueInput) (*models.Issue, error) {
	var issue models.Issue
	if err := c.sendJSON(ctx, http.MethodPut, "/api/issues/"+id, in, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// DeleteIssue removes an issue.
func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/issues/"+id, nil, nil)
}

// Vote casts, switches or toggles off a vote and returns the authoritative
// record with server-computed aggregates.
func (c *Client) Vote(ctx context.Context, id, voteType string) (*models.Issue, error) {
	in := map[string]string{"voteType": voteType}
	var issue models.Issue
	if err := c.sendJSON(ctx, http.MethodPost, "/api/issues/"+id+"/vote", in, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Follow toggles following an issue.
func (c *Client) Follow(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	if err := c.sendJSON(ctx, http.MethodPost, "/api/issues/"+id+"/follow", nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Flag reports an issue.
func (c *Client) Flag(ctx context.Context, id, reason string) (*models.Issue, error) {
	in := map[string]string{"reason": reason}
	var issue models.Issue
	if err := c.sendJSON(ctx, http.MethodPost, "/api/issues/"+id+"/flag", in, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Reverse resolves coordinates through the backend geocode proxy. Satisfies
// geo.Resolver so the proxy can head a fallback chain.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var out struct {
		Address string `json:"address"`
	}
	if err := c.getJSON(ctx, "/api/geocode/reverse", query, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

// Forward resolves an address through the backend geocode proxy. A 404
// means not found and yields a nil location.
func (c *Client) Forward(ctx context.Context, address string) (*models.Location, error) {
	query := url.Values{}
	query.Set("address", address)

	var loc models.Location
	err := c.getJSON(ctx, "/api/geocode/forward", query, &loc)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// LoginResult is the login response payload.
type LoginResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	in := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	in := map[string]string{"name": name, "email": email, "password": password}
	var user models.User
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/register", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the confirmed profile for the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits name and profile picture.
func (c *Client) UpdateProfile(ctx context.Context, name, profilePicture *string) (*models.User, error) {
	in := map[string]interface{}{}
	if name != nil {
		in["name"] = *name
	}
	if profilePicture != nil {
		in["profilePicture"] = *profilePicture
	}
	var user models.User
	if err := c.sendJSON(ctx, http.MethodPut, "/api/auth/profile", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePreferences replaces notification preferences.
func (c *Client) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	return c.sendJSON(ctx, http.MethodPut, "/api/auth/preferences", prefs, nil)
}
