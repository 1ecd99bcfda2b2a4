// Package remote is the HTTP client for the project API. It is the only
// writer of durable state; the local cache is rebuilt from its reads.
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
	"strconv"
	"strings"
	"time"

	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/types"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRPS     = 5
	defaultBurst   = 5
	maxBodyBytes   = 8 << 20
)

// TokenSource supplies the bearer credential for each call.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client talks to the project API.
type Client struct {
	baseURL *url.URL
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	c := &Client{
		baseURL: u,
		tokens:  tokens,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(defaultRPS, defaultBurst),
		logger:  logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("remote")
	return c, nil
}

// ListProjects reads every project of the current identity. The explicit
// "No projects found" message yields an empty slice and no error.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	body, err := c.do(ctx, "list_projects", http.MethodGet, "/projects", nil, nil)
	if err != nil {
		return nil, err
	}
	envs, dropped, err := types.DecodeList(body)
	if err != nil {
		return nil, fmt.Errorf("list_projects: %w: %w", ErrDataShape, err)
	}
	return c.toProjects(ctx, envs, dropped), nil
}

// GetProject reads one project by id.
func (c *Client) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	q := url.Values{"projectId": {projectID}}
	body, err := c.do(ctx, "get_project", http.MethodGet, "/project", q, nil)
	if err != nil {
		return model.Project{}, err
	}
	env, dropped, err := types.DecodeEnvelope(body)
	if err != nil {
		return model.Project{}, fmt.Errorf("get_project: %w: %w", ErrDataShape, err)
	}
	ps := c.toProjects(ctx, []types.ProjectEnvelope{env}, dropped)
	return ps[0], nil
}

// CreateProject submits a new project with its criteria schema.
func (c *Client) CreateProject(ctx context.Context, draft model.ProjectDraft) error {
	_, err := c.do(ctx, "create_project", http.MethodPost, "/project", nil, types.FromDraft(draft))
	return err
}

// AddEntry appends a scored house to a project.
func (c *Client) AddEntry(ctx context.Context, projectID string, entry model.Entry) error {
	q := url.Values{"projectId": {projectID}}
	_, err := c.do(ctx, "add_entry", http.MethodPut, "/project", q, types.FromEntry(entry))
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	token, ok := c.tokens.Token(ctx)
	if !ok || token == "" {
		metrics.RecordRemoteRequest(op, "no_token", 0)
		return nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}

	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRemoteRequest(op, "network_error", metrics.SinceMillis(start))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordRemoteRequest(op, strconv.Itoa(resp.StatusCode), metrics.SinceMillis(start))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w: %w", op, ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the message of an error body, falling back to the
// trimmed raw text.
func errorMessage(body []byte) string {
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	var m types.Message
	if err := json.Unmarshal(body, &m); err == nil && m.Message != "" {
		return m.Message
	}
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// toProjects converts decoded envelopes and reports every skipped payload
// item, both from decoding and from conversion.
func (c *Client) toProjects(ctx context.Context, envs []types.ProjectEnvelope, dropped types.Dropped) []model.Project {
	out := make([]model.Project, 0, len(envs))
	for _, env := range envs {
		p, d := types.ToProject(env)
		dropped.Add(d)
		out = append(out, p)
	}
	if !dropped.Any() {
		return out
	}
	for kind, n := range map[string]int{
		"project":   dropped.Projects,
		"criterion": dropped.Criteria,
		"entry":     dropped.Entries,
		"note":      dropped.Notes,
		"score":     dropped.Scores,
	} {
		for i := 0; i < n; i++ {
			metrics.RecordDroppedPayloadItem(kind)
		}
	}
	c.logger.Warn(ctx, "skipped malformed payload items",
		logger.Int("projects", dropped.Projects),
		logger.Int("criteria", dropped.Criteria),
		logger.Int("entries", dropped.Entries),
		logger.Int("notes", dropped.Notes),
		logger.Int("scores", dropped.Scores),
	)
	return out
}
