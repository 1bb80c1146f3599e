package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/common"
)

const defaultTimeout = 15 * time.Second

type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu     sync.RWMutex
	tokens TokenSource
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetTokenSource attaches the credential provider after construction; the
// session store and the client reference each other.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *HTTPClient) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

type call struct {
	method string
	path   string
	query  url.Values
	in     any
	out    any
	// public requests carry no credential and map 401 to ErrAuth.
	public bool
}

// do issues the call, renewing the credential once if the server reports
// it expired. Any credential failure left after that invalidates the
// local session and is returned as fatal.
func (c *HTTPClient) do(ctx context.Context, cl call) error {
	var body []byte
	if cl.in != nil {
		b, err := sonic.ConfigStd.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", cl.method, cl.path, err)
		}
		body = b
	}

	err := c.roundTrip(ctx, cl, body)
	if cl.public {
		return err
	}

	ts := c.tokenSource()
	se, ok := sessionExpired(err)
	if !ok || ts == nil {
		return err
	}

	if se.Cause == CauseExpired {
		if rerr := ts.Renew(ctx); rerr != nil {
			return rerr
		}
		err = c.roundTrip(ctx, cl, body)
		if _, ok := sessionExpired(err); !ok {
			return err
		}
	}

	ts.Invalidate(ctx)
	return ForcedLogout(err)
}

func (c *HTTPClient) roundTrip(ctx context.Context, cl call, body []byte) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.public {
		if ts := c.tokenSource(); ts != nil {
			if tok := ts.Token(); tok != "" {
				req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
			}
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(raw) > 0 {
			_ = sonic.ConfigStd.Unmarshal(raw, &eb)
		}
		return mapError(resp.StatusCode, eb, !cl.public)
	}

	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return &APIError{Status: resp.StatusCode, Kind: ErrServer, Message: "malformed response", Err: err}
	}
	return nil
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	var s models.Session
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", public: true,
		in: credentials{Name: name, Email: email, Password: password}, out: &s})
	return s, err
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.Session, error) {
	var s models.Session
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", public: true,
		in: credentials{Email: email, Password: password}, out: &s})
	return s, err
}

// Refresh exchanges the current credential for a new one. It never
// retries itself.
func (c *HTTPClient) Refresh(ctx context.Context) (models.Session, error) {
	var s models.Session
	err := c.roundTrip(ctx, call{method: http.MethodPost, path: "/auth/refresh", out: &s}, nil)
	return s, err
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.roundTrip(ctx, call{method: http.MethodPost, path: "/auth/logout"}, nil)
}

func (c *HTTPClient) ListBoards(ctx context.Context) ([]models.Board, error) {
	var out []models.Board
	err := c.do(ctx, call{method: http.MethodGet, path: "/boards", out: &out})
	return out, err
}

func (c *HTTPClient) GetBoard(ctx context.Context, boardID string) (models.Board, error) {
	var out models.Board
	err := c.do(ctx, call{method: http.MethodGet, path: "/boards/" + url.PathEscape(boardID), out: &out})
	return out, err
}

func (c *HTTPClient) CreateBoard(ctx context.Context, title string) (models.Board, error) {
	var out models.Board
	err := c.do(ctx, call{method: http.MethodPost, path: "/boards",
		in: map[string]string{"title": title}, out: &out})
	return out, err
}

func (c *HTTPClient) ListCollaborators(ctx context.Context, boardID string) ([]models.Collaborator, error) {
	var out []models.Collaborator
	err := c.do(ctx, call{method: http.MethodGet,
		path: "/boards/" + url.PathEscape(boardID) + "/collaborators", out: &out})
	return out, err
}

func (c *HTTPClient) Invite(ctx context.Context, boardID, email string) (models.Collaborator, error) {
	var out models.Collaborator
	err := c.do(ctx, call{method: http.MethodPost,
		path: "/boards/" + url.PathEscape(boardID) + "/invite",
		in:   map[string]string{"email": email}, out: &out})
	return out, err
}

func (c *HTTPClient) ListTasks(ctx context.Context, boardID string) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, call{method: http.MethodGet, path: "/tasks",
		query: url.Values{"boardId": {boardID}}, out: &out})
	return out, err
}

func (c *HTTPClient) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	var out models.Task
	err := c.do(ctx, call{method: http.MethodPost, path: "/tasks", in: in, out: &out})
	return out, err
}

func (c *HTTPClient) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error) {
	var out models.Task
	patch.ID = ""
	patch.Version = 0
	err := c.do(ctx, call{method: http.MethodPut, path: "/tasks/" + url.PathEscape(taskID),
		in: patch, out: &out})
	return out, err
}

func (c *HTTPClient) AssignTask(ctx context.Context, taskID, userID string) (models.Task, error) {
	var out models.Task
	err := c.do(ctx, call{method: http.MethodPut, path: "/tasks/" + url.PathEscape(taskID) + "/assign",
		in: map[string]string{"assignedTo": userID}, out: &out})
	return out, err
}

func (c *HTTPClient) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/tasks/" + url.PathEscape(taskID)})
}

func (c *HTTPClient) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var out []models.Comment
	err := c.do(ctx, call{method: http.MethodGet, path: "/comments",
		query: url.Values{"taskId": {taskID}}, out: &out})
	return out, err
}

func (c *HTTPClient) AddComment(ctx context.Context, taskID, content string) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, call{method: http.MethodPost, path: "/comments",
		in: map[string]string{"content": content, "taskId": taskID}, out: &out})
	return out, err
}
