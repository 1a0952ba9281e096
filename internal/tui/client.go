package tui

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

	"github.com/tidwall/gjson"

	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the taskboard API. It implements feed.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ feed.Backend = (*Client)(nil)

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// FetchPage fetches one page of tasks in a status.
func (c *Client) FetchPage(ctx context.Context, status models.TaskStatus, offset, pageSize int) (*models.TaskPage, error) {
	q := url.Values{}
	q.Set("status", string(status))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("page_size", strconv.Itoa(pageSize))

	var page models.TaskPage
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchCounts fetches the number of tasks per status.
func (c *Client) FetchCounts(ctx context.Context, statuses []models.TaskStatus) ([]models.StatusCount, error) {
	q := url.Values{}
	for _, st := range statuses {
		q.Add("status", string(st))
	}

	var resp models.CountsResponse
	if err := c.do(ctx, http.MethodGet, "/tasks/counts?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

// UpdateStatus moves a task to a new status with a comment.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus, comment string) (*models.Task, error) {
	body := models.UpdateStatusRequest{NewStatus: status, Comment: comment}
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "status"), body)
}

// UpdateComment replaces the comment of a task.
func (c *Client) UpdateComment(ctx context.Context, id int64, comment string) (*models.Task, error) {
	body := models.UpdateCommentRequest{Comment: comment}
	return c.taskCall(ctx, http.MethodPost, taskPath(id, "comment"), body)
}

// FetchTaskDetail fetches a single task
func (c *Client) FetchTaskDetail(ctx context.Context, id int64) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodGet, taskPath(id, ""), nil)
}

// CreateTask creates a new task
func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/tasks", req)
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	var health struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return false, err
	}
	return health.OK, nil
}

func taskPath(id int64, action string) string {
	p := "/tasks/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) taskCall(ctx context.Context, method, path string, body interface{}) (*models.Task, error) {
	var resp models.TaskResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Task == nil {
		return nil, fmt.Errorf("%w: %s", feed.ErrTransport, nonEmpty(resp.Message, "empty response"))
	}
	return resp.Task, nil
}

// do performs a JSON request and decodes a 2xx body into out. Failures are
// mapped onto the feed error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", feed.ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", feed.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", feed.ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", feed.ErrTransport, err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "message"); m.Exists() {
			msg = m.String()
		}
	}
	msg = nonEmpty(msg, http.StatusText(status))

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", feed.ErrNotFound, msg)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", feed.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: API error %d: %s", feed.ErrTransport, status, msg)
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
