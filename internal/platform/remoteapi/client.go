package remoteapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Client wraps the HTTP surface of the remote backend. Every call carries a
// timeout and every failure is normalized into the storeerr taxonomy before
// it reaches a caller; nothing in this package hangs or leaks wire details.
type Client struct {
	log *logger.Logger
	rc  *resty.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("remote base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		log: log.With("client", "RemoteAPIClient"),
		rc:  rc,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// errorBody is the error envelope the server surface emits.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	var eb errorBody
	req.SetError(&eb)

	resp, err := req.Execute(method, path)
	if err != nil {
		return storeerr.New(storeerr.KindBackendUnavailable, "",
			fmt.Errorf("%s %s: %w", method, path, err))
	}
	if resp.IsError() {
		return c.normalize(method, path, resp.StatusCode(), &eb)
	}
	return nil
}

func (c *Client) normalize(method, path string, status int, eb *errorBody) error {
	kind := storeerr.Kind(eb.Error.Kind)
	switch kind {
	case storeerr.KindNotFound, storeerr.KindConstraintViolation, storeerr.KindInvalidTransition:
		// server already classified it
	default:
		switch status {
		case http.StatusNotFound:
			kind = storeerr.KindNotFound
		case http.StatusConflict:
			kind = storeerr.KindConstraintViolation
		case http.StatusUnprocessableEntity:
			kind = storeerr.KindInvalidTransition
		default:
			kind = storeerr.KindBackendUnavailable
		}
	}

	msg := strings.TrimSpace(eb.Error.Message)
	if msg == "" {
		msg = fmt.Sprintf("http %d", status)
	}
	return storeerr.New(kind, eb.Error.Code,
		fmt.Errorf("%s %s: %s", method, path, msg))
}
