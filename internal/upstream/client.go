package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/metrics"
	"github.com/tidwall/gjson"
)

const GenericFailure = "An unexpected error occurred"

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks JSON to the HR backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = internal.DefaultUpstreamTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type call struct {
	op       string
	method   string
	path     string
	token    string
	query    url.Values
	body     interface{}
	fallback string
	// notFound replaces the backend message on a 404.
	notFound string
}

// do sends the call and returns the raw body of a 2xx response. Any other outcome is an
// AppError carrying the backend status and its message, or the call's fallback.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return nil, internal.NewInternalError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	fallback := cl.fallback
	if fallback == "" {
		fallback = GenericFailure
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(cl.op, 0, time.Since(start))
		c.logger.Error("upstream request failed", "op", cl.op, "method", cl.method, "path", cl.path, "error", err)
		return nil, internal.NewUpstreamError(http.StatusBadGateway, fallback, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(cl.op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internal.NewUpstreamError(http.StatusBadGateway, fallback, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := errorMessage(body, fallback)
		if resp.StatusCode == http.StatusNotFound && cl.notFound != "" {
			message = cl.notFound
		}
		c.logger.Warn("upstream rejected request",
			"op", cl.op,
			"status", resp.StatusCode,
			"message", message)
		return nil, internal.NewUpstreamError(resp.StatusCode, message,
			fmt.Errorf("%s %s: status %d", cl.method, cl.path, resp.StatusCode))
	}
	return body, nil
}

// decode runs the call and unmarshals the value at path ("" for the whole body) into v.
func (c *Client) decode(ctx context.Context, cl call, path string, v interface{}) error {
	body, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	return unmarshalAt(body, path, v)
}

func unmarshalAt(body []byte, path string, v interface{}) error {
	raw := body
	if path != "" {
		res := gjson.GetBytes(body, path)
		if !res.Exists() || res.Type == gjson.Null {
			return nil
		}
		raw = []byte(res.Raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return internal.NewUpstreamError(http.StatusBadGateway, "Unexpected response from HR backend", err)
	}
	return nil
}

// errorMessage pulls the backend's message out of an error body.
func errorMessage(body []byte, fallback string) string {
	for _, path := range []string{"message", "error.message", "error"} {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && strings.TrimSpace(res.Str) != "" {
			return res.Str
		}
	}
	return fallback
}

func message(body []byte) string {
	return gjson.GetBytes(body, "message").String()
}

func userPath(id string, suffix string) string {
	return "/users/" + url.PathEscape(id) + suffix
}
