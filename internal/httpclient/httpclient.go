// Package httpclient is the HTTP layer shared by the remote clients.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/baffalop/watsup/internal/logging"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// StatusError describes a non-2xx response to a lookup.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, strings.TrimSpace(e.Body))
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// HTTPClient carries transport-level auth; nil means a default client.
	HTTPClient *http.Client
	// Decorate is applied to every request, e.g. to set basic auth.
	Decorate func(*http.Request)
	RetryMax int
	// RetryWaitMin is the first backoff step; zero means 500ms.
	RetryWaitMin time.Duration
	// RequestsPerSecond of zero disables the limiter.
	RequestsPerSecond float64
}

// Client sends requests relative to a base URL. GETs are retried on
// transport errors, 429 and 5xx; POSTs are sent exactly once.
type Client struct {
	baseURL  string
	retry    *retryablehttp.Client
	decorate func(*http.Request)
	limiter  *rate.Limiter
}

// New builds a Client from opts.
func New(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = logging.Leveled{}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	rc.RetryWaitMax = 10 * rc.RetryWaitMin
	rc.ErrorHandler = keepLastResponse
	if opts.HTTPClient != nil {
		rc.HTTPClient = opts.HTTPClient
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		retry:    rc,
		decorate: opts.Decorate,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		// Runs before every attempt, retries included.
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if err := c.wait(req.Context()); err != nil {
				logging.Log.Debugf("rate limiter, attempt %d: %v", attempt, err)
			}
		}
	}
	return c
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get fetches path and fails on transport errors or a non-2xx status.
func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Response{}, err
	}
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.retry.Do(rreq)
	res, err := read(resp, err)
	if err != nil {
		return Response{}, fmt.Errorf("GET %s: %w", req.URL, err)
	}
	if !res.OK() {
		return res, &StatusError{Method: http.MethodGet, URL: req.URL.String(), StatusCode: res.StatusCode, Body: res.Body}
	}
	return res, nil
}

// PostJSON sends body as JSON once. Any status is returned as a Response;
// only transport and encoding failures are errors.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("encoding request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.wait(ctx); err != nil {
		return Response{}, err
	}
	logging.Log.Debugf("POST %s %s", req.URL, data)
	res, err := read(c.retry.HTTPClient.Do(req))
	if err != nil {
		return Response{}, fmt.Errorf("POST %s: %w", req.URL, err)
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.decorate != nil {
		c.decorate(req)
	}
	return req, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// keepLastResponse hands the final response back once retries run out, so
// callers see the real status and body instead of a "giving up" error.
func keepLastResponse(resp *http.Response, err error, attempts int) (*http.Response, error) {
	if resp != nil {
		logging.Log.Debugf("giving up after %d attempts: %v", attempts, err)
		return resp, nil
	}
	return nil, err
}

func read(resp *http.Response, err error) (Response, error) {
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response body: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
