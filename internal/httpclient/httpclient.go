package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"apitree/internal/model"
)

type Result struct {
	StatusCode int
	Status     string
	Elapsed    time.Duration
	Body       []byte
}

type RequestSpec struct {
	Method  model.Method
	URL     string
	Headers map[string]string
	Body    []byte
}

// HasBody distinguishes "no payload" from an empty one.
func (r RequestSpec) HasBody() bool {
	return r.Body != nil
}

// JoinURL appends a request path (which may carry a query string) to the
// base URL with exactly one slash between them. The query is left as is.
func JoinURL(baseURL, requestPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(requestPath, "/")
}

// BuildRequest builds the outbound request for a selected path. The body is
// attached verbatim, and only when the method accepts one and it is non-empty.
func BuildRequest(baseURL string, method model.Method, requestPath, body string) RequestSpec {
	spec := RequestSpec{
		Method:  method,
		URL:     JoinURL(baseURL, requestPath),
		Headers: map[string]string{"Content-Type": "application/json"},
	}
	if method.AcceptsBody() && body != "" {
		spec.Body = []byte(body)
	}
	return spec
}

type Client struct {
	http *http.Client
}

// New returns a client. A zero timeout means requests may wait forever.
func New(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewWithHTTPClient wraps an existing client, e.g. one from httptest.
func NewWithHTTPClient(c *http.Client) *Client {
	return &Client{http: c}
}

// Execute sends the request and reads the whole body. Any HTTP status is a
// successful exchange; only transport and read failures are errors.
func (c *Client) Execute(ctx context.Context, reqSpec RequestSpec) (Result, error) {
	var body io.Reader
	if reqSpec.HasBody() {
		body = bytes.NewReader(reqSpec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, string(reqSpec.Method), reqSpec.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range reqSpec.Headers {
		if strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{Elapsed: elapsed}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	elapsed = time.Since(start)
	if err != nil {
		return Result{Elapsed: elapsed}, fmt.Errorf("reading response: %w", err)
	}

	return Result{StatusCode: resp.StatusCode, Status: resp.Status, Elapsed: elapsed, Body: b}, nil
}
