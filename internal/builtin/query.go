package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultProxyURL is the query proxy endpoint used when none is configured.
	DefaultProxyURL = "http://database-proxy.intelcave.com/api/query"

	// DefaultQueryTimeout bounds a proxy round trip.
	DefaultQueryTimeout = 60 * time.Second

	maxProxyBodyBytes = 10 << 20
)

// ErrMutatingQuery rejects a query containing a denylisted keyword.
var ErrMutatingQuery = errors.New("only SELECT queries are allowed")

var mutatingKeywords = map[string]struct{}{
	"insert":   {},
	"update":   {},
	"delete":   {},
	"alter":    {},
	"create":   {},
	"drop":     {},
	"truncate": {},
	"grant":    {},
	"revoke":   {},
}

// CheckReadOnly scans the whitespace separated tokens of query and rejects it
// when any token, compared case-insensitively, is a mutating keyword.
func CheckReadOnly(query string) error {
	for _, tok := range strings.Fields(query) {
		if _, bad := mutatingKeywords[strings.ToLower(tok)]; bad {
			return ErrMutatingQuery
		}
	}
	return nil
}

// QueryOutcome describes a proxy round trip.
type QueryOutcome struct {
	Body     json.RawMessage
	Rejected bool
	TimedOut bool
	Err      error
	Duration time.Duration
}

// Failed reports whether the outcome carries no result body.
func (o QueryOutcome) Failed() bool {
	return o.Rejected || o.TimedOut || o.Err != nil
}

// QueryClient forwards read-only queries to the database proxy.
type QueryClient struct {
	Endpoint string
	HTTP     *http.Client
	Timeout  time.Duration
}

// NewQueryClient returns a client for endpoint, falling back to the defaults
// for empty or zero arguments.
func NewQueryClient(endpoint string, timeout time.Duration, httpClient *http.Client) *QueryClient {
	if endpoint == "" {
		endpoint = DefaultProxyURL
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &QueryClient{Endpoint: endpoint, HTTP: httpClient, Timeout: timeout}
}

type proxyRequest struct {
	ConnectionString string `json:"connectionString"`
	Query            string `json:"query"`
}

// Run checks query against the denylist and, when it passes, posts it with
// the connection string to the proxy. A rejected query never reaches the network.
func (c *QueryClient) Run(ctx context.Context, connectionString, query string) QueryOutcome {
	start := time.Now()
	if err := CheckReadOnly(query); err != nil {
		return QueryOutcome{Rejected: true, Err: err}
	}

	out := c.post(ctx, connectionString, query)
	out.Duration = time.Since(start)
	return out
}

func (c *QueryClient) post(ctx context.Context, connectionString, query string) QueryOutcome {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(proxyRequest{ConnectionString: connectionString, Query: query})
	if err != nil {
		return QueryOutcome{Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return QueryOutcome{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return failure(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBodyBytes))
	if err != nil {
		return failure(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return QueryOutcome{Err: fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), c.Endpoint)}
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return QueryOutcome{Err: errors.New("proxy returned a non-JSON response")}
	}
	return QueryOutcome{Body: json.RawMessage(body)}
}

// failure classifies a transport error. Deadline expiry of the request
// context, or a net.Error reporting a timeout, counts as a timeout unless the
// caller's own context ended first.
func failure(parent context.Context, err error) QueryOutcome {
	if parent.Err() != nil {
		return QueryOutcome{Err: parent.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return QueryOutcome{TimedOut: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return QueryOutcome{TimedOut: true, Err: err}
	}
	return QueryOutcome{Err: err}
}
