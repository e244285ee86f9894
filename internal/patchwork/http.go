package patchwork

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
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// ClientConfig holds the connection parameters for an HTTPClient.
// Passed in explicitly; the client never reads ambient global state.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://patchwork.example.org/api".
	BaseURL string

	// Token authenticates requests when non-empty
	// (sent as "Authorization: Token <token>").
	Token string

	// Timeout bounds each request. Zero means defaultTimeout.
	Timeout time.Duration

	// Logger receives per-request debug lines. Zero value logs nothing.
	Logger zerolog.Logger
}

// HTTPClient talks JSON over HTTP to a patch-tracking server.
// Not safe for concurrent use; the pipeline issues sequential calls.
type HTTPClient struct {
	base  *url.URL
	token string
	hc    *http.Client
	log   zerolog.Logger
}

// NewHTTPClient builds a client from explicit connection parameters.
func NewHTTPClient(cfg ClientConfig) (*HTTPClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		base:  base,
		token: cfg.Token,
		hc:    &http.Client{Timeout: timeout},
		log:   cfg.Logger,
	}, nil
}

// listPatchesResponse is the wire shape of a patch listing page.
type listPatchesResponse struct {
	Patches []Raw `json:"patches"`
	HasMore bool  `json:"has_more"`
}

// ListPatches implements Client.
func (c *HTTPClient) ListPatches(ctx context.Context, params map[string]string, page int) ([]Raw, bool, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	query.Set("page", strconv.Itoa(page))

	var resp listPatchesResponse

	if err := c.getJSON(ctx, "patches", query, &resp); err != nil {
		return nil, false, &RemoteError{Op: "list patches", Err: err}
	}

	c.log.Debug().
		Int("page", page).
		Int("records", len(resp.Patches)).
		Bool("has_more", resp.HasMore).
		Msg("fetched patch page")

	return resp.Patches, resp.HasMore, nil
}

// GetPatch implements Client.
func (c *HTTPClient) GetPatch(ctx context.Context, id int) (Raw, error) {
	var raw Raw

	err := c.getJSON(ctx, "patches/"+strconv.Itoa(id), nil, &raw)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}

		return nil, &RemoteError{Op: "get patch", Err: err}
	}

	return raw, nil
}

// UpdatePatch implements Client.
func (c *HTTPClient) UpdatePatch(ctx context.Context, id int, fields UpdateFields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "patches/"+strconv.Itoa(id), nil, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Op: "update patch", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &RemoteError{Op: "update patch", Err: err}
	}
	defer drainClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: "update patch", Err: statusError(resp)}
	}

	c.log.Debug().Int("id", id).Msg("updated patch")

	return nil
}

// GetMbox implements Client.
func (c *HTTPClient) GetMbox(ctx context.Context, id int) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "patches/"+strconv.Itoa(id)+"/mbox", nil, nil)
	if err != nil {
		return "", &RemoteError{Op: "get mbox", Err: err}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", &RemoteError{Op: "get mbox", Err: err}
	}
	defer drainClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &RemoteError{Op: "get mbox", Err: statusError(resp)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteError{Op: "get mbox", Err: err}
	}

	return string(data), nil
}

// ListProjects implements Client.
func (c *HTTPClient) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project

	if err := c.getJSON(ctx, "projects", nil, &projects); err != nil {
		return nil, &RemoteError{Op: "list projects", Err: err}
	}

	return projects, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)

	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	c.log.Debug().Str("method", method).Str("url", u.String()).Msg("remote call")

	return req, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// notFoundError tags a 404 so getJSON callers can map it to ErrNotFound.
type notFoundError struct {
	status string
}

func (e *notFoundError) Error() string {
	return "server returned " + e.status
}

func isNotFound(err error) bool {
	var nf *notFoundError

	return errors.As(err, &nf)
}

func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{status: resp.Status}
	}

	return fmt.Errorf("server returned %s", resp.Status)
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
