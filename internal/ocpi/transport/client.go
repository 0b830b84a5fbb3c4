package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	ocpi "chargenet-cloud/internal/ocpi/domain"
)

const defaultTimeout = 30 * time.Second

// Response is the decoded result of one OCPI call.
type Response struct {
	HTTPStatus int
	Envelope   ocpi.Envelope
	Header     http.Header
}

// Client issues authenticated requests against one remote OCPI platform.
// It never retries; failures propagate to the caller, which decides whether
// to count them into a batch tally or fail hard.
type Client struct {
	token  string
	client *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// NewClient constructs a transport client for one endpoint token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("transport: empty endpoint token")
	}
	c := &Client{
		token:  token,
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET against the given URL.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, rawURL string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, rawURL string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, rawURL, body)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, rawURL string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, rawURL, body)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &ocpi.TransportError{Op: method, URL: rawURL, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &ocpi.TransportError{Op: method, URL: rawURL, Err: err}
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ocpi.TransportError{Op: method, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ocpi.TransportError{Op: method, URL: rawURL, HTTPStatus: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &ocpi.TransportError{Op: method, URL: rawURL, HTTPStatus: resp.StatusCode}
	}

	var envelope ocpi.Envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, &ocpi.TransportError{Op: method, URL: rawURL, HTTPStatus: resp.StatusCode, Err: err}
		}
	}
	out := &Response{HTTPStatus: resp.StatusCode, Envelope: envelope, Header: resp.Header}
	if !envelope.StatusCode.IsSuccess() {
		return out, &ocpi.StatusError{Code: envelope.StatusCode, Message: envelope.StatusMessage}
	}
	return out, nil
}

// Decode unmarshals the envelope payload into target.
func (r *Response) Decode(target any) error {
	if r == nil || len(r.Envelope.Data) == 0 {
		return errors.New("transport: empty response data")
	}
	return json.Unmarshal(r.Envelope.Data, target)
}

// WithPageSize adds the explicit page-size parameters to a URL. Every
// paginated call carries them so the remote never picks the window.
func WithPageSize(rawURL string, offset, limit int) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
