package liveconnect

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

	"golang.org/x/oauth2"
)

const (
	defaultUserAgent = "skydrive-go/0.1"
	contentTypeJSON  = "application/json"
)

// Client issues typed calls against the Live Connect REST API. Every call
// first runs Engine.EnsureAuthenticated, then sends the request with the
// current access token in the query string.
//
// A Client is not meant for concurrent use: callers serialize their calls.
type Client struct {
	engine     *Engine
	tokens     oauth2.TokenSource
	apiBase    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient reads the config from store and returns a Client with a fresh,
// unauthenticated Engine.
func NewClient(store ConfigStore, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	engine, err := NewEngine(store, opts)
	if err != nil {
		return nil, err
	}

	return newClient(engine, opts), nil
}

func newClient(engine *Engine, opts Options) *Client {
	return &Client{
		engine:     engine,
		tokens:     oauth2.ReuseTokenSource(nil, engine),
		apiBase:    strings.TrimRight(opts.Endpoints.APIBase, "/"),
		httpClient: opts.HTTPClient,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
	}
}

// Engine returns the credential engine behind the client.
func (c *Client) Engine() *Engine {
	return c.engine
}

// GetString returns the body of a GET on path as text.
func (c *Client) GetString(ctx context.Context, path string) (string, error) {
	data, err := c.GetBytes(ctx, path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// GetJSON decodes the body of a GET on path into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	data, err := c.GetBytes(ctx, path)
	if err != nil {
		return err
	}

	return decodeJSON(path, data, out)
}

// GetBytes returns the raw body of a GET on path.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("liveconnect: reading response for %s: %w", path, err)
	}

	return data, nil
}

// PutString sends body to path and decodes the JSON reply into out (which
// may be nil). An empty method means PUT; an empty contentType sends none.
func (c *Client) PutString(ctx context.Context, path, body, contentType, method string, out any) error {
	if method == "" {
		method = http.MethodPut
	}

	resp, err := c.do(ctx, method, path, strings.NewReader(body), contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("liveconnect: reading response for %s: %w", path, err)
	}

	return decodeJSON(path, data, out)
}

// PutJSON encodes in as JSON, sends it to path with PutString, and decodes
// the reply into out.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any, method string) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("liveconnect: encoding request for %s: %w", path, err)
	}

	return c.PutString(ctx, path, string(data), contentTypeJSON, method, out)
}

// PutBytes uploads data to path with PUT. The reply must be UTF-8 JSON;
// anything else fails with ErrInvalidResponse.
func (c *Client) PutBytes(ctx context.Context, path string, data []byte, contentType string, out any) error {
	resp, err := c.do(ctx, http.MethodPut, path, bytes.NewReader(data), contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !isUTF8JSON(ct) {
		return fmt.Errorf("liveconnect: expected UTF-8 JSON reply from %s, received %q: %w", path, ct, ErrInvalidResponse)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("liveconnect: reading response for %s: %w", path, err)
	}

	return decodeJSON(path, body, out)
}

// Get is the generic form of GetJSON.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.GetJSON(ctx, path, &out)

	return out, err
}

// Put is the generic form of PutJSON. An empty method means PUT.
func Put[T, U any](ctx context.Context, c *Client, path string, in T, method string) (U, error) {
	var out U
	err := c.PutJSON(ctx, path, in, &out, method)

	return out, err
}

// do authenticates, sends one request, and classifies non-2xx replies with
// the API error shape. The caller closes the body on success.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.engine.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("liveconnect: creating request: %w", err)
	}

	// Headers live on the request, so a content type never outlives its call.
	req.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("liveconnect: %s %s: %w", method, path, redactURLError(err, c.apiBase+"/"+path))
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = nil
	}

	classified := classifyFailure(resp, errBody, shapeAPI)

	c.logger.Debug("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("error", classified.Error()),
	)

	return nil, classified
}

// APITemplate returns the API URL template with the current access token
// filled in. "{0}" stands for the resource path.
func (c *Client) APITemplate(ctx context.Context) (string, error) {
	if err := c.engine.EnsureAuthenticated(ctx); err != nil {
		return "", err
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("liveconnect: access token: %w", err)
	}

	return c.apiBase + "/{0}?access_token=" + url.QueryEscape(tok.AccessToken), nil
}

// apiURL substitutes path and the current access token into the API template.
func (c *Client) apiURL(path string) string {
	return c.apiBase + "/" + strings.TrimLeft(path, "/") + "?access_token=" + url.QueryEscape(c.engine.accessToken())
}

func decodeJSON(path string, data []byte, out any) error {
	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("liveconnect: decoding response for %s: %w", path, err)
	}

	return nil
}
