// Package remote talks to the remote input agent over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Rixmerz/MultiComputer/internal/geometry"
)

// DefaultPort is the port the agent listens on when the address names none.
const DefaultPort = 5000

// SessionHeader carries the per-connection session ID.
const SessionHeader = "X-Session-ID"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 4096

// Link sends messages to the remote agent.
type Link interface {
	Send(ctx context.Context, msg Message) error
}

// Client is an HTTP Link bound to one agent address.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// Ensure Client implements Link.
var _ Link = (*Client)(nil)

// AgentStatus is the agent's /status report.
type AgentStatus struct {
	Status       string  `json:"status"`
	Server       string  `json:"server,omitempty"`
	LastActivity float64 `json:"last_activity,omitempty"`
	Uptime       float64 `json:"uptime,omitempty"`
}

type screenResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
	Screen  geometry.Surface `json:"screen"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BaseURL normalizes a user-entered address into an http URL.
// Accepted forms are "host", "host:port" and a full http(s) URL.
func BaseURL(addr string, defaultPort int) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("server address is required")
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		u, err := url.Parse(addr)
		if err != nil {
			return "", fmt.Errorf("invalid server address %q: %w", addr, err)
		}
		if u.Host == "" {
			return "", fmt.Errorf("invalid server address %q: missing host", addr)
		}
		return strings.TrimRight(u.String(), "/"), nil
	}
	if strings.ContainsAny(addr, "/?#") {
		return "", fmt.Errorf("invalid server address %q", addr)
	}
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return "http://" + addr, nil
	}
	return "http://" + net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(defaultPort)), nil
}

// NewClient returns a client for baseURL. A nil httpClient uses a client without a timeout.
func NewClient(baseURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		http:      httpClient,
	}
}

// BaseURL returns the agent URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID returns the per-connection ID sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Ping checks reachability. Any non-2xx answer is an error.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, PathPing, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Screen fetches the remote screen size.
func (c *Client) Screen(ctx context.Context) (geometry.Surface, error) {
	resp, err := c.do(ctx, http.MethodGet, PathScreen, nil)
	if err != nil {
		return geometry.Surface{}, err
	}
	defer resp.Body.Close()

	var out screenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geometry.Surface{}, fmt.Errorf("remote %s: decode: %w", PathScreen, err)
	}
	if out.Status != "success" {
		return geometry.Surface{}, &StatusError{Endpoint: PathScreen, Code: resp.StatusCode, Message: out.Message}
	}
	if !out.Screen.Valid() {
		return geometry.Surface{}, fmt.Errorf("remote %s: invalid size %dx%d", PathScreen, out.Screen.Width, out.Screen.Height)
	}
	return out.Screen, nil
}

// Status fetches the agent status report.
func (c *Client) Status(ctx context.Context) (AgentStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, PathStatus, nil)
	if err != nil {
		return AgentStatus{}, err
	}
	defer resp.Body.Close()

	var out AgentStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return AgentStatus{}, fmt.Errorf("remote %s: decode: %w", PathStatus, err)
	}
	return out, nil
}

// Send posts msg to the agent.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg.Body)
	if err != nil {
		return fmt.Errorf("remote %s: encode: %w", msg.Endpoint, err)
	}
	resp, err := c.do(ctx, http.MethodPost, msg.Endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do performs one request and maps failures onto TransportError or StatusError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("remote %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return resp, nil
}

// readErrorMessage extracts the agent's message field, falling back to the raw body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(data))
}
