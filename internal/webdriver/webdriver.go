// Package webdriver is a small client for the W3C WebDriver protocol, as
// served by geckodriver and chromedriver. It covers only what the correction
// surface needs: sessions, navigation, CSS element lookup, clicks, text,
// key input and asynchronous scripts.
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// elementKey is the W3C web element identifier.
const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// KeyControl is the Control modifier for SendKeys. It stays pressed until the
// end of the SendKeys call.
const KeyControl = "\ue009"

// Error is a protocol error returned by the remote end.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("webdriver: %s (status %d): %s", e.Code, e.Status, e.Message)
}

// IsNoSuchElement reports whether err is a "no such element" error.
func IsNoSuchElement(err error) bool {
	var werr *Error
	return errors.As(err, &werr) && werr.Code == "no such element"
}

// Capabilities are sent as alwaysMatch capabilities on session creation.
type Capabilities map[string]any

// Browser returns capabilities selecting the named browser.
func Browser(name string) Capabilities {
	return Capabilities{"browserName": name}
}

type Session struct {
	baseURL string
	id      string
	client  *http.Client
}

// NewSession creates a session on the remote end at baseURL. client may be
// nil. The client must not carry a timeout: waiting for confirmation holds
// a request open for as long as the human needs.
func NewSession(ctx context.Context, baseURL string, caps Capabilities, client *http.Client) (*Session, error) {
	if client == nil {
		client = &http.Client{}
	}
	s := &Session{baseURL: strings.TrimRight(baseURL, "/"), client: client}

	body := map[string]any{
		"capabilities": map[string]any{"alwaysMatch": caps},
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := s.do(ctx, http.MethodPost, "/session", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("failed to create session: empty session id")
	}
	s.id = resp.SessionID
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) path(format string, args ...any) string {
	return "/session/" + url.PathEscape(s.id) + fmt.Sprintf(format, args...)
}

func (s *Session) Navigate(ctx context.Context, target string) error {
	return s.do(ctx, http.MethodPost, s.path("/url"), map[string]string{"url": target}, nil)
}

// SetScriptTimeout sets how long asynchronous scripts may run.
func (s *Session) SetScriptTimeout(ctx context.Context, d time.Duration) error {
	return s.do(ctx, http.MethodPost, s.path("/timeouts"), map[string]int64{"script": d.Milliseconds()}, nil)
}

// FindElement returns the first element matching the CSS selector.
func (s *Session) FindElement(ctx context.Context, css string) (*Element, error) {
	req := map[string]string{"using": "css selector", "value": css}
	var ref map[string]string
	if err := s.do(ctx, http.MethodPost, s.path("/element"), req, &ref); err != nil {
		return nil, fmt.Errorf("find %q: %w", css, err)
	}
	id := ref[elementKey]
	if id == "" {
		return nil, fmt.Errorf("find %q: no element reference in response", css)
	}
	return &Element{s: s, id: id}, nil
}

// ExecuteAsync runs script with args. The script completes by calling the
// callback passed as its last argument; the callback's argument is returned.
func (s *Session) ExecuteAsync(ctx context.Context, script string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	req := map[string]any{"script": script, "args": args}
	var out json.RawMessage
	if err := s.do(ctx, http.MethodPost, s.path("/execute/async"), req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseWindow closes the current browsing context.
func (s *Session) CloseWindow(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, s.path("/window"), nil, nil)
}

// Delete ends the session.
func (s *Session) Delete(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, s.path(""), nil, nil)
}

// Element is a reference to a web element of a session.
type Element struct {
	s  *Session
	id string
}

func (e *Element) ID() string { return e.id }

// path returns the endpoint for command on the element. Element ids are
// opaque and may contain reserved characters.
func (e *Element) path(command string) string {
	return e.s.path("/element/%s/%s", url.PathEscape(e.id), command)
}

func (e *Element) Click(ctx context.Context) error {
	return e.s.do(ctx, http.MethodPost, e.path("click"), struct{}{}, nil)
}

// Text returns the rendered text of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.s.do(ctx, http.MethodGet, e.path("text"), nil, &text); err != nil {
		return "", err
	}
	return text, nil
}

// SendKeys types keys into the element.
func (e *Element) SendKeys(ctx context.Context, keys string) error {
	return e.s.do(ctx, http.MethodPost, e.path("value"), map[string]string{"text": keys}, nil)
}

type envelope struct {
	Value json.RawMessage `json:"value"`
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var ev errorValue
		_ = json.Unmarshal(env.Value, &ev)
		if ev.Error == "" {
			ev.Error = "unknown error"
		}
		return &Error{Status: resp.StatusCode, Code: ev.Error, Message: ev.Message}
	}

	if out != nil && len(env.Value) > 0 {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return fmt.Errorf("failed to decode value: %w", err)
		}
	}
	return nil
}
