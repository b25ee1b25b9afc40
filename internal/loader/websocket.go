package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ProtocolError is an error object returned by the browser for a CDP call
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *ProtocolError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// Message is a Chrome DevTools Protocol frame. Requests carry ID, Method and
// Params; responses carry ID and Result or Error; events carry Method only.
type Message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params any             `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ProtocolError  `json:"error,omitempty"`
}

// Client is a CDP connection to a browser or page websocket. Calls are
// serialized; events received while waiting for a reply are dropped.
type Client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int64
}

// Dial opens a CDP websocket
func Dial(ctx context.Context, wsURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WebSocket %s: %w", wsURL, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying websocket
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends method with params and decodes the reply into result,
// which may be nil.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	var deadline time.Time
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	// unblock the read below when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteJSON(Message{ID: id, Method: method, Params: params}); err != nil {
		return c.callErr(ctx, method, fmt.Errorf("failed to send WebSocket message: %w", err))
	}

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return c.callErr(ctx, method, fmt.Errorf("failed to read WebSocket response: %w", err))
		}
		if msg.ID != id {
			continue
		}
		if msg.Error != nil {
			return fmt.Errorf("%s: %w", method, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("%s: failed to decode result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *Client) callErr(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", method, ctxErr)
	}
	return fmt.Errorf("%s: %w", method, err)
}

// WindowForTarget returns the id of the window holding the target.
// Only valid on a browser-level connection.
func (c *Client) WindowForTarget(ctx context.Context, targetID string) (int, error) {
	var res struct {
		WindowID int `json:"windowId"`
	}
	params := map[string]any{"targetId": targetID}
	if err := c.Call(ctx, "Browser.getWindowForTarget", params, &res); err != nil {
		return 0, err
	}
	return res.WindowID, nil
}

// EvaluateString evaluates a JavaScript expression in the page and returns
// its string value. Only valid on a page-level connection.
func (c *Client) EvaluateString(ctx context.Context, expression string) (string, error) {
	var res struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
	}
	if err := c.Call(ctx, "Runtime.evaluate", params, &res); err != nil {
		return "", err
	}
	if res.ExceptionDetails != nil {
		return "", fmt.Errorf("Runtime.evaluate: exception: %s", res.ExceptionDetails.Text)
	}
	if res.Result.Type != "string" {
		return "", fmt.Errorf("Runtime.evaluate: expected string result, got %s", res.Result.Type)
	}

	var s string
	if err := json.Unmarshal(res.Result.Value, &s); err != nil {
		return "", fmt.Errorf("Runtime.evaluate: failed to decode value: %w", err)
	}
	return s, nil
}
