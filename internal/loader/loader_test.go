package loader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestLoadTabs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/list" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":"A1","type":"page","title":"Example","url":"https://example.com/","webSocketDebuggerUrl":"ws://x/devtools/page/A1"},
			{"id":"W1","type":"service_worker","title":"sw","url":"https://example.com/sw.js"}
		]`))
	}))
	defer srv.Close()

	l := NewHTTPTabLoader(srv.URL+"/json/list", time.Second, nil)
	tabs, err := l.LoadTabs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(tabs))
	}
	if tabs[0].ID != "A1" || tabs[0].Title != "Example" || tabs[0].WebSocketDebuggerURL != "ws://x/devtools/page/A1" {
		t.Errorf("unexpected first tab: %+v", tabs[0])
	}
	if !tabs[0].IsPage() || tabs[1].IsPage() {
		t.Error("IsPage misclassified targets")
	}
}

func TestLoadTabsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json/list" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := NewHTTPTabLoader(srv.URL+"/json/list", time.Second, nil).LoadTabs(context.Background()); err == nil {
		t.Error("expected error for 500")
	}
	if _, err := NewHTTPTabLoader(srv.URL+"/other", time.Second, nil).LoadTabs(context.Background()); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Browser":"Chrome/120.0","Protocol-Version":"1.3","webSocketDebuggerUrl":"ws://localhost:9222/devtools/browser/xyz"}`))
	}))
	defer srv.Close()

	v, err := Version(context.Background(), srv.URL+"/", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if v.Browser != "Chrome/120.0" || v.WebSocketDebuggerURL != "ws://localhost:9222/devtools/browser/xyz" {
		t.Errorf("unexpected version: %+v", v)
	}
}

// fakeCDP answers each request with reply(method, params). A nil result
// with a non-nil error becomes a CDP error object. An event is sent before
// every reply to exercise event skipping.
func fakeCDP(t *testing.T, reply func(method string, params json.RawMessage) (any, *ProtocolError)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req struct {
				ID     int64           `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			_ = conn.WriteJSON(map[string]any{"method": "Target.targetInfoChanged", "params": map[string]any{}})
			result, perr := reply(req.Method, req.Params)
			resp := map[string]any{"id": req.ID}
			if perr != nil {
				resp["error"] = perr
			} else {
				resp["result"] = result
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientWindowForTarget(t *testing.T) {
	srv := fakeCDP(t, func(method string, params json.RawMessage) (any, *ProtocolError) {
		if method != "Browser.getWindowForTarget" {
			return nil, &ProtocolError{Code: -32601, Message: "method not found"}
		}
		var p struct {
			TargetID string `json:"targetId"`
		}
		_ = json.Unmarshal(params, &p)
		if p.TargetID == "A1" {
			return map[string]any{"windowId": 7, "bounds": map[string]any{}}, nil
		}
		return nil, &ProtocolError{Code: -32000, Message: "No target with given id found"}
	})
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	id, err := c.WindowForTarget(context.Background(), "A1")
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Errorf("expected window 7, got %d", id)
	}

	_, err = c.WindowForTarget(context.Background(), "missing")
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if perr.Code != -32000 {
		t.Errorf("unexpected code %d", perr.Code)
	}
}

func TestClientEvaluateString(t *testing.T) {
	srv := fakeCDP(t, func(method string, params json.RawMessage) (any, *ProtocolError) {
		var p struct {
			Expression string `json:"expression"`
		}
		_ = json.Unmarshal(params, &p)
		switch p.Expression {
		case "document.title":
			return map[string]any{"result": map[string]any{"type": "string", "value": "Hello"}}, nil
		case "1+1":
			return map[string]any{"result": map[string]any{"type": "number", "value": 2}}, nil
		default:
			return map[string]any{
				"result":           map[string]any{"type": "object"},
				"exceptionDetails": map[string]any{"text": "Uncaught ReferenceError"},
			}, nil
		}
	})
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	s, err := c.EvaluateString(ctx, "document.title")
	if err != nil {
		t.Fatal(err)
	}
	if s != "Hello" {
		t.Errorf("expected Hello, got %q", s)
	}
	if _, err := c.EvaluateString(ctx, "1+1"); err == nil {
		t.Error("expected error for non-string result")
	}
	if _, err := c.EvaluateString(ctx, "nope()"); err == nil {
		t.Error("expected error for exception")
	}
}

func TestClientCallCancelled(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// never reply
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err = c.Call(ctx, "Browser.getVersion", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/devtools/browser"); err == nil {
		t.Error("expected dial error")
	}
}
