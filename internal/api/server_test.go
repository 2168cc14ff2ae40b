package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/javen-yan/miot-agent/internal/audit"
	"github.com/javen-yan/miot-agent/internal/infrastructure/config"
	"github.com/javen-yan/miot-agent/internal/infrastructure/logging"
	"github.com/javen-yan/miot-agent/internal/tool"
)

type mockDevice struct {
	connected bool
	devices   int
}

func (m mockDevice) Connected() bool  { return m.connected }
func (m mockDevice) DeviceCount() int { return m.devices }

type mockHistory struct {
	filter audit.Filter
	result *audit.ListResult
	err    error
}

func (m *mockHistory) Create(context.Context, *audit.ToolCall) error { return nil }

func (m *mockHistory) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	m.filter = filter
	return m.result, m.err
}

var errLampOffline = errors.New("lamp offline")

func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	tools := []tool.Tool{
		{
			Name:        "echo",
			Description: "Echo text",
			Category:    "util",
			Parameters:  []tool.Parameter{{Name: "text", Type: jsonschema.String, Required: true}},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				return map[string]any{"text": args["text"]}, nil
			},
		},
		{
			Name:        "toggle",
			Description: "Toggle the lamp",
			Category:    "mijia",
			Handler: func(context.Context, map[string]any) (any, error) {
				return nil, errLampOffline
			},
		},
	}
	for _, tl := range tools {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("Register(%s) error = %v", tl.Name, err)
		}
	}
	return reg
}

// testServer creates a Server backed by a small real registry.
func testServer(t *testing.T, history audit.Repository) *Server {
	t.Helper()

	reg := testRegistry(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "discard"}, "test")

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:   log,
		Executor: reg,
		Catalog:  reg,
		Device:   mockDevice{connected: true, devices: 3},
		History:  history,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return rec, decoded
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() with no logger error = nil, want error")
	}
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() with no executor error = nil, want error")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil)

	rec, body := do(t, srv, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" || body["version"] != "test" || body["tools"] != 2.0 {
		t.Errorf("health = %v", body)
	}
	dev := body["device"].(map[string]any)
	if dev["connected"] != true || dev["devices"] != 3.0 {
		t.Errorf("device = %v", dev)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	srv := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}

func TestListTools(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		name  string
		path  string
		count float64
		first string
	}{
		{"all", "/api/v1/tools", 2, "echo"},
		{"by category", "/api/v1/tools?category=mijia", 1, "toggle"},
		{"unknown category", "/api/v1/tools?category=none", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, srv, http.MethodGet, tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if body["count"] != tt.count {
				t.Errorf("count = %v, want %v", body["count"], tt.count)
			}
			tools := body["tools"].([]any)
			if len(tools) != int(tt.count) {
				t.Fatalf("len(tools) = %d, want %v", len(tools), tt.count)
			}
			if tt.first == "" {
				return
			}
			first := tools[0].(map[string]any)
			if first["name"] != tt.first {
				t.Errorf("first tool = %v, want %s", first["name"], tt.first)
			}
			if params, ok := first["parameters"].(map[string]any); !ok || params["type"] != "object" {
				t.Errorf("parameters = %v, want object schema", first["parameters"])
			}
		})
	}
}

func TestOpenAIToolsAndCategories(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools/openai", nil))
	var exported []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &exported); err != nil {
		t.Fatalf("decoding openai export: %v", err)
	}
	if len(exported) != 2 || exported[0]["type"] != "function" {
		t.Errorf("openai export = %v", exported)
	}

	_, body := do(t, srv, http.MethodGet, "/api/v1/categories", "")
	cats := body["categories"].([]any)
	if len(cats) != 2 || cats[0] != "util" || cats[1] != "mijia" {
		t.Errorf("categories = %v, want [util mijia]", cats)
	}
}

func TestExecuteTool(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		success any
		errPart string
	}{
		{"success", "/api/v1/tools/echo/execute", `{"text":"hi"}`, http.StatusOK, true, ""},
		{"handler failure", "/api/v1/tools/toggle/execute", ``, http.StatusOK, false, "lamp offline"},
		{"invalid arguments", "/api/v1/tools/echo/execute", `{}`, http.StatusBadRequest, false, "text"},
		{"bad body", "/api/v1/tools/echo/execute", `[1,2]`, http.StatusBadRequest, nil, "JSON object"},
		{"unknown tool", "/api/v1/tools/missing/execute", `{}`, http.StatusNotFound, nil, "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, srv, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if body["success"] != tt.success {
				t.Errorf("success = %v, want %v", body["success"], tt.success)
			}
			if tt.success != nil && body["tool_name"] == nil {
				t.Errorf("envelope missing tool_name: %v", body)
			}
			if tt.errPart != "" && !strings.Contains(rec.Body.String(), tt.errPart) {
				t.Errorf("body = %s, want it to mention %q", rec.Body.String(), tt.errPart)
			}
		})
	}

	_, body := do(t, srv, http.MethodPost, "/api/v1/tools/echo/execute", `{"text":"hi"}`)
	if result := body["result"].(map[string]any); result["text"] != "hi" {
		t.Errorf("result = %v, want text hi", result)
	}
}

func TestExecuteTool_BodyTooLarge(t *testing.T) {
	srv := testServer(t, nil)
	big := `{"text":"` + strings.Repeat("x", maxRequestBodySize) + `"}`

	rec, body := do(t, srv, http.MethodPost, "/api/v1/tools/echo/execute", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if body["code"] != ErrCodeTooLarge {
		t.Errorf("code = %v, want %s", body["code"], ErrCodeTooLarge)
	}
}

func TestListToolCalls(t *testing.T) {
	t.Run("history disabled", func(t *testing.T) {
		rec, body := do(t, testServer(t, nil), http.MethodGet, "/api/v1/tool-calls", "")
		if rec.Code != http.StatusServiceUnavailable || body["code"] != ErrCodeUnavailable {
			t.Errorf("status = %d body = %v, want 503 unavailable", rec.Code, body)
		}
	})

	t.Run("filters", func(t *testing.T) {
		history := &mockHistory{result: &audit.ListResult{Calls: []audit.ToolCall{}, Total: 0, Limit: 5, Offset: 10}}
		rec, body := do(t, testServer(t, history), http.MethodGet,
			"/api/v1/tool-calls?tool=echo&category=util&source=http&limit=5&offset=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := audit.Filter{ToolName: "echo", Category: "util", Source: "http", Limit: 5, Offset: 10}
		if history.filter != want {
			t.Errorf("filter = %+v, want %+v", history.filter, want)
		}
		if body["limit"] != 5.0 {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("bad paging", func(t *testing.T) {
		for _, q := range []string{"limit=abc", "offset=-1"} {
			rec, _ := do(t, testServer(t, &mockHistory{}), http.MethodGet, "/api/v1/tool-calls?"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", q, rec.Code)
			}
		}
	})

	t.Run("repository error", func(t *testing.T) {
		rec, _ := do(t, testServer(t, &mockHistory{err: errors.New("disk full")}), http.MethodGet, "/api/v1/tool-calls", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := testServer(t, nil)
	handler := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStartClose(t *testing.T) {
	srv := testServer(t, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

type mockCheck struct{ err error }

func (m mockCheck) HealthCheck(context.Context) error { return m.err }

func TestHealth_Components(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthChecker
		status int
		want   string
	}{
		{"all healthy", map[string]HealthChecker{"database": mockCheck{}, "mqtt": mockCheck{}}, http.StatusOK, "ok"},
		{"broker down", map[string]HealthChecker{"database": mockCheck{}, "mqtt": mockCheck{errors.New("mqtt: not connected")}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, nil)
			srv.checks = tt.checks

			rec, body := do(t, srv, http.MethodGet, "/api/v1/health", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if body["status"] != tt.want {
				t.Errorf("status field = %v, want %s", body["status"], tt.want)
			}
			components := body["components"].(map[string]any)
			if components["database"] != "ok" {
				t.Errorf("database = %v, want ok", components["database"])
			}
			if tt.want == "degraded" && components["mqtt"] != "mqtt: not connected" {
				t.Errorf("mqtt = %v, want the check error", components["mqtt"])
			}
		})
	}
}
