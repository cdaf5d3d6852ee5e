package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgate/config"
	"github.com/hupe1980/agentgate/hook"
	"github.com/hupe1980/agentgate/runner"
)

func writeAgent(t *testing.T, dir, relPath string, payload map[string]any) {
	t.Helper()

	full := filepath.Join(dir, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func simpleAgent(name string) map[string]any {
	return map[string]any{
		"name":           name,
		"description":    "test agent",
		"version":        "1.0",
		"system_message": "You are " + name + ".",
	}
}

func echoCollaborator() runner.Collaborator {
	return runner.CollaboratorFunc(func(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]runner.Turn, error) {
		return []runner.Turn{
			{Role: "user", Content: message},
			{Role: "assistant", Content: "echo: " + message},
		}, nil
	})
}

type fixture struct {
	dir    string
	store  *config.Store
	hooks  *hook.Registry
	server *Server
}

func newFixture(t *testing.T, collab runner.Collaborator, optFns ...func(o *Options)) *fixture {
	t.Helper()

	dir := t.TempDir()
	writeAgent(t, dir, "chat/assistant.json", simpleAgent("Assistant"))
	writeAgent(t, dir, "planner.json", simpleAgent("Planner"))

	store, err := config.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Load())

	hooks := hook.NewRegistry()
	srv := New(store, hooks, runner.New(collab), optFns...)

	return &fixture{dir: dir, store: store, hooks: hooks, server: srv}
}

func (f *fixture) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_ListAgents(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodGet, "/agents/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[agentList](t, rec)
	assert.ElementsMatch(t, []string{"chat/assistant", "planner"}, list.Agents)
}

func TestServer_ListAgentsEmptyDirectory(t *testing.T) {
	store, err := config.NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Load())

	srv := New(store, hook.NewRegistry(), runner.New(echoCollaborator()))

	req := httptest.NewRequest(http.MethodGet, "/agents/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"agents":[]}`, rec.Body.String())
}

func TestServer_GetConfig(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodGet, "/agents/chat/assistant", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "Assistant", body["name"])
	assert.Equal(t, "1.0", body["version"])
}

func TestServer_GetConfigUnknownAgent(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodGet, "/agents/no/such/agent", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "Agent 'no/such/agent' not found", resp.Detail)
}

func TestServer_Chat(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodPost, "/agents/chat/assistant/chat", `{"message":"hi","context":{"user":"alice"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[runner.Result](t, rec)
	assert.Equal(t, "echo: hi", result.Response)
	assert.Equal(t, map[string]any{"user": "alice"}, result.Context)
}

func TestServer_ChatUnknownAgent(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodPost, "/agents/ghost/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "Agent 'ghost' not found", resp.Detail)
}

func TestServer_ChatRejectsMissingMessage(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodPost, "/agents/planner/chat", `{"context":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "message is required", resp.Detail)
}

func TestServer_ChatRejectsMalformedBody(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodPost, "/agents/planner/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ChatCollaboratorError(t *testing.T) {
	failing := runner.CollaboratorFunc(func(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]runner.Turn, error) {
		return nil, errors.New("backend down")
	})

	f := newFixture(t, failing)

	rec := f.do(t, http.MethodPost, "/agents/planner/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Contains(t, resp.Detail, "backend down")
}

func TestServer_BeforeHookFiresOncePerMatchingRequest(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	var seen []string
	f.hooks.AddBefore("chat/*", func(r *http.Request, path string) error {
		seen = append(seen, path)
		return nil
	})

	f.do(t, http.MethodPost, "/agents/chat/assistant/chat", `{"message":"hi"}`)
	f.do(t, http.MethodPost, "/agents/planner/chat", `{"message":"hi"}`)
	f.do(t, http.MethodGet, "/agents/", "")

	assert.Equal(t, []string{"chat/assistant"}, seen)
}

func TestServer_ListHooksUseListKey(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	fired := 0
	f.hooks.AddBefore("list", func(r *http.Request, path string) error {
		fired++
		return nil
	})

	f.do(t, http.MethodGet, "/agents/", "")
	f.do(t, http.MethodGet, "/agents/planner", "")

	assert.Equal(t, 1, fired)
}

func TestServer_BeforeHookErrorReturns500(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	f.hooks.AddBefore("*", func(r *http.Request, path string) error {
		return fmt.Errorf("denied for %s", path)
	})

	rec := f.do(t, http.MethodPost, "/agents/planner/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "denied for planner", resp.Detail)
}

func TestServer_AfterHookCanAnnotateChatResponse(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	f.hooks.AddAfter("*", func(r *http.Request, path string, response any) error {
		if result, ok := response.(*runner.Result); ok {
			if result.Context == nil {
				result.Context = map[string]any{}
			}
			result.Context["served_by"] = path
		}
		return nil
	})

	rec := f.do(t, http.MethodPost, "/agents/planner/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeBody[runner.Result](t, rec)
	assert.Equal(t, "planner", result.Context["served_by"])
}

func TestServer_ChatRoutesAreFrozenAtConstruction(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	writeAgent(t, f.dir, "late.json", simpleAgent("Latecomer"))
	require.NoError(t, f.store.Load())

	// The reloaded definition is visible to config lookups...
	rec := f.do(t, http.MethodGet, "/agents/late", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// ...but never gains a chat endpoint.
	rec = f.do(t, http.MethodPost, "/agents/late/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{"chat/assistant", "planner"}, f.server.ChatPaths())
}

func TestServer_AutoReloadRefreshesConfig(t *testing.T) {
	f := newFixture(t, echoCollaborator(), func(o *Options) {
		o.AutoReload = true
	})

	updated := simpleAgent("Planner")
	updated["description"] = "rewritten on disk"
	writeAgent(t, f.dir, "planner.json", updated)

	rec := f.do(t, http.MethodGet, "/agents/planner", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "rewritten on disk", body["description"])
}

func TestServer_CustomBasePath(t *testing.T) {
	f := newFixture(t, echoCollaborator(), func(o *Options) {
		o.BasePath = "/api/v1/agents"
	})

	rec := f.do(t, http.MethodGet, "/api/v1/agents/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/agents/planner/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDHeader(t *testing.T) {
	f := newFixture(t, echoCollaborator())

	rec := f.do(t, http.MethodGet, "/agents/", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
