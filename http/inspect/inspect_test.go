package inspect

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leeforge/hostbridge/host"
	"github.com/leeforge/hostbridge/host/memory"
	"github.com/leeforge/hostbridge/http/responder"
	"github.com/leeforge/hostbridge/runtime"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) (*runtime.Bridge, *memory.Host) {
	t.Helper()
	h := memory.New(host.V2011, "transform")
	h.Define(memory.PluginSpec{Name: "simpleCmd", Commands: []string{"doThing"}})
	h.Define(memory.PluginSpec{
		Name:           "meshPlug",
		NodeTypes:      []string{"myMesh", "abstractBase"},
		ValidNodeTypes: []string{"myMesh"},
	})

	b, err := runtime.New(runtime.Config{
		Host:             h,
		Builtins:         []host.CommandInfo{{Name: "ls", Description: "list nodes"}},
		Aggregate:        true,
		MetricsNamespace: "inspect",
	})
	require.NoError(t, err)
	require.NoError(t, b.Start())
	require.NoError(t, h.Load("simpleCmd"))
	require.NoError(t, h.Load("meshPlug"))
	return b, h
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *responder.Error `json:"error"`
	Meta  responder.Meta   `json:"meta"`
}

func get(t *testing.T, router http.Handler, path string) (int, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func TestRouter_Plugins(t *testing.T) {
	b, _ := newTestBridge(t)
	router := NewRouter(b)

	code, env := get(t, router, "/plugins")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta.Count)
	require.Equal(t, 2, *env.Meta.Count)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Equal(t, "meshPlug", entries[0]["name"])
	require.Equal(t, "active", entries[0]["state"])
	require.Equal(t, []any{"myMesh"}, entries[0]["dependNodes"])

	code, env = get(t, router, "/plugins/simpleCmd")
	require.Equal(t, http.StatusOK, code)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	require.Equal(t, []any{"doThing"}, entry["commands"])
	require.NotContains(t, entry, "callbackId")

	code, env = get(t, router, "/plugins/ghost")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, responder.ErrCodeNotFound, env.Error.Code)
}

func TestRouter_Commands(t *testing.T) {
	b, h := newTestBridge(t)
	router := NewRouter(b)

	code, env := get(t, router, "/commands")
	require.Equal(t, http.StatusOK, code)
	var views []CommandView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 2)

	byName := map[string]CommandView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	require.True(t, byName["ls"].Builtin)
	require.False(t, byName["ls"].Wrapped)
	require.Equal(t, "simpleCmd", byName["doThing"].Plugin)
	require.True(t, byName["doThing"].Bound)
	require.True(t, byName["doThing"].Wrapped)
	require.True(t, byName["doThing"].Aggregate)

	require.NoError(t, h.Unload("simpleCmd"))
	code, env = get(t, router, "/commands/doThing")
	require.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)

	code, _ = get(t, router, "/commands/ls")
	require.Equal(t, http.StatusOK, code)
}

func TestRouter_NodeTypes(t *testing.T) {
	b, _ := newTestBridge(t)

	code, env := get(t, NewRouter(b), "/nodetypes")
	require.Equal(t, http.StatusOK, code)
	var views []NodeTypeView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Equal(t, []NodeTypeView{{Name: "myMesh", Parent: "DependNode", Methods: []string{"name", "nodeType"}}}, views)
}

func TestRouter_Status(t *testing.T) {
	b, _ := newTestBridge(t)

	code, env := get(t, NewRouter(b), "/status")
	require.Equal(t, http.StatusOK, code)
	var status StatusView
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.Equal(t, "2011", status.HostVersion)
	require.True(t, status.Started)
	require.Equal(t, 2, status.Plugins)
	require.Equal(t, 1, status.Commands)
	require.Equal(t, 1, status.NodeTypes)
}

func TestRouter_Metrics(t *testing.T) {
	b, _ := newTestBridge(t)

	rr := httptest.NewRecorder()
	NewRouter(b).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "inspect_plugin_loads_total 2")
	require.Contains(t, rr.Body.String(), "inspect_tracked_plugins 2")
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	b, _ := newTestBridge(t)
	router := NewRouter(b)

	code, env := get(t, router, "/nope")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, responder.ErrCodeRouteNotFound, env.Error.Code)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/plugins/simpleCmd", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	b, _ := newTestBridge(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveListener(ctx, ln, NewRouter(b), nil) }()

	url := "http://" + ln.Addr().String() + "/status"
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.True(t, strings.Contains(string(body), `"hostVersion":"2011"`))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
