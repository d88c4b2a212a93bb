package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble"
	httpadapter "github.com/aretw0/bramble/internal/adapters/http"
	"github.com/aretw0/bramble/pkg/adapters/memory"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/session"
)

const robotYAML = `
name: robot
types: [location]
objects:
  - {name: l0, type: location}
  - {name: l1, type: location}
fluents:
  - {name: robot_at, type: bool, params: [{name: l, type: location}]}
  - {name: connected, type: bool, params: [{name: a, type: location}, {name: b, type: location}]}
actions:
  - name: move
    params: [{name: from, type: location}, {name: to, type: location}]
    preconditions:
      - connected(from, to)
      - robot_at(from)
    effects:
      - {target: robot_at(from), value: false}
      - {target: robot_at(to), value: true}
init:
  robot_at(l0): true
  connected(l0, l1): true
goals:
  - robot_at(l1)
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng, err := bramble.Load([]byte(robotYAML))
	require.NoError(t, err)

	sessions := session.NewManager(memory.NewStore())
	srv := httptest.NewServer(httpadapter.NewHandler(eng, sessions))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "robot", body["problem"])
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{"id": "s1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[schema.Snapshot](t, resp)
	assert.Equal(t, "s1", created.Session)
	assert.Equal(t, "true", created.Values["robot_at(l0)"])

	resp, err := http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decodeBody[schema.Snapshot](t, resp)
	assert.Equal(t, created.Values, loaded.Values)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/s1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/sessions/s1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GeneratesSessionIDs(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[schema.Snapshot](t, resp)
	assert.NotEmpty(t, created.Session)
}

type applyResponse struct {
	Applied     bool             `json:"applied"`
	Unsatisfied []string         `json:"unsatisfied"`
	GoalReached bool             `json:"goal_reached"`
	Session     *schema.Snapshot `json:"session"`
}

func TestServer_ApplyAction(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{"id": "s1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/sessions/s1/apply", map[string]any{
		"action": "move",
		"params": []string{"l0", "l1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	applied := decodeBody[applyResponse](t, resp)
	assert.True(t, applied.Applied)
	assert.True(t, applied.GoalReached)
	require.NotNil(t, applied.Session)
	assert.Equal(t, "true", applied.Session.Values["robot_at(l1)"])
	require.Len(t, applied.Session.Steps, 1)
	assert.Equal(t, "move", applied.Session.Steps[0].Action)

	// Replaying the same move must be rejected: the robot left l0.
	resp = postJSON(t, srv.URL+"/sessions/s1/apply", map[string]any{
		"action": "move",
		"params": []string{"l0", "l1"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	rejected := decodeBody[applyResponse](t, resp)
	assert.False(t, rejected.Applied)
	assert.NotEmpty(t, rejected.Unsatisfied)
}

func TestServer_ApplyValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{"id": "s1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/sessions/s1/apply", map[string]any{
		"action": "no_such_action",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/sessions/missing/apply", map[string]any{
		"action": "move",
		"params": []string{"l0", "l1"},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ApplicableActions(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/sessions", map[string]string{"id": "s1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/sessions/s1/applicable")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string][]string](t, resp)
	assert.Equal(t, []string{"move(l0, l1)"}, body["actions"])
}
