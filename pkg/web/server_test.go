package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-overstim/internal/log"
	"github.com/teslashibe/go-overstim/pkg/controller"
	"github.com/teslashibe/go-overstim/pkg/store"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

type engine struct {
	mu        sync.Mutex
	info      controller.Info
	responses trigger.Responses
	auto      bool
	subject   subject.Kind
}

func (e *engine) Info() controller.Info { return e.info }

func (e *engine) UpdateResponses(r trigger.Responses) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = r
}

func (e *engine) UpdateSettings(auto bool, k subject.Kind, r trigger.Responses) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auto, e.subject, e.responses = auto, k, r
}

func newServer(t *testing.T) (*Server, *engine) {
	t.Helper()
	st, err := store.Open(store.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng := &engine{info: controller.Info{Session: "abc", Subject: subject.Mercy, FPS: 30}}
	return NewServer("127.0.0.1:0", st, eng, log.Discard()), eng
}

func do(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestStatus(t *testing.T) {
	s, _ := newServer(t)
	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "mercy", got["subject"])
	assert.EqualValues(t, 30, got["fps"])
}

func TestSetResponse_HotSwaps(t *testing.T) {
	s, eng := newServer(t)

	code, body := do(t, s, http.MethodPut, "/api/responses/mercy/heal_beam", `{"envelope":"pattern x1: 20% 1s, 40% 1s"}`)
	require.Equal(t, http.StatusOK, code, string(body))

	var v ResponseView
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, trigger.HealBeam, v.Trigger)
	assert.True(t, v.Custom)

	env, ok := eng.responses.Lookup(subject.Mercy, trigger.HealBeam)
	require.True(t, ok)
	assert.Equal(t, "pattern x1: 20% 1s, 40% 1s", env.String())
}

func TestSetResponse_Disable(t *testing.T) {
	s, eng := newServer(t)

	code, _ := do(t, s, http.MethodPut, "/api/responses/lucio/assist", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, code)
	_, ok := eng.responses.Lookup(subject.Lucio, trigger.Assist)
	assert.False(t, ok)

	code, _ = do(t, s, http.MethodDelete, "/api/responses/lucio/assist", "")
	require.Equal(t, http.StatusOK, code)
	_, ok = eng.responses.Lookup(subject.Lucio, trigger.Assist)
	assert.True(t, ok)
}

func TestSetResponse_Rejects(t *testing.T) {
	s, eng := newServer(t)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"malformed envelope", "/api/responses/mercy/elimination", `{"envelope":"loud"}`, http.StatusBadRequest},
		{"empty pattern", "/api/responses/mercy/elimination", `{"envelope":"pattern x1: 20% 0s"}`, http.StatusBadRequest},
		{"unknown hero", "/api/responses/tracer/elimination", `{"envelope":"30% 1s"}`, http.StatusNotFound},
		{"unknown trigger", "/api/responses/mercy/teabag", `{"envelope":"30% 1s"}`, http.StatusNotFound},
		{"unsupported", "/api/responses/lucio/heal_beam", `{"envelope":"30% 1s"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, s, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
		})
	}
	assert.Nil(t, eng.responses, "engine must not see rejected settings")
}

func TestResponses_ListsDefaultsAndOverrides(t *testing.T) {
	s, _ := newServer(t)
	do(t, s, http.MethodPut, "/api/responses/zenyatta/harmony_orb", `{"envelope":"50% 1s","enabled":false}`)

	code, body := do(t, s, http.MethodGet, "/api/responses", "")
	require.Equal(t, http.StatusOK, code)

	var got map[string][]ResponseView
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got["zenyatta"], len(trigger.ForSubject(subject.Zenyatta)))

	for _, v := range got["zenyatta"] {
		if v.Trigger == trigger.HarmonyOrb {
			assert.False(t, v.Enabled)
			assert.Equal(t, "50%", v.Summary)
		}
	}
}

func TestSetSubject(t *testing.T) {
	s, eng := newServer(t)

	code, _ := do(t, s, http.MethodPut, "/api/subject", `{"auto":false,"subject":"juno"}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, eng.auto)
	assert.Equal(t, subject.Juno, eng.subject)
	assert.NotNil(t, eng.responses)

	code, _ = do(t, s, http.MethodPut, "/api/subject", `{"subject":"tracer"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTriggers(t *testing.T) {
	s, _ := newServer(t)
	code, body := do(t, s, http.MethodGet, "/api/triggers", "")
	require.Equal(t, http.StatusOK, code)

	var got map[string][]TriggerInfo
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotEmpty(t, got["mercy"])
	assert.Equal(t, trigger.ForSubject(subject.Mercy)[0], got["mercy"][0].ID)
}

func TestStatusWS_RequiresUpgrade(t *testing.T) {
	s, _ := newServer(t)
	code, _ := do(t, s, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}
