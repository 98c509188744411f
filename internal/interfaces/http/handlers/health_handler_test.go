package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/pkg/types/common"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func probe(t *testing.T, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", stubChecker{name: "redis", err: stderrors.New("down")})

	w := probe(t, h.Liveness)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"status":"alive"`)
}

func TestHealthHandler_Readiness_AllUp(t *testing.T) {
	h := NewHealthHandler("dev", stubChecker{name: "redis"}, stubChecker{name: "postgres"})

	w := probe(t, h.Readiness)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadinessResponse
	require.NoError(t, jsonDecode(w, &resp))
	assert.Equal(t, common.HealthUp, resp.Status)
	require.Len(t, resp.Components, 2)
	assert.Equal(t, "redis", resp.Components[0].Name)
	assert.Equal(t, "postgres", resp.Components[1].Name)
}

func TestHealthHandler_Readiness_OneDown(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	h := NewHealthHandler("dev",
		stubChecker{name: "redis"},
		stubChecker{name: "postgres", err: stderrors.New("connection refused")},
	).WithObserver(func(component string, up bool) {
		mu.Lock()
		seen[component] = up
		mu.Unlock()
	})

	w := probe(t, h.Readiness)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	require.NoError(t, jsonDecode(w, &resp))
	assert.Equal(t, common.HealthDown, resp.Status)
	assert.Equal(t, common.HealthDown, resp.Components[1].Status)
	assert.Equal(t, "connection refused", resp.Components[1].Message)
	assert.Equal(t, map[string]bool{"redis": true, "postgres": false}, seen)
}

func TestHealthHandler_Readiness_NoCheckers(t *testing.T) {
	w := probe(t, NewHealthHandler("dev").Readiness)
	assert.Equal(t, http.StatusOK, w.Code)
}

func jsonDecode(w *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

//Personal.AI order the ending
