package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stoploss_tracker/internal/modules/health/service"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cycles_total", Help: "h"})
	reg.MustRegister(c)
	c.Inc()

	state := service.NewState()
	mux := NewMux(state, reg)

	assert.Equal(t, http.StatusOK, get(t, mux, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/readyz").Code)

	state.ObserveCycle(time.Unix(1_700_000_000, 0), 2, nil)
	assert.Equal(t, http.StatusOK, get(t, mux, "/readyz").Code)

	rec := get(t, mux, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Ready         bool  `json:"ready"`
		Tracked       int   `json:"tracked"`
		LastCycleUnix int64 `json:"lastCycleUnix"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, 2, body.Tracked)
	assert.Equal(t, int64(1_700_000_000), body.LastCycleUnix)

	rec = get(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_cycles_total 1")
}
