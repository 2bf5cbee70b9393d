package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jasonknight/space-mmo-sub002/config"
	"github.com/jasonknight/space-mmo-sub002/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeStatus []launcher.Status

func (f fakeStatus) Status() []launcher.Status { return f }

func router(src StatusSource) *gin.Engine {
	cfg := config.AdminConfig{RateLimitRPS: 1000, RateLimitBurst: 1000}
	return NewRouter(cfg, NewHandler(src, zap.NewNop()), zap.NewNop())
}

func do(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := do(router(fakeStatus{{Name: "item", State: launcher.StateRunning}}), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = do(router(fakeStatus{
		{Name: "item", State: launcher.StateRunning},
		{Name: "player", State: launcher.StateFailed, Error: "exit status 1"},
	}), "/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string   `json:"status"`
		Failed []string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, []string{"player"}, body.Failed)
}

func TestServices(t *testing.T) {
	src := fakeStatus{
		{Name: "inventory", State: launcher.StateRunning, PID: 11},
		{Name: "item", State: launcher.StateExited},
	}
	r := router(src)

	w := do(r, "/services")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Services []launcher.Status `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Services, 2)
	assert.Equal(t, 11, list.Services[0].PID)

	w = do(r, "/services/item")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"exited"`)

	w = do(r, "/services/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "DB_RECORD_NOT_FOUND")
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	s := NewServer(config.AdminConfig{RateLimitRPS: 100, RateLimitBurst: 100}, fakeStatus{}, zap.NewNop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return")
	}
}
