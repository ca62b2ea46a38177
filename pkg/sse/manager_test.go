package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUntil(t *testing.T, r *bufio.Reader, prefix string) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line)
		}
	}
}

func TestManager_BroadcastReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(logger.Nop())
	go m.Run(ctx)

	r := gin.New()
	r.GET("/events", m.ServeHTTP)
	srv := httptest.NewServer(r)
	defer srv.Close()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)
	readUntil(t, body, "event:connected")

	m.Broadcast("task_added", map[string]string{"id": "t1"})
	readUntil(t, body, "event:task_added")
	assert.Equal(t, `data:{"id":"t1"}`, readUntil(t, body, "data:"))
}

func TestManager_BroadcastWithoutClients(t *testing.T) {
	m := NewManager(logger.Nop())
	for i := 0; i < 200; i++ {
		m.Broadcast("noop", i)
	}
	assert.Len(t, m.broadcast, cap(m.broadcast))
}
