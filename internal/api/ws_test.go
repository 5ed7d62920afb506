package api

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-service/internal/auth"
	"guardian-service/internal/emergency"
)

func newWSServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := NewHub(logger)
	h := NewHandler(nil, logger, nil, nil, nil, auth.NewJWTService("test-secret"), nil, hub)

	r := gin.New()
	r.GET("/ws/alerts", h.AlertsWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAlertsWS_subscriberReceivesBroadcast(t *testing.T) {
	srv, hub := newWSServer(t)
	conn := dialWS(t, srv)

	// The subscription is registered during the upgrade handler; poll
	// until the hub sees it before broadcasting.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Broadcast(emergency.Event{SessionID: "s1", State: emergency.StateArmed, Countdown: 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev emergency.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, emergency.StateArmed, ev.State)
	assert.Equal(t, 5, ev.Countdown)
}

func TestBroadcast_slowSubscriberDoesNotStallEmit(t *testing.T) {
	srv, hub := newWSServer(t)
	dialWS(t, srv) // connected but never reads

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == 1
	}, time.Second, 5*time.Millisecond)

	// Large enough that a synchronous write path would wedge on the
	// peer's full buffers long before the loop finishes.
	ev := emergency.Event{SessionID: "s1", State: emergency.StateDispatching, Message: strings.Repeat("x", 4096)}

	start := time.Now()
	for i := 0; i < 500; i++ {
		hub.Broadcast(ev)
	}
	assert.Less(t, time.Since(start), 2*time.Second, "broadcast must not block on a slow subscriber")
}
