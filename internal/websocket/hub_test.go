package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medpulse/internal/booking"
	"medpulse/internal/config"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	cfg := config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      30 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       5 * time.Second,
	}
	h := NewHub(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	go h.Run()
	t.Cleanup(h.Shutdown)
	return h
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv)

	hello := readMessage(t, conn)
	assert.Equal(t, TypeConnected, hello.Type)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	h.Broadcast(TypeAppointmentBooked, map[string]string{"specialty": "Cardiology"})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeAppointmentBooked, msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cardiology", data["specialty"])
}

func TestHub_NotifyAppointment(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn) // connected hello

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	h.NotifyAppointment(TypeAppointmentCancelled, &booking.Appointment{
		ID:     "a1",
		Status: booking.StatusCancelled,
	})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeAppointmentCancelled, msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a1", data["id"])
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := testHub(t)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeHTTP))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}
