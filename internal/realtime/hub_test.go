package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streams := strings.Split(r.URL.Query().Get("streams"), ",")
		hub.Serve(r.URL.Query().Get("user"), streams, w, r)
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return server
}

func dial(t *testing.T, server *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForSubscribers(t *testing.T, hub *Hub, stream string, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(stream) == want }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDeliversRowChanges(t *testing.T) {
	hub := NewHub()
	server := startHub(t, hub)

	conn := dial(t, server, "user=u1&streams=rows.events,notifications", nil)
	waitForSubscribers(t, hub, RowsStream("events"), 1)
	require.Zero(t, hub.Subscribers("notifications"))

	hub.RowsChanged("events", "evt-1")
	hub.RowsChanged("sections", "sec-1")

	msg := readMessage(t, conn)
	require.Equal(t, "rows.events", msg.Stream)
	require.Equal(t, EventRowChanged, msg.Event)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "events", data["table"])
	require.Equal(t, "evt-1", data["row_id"])
}

func TestHubControlMessages(t *testing.T) {
	hub := NewHub()
	server := startHub(t, hub)

	conn := dial(t, server, "user=u1", nil)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "subscribe", Streams: []string{"ROWS.event_rsvps", "rows."}}))
	ack := readMessage(t, conn)
	require.Equal(t, EventSubscribed, ack.Event)
	require.Equal(t, 1, hub.Subscribers(RowsStream("event_rsvps")))
	require.Zero(t, hub.Subscribers("rows."))

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "ping"}))
	require.Equal(t, EventPong, readMessage(t, conn).Event)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "unsubscribe", Streams: []string{"rows.event_rsvps"}}))
	waitForSubscribers(t, hub, RowsStream("event_rsvps"), 0)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	server := startHub(t, hub)

	conn := dial(t, server, "user=u1&streams=rows.sections", nil)
	waitForSubscribers(t, hub, RowsStream("sections"), 1)
	require.Equal(t, Stats{Connections: 1, Streams: 1}, hub.Stats())

	hub.Close()
	require.True(t, hub.Stats().Closed)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	require.Zero(t, hub.Subscribers(RowsStream("sections")))

	// a closed hub refuses new clients
	refused := dial(t, server, "user=u2&streams=rows.sections", nil)
	require.NoError(t, refused.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = refused.ReadMessage()
	require.Error(t, err)
}

func TestHubCheckOrigin(t *testing.T) {
	hub := NewHub(WithAllowedOrigins([]string{"https://app.huddle.example.com/"}))

	cases := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "api.huddle.example.com", true},
		{"https://app.huddle.example.com", "api.huddle.example.com", true},
		{"https://api.huddle.example.com:8443", "api.huddle.example.com", true},
		{"http://localhost:5173", "api.huddle.example.com", true},
		{"https://evil.example.com", "api.huddle.example.com", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Host = tc.host
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		require.Equal(t, tc.want, hub.checkOrigin(req), tc.origin)
	}

	open := NewHub(WithAllowedOrigins([]string{"*"}))
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	require.True(t, open.checkOrigin(req))
}

func TestRowsChangedWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.RowsChanged("events", "evt-1")
	hub.RowsChanged("", "evt-1")
	require.Zero(t, hub.Subscribers(RowsStream("events")))
}
