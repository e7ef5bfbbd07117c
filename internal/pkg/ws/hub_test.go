package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// newTestServer 按查询参数 user 注册连接，客户端断开后注销
func newTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: r.URL.Query().Get("user"), Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, wsURL, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user="+user, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline("nobody"))
	assert.NoError(t, hub.SendToUser("nobody", &Message{Type: "test"}))
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	wsURL := newTestServer(t, hub)

	conn := dial(t, wsURL, "user-a")
	require.Eventually(t, func() bool { return hub.IsOnline("user-a") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ConnectionCount())

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsOnline("user-a") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_SendToUser_AllTabs(t *testing.T) {
	hub := NewHub()
	wsURL := newTestServer(t, hub)

	tab1 := dial(t, wsURL, "user-b")
	defer tab1.Close()
	tab2 := dial(t, wsURL, "user-b")
	defer tab2.Close()
	other := dial(t, wsURL, "user-c")
	defer other.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 3 }, time.Second, 10*time.Millisecond)

	err := hub.SendToUser("user-b", &Message{Type: "notification", Data: map[string]string{"content": "Bonjour"}})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, received, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(received), "notification")
		assert.Contains(t, string(received), "Bonjour")
	}

	// 其他账户收不到
	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_SendRaw(t *testing.T) {
	hub := NewHub()
	wsURL := newTestServer(t, hub)

	conn := dial(t, wsURL, "user-d")
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.IsOnline("user-d") }, time.Second, 10*time.Millisecond)

	hub.SendRaw("user-d", []byte(`{"type":"db_change","table":"analyses"}`))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, received, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"db_change","table":"analyses"}`, string(received))
}

func TestClient_WriteOnClosedConn(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer server.Close()

	peer := dial(t, "ws"+strings.TrimPrefix(server.URL, "http"), "user-e")
	defer peer.Close()

	var conn *websocket.Conn
	select {
	case conn = <-conns:
	case <-time.After(time.Second):
		t.Fatal("server side connection not established")
	}
	client := &Client{UserID: "user-e", Conn: conn}
	require.NoError(t, conn.Close())

	// 截止时间设置失败直接返回
	assert.Error(t, client.write([]byte(`{}`)))

	hub := NewHub()
	hub.Register(client)
	assert.NotPanics(t, func() { hub.SendRaw("user-e", []byte(`{}`)) })
}
