package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"utttserver/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

// serve upgrades every request and runs a Client with handle, publishing
// each client on the returned channel.
func serve(t *testing.T, handle Handler) (string, <-chan *Client) {
	t.Helper()
	clients := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(conn, time.Second, 5*time.Second, zaptest.NewLogger(t))
		clients <- client
		client.Run(context.Background(), handle)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), clients
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestClientRepliesInOrder(t *testing.T) {
	url, _ := serve(t, func(_ context.Context, raw []byte, _ models.Conn) []byte {
		return append([]byte("re:"), raw...)
	})
	conn := dial(t, url)
	defer conn.Close()

	for _, msg := range []string{"one", "two", "three"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, want := range []string{"re:one", "re:two", "re:three"} {
		_, got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestClientPushAndClose(t *testing.T) {
	url, clients := serve(t, func(context.Context, []byte, models.Conn) []byte { return nil })
	conn := dial(t, url)

	client := <-clients
	if client.ReadyState() != models.Open || client.ID() == "" {
		t.Fatalf("state = %v, id = %q", client.ReadyState(), client.ID())
	}
	if err := client.Write([]byte(`{"msgType":"moveUpdate"}`)); err != nil {
		t.Fatalf("push: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, got, err := conn.ReadMessage(); err != nil || string(got) != `{"msgType":"moveUpdate"}` {
		t.Fatalf("read = %q, %v", got, err)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for client.ReadyState() != models.Closed {
		if time.Now().After(deadline) {
			t.Fatalf("client never closed, state %v", client.ReadyState())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := client.Write([]byte("late")); err != ErrClosed {
		t.Fatalf("write after close err = %v, want ErrClosed", err)
	}
}

func TestWriteClosesClientWithFullQueue(t *testing.T) {
	c := NewClient(nil, 0, 0, zaptest.NewLogger(t))
	for i := 0; i < sendBufferSize; i++ {
		if err := c.Write([]byte("{}")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := c.Write([]byte("{}")); err != ErrSendBufferFull {
		t.Fatalf("err = %v, want ErrSendBufferFull", err)
	}
	if got := c.ReadyState(); got != models.Closing {
		t.Fatalf("state = %v, want Closing", got)
	}
	if err := c.Write([]byte("{}")); err != ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}
