package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(func() { srv.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })

	return serverConn, clientConn
}

func TestClientWriter_SendsQueuedMessages(t *testing.T) {
	server, client := newTestConnPair(t)
	cw := newClientWriter(server, clockwork.NewRealClock())
	t.Cleanup(cw.stop)

	require.True(t, cw.enqueue([]byte("one")))
	require.True(t, cw.enqueue([]byte("two")))

	for _, want := range []string{"one", "two"} {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, want, string(msg))
	}
}

func TestClientWriter_PingsOnInterval(t *testing.T) {
	// Deadlines are derived from the clock, so it has to start near real time.
	fakeClock := clockwork.NewFakeClockAt(time.Now())
	server, client := newTestConnPair(t)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cw := newClientWriter(server, fakeClock)
	t.Cleanup(cw.stop)

	fakeClock.BlockUntil(1)
	fakeClock.Advance(pingInterval)

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}

func TestClientWriter_EnqueueAfterStop(t *testing.T) {
	server, _ := newTestConnPair(t)
	cw := newClientWriter(server, clockwork.NewRealClock())

	cw.stop()
	cw.stop()
	assert.False(t, cw.enqueue([]byte("late")))
}

func TestClientWriter_FullBufferDrops(t *testing.T) {
	server, _ := newTestConnPair(t)
	cw := &clientWriter{
		conn:  server,
		clock: clockwork.NewRealClock(),
		send:  make(chan []byte, 1),
		done:  make(chan struct{}),
	}
	// No run goroutine: nothing drains the buffer.
	assert.True(t, cw.enqueue([]byte("a")))
	assert.False(t, cw.enqueue([]byte("b")))
}
