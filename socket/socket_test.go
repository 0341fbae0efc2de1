package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/filen-go/filen-sdk-go/internal/wsframe"
	"github.com/filen-go/filen-sdk-go/keys"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func newTestServer(t *testing.T, onConnect func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		go onConnect(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubscribeReachesAuthedAndReceivesEvent(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()

		_, connectFrame, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, "40", string(connectFrame))

		_, authFrame, err := conn.ReadMessage()
		require.NoError(t, err)
		frame, ok := wsframe.Decode(string(authFrame))
		require.True(t, ok)
		require.Equal(t, wsframe.MessageEvent, frame.Message)

		authedReply, _ := json.Marshal([]any{"authed", true})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(authedReply))))

		payload, _ := json.Marshal("plaintext-event")
		evt, _ := json.Marshal([]any{"fileVersioned", string(payload)})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(evt))))

		time.Sleep(200 * time.Millisecond)
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	s := New(wsURL, "test-api-key", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, ch := s.Subscribe(ctx, "")
	defer handle.Close()

	select {
	case evt := <-ch:
		require.Equal(t, "file-versioned", evt.Name) // fileVersioned aliased
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	require.Eventually(t, func() bool {
		return s.State() == Authed
	}, time.Second, 10*time.Millisecond)
}

func TestLastListenerDropEmitsUnsubscribed(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, _, _ = conn.ReadMessage() // connect
		_, _, _ = conn.ReadMessage() // authed event
		authedReply, _ := json.Marshal([]any{"authed", true})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(authedReply))))
		time.Sleep(500 * time.Millisecond)
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := New(wsURL, "test-api-key", noopCrypter{}, nil)

	h1, ch1 := s.Subscribe(context.Background(), "")

	h1.Close()

	select {
	case evt, ok := <-ch1:
		require.True(t, ok, "the dropping listener should see Unsubscribed before its channel closes")
		require.Equal(t, UnsubscribedEvent, evt.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Unsubscribed event")
	}

	select {
	case _, ok := <-ch1:
		require.False(t, ok, "listener channel should be closed after Unsubscribed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestNonLastListenerDropDoesNotEmitUnsubscribed(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, _, _ = conn.ReadMessage() // connect
		_, _, _ = conn.ReadMessage() // authed event
		authedReply, _ := json.Marshal([]any{"authed", true})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(authedReply))))
		time.Sleep(500 * time.Millisecond)
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := New(wsURL, "test-api-key", noopCrypter{}, nil)

	h1, ch1 := s.Subscribe(context.Background(), "")
	_, ch2 := s.Subscribe(context.Background(), "")

	h1.Close()

	_, ok := <-ch1
	require.False(t, ok, "dropped listener's channel should close without an Unsubscribed event")

	select {
	case evt := <-ch2:
		t.Fatalf("remaining listener should not see Unsubscribed, got %v", evt)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHeartbeatTimeoutTriggersReconnect(t *testing.T) {
	orig := heartbeatInterval
	heartbeatInterval = 50 * time.Millisecond
	defer func() { heartbeatInterval = orig }()

	var connects atomic.Int32
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		connects.Add(1)
		_, _, _ = conn.ReadMessage() // connect
		_, _, _ = conn.ReadMessage() // authed event
		authedReply, _ := json.Marshal([]any{"authed", true})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(authedReply))))

		// swallow every subsequent frame, including pings, and never reply
		// with a pong: the client's heartbeat must then time out on its own.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := New(wsURL, "test-api-key", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, _ := s.Subscribe(ctx, "")
	defer handle.Close()

	require.Eventually(t, func() bool {
		return connects.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "a missed pong should force the heartbeat to close the connection and reconnect")
}

type noopCrypter struct{}

func (noopCrypter) EncryptMeta(string) (keys.EncryptedString, error) { return "", nil }
func (noopCrypter) DecryptMeta(keys.EncryptedString) (string, error) { return "", nil }
