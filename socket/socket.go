// Package socket implements the authenticated event socket of §4.8: a
// persistent WebSocket connection to the realtime gateway, socket.io-framed,
// heartbeat-monitored, and reconnecting with exponential backoff.
//
// Grounded on gorilla/websocket (the pack's WebSocket library) for the
// connection itself, and on the teacher's ticker+context-cancellation
// worker-loop shape (internal/workers/workers.go) for the heartbeat and
// reconnect goroutine.
package socket

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/filen-go/filen-sdk-go/filenlog"
	"github.com/filen-go/filen-sdk-go/internal/wsframe"
	"github.com/filen-go/filen-sdk-go/keys"
	"github.com/gorilla/websocket"
)

// State is one of the five lifecycle states of §4.8.
type State int

const (
	Disconnected State = iota
	Connecting
	Authenticating
	Authed
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Authed:
		return "authed"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

const (
	backoffStart = 1 * time.Second
	backoffCap   = 30 * time.Second

	// UnsubscribedEvent is the pseudo-event emitted to remaining listeners
	// when the socket task terminates after the last listener drops (§4.8).
	UnsubscribedEvent = "Unsubscribed"
)

// heartbeatInterval is the ping period and the pong grace window (§4.8): a
// tick elapsing with no pong received since the previous tick means the
// connection is silently stalled, and heartbeat closes it to force a
// reconnect. A package variable, not a const, so tests can shrink it.
var heartbeatInterval = 15 * time.Second

// Event is a received socket message: the raw [event_name, payload] pair,
// plus a decrypted plaintext if the payload could be unwrapped through the
// account's MetaCrypter (a DecryptedSocketEvent in spec terms; anything
// that fails decryption is simply forwarded raw with Decrypted == nil).
type Event struct {
	Name      string
	Payload   json.RawMessage
	Decrypted *string
}

// Socket is a persistent, authenticated WebSocket client.
type Socket struct {
	url     string
	apiKey  string
	crypter keys.MetaCrypter
	log     *filenlog.Logger
	dialer  *websocket.Dialer

	mu        sync.Mutex
	state     State
	listeners map[uint64]*listener
	nextID    uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

type listener struct {
	filter string
	ch     chan Event
}

// New constructs a Socket. baseURL should be the socket.io base, e.g.
// "wss://socket.filen.io/socket.io/" — the EIO query string and timestamp
// are appended automatically on connect.
func New(baseURL, apiKey string, crypter keys.MetaCrypter, log *filenlog.Logger) *Socket {
	if log == nil {
		log = filenlog.Nop()
	}
	return &Socket{
		url:       baseURL,
		apiKey:    apiKey,
		crypter:   crypter,
		log:       log,
		dialer:    websocket.DefaultDialer,
		listeners: make(map[uint64]*listener),
	}
}

// State reports the socket's current lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ListenerHandle is a registration token (§3): dropping it (calling Close)
// unregisters the listener and, if it was the last one, signals the socket
// task to disconnect.
type ListenerHandle struct {
	socket *Socket
	id     uint64
}

// Close unregisters the listener. Safe to call more than once.
func (h *ListenerHandle) Close() {
	h.socket.unsubscribe(h.id)
}

// Subscribe registers a listener for events matching filter ("" matches
// every event name) and returns a handle plus the channel events arrive on.
// Registering the first listener transitions the socket Disconnected ->
// Connecting and starts the background connection loop.
func (s *Socket) Subscribe(ctx context.Context, filter string) (*ListenerHandle, <-chan Event) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	l := &listener{filter: filter, ch: make(chan Event, 64)}
	s.listeners[id] = l
	first := len(s.listeners) == 1
	s.mu.Unlock()

	if first {
		s.start(ctx)
	}

	return &ListenerHandle{socket: s, id: id}, l.ch
}

func (s *Socket) unsubscribe(id uint64) {
	s.mu.Lock()
	l, ok := s.listeners[id]
	if !ok {
		s.mu.Unlock()
		return
	}

	// last is true when this is the only remaining listener: emit
	// Unsubscribed to every listener still registered (including this one)
	// before removing it, so it is observable on the channel before close
	// (§4.8: "emitted to remaining observers before termination").
	last := len(s.listeners) == 1
	if last {
		s.broadcastLocked(Event{Name: UnsubscribedEvent})
	}

	delete(s.listeners, id)
	var cancel context.CancelFunc
	if last {
		cancel = s.cancel
		s.cancel = nil
	}
	s.mu.Unlock()

	close(l.ch)

	if last && cancel != nil {
		cancel()
	}
}

func (s *Socket) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.state = Connecting
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

// run is the reconnect loop: connect, authenticate, pump frames and
// heartbeats until the connection drops or ctx is cancelled, then back off
// and retry.
func (s *Socket) run(ctx context.Context) {
	defer close(s.done)

	backoff := backoffStart
	for {
		select {
		case <-ctx.Done():
			s.setState(Disconnected)
			return
		default:
		}

		authed, err := s.connectAndPump(ctx)
		if ctx.Err() != nil {
			s.setState(Disconnected)
			return
		}
		if err != nil {
			s.log.Debug().Err(err).Msg("socket disconnected, backing off")
		}

		// a successful auth resets the backoff: only a run of failed
		// reconnect attempts should grow the delay (§4.8).
		if authed {
			backoff = backoffStart
		}

		s.setState(Reconnecting)
		select {
		case <-ctx.Done():
			s.setState(Disconnected)
			return
		case <-time.After(backoff):
		}

		if !authed {
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
}

// connectAndPump dials, handshakes, and pumps frames until the connection
// drops. It reports whether auth ever succeeded on this connection, so the
// caller can decide whether to reset its reconnect backoff.
func (s *Socket) connectAndPump(ctx context.Context) (authedOK bool, err error) {
	s.setState(Connecting)

	dialURL := wsframe.SplitEIOURLTimestamp(s.url+"?EIO=3&transport=websocket", nowMillisFunc())
	u, err := url.Parse(dialURL)
	if err != nil {
		return false, err
	}

	conn, _, err := s.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeConnect())); err != nil {
		return false, err
	}

	s.setState(Authenticating)
	authEvent, _ := json.Marshal([]any{"authed", s.apiKey})
	if err := conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodeEvent(string(authEvent)))); err != nil {
		return false, err
	}

	var lastPong atomic.Int64
	lastPong.Store(nowMillisFunc())

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.heartbeat(heartbeatCtx, conn, &lastPong)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			wg.Wait()
			return authedOK, err
		}

		frame, ok := wsframe.Decode(string(raw))
		if !ok {
			continue
		}
		if frame.Packet == wsframe.PacketPong {
			lastPong.Store(nowMillisFunc())
			continue
		}
		if frame.Packet != wsframe.PacketMessage || frame.Message != wsframe.MessageEvent {
			continue
		}

		var pair []json.RawMessage
		if err := json.Unmarshal([]byte(frame.Data), &pair); err != nil || len(pair) < 1 {
			continue
		}
		var name string
		_ = json.Unmarshal(pair[0], &name)

		if name == "authed" {
			var ok bool
			if len(pair) > 1 {
				_ = json.Unmarshal(pair[1], &ok)
			}
			if ok {
				authedOK = true
				s.setState(Authed)
			} else {
				wg.Wait()
				return authedOK, errAuthFailed
			}
			continue
		}

		var payload json.RawMessage
		if len(pair) > 1 {
			payload = pair[1]
		}
		s.dispatch(normalizeEventName(name), payload)
	}
}

// normalizeEventName aliases the two server spellings of the file-versioned
// event to a single canonical name (§4.8).
func normalizeEventName(name string) string {
	if name == "fileVersioned" {
		return "file-versioned"
	}
	return name
}

// heartbeat pings the connection every heartbeatInterval and closes it if
// the previous ping went unanswered for a full interval (§4.8: "absence of
// pong within the same interval ... triggers reconnection"). Closing conn
// unblocks connectAndPump's ReadMessage with an error, which drives the
// normal reconnect path in run.
func (s *Socket) heartbeat(ctx context.Context, conn *websocket.Conn, lastPong *atomic.Int64) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	var lastPing int64 // zero until the first ping has been sent
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if lastPing != 0 && lastPong.Load() < lastPing {
				s.log.Debug().Msg("heartbeat pong overdue, closing socket to force reconnect")
				_ = conn.Close()
				return
			}
			lastPing = nowMillisFunc()
			if err := conn.WriteMessage(websocket.TextMessage, []byte(wsframe.EncodePing())); err != nil {
				return
			}
		}
	}
}

func (s *Socket) dispatch(name string, payload json.RawMessage) {
	event := Event{Name: name, Payload: payload}
	if s.crypter != nil && len(payload) > 0 {
		var encrypted string
		if err := json.Unmarshal(payload, &encrypted); err == nil {
			if plain, err := s.crypter.DecryptMeta(keys.EncryptedString(encrypted)); err == nil {
				event.Decrypted = &plain
			}
		}
	}
	s.broadcast(event)
}

func (s *Socket) broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(event)
}

// broadcastLocked delivers event to every matching listener. Callers must
// already hold s.mu.
func (s *Socket) broadcastLocked(event Event) {
	for _, l := range s.listeners {
		if l.filter != "" && !strings.EqualFold(l.filter, event.Name) {
			continue
		}
		select {
		case l.ch <- event:
		default:
			s.log.Warn().Str("event", event.Name).Msg("listener channel full, dropping event")
		}
	}
}

func (s *Socket) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// nowMillisFunc is a package variable so tests can stub out wall-clock time;
// production code calls time.Now().
var nowMillisFunc = func() int64 {
	return time.Now().UnixMilli()
}

var errAuthFailed = &authError{}

type authError struct{}

func (e *authError) Error() string { return "socket auth failed" }
