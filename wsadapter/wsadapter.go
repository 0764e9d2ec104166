// Package wsadapter is a demo adapter.BaseAdapter built on gorilla/websocket.
// It carries no handshake or crypto logic of its own; it only moves
// wire.Frame values between peers over WebSocket connections, tracking
// which peer id each connection belongs to.
package wsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/authnet/adapter"
	"github.com/sage-x-project/authnet/internal/model"
	"github.com/sage-x-project/authnet/internal/wire"
)

// Adapter is a WebSocket-backed adapter.BaseAdapter. A connection's peer id
// is the one its caller supplies: the peerIDFromRequest result for Handler,
// the peerID argument for Dial; this adapter does not invent or translate
// peer ids.
type Adapter struct {
	upgrader websocket.Upgrader

	readTimeout time.Duration

	mu     sync.RWMutex
	conns  map[model.PeerID]*websocket.Conn
	events adapter.BaseAdapterEvents
}

// New creates an Adapter with no connections yet.
func New() *Adapter {
	return &Adapter{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		readTimeout: 60 * time.Second,
		conns:       make(map[model.PeerID]*websocket.Conn),
		events:      adapter.NoopBaseAdapterEvents{},
	}
}

func (a *Adapter) Subscribe(events adapter.BaseAdapterEvents) {
	if events == nil {
		events = adapter.NoopBaseAdapterEvents{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = events
}

// Handler upgrades inbound HTTP connections and registers them under the
// peer id peerIDFromRequest returns; a production adapter would authenticate the peer
// id at the transport layer, which is out of scope here.
func (a *Adapter) Handler(peerIDFromRequest func(r *http.Request) model.PeerID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := a.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("wsadapter: upgrade failed: %v", err), http.StatusBadRequest)
			return
		}
		peerID := peerIDFromRequest(r)

		a.addConn(peerID, conn)
		defer a.removeConn(peerID)
		defer func() { _ = conn.Close() }()

		a.eventsSnapshot().OnPeerCandidate(r.Context(), peerID)
		a.readLoop(r.Context(), peerID, conn)
	})
}

func (a *Adapter) eventsSnapshot() adapter.BaseAdapterEvents {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events
}

func (a *Adapter) addConn(peerID model.PeerID, conn *websocket.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conns[peerID] = conn
}

func (a *Adapter) removeConn(peerID model.PeerID) {
	a.mu.Lock()
	delete(a.conns, peerID)
	a.mu.Unlock()
	a.eventsSnapshot().OnPeerDisconnected(context.Background(), peerID)
}

func (a *Adapter) readLoop(ctx context.Context, peerID model.PeerID, conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(a.readTimeout)); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.eventsSnapshot().OnError(ctx, fmt.Errorf("wsadapter: read from %s: %w", peerID, err))
			}
			return
		}

		var frame wire.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			a.eventsSnapshot().OnError(ctx, fmt.Errorf("wsadapter: decode frame from %s: %w", peerID, err))
			continue
		}
		a.eventsSnapshot().OnMessage(ctx, &frame)
	}
}

// Dial connects out to url, registers the resulting connection under
// peerID, and starts its read loop, mirroring a WSTransport
// dial-then-read-loop pattern for the client side of a peer pair.
func (a *Adapter) Dial(ctx context.Context, url string, peerID model.PeerID) error {
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("wsadapter: dial %s (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return fmt.Errorf("wsadapter: dial %s: %w", url, err)
	}

	a.addConn(peerID, conn)
	a.eventsSnapshot().OnPeerCandidate(ctx, peerID)
	go func() {
		defer a.removeConn(peerID)
		defer func() { _ = conn.Close() }()
		a.readLoop(ctx, peerID, conn)
	}()
	return nil
}

// Send transmits frame to the connection registered for frame.TargetID.
func (a *Adapter) Send(ctx context.Context, frame *wire.Frame) error {
	a.mu.RLock()
	conn, ok := a.conns[model.PeerID(frame.TargetID)]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("wsadapter: no connection for peer %s", frame.TargetID)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("wsadapter: encode frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("wsadapter: write to %s: %w", frame.TargetID, err)
	}
	return nil
}

var _ adapter.BaseAdapter = (*Adapter)(nil)
