package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Murmur/internal/auth"
	"Murmur/internal/event"
	"Murmur/internal/model"
)

// FrameHandler receives every decoded inbound frame.
type FrameHandler interface {
	HandleFrame(frame event.Frame)
}

// Connection states.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosing      State = "closing"
	StateReconnecting State = "reconnecting"
)

var (
	// tuning parameters
	writeWait            = 10 * time.Second // time allowed to write a frame to the peer
	keepaliveInterval    = 25 * time.Second // app-level ping period while connected
	sendBufSize          = 256              // outbound buffer size per connection
	defaultQueueSize     = 64               // frames held while disconnected
	sendTimeout          = 2 * time.Second  // timeout for enqueuing outbound frames
	reconnectBaseDelay   = time.Second      // first backoff step, doubled per attempt
	maxReconnectAttempts = 5                // after this many failures, degrade to REST-only
)

type Options struct {
	KeepaliveInterval    time.Duration
	WriteWait            time.Duration
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int
	QueueSize            int

	// OnStateChange, when set, is invoked (on its own goroutine) for every
	// state transition so a UI can surface connectivity.
	OnStateChange func(State)

	Dialer *websocket.Dialer
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.KeepaliveInterval <= 0 {
		out.KeepaliveInterval = keepaliveInterval
	}
	if out.WriteWait <= 0 {
		out.WriteWait = writeWait
	}
	if out.ReconnectBaseDelay <= 0 {
		out.ReconnectBaseDelay = reconnectBaseDelay
	}
	if out.MaxReconnectAttempts <= 0 {
		out.MaxReconnectAttempts = maxReconnectAttempts
	}
	if out.QueueSize <= 0 {
		out.QueueSize = defaultQueueSize
	}
	if out.QueueSize > sendBufSize {
		out.QueueSize = sendBufSize
	}
	if out.Dialer == nil {
		out.Dialer = websocket.DefaultDialer
	}
	return out
}

// Manager owns at most one live socket per client session. It dials, keeps
// the connection alive, queues sends while disconnected, and reconnects with
// exponential backoff until the attempt cap degrades it to REST-only.
type Manager struct {
	url     string
	creds   *auth.Credentials
	handler FrameHandler
	logger  *zap.Logger
	opts    Options

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	connID         string
	cancel         context.CancelFunc
	egress         chan event.Frame
	queue          []event.Frame
	attempts       int
	degraded       bool
	closeRequested bool
	reconnectTimer *time.Timer
}

func NewManager(socketURL string, creds *auth.Credentials, handler FrameHandler, logger *zap.Logger, opts Options) *Manager {
	return &Manager{
		url:     socketURL,
		creds:   creds,
		handler: handler,
		logger:  logger,
		opts:    opts.withDefaults(),
		state:   StateDisconnected,
	}
}

// Connect opens the socket. It is idempotent: a connection already open or
// opening makes it a no-op. Absence of a credential is a defined
// do-not-connect state, not an error.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected || m.state == StateReconnecting {
		m.mu.Unlock()
		return
	}
	if m.creds.Token() == "" {
		m.mu.Unlock()
		m.logger.Info("no credential available, connect skipped")
		return
	}
	m.closeRequested = false
	m.degraded = false
	m.attempts = 0
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	go m.dial()
}

// Disconnect closes the connection and cancels the keepalive and any
// scheduled reconnect. The resulting Disconnected state is terminal until
// the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeRequested = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}

	if m.conn != nil {
		m.setStateLocked(StateClosing)
		m.teardownLocked()
	}
	m.attempts = 0
	m.setStateLocked(StateDisconnected)
}

// Send transmits a frame immediately when connected; otherwise the frame
// joins a bounded FIFO queue flushed, in order, the moment the connection
// opens. A degraded manager rejects sends so callers can fall back to REST.
func (m *Manager) Send(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	frame := event.Frame{Type: eventType, Payload: data}

	m.mu.Lock()
	if m.state == StateConnected && m.egress != nil {
		egress := m.egress
		m.mu.Unlock()

		select {
		case egress <- frame:
			return nil
		case <-time.After(sendTimeout):
			m.logger.Warn("egress full, dropping frame", zap.String("type", eventType))
			return model.ErrSendQueueFull
		}
	}

	if m.degraded {
		m.mu.Unlock()
		return model.ErrConnectionDegraded
	}
	if len(m.queue) >= m.opts.QueueSize {
		m.mu.Unlock()
		m.logger.Warn("send queue full, dropping frame", zap.String("type", eventType))
		return model.ErrSendQueueFull
	}
	m.queue = append(m.queue, frame)
	m.mu.Unlock()
	return nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Degraded reports whether the reconnect cap was exhausted and the client is
// operating REST-only.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Stats returns transport statistics for monitoring.
func (m *Manager) Stats() model.ConnectionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.ConnectionStats{
		State:             string(m.state),
		Degraded:          m.degraded,
		ReconnectAttempts: m.attempts,
		QueuedFrames:      len(m.queue),
	}
}

func (m *Manager) dial() {
	dialURL := m.url
	if token := m.creds.Token(); token != "" {
		dialURL += "?token=" + url.QueryEscape(token)
	}

	conn, resp, err := m.opts.Dialer.Dial(dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	m.mu.Lock()
	if m.closeRequested {
		m.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		m.logger.Warn("dial failed", zap.Error(err))
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.conn = conn
	m.connID = uuid.NewString()
	m.cancel = cancel
	m.attempts = 0
	m.degraded = false
	m.egress = make(chan event.Frame, sendBufSize)

	// Flush frames queued while disconnected, in original order, before any
	// new send can reach the open connection. QueueSize <= sendBufSize keeps
	// this non-blocking.
	for _, frame := range m.queue {
		m.egress <- frame
	}
	flushed := len(m.queue)
	m.queue = nil

	egress := m.egress
	connID := m.connID
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	m.logger.Info("connected",
		zap.String("conn_id", connID),
		zap.Int("flushed_frames", flushed),
	)

	go m.readLoop(conn, connID)
	go m.writeLoop(ctx, conn, egress, connID)
}

func (m *Manager) readLoop(conn *websocket.Conn, connID string) {
	for {
		var frame event.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			) {
				m.logger.Info("connection closed by server", zap.String("conn_id", connID))
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				m.logger.Warn("connection timed out", zap.String("conn_id", connID))
			} else {
				m.logger.Warn("read failed",
					zap.String("conn_id", connID),
					zap.Error(err),
				)
			}
			m.handleClose(connID)
			return
		}

		m.handler.HandleFrame(frame)
	}
}

func (m *Manager) writeLoop(ctx context.Context, conn *websocket.Conn, egress chan event.Frame, connID string) {
	ticker := time.NewTicker(m.opts.KeepaliveInterval)
	defer ticker.Stop()

	ping := event.Frame{Type: event.EventPing, Payload: json.RawMessage(`{}`)}

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-egress:
			conn.SetWriteDeadline(time.Now().Add(m.opts.WriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				m.logger.Warn("write failed",
					zap.String("conn_id", connID),
					zap.String("type", frame.Type),
					zap.Error(err),
				)
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(m.opts.WriteWait))
			if err := conn.WriteJSON(ping); err != nil {
				m.logger.Warn("keepalive failed",
					zap.String("conn_id", connID),
					zap.Error(err),
				)
				conn.Close()
				return
			}
		}
	}
}

// handleClose runs when the read loop exits. A close the client did not ask
// for goes to Reconnecting; a requested one settles at Disconnected.
func (m *Manager) handleClose(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connID != connID {
		// A newer connection already took over.
		return
	}
	m.teardownLocked()

	if m.closeRequested {
		m.setStateLocked(StateDisconnected)
		return
	}
	m.scheduleReconnectLocked()
}

// teardownLocked cancels the write loop and closes the socket. Caller must
// hold the lock.
func (m *Manager) teardownLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.egress = nil
	m.connID = ""
}

// scheduleReconnectLocked arms the next backoff attempt, or degrades to
// REST-only once the cap is reached. Caller must hold the lock.
func (m *Manager) scheduleReconnectLocked() {
	if m.attempts >= m.opts.MaxReconnectAttempts {
		m.degraded = true
		m.setStateLocked(StateDisconnected)
		m.logger.Warn("reconnect attempts exhausted, operating rest-only",
			zap.Int("attempts", m.attempts),
		)
		return
	}

	m.attempts++
	delay := m.backoffDelay(m.attempts)
	m.setStateLocked(StateReconnecting)
	m.logger.Info("reconnect scheduled",
		zap.Int("attempt", m.attempts),
		zap.Duration("delay", delay),
	)

	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.reconnectTimer = nil
		if m.closeRequested {
			m.setStateLocked(StateDisconnected)
			m.mu.Unlock()
			return
		}
		m.setStateLocked(StateConnecting)
		m.mu.Unlock()
		m.dial()
	})
}

// backoffDelay doubles per attempt: base, 2*base, 4*base, ...
func (m *Manager) backoffDelay(attempt int) time.Duration {
	return m.opts.ReconnectBaseDelay << uint(attempt-1)
}

func (m *Manager) setStateLocked(next State) {
	if m.state == next {
		return
	}
	m.state = next
	if cb := m.opts.OnStateChange; cb != nil {
		go cb(next)
	}
}
