// publisher.go: fire-and-forget outbound UDP data channel of the hub.
package protocol

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
)

// Publisher sends JSON-encoded payloads to one fixed UDP destination.
// Delivery is best effort, loss is an accepted cost of the telemetry channel.
type Publisher struct {
	conn *net.UDPConn

	mu     sync.Mutex
	closed bool
}

// NewPublisher resolves the destination and opens the sending socket.
func NewPublisher(host string, port int) (*Publisher, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to resolve data destination %s:%d: %w", host, port, err)).
			Component("protocol").
			Category(errors.CategoryNetwork).
			Build()
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open data socket to %s:%d: %w", host, port, err)).
			Component("protocol").
			Category(errors.CategoryNetwork).
			Build()
	}
	if err := enableBroadcast(conn); err != nil {
		_ = conn.Close()
		return nil, errors.New(fmt.Errorf("failed to enable broadcast on data socket to %s:%d: %w", host, port, err)).
			Component("protocol").
			Category(errors.CategoryNetwork).
			Build()
	}
	return &Publisher{conn: conn}, nil
}

// enableBroadcast sets SO_BROADCAST so a directed-broadcast destination,
// the usual way to reach every consumer on a venue LAN, is writable.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var optErr error
	if err := raw.Control(func(fd uintptr) {
		optErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return optErr
}

// SendJSON marshals the payload and sends it as one datagram. Send errors
// are logged, never propagated, there is no retry.
func (p *Publisher) SendJSON(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		GetLogger().Error("failed to marshal payload", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if _, err := p.conn.Write(data); err != nil {
		GetLogger().Debug("payload send failed", "error", err, "bytes", len(data))
	}
}

// Close releases the sending socket. Idempotent.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	_ = p.conn.Close()
}
