// server.go: inbound UDP command channel of the hub.
package protocol

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
)

const (
	readTimeout    = 250 * time.Millisecond
	maxDatagram    = 65535
	commandBacklog = 64
)

// CommandServer receives JSON command datagrams on a UDP socket and queues
// the parsed commands. Malformed datagrams are dropped silently.
type CommandServer struct {
	conn     *net.UDPConn
	commands chan Command

	mu      sync.Mutex
	started bool
	quit    chan struct{}
	done    chan struct{}
}

// NewCommandServer binds the command socket. An unbindable socket is an
// unrecoverable startup failure for the caller.
func NewCommandServer(port int) (*CommandServer, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to bind command socket on port %d: %w", port, err)).
			Component("protocol").
			Category(errors.CategoryNetwork).
			Context("port", port).
			Build()
	}
	return &CommandServer{
		conn:     conn,
		commands: make(chan Command, commandBacklog),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// LocalAddr returns the bound socket address.
func (s *CommandServer) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Start launches the background receive loop.
func (s *CommandServer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.receiveLoop()
}

// Next returns the oldest queued command without blocking. The second return
// value is false when no command is pending.
func (s *CommandServer) Next() (Command, bool) {
	select {
	case cmd := <-s.commands:
		return cmd, true
	default:
		return Command{}, false
	}
}

// Shutdown stops the receive loop and closes the socket. Idempotent.
func (s *CommandServer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		// never started, just close the socket
		select {
		case <-s.quit:
		default:
			close(s.quit)
			_ = s.conn.Close()
		}
		return
	}
	select {
	case <-s.quit:
		return // already shut down
	default:
	}
	close(s.quit)
	_ = s.conn.Close()
	<-s.done
}

func (s *CommandServer) receiveLoop() {
	defer close(s.done)
	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.quit:
				return
			default:
				GetLogger().Error("command socket read failed", "error", err)
				continue
			}
		}

		cmd, err := ParseCommand(buf[:n])
		if err != nil {
			// malformed datagrams are dropped silently
			GetLogger().Debug("dropped malformed command datagram", "from", addr.String(), "bytes", n)
			continue
		}

		select {
		case s.commands <- cmd:
		default:
			GetLogger().Warn("command queue full, dropping command", "cmd", cmd.Cmd)
		}
	}
}

// ParseCommand decodes a command datagram. The verb is lower-cased, an empty
// verb is an error.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, err
	}
	cmd.Cmd = strings.ToLower(cmd.Cmd)
	if cmd.Cmd == "" {
		return Command{}, errors.NewStd("datagram has no cmd field")
	}
	return cmd, nil
}
