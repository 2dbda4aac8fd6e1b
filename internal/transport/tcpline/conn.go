package tcpline

import (
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

const sendBuffer = 32

// conn wraps one accepted TCP connection. Outbound lines go through a
// buffered channel drained by a write loop, so SendLine never blocks a
// caller on a slow peer; a peer that cannot keep up loses lines.
type conn struct {
	nc   net.Conn
	send chan string

	mu     sync.Mutex
	closed bool
}

func newConn(nc net.Conn) *conn {
	return &conn{nc: nc, send: make(chan string, sendBuffer)}
}

func (c *conn) SendLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- line:
	default:
		log.Warn().Str("remote", c.RemoteAddr()).Msg("send buffer full, line dropped")
	}
}

// Kick stops accepting outbound lines and lets the write loop drain what
// is already queued before closing the socket.
func (c *conn) Kick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

func (c *conn) writeLoop() {
	for line := range c.send {
		if _, err := c.nc.Write([]byte(line + "\r\n")); err != nil {
			log.Debug().Err(err).Str("remote", c.RemoteAddr()).Msg("write failed")
			break
		}
	}
	_ = c.nc.Close()
}
