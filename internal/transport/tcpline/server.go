// Package tcpline accepts raw TCP connections and frames the byte stream
// into CRLF-terminated lines for the arena dispatcher. It owns no game
// state; a failed write is logged and never rolls anything back.
package tcpline

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/arena"
	"rps-arena/internal/protocol"
)

type Server struct {
	coord *arena.Coordinator
	addr  string
}

func NewServer(coord *arena.Coordinator, addr string) *Server {
	return &Server{coord: coord, addr: addr}
}

// Listen accepts connections until the listener fails or ctx is
// canceled. Each connection gets its own goroutine pair (read loop here,
// write loop on the conn).
func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	log.Info().Str("addr", s.addr).Msg("tcp listening")

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.handle(nc)
	}
}

func (s *Server) handle(nc net.Conn) {
	c := newConn(nc)
	go c.writeLoop()
	if !s.coord.Connect(c) {
		return
	}
	s.readLoop(c)
}

func (s *Server) readLoop(c *conn) {
	defer func() {
		s.coord.Disconnect(c)
		c.Kick()
	}()

	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, protocol.MaxLineLen), protocol.MaxLineLen)
	for scanner.Scan() {
		s.coord.Dispatch(c, protocol.ParseCommand(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		log.Debug().Err(err).Str("remote", c.RemoteAddr()).Msg("connection read ended")
	}
}
