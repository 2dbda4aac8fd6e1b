// Package arena is the match session engine: per-connection session
// state machines, two-seat rooms, round sequencing and the timeout and
// reconnection supervision that holds two independently-driven peers to
// one consistent game state.
package arena

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/config"
	"rps-arena/internal/protocol"
)

type Options struct {
	MoveTimeout       time.Duration
	KeepaliveTimeout  time.Duration
	ReconnectGrace    time.Duration
	MaxSessions       int
	MaxRooms          int
	MaxProtocolErrors int

	FinishedRoomRetention time.Duration
	SweepInterval         time.Duration
}

func OptionsFromConfig(cfg config.ServerConfig) Options {
	return Options{
		MoveTimeout:           time.Duration(cfg.MoveTimeoutSeconds) * time.Second,
		KeepaliveTimeout:      time.Duration(cfg.KeepaliveSeconds) * time.Second,
		ReconnectGrace:        time.Duration(cfg.ReconnectGraceSeconds) * time.Second,
		MaxSessions:           cfg.MaxSessions,
		MaxRooms:              cfg.MaxRooms,
		MaxProtocolErrors:     cfg.MaxProtocolErrors,
		FinishedRoomRetention: time.Minute,
		SweepInterval:         500 * time.Millisecond,
	}
}

// Coordinator owns the session and room registries. The registry lock is
// never held across network sends; replies are collected under the locks
// and flushed afterwards.
type Coordinator struct {
	opts Options

	mu         sync.RWMutex
	byToken    map[string]*Session
	byConn     map[Conn]*Session
	rooms      map[int]*Room
	nextRoomID int
	live       int
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 500 * time.Millisecond
	}
	if opts.FinishedRoomRetention <= 0 {
		opts.FinishedRoomRetention = time.Minute
	}
	return &Coordinator{
		opts:       opts,
		byToken:    map[string]*Session{},
		byConn:     map[Conn]*Session{},
		rooms:      map[int]*Room{},
		nextRoomID: 1,
	}
}

// Connect registers a fresh CONNECTED session for an accepted transport
// handle. It reports false when the server is at capacity, in which case
// the handle has already been told and kicked.
func (c *Coordinator) Connect(conn Conn) bool {
	now := time.Now()
	c.mu.Lock()
	if c.live >= c.opts.MaxSessions {
		c.mu.Unlock()
		conn.SendLine(protocol.Err(protocol.CodeServerLimit, "SERVER_FULL"))
		conn.Kick()
		return false
	}
	s := &Session{
		id:           newSessionID(),
		state:        StateConnected,
		seat:         -1,
		conn:         conn,
		lastActivity: now,
		keepaliveDue: now.Add(c.opts.KeepaliveTimeout),
	}
	c.byConn[conn] = s
	c.live++
	c.mu.Unlock()

	log.Debug().Str("session_id", s.id).Str("remote", conn.RemoteAddr()).Msg("connection accepted")
	return true
}

// Disconnect handles the transport read loop ending. Closing a connection
// cancels nothing by itself: an authenticated session is paused and gets
// its grace window, exactly as a keepalive lapse would be handled.
func (c *Coordinator) Disconnect(conn Conn) {
	c.mu.Lock()
	s := c.byConn[conn]
	delete(c.byConn, conn)
	c.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	if st == StateConnected || st == StateFinished {
		c.destroySession(s)
		return
	}
	c.pauseSession(s, "disconnect")
}

// Dispatch routes one parsed command to the session bound to conn. It is
// the entry point the line-framing transport calls into.
func (c *Coordinator) Dispatch(conn Conn, cmd protocol.Command) {
	if cmd.Name == "" {
		return
	}
	c.mu.RLock()
	s := c.byConn[conn]
	c.mu.RUnlock()
	if s == nil {
		return
	}
	s.touch(c.opts.KeepaliveTimeout)

	switch cmd.Name {
	case "HELLO":
		c.handleHello(s, cmd.Args)
	case "LIST":
		c.handleList(s)
	case "CREATE":
		c.handleCreate(s, cmd.Args)
	case "JOIN":
		c.handleJoin(s, cmd.Args)
	case "LEAVE":
		c.handleLeave(s)
	case "READY":
		c.handleReady(s)
	case "MOVE":
		c.handleMove(s, cmd.Args)
	case "PING":
		s.send(protocol.Pong())
	case "RECONNECT":
		c.handleReconnect(conn, s, cmd.Args)
	case "QUIT":
		c.handleQuit(s)
	default:
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT unknown_command"))
	}
}

// reject sends exactly one ERR line. A session that keeps misbehaving is
// told off and kicked; the kick is an ordinary disconnect, so the grace
// window still applies.
func (c *Coordinator) reject(s *Session, line string) {
	s.mu.Lock()
	s.protoErrors++
	kicked := s.protoErrors >= c.opts.MaxProtocolErrors
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	conn.SendLine(line)
	if kicked {
		conn.SendLine(protocol.Err(protocol.CodeServerLimit, "TOO_MANY_INVALID_MSGS"))
		conn.SendLine(protocol.Kicked())
		conn.Kick()
		metricKicks.Add(1)
		log.Warn().Str("session_id", s.id).Msg("session kicked for protocol abuse")
	}
}

func (c *Coordinator) destroySession(s *Session) {
	c.mu.Lock()
	s.mu.Lock()
	if !s.gone {
		s.gone = true
		if s.token != "" {
			delete(c.byToken, s.token)
		}
		c.live--
	}
	s.state = StateFinished
	s.room = nil
	s.mu.Unlock()
	c.mu.Unlock()
}

func (c *Coordinator) roomByID(id int) *Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[id]
}

// ListRooms snapshots the registry for LIST and the HTTP surface.
// Finished rooms awaiting reclamation are hidden.
func (c *Coordinator) ListRooms() []RoomSnapshot {
	c.mu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.RUnlock()

	snaps := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		if r.finished() {
			continue
		}
		snaps = append(snaps, r.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// Stats is the ops-surface view of the registries.
type Stats struct {
	Sessions     int `json:"sessions"`
	Rooms        int `json:"rooms"`
	PlayingRooms int `json:"playing_rooms"`
}

func (c *Coordinator) Stats() Stats {
	snaps := c.ListRooms()
	playing := 0
	for _, s := range snaps {
		if s.Status == "PLAYING" {
			playing++
		}
	}
	c.mu.RLock()
	live := c.live
	c.mu.RUnlock()
	return Stats{Sessions: live, Rooms: len(snaps), PlayingRooms: playing}
}

// outbox collects replies built under locks; flush runs after every lock
// is released so a slow peer never stalls unrelated sessions.
type outMsg struct {
	to   *Session
	line string
}

type outbox []outMsg

func (o *outbox) add(to *Session, line string) {
	if to == nil {
		return
	}
	*o = append(*o, outMsg{to: to, line: line})
}

func (c *Coordinator) flush(out outbox) {
	for _, m := range out {
		m.to.send(m.line)
	}
}
