package arena

import (
	"sync"
	"time"
)

type SessionState int

const (
	StateConnected SessionState = iota
	StateAuthenticated
	StateInRoom
	StateReady
	StatePlaying
	StatePaused
	StateFinished
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateInRoom:
		return "IN_ROOM"
	case StateReady:
		return "READY"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Conn is the live transport handle owned by a session. SendLine must
// never block on the peer; Kick flushes queued lines and closes.
type Conn interface {
	SendLine(line string)
	Kick()
	RemoteAddr() string
}

// Session is the server-side record of one participant. It outlives the
// connection that created it: on reconnect the handle is replaced, never
// duplicated. id, token and nick are written once before the session
// becomes discoverable by token and are read without the lock afterwards.
type Session struct {
	id    string
	token string
	nick  string

	mu           sync.Mutex
	state        SessionState
	prevState    SessionState
	room         *Room
	seat         int
	conn         Conn
	lastActivity time.Time
	keepaliveDue time.Time
	graceDue     time.Time
	protoErrors  int
	gone         bool
}

func (s *Session) view() (SessionState, *Room, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.room, s.seat
}

func (s *Session) send(line string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.SendLine(line)
	}
}

func (s *Session) touch(keepalive time.Duration) {
	now := time.Now()
	s.mu.Lock()
	s.lastActivity = now
	s.keepaliveDue = now.Add(keepalive)
	s.mu.Unlock()
}

func (s *Session) unavailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePaused || s.state == StateFinished
}
