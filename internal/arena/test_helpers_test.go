package arena

import (
	"strings"
	"sync"
	"testing"
	"time"

	"rps-arena/internal/protocol"
)

type fakeConn struct {
	mu     sync.Mutex
	lines  []string
	kicked bool
}

func (f *fakeConn) SendLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
}

func (f *fakeConn) Kick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = true
}

func (f *fakeConn) RemoteAddr() string { return "test:0" }

func (f *fakeConn) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

func (f *fakeConn) Kicked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kicked
}

func (f *fakeConn) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.lines) == 0 {
		t.Fatal("no lines sent")
	}
	return f.lines[len(f.lines)-1]
}

func (f *fakeConn) contains(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeConn) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
}

func testOptions() Options {
	return Options{
		MoveTimeout:           30 * time.Second,
		KeepaliveTimeout:      60 * time.Second,
		ReconnectGrace:        120 * time.Second,
		MaxSessions:           128,
		MaxRooms:              64,
		MaxProtocolErrors:     10,
		FinishedRoomRetention: time.Minute,
		SweepInterval:         500 * time.Millisecond,
	}
}

func cmd(name string, args ...string) protocol.Command {
	return protocol.Command{Name: name, Args: args}
}

func dial(t *testing.T, c *Coordinator) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	if !c.Connect(conn) {
		t.Fatal("Connect refused")
	}
	return conn
}

func hello(t *testing.T, c *Coordinator, conn *fakeConn, nick string) string {
	t.Helper()
	c.Dispatch(conn, cmd("HELLO", nick))
	line := conn.last(t)
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "WELCOME" {
		t.Fatalf("HELLO reply = %q, want WELCOME <token>", line)
	}
	return fields[1]
}

// startMatch drives two sessions through HELLO/CREATE/JOIN/READY into a
// playing room and clears both transcripts up to GAME_START/ROUND_START.
func startMatch(t *testing.T, c *Coordinator) (*fakeConn, *fakeConn, string, string, *Room) {
	t.Helper()
	conn1 := dial(t, c)
	conn2 := dial(t, c)
	tok1 := hello(t, c, conn1, "alice")
	tok2 := hello(t, c, conn2, "bob")

	c.Dispatch(conn1, cmd("CREATE", "duel"))
	if got := conn1.last(t); got != "ROOM_CREATED 1" {
		t.Fatalf("CREATE reply = %q", got)
	}
	c.Dispatch(conn1, cmd("JOIN", "1"))
	c.Dispatch(conn2, cmd("JOIN", "1"))
	c.Dispatch(conn1, cmd("READY"))
	c.Dispatch(conn2, cmd("READY"))

	for _, conn := range []*fakeConn{conn1, conn2} {
		if !conn.contains("GAME_START") {
			t.Fatalf("missing GAME_START in %v", conn.Lines())
		}
		if !conn.contains("ROUND_START 1") {
			t.Fatalf("missing ROUND_START 1 in %v", conn.Lines())
		}
	}

	room := c.roomByID(1)
	if room == nil {
		t.Fatal("room 1 missing from registry")
	}
	conn1.clear()
	conn2.clear()
	return conn1, conn2, tok1, tok2, room
}

func sessionFor(t *testing.T, c *Coordinator, conn Conn) *Session {
	t.Helper()
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.byConn[conn]
	if s == nil {
		t.Fatal("no session bound to conn")
	}
	return s
}
