package arena

import (
	"strings"
	"testing"
)

func TestHelloIssuesUniqueTokens(t *testing.T) {
	c := NewCoordinator(testOptions())
	tokens := map[string]bool{}
	for i := 0; i < 16; i++ {
		conn := dial(t, c)
		tok := hello(t, c, conn, "player")
		if tokens[tok] {
			t.Fatalf("token %q issued twice", tok)
		}
		tokens[tok] = true
	}
}

func TestHelloRejectsBadInput(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)

	c.Dispatch(conn, cmd("HELLO"))
	if got := conn.last(t); got != "ERR 100 BAD_FORMAT missing_nick" {
		t.Fatalf("missing nick reply = %q", got)
	}
	c.Dispatch(conn, cmd("HELLO", strings.Repeat("x", 33)))
	if got := conn.last(t); got != "ERR 100 BAD_FORMAT invalid_nick" {
		t.Fatalf("oversize nick reply = %q", got)
	}

	hello(t, c, conn, "alice")
	c.Dispatch(conn, cmd("HELLO", "again"))
	if got := conn.last(t); !strings.HasPrefix(got, "ERR 101 INVALID_STATE") {
		t.Fatalf("second HELLO reply = %q", got)
	}
}

func TestLobbyFlow(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)
	hello(t, c, conn, "Bob")

	c.Dispatch(conn, cmd("CREATE", "duel"))
	if got := conn.last(t); got != "ROOM_CREATED 1" {
		t.Fatalf("CREATE reply = %q", got)
	}
	c.Dispatch(conn, cmd("JOIN", "1"))
	if got := conn.last(t); got != "ROOM_JOINED 1" {
		t.Fatalf("JOIN reply = %q", got)
	}

	other := dial(t, c)
	hello(t, c, other, "carol")
	other.clear()
	c.Dispatch(other, cmd("LIST"))
	lines := other.Lines()
	if len(lines) != 2 || lines[0] != "ROOM_LIST 1" || lines[1] != "ROOM 1 duel 1/2 OPEN" {
		t.Fatalf("LIST transcript = %v", lines)
	}
}

func TestListShowsFullRoomAsPlaying(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn1 := dial(t, c)
	conn2 := dial(t, c)
	hello(t, c, conn1, "alice")
	hello(t, c, conn2, "bob")

	c.Dispatch(conn1, cmd("CREATE", "duel"))
	c.Dispatch(conn1, cmd("JOIN", "1"))
	c.Dispatch(conn2, cmd("JOIN", "1"))

	// Full rooms read PLAYING even before the readiness handshake; a
	// JOIN against them would get ROOM_FULL either way.
	other := dial(t, c)
	hello(t, c, other, "carol")
	other.clear()
	c.Dispatch(other, cmd("LIST"))
	lines := other.Lines()
	if len(lines) != 2 || lines[1] != "ROOM 1 duel 2/2 PLAYING" {
		t.Fatalf("LIST transcript = %v", lines)
	}
}

func TestCommandsBeforeHello(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)

	c.Dispatch(conn, cmd("LIST"))
	if got := conn.last(t); got != "ERR 101 INVALID_STATE not_auth" {
		t.Fatalf("LIST reply = %q", got)
	}
	c.Dispatch(conn, cmd("CREATE", "duel"))
	if got := conn.last(t); !strings.HasPrefix(got, "ERR 101") {
		t.Fatalf("CREATE reply = %q", got)
	}
}

func TestJoinErrors(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn1 := dial(t, c)
	conn2 := dial(t, c)
	conn3 := dial(t, c)
	hello(t, c, conn1, "alice")
	hello(t, c, conn2, "bob")
	hello(t, c, conn3, "carol")

	c.Dispatch(conn1, cmd("JOIN", "42"))
	if got := conn1.last(t); got != "ERR 104 UNKNOWN_ROOM" {
		t.Fatalf("unknown room reply = %q", got)
	}
	c.Dispatch(conn1, cmd("JOIN", "duel"))
	if got := conn1.last(t); got != "ERR 100 BAD_FORMAT invalid_room_id" {
		t.Fatalf("bad id reply = %q", got)
	}

	c.Dispatch(conn1, cmd("CREATE", "duel"))
	c.Dispatch(conn1, cmd("JOIN", "1"))
	c.Dispatch(conn2, cmd("JOIN", "1"))
	c.Dispatch(conn3, cmd("JOIN", "1"))
	if got := conn3.last(t); got != "ERR 102 ROOM_FULL" {
		t.Fatalf("full room reply = %q", got)
	}

	c.Dispatch(conn1, cmd("JOIN", "1"))
	if got := conn1.last(t); !strings.HasPrefix(got, "ERR 101") {
		t.Fatalf("double join reply = %q", got)
	}
}

func TestJoinBroadcastsToOccupant(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn1 := dial(t, c)
	conn2 := dial(t, c)
	hello(t, c, conn1, "alice")
	hello(t, c, conn2, "bob")

	c.Dispatch(conn1, cmd("CREATE", "duel"))
	c.Dispatch(conn1, cmd("JOIN", "1"))
	conn1.clear()
	c.Dispatch(conn2, cmd("JOIN", "1"))

	if got := conn2.last(t); got != "ROOM_JOINED 1" {
		t.Fatalf("joiner ack = %q", got)
	}
	if got := conn1.last(t); got != "PLAYER_JOINED bob" {
		t.Fatalf("occupant broadcast = %q", got)
	}
}

func TestLeaveBeforePlayingVacatesSeat(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn1 := dial(t, c)
	conn2 := dial(t, c)
	hello(t, c, conn1, "alice")
	hello(t, c, conn2, "bob")

	c.Dispatch(conn1, cmd("CREATE", "duel"))
	c.Dispatch(conn1, cmd("JOIN", "1"))
	c.Dispatch(conn2, cmd("JOIN", "1"))
	conn1.clear()
	c.Dispatch(conn2, cmd("LEAVE"))

	if got := conn2.last(t); got != "OK left" {
		t.Fatalf("LEAVE reply = %q", got)
	}
	if got := conn1.last(t); got != "PLAYER_LEFT bob" {
		t.Fatalf("occupant notification = %q", got)
	}
	// The vacated seat is joinable again.
	c.Dispatch(conn2, cmd("JOIN", "1"))
	if got := conn2.last(t); got != "ROOM_JOINED 1" {
		t.Fatalf("rejoin reply = %q", got)
	}
}

func TestLeaveWithoutRoom(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)
	hello(t, c, conn, "alice")

	c.Dispatch(conn, cmd("LEAVE"))
	if got := conn.last(t); got != "ERR 105 NOT_IN_ROOM" {
		t.Fatalf("LEAVE reply = %q", got)
	}
}

func TestUnknownCommandsKickAfterLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxProtocolErrors = 3
	c := NewCoordinator(opts)
	conn := dial(t, c)
	hello(t, c, conn, "alice")

	for i := 0; i < 3; i++ {
		c.Dispatch(conn, cmd("BOGUS"))
	}
	if !conn.contains("ERR 200 TOO_MANY_INVALID_MSGS") {
		t.Fatalf("missing flood error in %v", conn.Lines())
	}
	if got := conn.last(t); got != "KICKED" {
		t.Fatalf("last line = %q, want KICKED", got)
	}
	if !conn.Kicked() {
		t.Fatal("connection not kicked")
	}
}

func TestQuitDestroysSession(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)
	tok := hello(t, c, conn, "alice")

	c.Dispatch(conn, cmd("QUIT"))
	if !conn.contains("OK bye") {
		t.Fatalf("missing OK bye in %v", conn.Lines())
	}
	if !conn.Kicked() {
		t.Fatal("connection not closed after QUIT")
	}

	reconn := dial(t, c)
	c.Dispatch(reconn, cmd("RECONNECT", tok))
	if got := reconn.last(t); got != "ERR 103 AUTH_FAIL" {
		t.Fatalf("reconnect after QUIT = %q", got)
	}
}

func TestServerFull(t *testing.T) {
	opts := testOptions()
	opts.MaxSessions = 1
	c := NewCoordinator(opts)
	dial(t, c)

	conn := &fakeConn{}
	if c.Connect(conn) {
		t.Fatal("Connect accepted beyond capacity")
	}
	if got := conn.last(t); got != "ERR 200 SERVER_FULL" {
		t.Fatalf("overflow reply = %q", got)
	}
	if !conn.Kicked() {
		t.Fatal("overflow connection not closed")
	}
}

func TestRoomCapacity(t *testing.T) {
	opts := testOptions()
	opts.MaxRooms = 1
	c := NewCoordinator(opts)
	conn := dial(t, c)
	hello(t, c, conn, "alice")

	c.Dispatch(conn, cmd("CREATE", "one"))
	c.Dispatch(conn, cmd("CREATE", "two"))
	if got := conn.last(t); got != "ERR 200 SERVER_FULL" {
		t.Fatalf("room overflow reply = %q", got)
	}
}

func TestPing(t *testing.T) {
	c := NewCoordinator(testOptions())
	conn := dial(t, c)
	c.Dispatch(conn, cmd("PING"))
	if got := conn.last(t); got != "PONG" {
		t.Fatalf("PING reply = %q", got)
	}
}
