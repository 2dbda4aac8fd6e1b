package arena

import (
	"time"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/protocol"
)

// pauseSession suspends a session that stopped talking: the handle is
// detached and closed, a grace deadline is armed, and the session's room
// (if any) freezes. Scores and moves already submitted survive the pause.
func (c *Coordinator) pauseSession(s *Session, reason string) {
	now := time.Now()
	s.mu.Lock()
	if s.state == StatePaused || s.state == StateFinished {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	s.prevState = s.state
	s.state = StatePaused
	s.graceDue = now.Add(c.opts.ReconnectGrace)
	room := s.room
	seat := s.seat
	s.mu.Unlock()

	if conn != nil {
		c.mu.Lock()
		delete(c.byConn, conn)
		c.mu.Unlock()
		conn.Kick()
	}
	log.Info().Str("session_id", s.id).Str("nick", s.nick).Str("reason", reason).Msg("session paused")

	if room == nil {
		return
	}
	var out outbox
	room.mu.Lock()
	if room.state == RoomPlaying {
		// Freeze the move deadline until the seat comes back or forfeits.
		room.frozen = time.Until(room.moveDue)
		if room.frozen < 0 {
			room.frozen = 0
		}
		room.moveDue = time.Time{}
		room.state = RoomPaused
	}
	if room.state != RoomFinished {
		out.add(room.otherLocked(seat), protocol.PlayerUnavailable(s.nick, "short"))
	}
	room.mu.Unlock()
	c.flush(out)
}

// handleReconnect rebinds a fresh connection to an existing session by
// token. The throwaway session created for the new connection is
// discarded; the original session object keeps all game state.
func (c *Coordinator) handleReconnect(conn Conn, s *Session, args []string) {
	if len(args) < 1 {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT missing_token"))
		return
	}
	st, _, _ := s.view()
	if st != StateConnected {
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}

	now := time.Now()
	c.mu.Lock()
	target := c.byToken[args[0]]
	if target == nil {
		c.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeAuthFail, "AUTH_FAIL"))
		return
	}
	target.mu.Lock()
	if target.state != StatePaused || now.After(target.graceDue) {
		target.mu.Unlock()
		c.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeAuthFail, "AUTH_FAIL"))
		return
	}
	// Rebind: the handle moves onto the paused session, the placeholder
	// session for this connection is dropped.
	delete(c.byConn, conn)
	c.byConn[conn] = target
	c.live--
	restore := target.prevState
	if restore == StateConnected {
		restore = StateAuthenticated
	}
	target.state = restore
	target.conn = conn
	target.graceDue = time.Time{}
	target.lastActivity = now
	target.keepaliveDue = now.Add(c.opts.KeepaliveTimeout)
	room := target.room
	seat := target.seat
	target.mu.Unlock()
	c.mu.Unlock()

	s.mu.Lock()
	s.state = StateFinished
	s.conn = nil
	s.gone = true
	s.mu.Unlock()

	metricReconnects.Add(1)
	log.Info().
		Str("session_id", target.id).
		Str("nick", target.nick).
		Str("state", restore.String()).
		Msg("session reconnected")

	var out outbox
	roomID := 0
	if room == nil {
		out.add(target, protocol.ReconnectOK(roomID, restore.String()))
		c.flush(out)
		return
	}

	room.mu.Lock()
	roomID = room.id
	out.add(target, protocol.ReconnectOK(roomID, restore.String()))
	if room.state == RoomPaused {
		other := room.otherLocked(seat)
		if other == nil || !other.unavailable() {
			room.state = RoomPlaying
			room.moveDue = now.Add(room.frozen)
			room.frozen = 0
			log.Info().Int("room_id", room.id).Msg("match resumed")
		}
	}
	if room.round > 0 && room.state != RoomFinished {
		out.add(target, protocol.RoundStart(room.round))
	}
	out.add(room.otherLocked(seat), protocol.PlayerJoined(target.nick))
	// A READY seat coming back may complete the handshake the pause
	// interrupted.
	c.maybeStartMatchLocked(room, &out)
	room.mu.Unlock()
	c.flush(out)
}

// expireSession finalizes a paused session whose grace window lapsed:
// the opponent (if any) is told with a "long" qualifier and wins by
// forfeit regardless of score, then the session record is destroyed.
func (c *Coordinator) expireSession(s *Session, now time.Time) {
	s.mu.Lock()
	if s.state != StatePaused || s.graceDue.IsZero() || now.Before(s.graceDue) {
		s.mu.Unlock()
		return
	}
	room := s.room
	seat := s.seat
	s.mu.Unlock()

	c.destroySession(s)
	log.Info().Str("session_id", s.id).Str("nick", s.nick).Msg("grace window expired")

	if room == nil {
		return
	}
	var out outbox
	room.mu.Lock()
	switch room.state {
	case RoomPlaying, RoomPaused:
		other := room.otherLocked(seat)
		out.add(other, protocol.PlayerUnavailable(s.nick, "long"))
		if other == nil || other.unavailable() {
			// Both sides lapsed: abandoned, nobody to crown.
			c.finishMatchLocked(room, -1, "abandoned", &out)
		} else {
			c.finishMatchLocked(room, 1-seat, "forfeit", &out)
		}
		metricForfeits.Add(1)
	case RoomOpen, RoomWaiting:
		room.seats[seat] = nil
		room.ready[seat] = false
		if room.occupantsLocked() == 0 {
			room.state = RoomOpen
		} else {
			room.state = RoomWaiting
			out.add(room.otherLocked(seat), protocol.PlayerLeft(s.nick))
		}
	}
	room.mu.Unlock()
	c.flush(out)
}
