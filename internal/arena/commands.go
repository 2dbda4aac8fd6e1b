package arena

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/game"
	"rps-arena/internal/protocol"
)

func (c *Coordinator) handleHello(s *Session, args []string) {
	if len(args) < 1 {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT missing_nick"))
		return
	}
	if !protocol.ValidNickname(args[0]) {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT invalid_nick"))
		return
	}

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE already_registered"))
		return
	}
	s.nick = args[0]
	s.token = newToken()
	s.state = StateAuthenticated
	token := s.token
	s.mu.Unlock()

	c.mu.Lock()
	c.byToken[token] = s
	c.mu.Unlock()

	metricSessionsRegistered.Add(1)
	log.Info().Str("session_id", s.id).Str("nick", s.nick).Msg("session registered")
	s.send(protocol.Welcome(token))
}

func (c *Coordinator) handleList(s *Session) {
	st, _, _ := s.view()
	switch st {
	case StateAuthenticated, StateInRoom, StateReady:
	default:
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE not_auth"))
		return
	}

	snaps := c.ListRooms()
	s.send(protocol.RoomList(len(snaps)))
	for _, snap := range snaps {
		s.send(protocol.RoomRow(snap.ID, snap.Name, snap.Occupants, snap.Status))
	}
}

func (c *Coordinator) handleCreate(s *Session, args []string) {
	st, _, _ := s.view()
	if st != StateAuthenticated {
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	if len(args) < 1 {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT missing_room_name"))
		return
	}
	if !protocol.ValidRoomName(args[0]) {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT invalid_room_name"))
		return
	}

	c.mu.Lock()
	open := 0
	for _, r := range c.rooms {
		if !r.finished() {
			open++
		}
	}
	if open >= c.opts.MaxRooms {
		c.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeServerLimit, "SERVER_FULL"))
		return
	}
	room := &Room{id: c.nextRoomID, name: args[0], state: RoomOpen}
	c.rooms[room.id] = room
	c.nextRoomID++
	c.mu.Unlock()

	metricRoomsCreated.Add(1)
	log.Info().Int("room_id", room.id).Str("room", room.name).Str("nick", s.nick).Msg("room created")
	s.send(protocol.RoomCreated(room.id))
}

func (c *Coordinator) handleJoin(s *Session, args []string) {
	st, _, _ := s.view()
	if st != StateAuthenticated {
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	if len(args) < 1 {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT missing_room_id"))
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT invalid_room_id"))
		return
	}

	room := c.roomByID(id)
	if room == nil {
		c.reject(s, protocol.Err(protocol.CodeUnknownRoom, "UNKNOWN_ROOM"))
		return
	}

	var out outbox
	room.mu.Lock()
	if room.state == RoomFinished {
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeUnknownRoom, "UNKNOWN_ROOM"))
		return
	}
	if room.seats[0] != nil && room.seats[1] != nil {
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeRoomFull, "ROOM_FULL"))
		return
	}
	seat := 0
	if room.seats[0] != nil {
		seat = 1
	}
	// Re-verify under s.mu: a keepalive pause may have landed since the
	// precondition was read, and PAUSED must never be overwritten.
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	s.state = StateInRoom
	s.room = room
	s.seat = seat
	s.mu.Unlock()
	room.seats[seat] = s
	room.ready[seat] = false
	if room.state == RoomOpen {
		room.state = RoomWaiting
	}
	// Joiner ack is queued before the broadcast to the other seat.
	out.add(s, protocol.RoomJoined(room.id))
	out.add(room.otherLocked(seat), protocol.PlayerJoined(s.nick))
	room.mu.Unlock()

	log.Info().Int("room_id", room.id).Int("seat", seat).Str("nick", s.nick).Msg("seat taken")
	c.flush(out)
}

func (c *Coordinator) handleLeave(s *Session) {
	_, room, seat := s.view()
	if room == nil {
		c.reject(s, protocol.Err(protocol.CodeNotInRoom, "NOT_IN_ROOM"))
		return
	}

	var out outbox
	room.mu.Lock()
	switch room.state {
	case RoomPlaying, RoomPaused:
		// Leaving mid-match forfeits it.
		out.add(room.otherLocked(seat), protocol.PlayerLeft(s.nick))
		c.finishMatchLocked(room, 1-seat, "leave", &out)
		metricForfeits.Add(1)
	default:
		// An emptied room goes back to OPEN and stays joinable, like a
		// freshly created one.
		room.seats[seat] = nil
		room.ready[seat] = false
		if room.occupantsLocked() == 0 {
			room.state = RoomOpen
		} else {
			room.state = RoomWaiting
			out.add(room.otherLocked(seat), protocol.PlayerLeft(s.nick))
		}
		s.mu.Lock()
		if s.state == StatePaused {
			s.prevState = StateAuthenticated
		} else {
			s.state = StateAuthenticated
		}
		s.room = nil
		s.seat = -1
		s.mu.Unlock()
	}
	room.mu.Unlock()

	out.add(s, protocol.OK("left"))
	log.Info().Int("room_id", room.id).Str("nick", s.nick).Msg("seat vacated")
	c.flush(out)
}

func (c *Coordinator) handleReady(s *Session) {
	st, room, seat := s.view()
	if room == nil {
		c.reject(s, protocol.Err(protocol.CodeNotInRoom, "NOT_IN_ROOM"))
		return
	}
	if st != StateInRoom && st != StateReady {
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}

	var out outbox
	room.mu.Lock()
	if room.state != RoomWaiting {
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	// Re-verify under s.mu; READY is idempotent and a second one cannot
	// re-trigger the match (the room leaves WAITING on the first start).
	s.mu.Lock()
	if s.state != StateInRoom && s.state != StateReady {
		s.mu.Unlock()
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	s.state = StateReady
	s.mu.Unlock()
	room.ready[seat] = true
	out.add(s, protocol.OK("ready"))
	c.maybeStartMatchLocked(room, &out)
	room.mu.Unlock()

	c.flush(out)
}

func (c *Coordinator) handleMove(s *Session, args []string) {
	if len(args) < 1 {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT missing_move"))
		return
	}
	move, ok := game.ParseMove(args[0])
	if !ok {
		c.reject(s, protocol.Err(protocol.CodeBadFormat, "BAD_FORMAT invalid_move"))
		return
	}
	st, room, seat := s.view()
	if st != StatePlaying || room == nil {
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}

	var out outbox
	room.mu.Lock()
	if room.state != RoomPlaying || room.round == 0 {
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE"))
		return
	}
	if room.submitted[seat] {
		room.mu.Unlock()
		c.reject(s, protocol.Err(protocol.CodeInvalidState, "INVALID_STATE move_already_submitted"))
		return
	}
	room.pending[seat] = move
	room.submitted[seat] = true
	// Only the submitter learns anything before resolution.
	out.add(s, protocol.MoveAccepted())
	if room.submitted[0] && room.submitted[1] {
		c.resolveRoundLocked(room, &out)
	}
	room.mu.Unlock()

	c.flush(out)
}

func (c *Coordinator) handleQuit(s *Session) {
	_, room, seat := s.view()

	var out outbox
	if room != nil {
		room.mu.Lock()
		switch room.state {
		case RoomPlaying, RoomPaused:
			out.add(room.otherLocked(seat), protocol.PlayerLeft(s.nick))
			c.finishMatchLocked(room, 1-seat, "quit", &out)
			metricForfeits.Add(1)
		default:
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
	}
	out.add(s, protocol.OK("bye"))
	c.flush(out)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	c.destroySession(s)
	c.mu.Lock()
	if conn != nil {
		delete(c.byConn, conn)
	}
	c.mu.Unlock()
	if conn != nil {
		conn.Kick()
	}
	log.Info().Str("session_id", s.id).Str("nick", s.nick).Msg("session quit")
}
