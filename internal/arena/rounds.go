package arena

import (
	"time"

	"github.com/rs/zerolog/log"

	"rps-arena/internal/game"
	"rps-arena/internal/protocol"
)

// maybeStartMatchLocked starts the match once both seats are ready and
// reachable. A seat that paused after setting its ready flag defers the
// start until it reconnects. Caller holds room.mu.
func (c *Coordinator) maybeStartMatchLocked(room *Room, out *outbox) {
	if room.state != RoomWaiting || !room.ready[0] || !room.ready[1] {
		return
	}
	for _, p := range room.seats {
		if p == nil {
			return
		}
		p.mu.Lock()
		ready := p.state == StateReady
		p.mu.Unlock()
		if !ready {
			return
		}
	}
	c.startMatchLocked(room, out)
}

// startMatchLocked fires once both seats are ready. Caller holds room.mu.
func (c *Coordinator) startMatchLocked(room *Room, out *outbox) {
	room.state = RoomPlaying
	room.round = 0
	room.scores = [2]int{}
	for _, p := range room.seats {
		p.mu.Lock()
		if p.state == StatePaused {
			// A concurrent pause keeps PAUSED; only the restore target
			// advances, and the pause handling freezes the room.
			p.prevState = StatePlaying
		} else {
			p.state = StatePlaying
		}
		p.mu.Unlock()
		out.add(p, protocol.GameStart())
	}
	metricMatchesStarted.Add(1)
	log.Info().Int("room_id", room.id).Msg("match started")
	c.startRoundLocked(room, out)
}

// startRoundLocked advances the round counter, clears pending moves and
// arms the move deadline. Caller holds room.mu.
func (c *Coordinator) startRoundLocked(room *Room, out *outbox) {
	room.round++
	room.pending = [2]game.Move{}
	room.submitted = [2]bool{}
	room.moveDue = time.Now().Add(c.opts.MoveTimeout)
	for _, p := range room.seats {
		out.add(p, protocol.RoundStart(room.round))
	}
	log.Debug().Int("room_id", room.id).Int("round", room.round).Msg("round started")
}

// resolveRoundLocked settles the current round exactly once. Callers hold
// room.mu and have verified state == RoomPlaying with a round in flight;
// any later move or stale deadline finds the round gone and no-ops.
//
// A single missing move is a forced round loss for the silent seat. Both
// missing is a no-score replay; the round counter still advances.
func (c *Coordinator) resolveRoundLocked(room *Room, out *outbox) {
	winnerSeat := -1
	switch {
	case room.submitted[0] && room.submitted[1]:
		switch game.Resolve(room.pending[0], room.pending[1]) {
		case game.OutcomeSeat0:
			winnerSeat = 0
		case game.OutcomeSeat1:
			winnerSeat = 1
		}
	case room.submitted[0]:
		winnerSeat = 0
	case room.submitted[1]:
		winnerSeat = 1
	}

	if winnerSeat >= 0 {
		room.scores[winnerSeat]++
	}
	winnerNick := ""
	if winnerSeat >= 0 && room.seats[winnerSeat] != nil {
		winnerNick = room.seats[winnerSeat].nick
	}
	result := protocol.RoundResult(
		winnerNick,
		room.pending[0].String(), room.pending[1].String(),
		room.scores[0], room.scores[1],
	)
	for _, p := range room.seats {
		out.add(p, result)
	}
	metricRoundsResolved.Add(1)
	log.Debug().
		Int("room_id", room.id).
		Int("round", room.round).
		Str("winner", winnerNick).
		Ints("scores", room.scores[:]).
		Msg("round resolved")

	if winnerSeat >= 0 && room.scores[winnerSeat] >= game.TargetScore {
		c.finishMatchLocked(room, winnerSeat, "score", out)
		return
	}
	c.startRoundLocked(room, out)
}

// finishMatchLocked retires the room exactly once and releases both seats
// back to the lobby. A paused seat keeps its PAUSED state so the token
// stays reconnectable; only its restore target changes. winnerSeat -1
// means the match was abandoned and no GAME_END is owed. Caller holds
// room.mu and no session locks.
func (c *Coordinator) finishMatchLocked(room *Room, winnerSeat int, reason string, out *outbox) {
	room.state = RoomFinished
	room.finishedAt = time.Now()
	room.moveDue = time.Time{}
	room.frozen = 0

	winnerNick := ""
	if winnerSeat >= 0 && room.seats[winnerSeat] != nil {
		winnerNick = room.seats[winnerSeat].nick
	}
	for _, p := range room.seats {
		if p == nil {
			continue
		}
		p.mu.Lock()
		if p.state == StatePaused {
			p.prevState = StateAuthenticated
		} else if p.state != StateFinished {
			p.state = StateAuthenticated
		}
		p.room = nil
		p.seat = -1
		p.mu.Unlock()
		if winnerNick != "" {
			out.add(p, protocol.GameEnd(winnerNick))
		}
	}
	metricMatchesFinished.Add(1)
	log.Info().
		Int("room_id", room.id).
		Str("winner", winnerNick).
		Str("reason", reason).
		Ints("scores", room.scores[:]).
		Msg("match finished")
}
