package arena

import (
	"context"
	"time"
)

// StartJanitor runs the timeout supervision loop: move deadlines,
// keepalive lapses, grace-window expiries and finished-room reclamation
// are all driven from one sweep so every firing re-checks state under
// the same locks the command handlers take.
func (c *Coordinator) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.sweep(now)
			}
		}
	}()
}

func (c *Coordinator) sweep(now time.Time) {
	c.sweepMoveDeadlines(now)
	c.sweepKeepalives(now)
	c.sweepGraceWindows(now)
	c.sweepFinishedRooms(now)
}

// sweepMoveDeadlines forces resolution of rounds whose deadline passed.
// The state re-check under room.mu makes a deadline that lost the race
// against a just-arrived final move a no-op.
func (c *Coordinator) sweepMoveDeadlines(now time.Time) {
	c.mu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.RUnlock()

	for _, room := range rooms {
		var out outbox
		room.mu.Lock()
		if room.state == RoomPlaying && room.round > 0 &&
			!room.moveDue.IsZero() && now.After(room.moveDue) {
			c.resolveRoundLocked(room, &out)
		}
		room.mu.Unlock()
		c.flush(out)
	}
}

// sweepKeepalives pauses sessions that went silent. A connection that was
// never registered has no token to come back with, so it is dropped
// outright.
func (c *Coordinator) sweepKeepalives(now time.Time) {
	c.mu.RLock()
	sessions := make([]*Session, 0, len(c.byConn))
	for _, s := range c.byConn {
		sessions = append(sessions, s)
	}
	c.mu.RUnlock()

	for _, s := range sessions {
		s.mu.Lock()
		lapsed := s.state != StatePaused && s.state != StateFinished &&
			!s.keepaliveDue.IsZero() && now.After(s.keepaliveDue)
		unregistered := s.state == StateConnected
		conn := s.conn
		s.mu.Unlock()
		if !lapsed {
			continue
		}
		if unregistered {
			c.mu.Lock()
			delete(c.byConn, conn)
			c.mu.Unlock()
			c.destroySession(s)
			if conn != nil {
				conn.Kick()
			}
			continue
		}
		c.pauseSession(s, "keepalive")
	}
}

func (c *Coordinator) sweepGraceWindows(now time.Time) {
	c.mu.RLock()
	paused := make([]*Session, 0)
	for _, s := range c.byToken {
		paused = append(paused, s)
	}
	c.mu.RUnlock()

	for _, s := range paused {
		c.expireSession(s, now)
	}
}

func (c *Coordinator) sweepFinishedRooms(now time.Time) {
	c.mu.RLock()
	stale := make([]int, 0)
	for id, room := range c.rooms {
		room.mu.Lock()
		if room.state == RoomFinished && now.After(room.finishedAt.Add(c.opts.FinishedRoomRetention)) {
			stale = append(stale, id)
		}
		room.mu.Unlock()
	}
	c.mu.RUnlock()

	if len(stale) == 0 {
		return
	}
	c.mu.Lock()
	for _, id := range stale {
		delete(c.rooms, id)
	}
	c.mu.Unlock()
}
