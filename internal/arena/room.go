package arena

import (
	"sync"
	"time"

	"rps-arena/internal/game"
)

type RoomState int

const (
	RoomOpen RoomState = iota
	RoomWaiting
	RoomPlaying
	RoomPaused
	RoomFinished
)

func (s RoomState) String() string {
	switch s {
	case RoomOpen:
		return "OPEN"
	case RoomWaiting:
		return "WAITING"
	case RoomPlaying:
		return "PLAYING"
	case RoomPaused:
		return "PAUSED"
	case RoomFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Room is a two-seat match container. All mutable fields are guarded by
// mu; seat sessions' locks may be taken while mu is held, never the
// reverse. A room transitions to RoomFinished exactly once and is never
// reused; the janitor reclaims it after a retention interval.
type Room struct {
	id   int
	name string

	mu         sync.Mutex
	seats      [2]*Session
	ready      [2]bool
	state      RoomState
	round      int
	scores     [2]int
	pending    [2]game.Move
	submitted  [2]bool
	moveDue    time.Time
	frozen     time.Duration
	finishedAt time.Time
}

func (r *Room) occupantsLocked() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

func (r *Room) otherLocked(seat int) *Session {
	return r.seats[1-seat]
}

// RoomSnapshot is a point-in-time view used by LIST and the HTTP surface.
type RoomSnapshot struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Occupants int    `json:"occupants"`
	Status    string `json:"status"`
	Round     int    `json:"round"`
	Scores    [2]int `json:"scores"`
}

// Snapshot derives the protocol status token: PLAYING once both seats
// are taken (a full room cannot be joined), OPEN otherwise.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	occupants := r.occupantsLocked()
	status := "OPEN"
	if occupants == 2 {
		status = "PLAYING"
	}
	return RoomSnapshot{
		ID:        r.id,
		Name:      r.name,
		Occupants: occupants,
		Status:    status,
		Round:     r.round,
		Scores:    r.scores,
	}
}

func (r *Room) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == RoomFinished
}
