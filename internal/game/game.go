package game

// Move is one of the three throws. MoveNone marks an empty pending slot
// and the wire sentinel for a seat that never submitted.
type Move int

const (
	MoveNone Move = iota
	MoveRock
	MovePaper
	MoveScissors
)

func ParseMove(s string) (Move, bool) {
	switch s {
	case "R":
		return MoveRock, true
	case "P":
		return MovePaper, true
	case "S":
		return MoveScissors, true
	default:
		return MoveNone, false
	}
}

func (m Move) String() string {
	switch m {
	case MoveRock:
		return "R"
	case MovePaper:
		return "P"
	case MoveScissors:
		return "S"
	default:
		return "NONE"
	}
}

type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeSeat0
	OutcomeSeat1
)

// TargetScore ends the match; best of nine rounds means first to five.
const TargetScore = 5

// Resolve compares two submitted moves. Rock beats scissors, scissors
// beats paper, paper beats rock.
func Resolve(a, b Move) Outcome {
	if a == b {
		return OutcomeDraw
	}
	if beats(a, b) {
		return OutcomeSeat0
	}
	return OutcomeSeat1
}

func beats(a, b Move) bool {
	switch a {
	case MoveRock:
		return b == MoveScissors
	case MovePaper:
		return b == MoveRock
	case MoveScissors:
		return b == MovePaper
	default:
		return false
	}
}
