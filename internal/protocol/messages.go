package protocol

import (
	"fmt"
	"strconv"
)

// Reply constructors produce bare lines; the transport appends CRLF.

func Welcome(token string) string { return "WELCOME " + token }

func Err(code int, detail string) string {
	return "ERR " + strconv.Itoa(code) + " " + detail
}

func OK(msg string) string { return "OK " + msg }

func RoomList(n int) string { return "ROOM_LIST " + strconv.Itoa(n) }

func RoomRow(id int, name string, occupants int, status string) string {
	return fmt.Sprintf("ROOM %d %s %d/2 %s", id, name, occupants, status)
}

func RoomCreated(id int) string { return "ROOM_CREATED " + strconv.Itoa(id) }

func RoomJoined(id int) string { return "ROOM_JOINED " + strconv.Itoa(id) }

func PlayerJoined(nick string) string { return "PLAYER_JOINED " + nick }

func PlayerLeft(nick string) string { return "PLAYER_LEFT " + nick }

func GameStart() string { return "GAME_START" }

func RoundStart(n int) string { return "ROUND_START " + strconv.Itoa(n) }

func MoveAccepted() string { return "MOVE_ACCEPTED" }

// RoundResult reports one resolved round in seat order. An empty winner
// nick marks a draw; a missing move is rendered as NONE by the caller.
func RoundResult(winnerNick, move0, move1 string, score0, score1 int) string {
	if winnerNick == "" {
		return fmt.Sprintf("ROUND_RESULT DRAW %s %s %d %d", move0, move1, score0, score1)
	}
	return fmt.Sprintf("ROUND_RESULT WINNER %s %s %s %d %d", winnerNick, move0, move1, score0, score1)
}

func GameEnd(winnerNick string) string { return "GAME_END " + winnerNick }

func Pong() string { return "PONG" }

func ReconnectOK(roomID int, state string) string {
	return fmt.Sprintf("RECONNECT_OK %d %s", roomID, state)
}

// PlayerUnavailable carries a "short" qualifier for a pause and "long"
// for a grace-window forfeit.
func PlayerUnavailable(nick, qualifier string) string {
	return "PLAYER_UNAVAILABLE " + nick + " " + qualifier
}

func Kicked() string { return "KICKED" }
