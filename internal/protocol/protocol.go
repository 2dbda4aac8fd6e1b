// Package protocol implements the CRLF line protocol spoken over the
// raw TCP connection: inbound command parsing and outbound reply
// formatting. It holds no game state.
package protocol

import "strings"

const (
	MaxLineLen     = 512
	MaxNickLen     = 32
	MaxRoomNameLen = 64
)

// Error codes carried on ERR replies.
const (
	CodeBadFormat    = 100
	CodeInvalidState = 101
	CodeRoomFull     = 102
	CodeAuthFail     = 103
	CodeUnknownRoom  = 104
	CodeNotInRoom    = 105
	CodeServerLimit  = 200
)

type Command struct {
	Name string
	Args []string
}

// ParseCommand splits one already-framed line into a command name and
// arguments. A blank line yields an empty Name; the dispatcher ignores it.
func ParseCommand(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Name: fields[0], Args: fields[1:]}
}

// ValidNickname accepts 1..32 printable, non-space characters.
func ValidNickname(s string) bool {
	return validToken(s, MaxNickLen)
}

// ValidRoomName accepts 1..64 printable, non-space characters.
func ValidRoomName(s string) bool {
	return validToken(s, MaxRoomNameLen)
}

func validToken(s string, max int) bool {
	if len(s) == 0 || len(s) > max {
		return false
	}
	for _, r := range s {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}
	return true
}
