package commands

import "strings"

// Command is a manual instruction from the keyboard or a live-view client.
type Command int

const (
	None Command = iota
	CapturePhoto
	TestNotification
	Unlock
	Lock
	Quit
)

var names = map[Command]string{
	None:             "none",
	CapturePhoto:     "capture photo",
	TestNotification: "test notification",
	Unlock:           "unlock",
	Lock:             "lock",
	Quit:             "quit",
}

func (c Command) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// FromKey maps a key code as returned by the display window. Negative codes
// mean no key was pressed.
func FromKey(key int) Command {
	if key < 0 {
		return None
	}
	return fromByte(byte(key & 0xFF))
}

// FromText maps a text message such as "p" or "u\n". Anything longer than a
// single character is ignored.
func FromText(msg string) Command {
	msg = strings.TrimSpace(msg)
	if len(msg) != 1 {
		return None
	}
	return fromByte(msg[0])
}

func fromByte(b byte) Command {
	switch b {
	case 'p':
		return CapturePhoto
	case 'n':
		return TestNotification
	case 'u':
		return Unlock
	case 'l':
		return Lock
	case 'q':
		return Quit
	}
	return None
}
