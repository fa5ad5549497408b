// Package gesture turns hand detections into playback commands.
package gesture

// Symbol is a discrete gesture recognized in a single frame.
type Symbol string

const (
	// None means no recognized gesture.
	None Symbol = "NONE"
	// Avancer asks to seek forward.
	Avancer Symbol = "AVANCER"
	// Reculer asks to seek backward.
	Reculer Symbol = "RECULER"
	// TogglePlayPause asks to flip between playing and paused.
	TogglePlayPause Symbol = "TOGGLE_PLAY_PAUSE"
)

// Symbols lists every symbol in a stable order.
var Symbols = []Symbol{None, Avancer, Reculer, TogglePlayPause}

// ParseSymbol returns the symbol named s and whether it is known.
func ParseSymbol(s string) (Symbol, bool) {
	for _, sym := range Symbols {
		if string(sym) == s {
			return sym, true
		}
	}
	return None, false
}

// Command is a playback action emitted by a stabilizer.
type Command string

const (
	CmdNone            Command = ""
	CmdTogglePlayPause Command = "toggle_play_pause"
	CmdAdvance         Command = "advance"
	CmdRewind          Command = "rewind"
)

// CommandFor maps a symbol to the command it triggers.
func CommandFor(s Symbol) Command {
	switch s {
	case Avancer:
		return CmdAdvance
	case Reculer:
		return CmdRewind
	case TogglePlayPause:
		return CmdTogglePlayPause
	}
	return CmdNone
}

// Symbol returns the gesture symbol that produces the command.
func (c Command) Symbol() Symbol {
	switch c {
	case CmdAdvance:
		return Avancer
	case CmdRewind:
		return Reculer
	case CmdTogglePlayPause:
		return TogglePlayPause
	}
	return None
}
