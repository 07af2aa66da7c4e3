package ledger

import "strings"

// Action is whether a fill opens or closes exposure.
type Action int

const (
	ActionOpen Action = iota
	ActionClose
)

func (a Action) String() string {
	if a == ActionClose {
		return "Close"
	}
	return "Open"
}

// Side is the position side a fill applies to.
type Side int

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	if s == SideShort {
		return "Short"
	}
	return "Long"
}

// Sign is +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Direction is the classified form of a venue trade label.
type Direction struct {
	Action Action
	Side   Side
	Label  string

	// Fallback is set when the label matched no known pattern and the
	// open/long default was applied.
	Fallback bool
}

// Classify maps a venue label such as "Close Short" onto a Direction.
// Unrecognized labels (e.g. "Liquidation") classify as open/long with
// Fallback set; Classify never fails.
func Classify(label string) Direction {
	d := strings.ToLower(strings.TrimSpace(label))
	hasOpen := strings.Contains(d, "open")
	hasClose := strings.Contains(d, "close")
	hasLong := strings.Contains(d, "long")
	hasShort := strings.Contains(d, "short")

	switch {
	case hasOpen && hasLong:
		return Direction{Action: ActionOpen, Side: SideLong, Label: "Open Long"}
	case hasClose && hasLong:
		return Direction{Action: ActionClose, Side: SideLong, Label: "Close Long"}
	case hasOpen && hasShort:
		return Direction{Action: ActionOpen, Side: SideShort, Label: "Open Short"}
	case hasClose && hasShort:
		return Direction{Action: ActionClose, Side: SideShort, Label: "Close Short"}
	case d == "buy":
		return Direction{Action: ActionOpen, Side: SideLong, Label: "Buy"}
	case d == "sell":
		return Direction{Action: ActionClose, Side: SideLong, Label: "Sell"}
	default:
		return Direction{Action: ActionOpen, Side: SideLong, Label: "Long", Fallback: true}
	}
}

// DirLabel renders an action/side pair the way the venue labels fills.
func DirLabel(a Action, s Side) string {
	return a.String() + " " + s.String()
}
