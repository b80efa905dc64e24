package state

import "fmt"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Phase is the position of an event inside its stroke group.
type Phase uint8

const (
	PhaseStart Phase = iota
	PhaseDrag
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseDrag:
		return "drag"
	case PhaseEnd:
		return "end"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if p > PhaseEnd {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "start":
		*p = PhaseStart
	case "drag":
		*p = PhaseDrag
	case "end":
		*p = PhaseEnd
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Mode selects how a stroke is painted.
type Mode uint8

const (
	ModePen Mode = iota
	ModeEraser
)

func (m Mode) String() string {
	if m == ModeEraser {
		return "eraser"
	}
	return "pen"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pen", "":
		*m = ModePen
	case "eraser":
		*m = ModeEraser
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

// StrokeEvent is one segment of a stroke group. A Start event is a dot
// (From == To); Drag and End events continue from the previous point.
type StrokeEvent struct {
	GroupID  string  `json:"group_id"`
	OriginID string  `json:"origin_id"`
	Seq      int     `json:"seq"`
	Phase    Phase   `json:"phase"`
	From     Point   `json:"from"`
	To       Point   `json:"to"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Mode     Mode    `json:"mode"`
	Visible  bool    `json:"visible"`
}

// UndoToken references a stroke group and the visibility it ends up with.
type UndoToken struct {
	GroupID string `json:"group_id"`
	Visible bool   `json:"visible"`
}

// eventKey identifies one event across peers for replay de-duplication.
type eventKey struct {
	origin string
	group  string
	phase  Phase
	seq    int
}

func keyOf(ev StrokeEvent) eventKey {
	return eventKey{origin: ev.OriginID, group: ev.GroupID, phase: ev.Phase, seq: ev.Seq}
}
