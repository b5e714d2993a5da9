package domain

// Seat identifies a side of the Swap2 negotiation. The opener places the first
// three stones and makes the final choice, the responder answers.
type Seat byte

const (
	Opener = Seat(iota)
	Responder
)

func (s Seat) Other() Seat {
	if s == Opener {
		return Responder
	}
	return Opener
}

func (s Seat) String() string {
	if s == Responder {
		return "responder"
	}
	return "opener"
}

type Phase byte

const (
	Placement = Phase(iota)
	Choice
	Extra
	FinalChoice
	Resolved
)

var phaseNames = [...]string{"placement", "choice", "extra", "final_choice", "resolved"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

type ChoiceKind byte

const (
	TakeBlack = ChoiceKind(iota)
	TakeWhite
	PlaceMore
)

func (c ChoiceKind) String() string {
	switch c {
	case TakeBlack:
		return "black"
	case TakeWhite:
		return "white"
	case PlaceMore:
		return "place_more"
	default:
		return "unknown"
	}
}

type TentativeStone struct {
	Order int
	Coord Coord
	Stone Stone
}

type ColorAssignment struct {
	OpenerColor    Stone
	ResponderColor Stone
}

func (a ColorAssignment) ColorOf(seat Seat) Stone {
	if seat == Opener {
		return a.OpenerColor
	}
	return a.ResponderColor
}

type Swap2State struct {
	Phase         Phase
	Stones        []TentativeStone
	Actor         Seat
	PlacedInPhase int
	Assignment    *ColorAssignment
}

func (s Swap2State) Clone() Swap2State {
	clone := s
	clone.Stones = append([]TentativeStone(nil), s.Stones...)
	if s.Assignment != nil {
		a := *s.Assignment
		clone.Assignment = &a
	}
	return clone
}

type ProtocolActionKind byte

const (
	PlaceAction = ProtocolActionKind(iota)
	ChoiceAction
)

type ProtocolAction struct {
	Kind   ProtocolActionKind
	Coord  Coord
	Choice ChoiceKind
}

func PlaceStoneAction(c Coord) ProtocolAction {
	return ProtocolAction{Kind: PlaceAction, Coord: c}
}

func MakeChoiceAction(choice ChoiceKind) ProtocolAction {
	return ProtocolAction{Kind: ChoiceAction, Choice: choice}
}

type ProtocolEvent struct {
	From       Phase
	To         Phase
	Placed     *TentativeStone
	Choice     *ChoiceKind
	Actor      Seat
	Assignment *ColorAssignment
}

func (e ProtocolEvent) Resolved() bool {
	return e.Assignment != nil
}
