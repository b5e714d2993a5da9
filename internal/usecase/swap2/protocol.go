// Package swap2 implements the Swap2 opening negotiation: the opener lays down
// three stones, the responder picks a color or places two more stones, in which
// case the opener picks the color from the five-stone opening.
package swap2

import (
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
)

const (
	openingStones = 3
	extraStones   = 2
)

// stoneColors fixes the color implied by placement order 1..5.
var stoneColors = [openingStones + extraStones]domain.Stone{
	domain.Black,
	domain.White,
	domain.Black,
	domain.Black,
	domain.White,
}

type Protocol struct {
	size  int
	state domain.Swap2State
}

func New(boardSize int) *Protocol {
	p := &Protocol{size: boardSize}
	p.Reset()
	return p
}

// Restore rebuilds a protocol from a snapshot state.
func Restore(boardSize int, state domain.Swap2State) (*Protocol, error) {
	p := New(boardSize)
	seen := make(map[domain.Coord]struct{}, len(state.Stones))
	for i, stone := range state.Stones {
		if stone.Order != i+1 || i >= len(stoneColors) || stone.Stone != stoneColors[i] {
			return nil, errors.Errorf("tentative stone #%d is inconsistent", i+1)
		}
		c := stone.Coord
		if c.X < 0 || c.Y < 0 || c.X >= boardSize || c.Y >= boardSize {
			return nil, errors.WithMessagef(domain.ErrOutOfBounds, "tentative stone #%d at (%d, %d)", i+1, c.X, c.Y)
		}
		if _, ok := seen[c]; ok {
			return nil, errors.WithMessagef(domain.ErrCellOccupied, "tentative stone #%d at (%d, %d)", i+1, c.X, c.Y)
		}
		seen[c] = struct{}{}
	}
	if err := checkState(state); err != nil {
		return nil, errors.WithMessagef(err, "phase '%v' with %d stones", state.Phase, len(state.Stones))
	}
	p.state = state.Clone()
	return p, nil
}

// checkState reports whether the phase, actor, placement counter and
// assignment agree with the number of tentative stones.
func checkState(state domain.Swap2State) error {
	stones := len(state.Stones)
	want := struct {
		ok       bool
		actor    domain.Seat
		placed   int
		resolved bool
	}{}
	switch state.Phase {
	case domain.Placement:
		want.ok = stones < openingStones
		want.actor, want.placed = domain.Opener, stones
	case domain.Choice:
		want.ok = stones == openingStones
		want.actor = domain.Responder
	case domain.Extra:
		want.ok = stones >= openingStones && stones < openingStones+extraStones
		want.actor, want.placed = domain.Responder, stones-openingStones
	case domain.FinalChoice:
		want.ok = stones == openingStones+extraStones
		want.actor = domain.Opener
	case domain.Resolved:
		want.ok = stones == openingStones || stones == openingStones+extraStones
		want.resolved = true
	default:
		return errors.New("unknown phase")
	}
	switch {
	case !want.ok:
		return errors.New("stone count does not match the phase")
	case want.resolved:
		a := state.Assignment
		if a == nil || a.OpenerColor == domain.Empty || a.OpenerColor > domain.White || a.ResponderColor != a.OpenerColor.Opponent() {
			return errors.New("resolved opening carries no valid color assignment")
		}
		return nil
	case state.Assignment != nil:
		return errors.New("unresolved opening carries a color assignment")
	case state.Actor != want.actor:
		return errors.Errorf("'%v' cannot act", state.Actor)
	case state.PlacedInPhase != want.placed:
		return errors.Errorf("%d stones placed in phase", state.PlacedInPhase)
	}
	return nil
}

func (p *Protocol) Reset() {
	p.state = domain.Swap2State{
		Phase:  domain.Placement,
		Stones: make([]domain.TentativeStone, 0, len(stoneColors)),
		Actor:  domain.Opener,
	}
}

func (p *Protocol) State() domain.Swap2State {
	return p.state.Clone()
}

func (p *Protocol) Phase() domain.Phase {
	return p.state.Phase
}

// Actor is the seat expected to act next. It is meaningless once resolved.
func (p *Protocol) Actor() domain.Seat {
	return p.state.Actor
}

func (p *Protocol) Resolved() bool {
	return p.state.Phase == domain.Resolved
}

func (p *Protocol) Assignment() (domain.ColorAssignment, bool) {
	if p.state.Assignment == nil {
		return domain.ColorAssignment{}, false
	}
	return *p.state.Assignment, true
}

func (p *Protocol) PlaceStone(seat domain.Seat, c domain.Coord) (domain.ProtocolEvent, error) {
	if err := p.checkActor(seat); err != nil {
		return domain.ProtocolEvent{}, err
	}
	var limit int
	switch p.state.Phase {
	case domain.Placement:
		limit = openingStones
	case domain.Extra:
		limit = extraStones
	default:
		return domain.ProtocolEvent{}, errors.WithMessagef(domain.ErrWrongPhase,
			"cannot place a stone during '%v'", p.state.Phase)
	}
	if c.X < 0 || c.Y < 0 || c.X >= p.size || c.Y >= p.size {
		return domain.ProtocolEvent{}, errors.WithMessagef(domain.ErrOutOfBounds, "(%d, %d)", c.X, c.Y)
	}
	for _, stone := range p.state.Stones {
		if stone.Coord == c {
			return domain.ProtocolEvent{}, errors.WithMessagef(domain.ErrCellOccupied,
				"(%d, %d) holds tentative stone #%d", c.X, c.Y, stone.Order)
		}
	}
	order := len(p.state.Stones) + 1
	placed := domain.TentativeStone{
		Order: order,
		Coord: c,
		Stone: stoneColors[order-1],
	}
	p.state.Stones = append(p.state.Stones, placed)
	p.state.PlacedInPhase++
	event := domain.ProtocolEvent{
		From:   p.state.Phase,
		Placed: &placed,
		Actor:  seat,
	}
	if p.state.PlacedInPhase == limit {
		p.advance()
	}
	event.To = p.state.Phase
	return event, nil
}

func (p *Protocol) MakeChoice(seat domain.Seat, choice domain.ChoiceKind) (domain.ProtocolEvent, error) {
	if err := p.checkActor(seat); err != nil {
		return domain.ProtocolEvent{}, err
	}
	if choice > domain.PlaceMore {
		return domain.ProtocolEvent{}, errors.WithMessagef(domain.ErrInvalidChoice, "choice '%d'", choice)
	}
	from := p.state.Phase
	switch {
	case from == domain.Choice && choice == domain.PlaceMore:
		p.advance()
		return domain.ProtocolEvent{From: from, To: p.state.Phase, Choice: &choice, Actor: seat}, nil
	case from == domain.Choice || from == domain.FinalChoice:
		if choice == domain.PlaceMore {
			return domain.ProtocolEvent{}, errors.WithMessage(domain.ErrWrongPhase,
				"placing more stones is only possible after the three-stone opening")
		}
		taken := domain.Black
		if choice == domain.TakeWhite {
			taken = domain.White
		}
		assignment := domain.ColorAssignment{OpenerColor: taken.Opponent(), ResponderColor: taken}
		if seat == domain.Opener {
			assignment = domain.ColorAssignment{OpenerColor: taken, ResponderColor: taken.Opponent()}
		}
		p.state.Assignment = &assignment
		p.state.Phase = domain.Resolved
		p.state.PlacedInPhase = 0
		resolved := assignment
		return domain.ProtocolEvent{
			From:       from,
			To:         domain.Resolved,
			Choice:     &choice,
			Actor:      seat,
			Assignment: &resolved,
		}, nil
	default:
		return domain.ProtocolEvent{}, errors.WithMessagef(domain.ErrWrongPhase,
			"cannot choose '%v' during '%v'", choice, from)
	}
}

func (p *Protocol) Apply(seat domain.Seat, action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	switch action.Kind {
	case domain.PlaceAction:
		return p.PlaceStone(seat, action.Coord)
	case domain.ChoiceAction:
		return p.MakeChoice(seat, action.Choice)
	default:
		return domain.ProtocolEvent{}, errors.Errorf("unexpected protocol action '%d'", action.Kind)
	}
}

// Seed writes the tentative stones onto an empty board in their order colors.
func (p *Protocol) Seed(board *domain.Board) error {
	if !p.Resolved() {
		return errors.WithMessage(domain.ErrWrongPhase, "opening is not resolved yet")
	}
	for _, stone := range p.state.Stones {
		if err := board.Place(stone.Coord, stone.Stone); err != nil {
			return errors.WithMessagef(err, "seed tentative stone #%d", stone.Order)
		}
	}
	return nil
}

func (p *Protocol) checkActor(seat domain.Seat) error {
	if p.state.Phase == domain.Resolved {
		return errors.WithMessage(domain.ErrWrongPhase, "opening is already resolved")
	}
	if seat != p.state.Actor {
		return errors.WithMessagef(domain.ErrNotYourTurn, "'%v' is expected to act", p.state.Actor)
	}
	return nil
}

func (p *Protocol) advance() {
	p.state.PlacedInPhase = 0
	switch p.state.Phase {
	case domain.Placement:
		p.state.Phase = domain.Choice
		p.state.Actor = domain.Responder
	case domain.Choice:
		p.state.Phase = domain.Extra
		p.state.Actor = domain.Responder
	case domain.Extra:
		p.state.Phase = domain.FinalChoice
		p.state.Actor = domain.Opener
	}
}
