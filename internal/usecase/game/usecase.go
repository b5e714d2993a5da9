package game

import (
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/ai"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/swap2"
	"github.com/pkg/errors"
)

type useCase struct {
	settings   domain.Settings
	board      *domain.Board
	protocol   *swap2.Protocol
	humanSeat  domain.Seat
	assignment domain.ColorAssignment
	toMove     domain.Stone
	outcome    domain.Outcome
	match      domain.MatchState
	moves      []domain.Move
	engine     *ai.Engine
	// pending holds the bot's decision for the current position, so repeated
	// queries agree with each other and with what PlayBot applies.
	pending *decision
}

type decision struct {
	move   domain.Coord
	action domain.ProtocolAction
}

func New(settings domain.Settings, engine *ai.Engine) (*useCase, error) {
	settings, err := normalizeSettings(settings)
	if err != nil {
		return nil, err
	}
	u := &useCase{
		settings: settings,
		board:    domain.NewBoard(settings.BoardSize),
		engine:   engine,
	}
	u.ResetMatch()
	return u, nil
}

func normalizeSettings(settings domain.Settings) (domain.Settings, error) {
	if settings.BoardSize == 0 {
		settings.BoardSize = domain.DefaultBoardSize
	}
	if settings.BoardSize < domain.MinBoardSize || settings.BoardSize > domain.MaxBoardSize {
		return domain.Settings{}, errors.WithMessagef(domain.ErrInvalidSettings,
			"board size %d is outside [%d, %d]", settings.BoardSize, domain.MinBoardSize, domain.MaxBoardSize)
	}
	if !settings.Difficulty.Valid() {
		return domain.Settings{}, errors.WithMessagef(domain.ErrInvalidSettings, "difficulty %d", settings.Difficulty)
	}
	switch settings.HumanColor {
	case domain.Empty:
		settings.HumanColor = domain.Black
	case domain.Black, domain.White:
	default:
		return domain.Settings{}, errors.WithMessagef(domain.ErrInvalidSettings, "human color %d", settings.HumanColor)
	}
	if settings.WinThreshold == 0 {
		settings.WinThreshold = domain.DefaultWinThreshold
	}
	if settings.WinThreshold < 0 {
		return domain.Settings{}, errors.WithMessagef(domain.ErrInvalidSettings, "win threshold %d", settings.WinThreshold)
	}
	return settings, nil
}

func (u *useCase) SubmitHumanMove(c domain.Coord) (domain.RoundEvent, error) {
	if err := u.checkTurn(u.humanColor()); err != nil {
		return domain.RoundEvent{}, err
	}
	return u.executeMove(c, u.humanColor())
}

func (u *useCase) ApplyBotMove(c domain.Coord) (domain.RoundEvent, error) {
	if err := u.checkTurn(u.botColor()); err != nil {
		return domain.RoundEvent{}, err
	}
	return u.executeMove(c, u.botColor())
}

func (u *useCase) BotMove() (domain.Coord, error) {
	if err := u.checkTurn(u.botColor()); err != nil {
		return domain.Coord{}, err
	}
	if u.pending != nil {
		return u.pending.move, nil
	}
	c, ok := u.engine.SelectMove(u.board, u.botColor(), u.settings.Difficulty)
	if !ok {
		return domain.Coord{}, errors.WithMessage(domain.ErrSessionTerminal, "board is full")
	}
	u.pending = &decision{move: c}
	return c, nil
}

func (u *useCase) SubmitProtocolAction(action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	return u.applyProtocol(u.humanSeat, action)
}

func (u *useCase) ApplyBotProtocolAction(action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	return u.applyProtocol(u.humanSeat.Other(), action)
}

func (u *useCase) BotProtocolAction() (domain.ProtocolAction, error) {
	if err := u.checkOpening(); err != nil {
		return domain.ProtocolAction{}, err
	}
	if u.protocol.Actor() != u.humanSeat.Other() {
		return domain.ProtocolAction{}, errors.WithMessage(domain.ErrNotYourTurn, "the opening waits for the human")
	}
	if u.pending != nil {
		return u.pending.action, nil
	}
	action := u.engine.ProtocolAction(u.settings.BoardSize, u.protocol.State(), u.settings.Difficulty)
	u.pending = &decision{action: action}
	return action, nil
}

func (u *useCase) BotToAct() bool {
	if u.match.IsOver() || u.outcome.IsTerminal() {
		return false
	}
	if u.InOpening() {
		return u.protocol.Actor() != u.humanSeat
	}
	return u.toMove == u.botColor()
}

func (u *useCase) InOpening() bool {
	return u.protocol != nil && !u.protocol.Resolved()
}

func (u *useCase) Settings() domain.Settings {
	return u.settings
}

// ResetRound clears the board for the next round of the same match. Colors
// stay as negotiated; an unfinished opening starts over.
func (u *useCase) ResetRound() error {
	if u.match.IsOver() {
		return errors.WithMessage(domain.ErrSessionTerminal, "match is over")
	}
	if u.InOpening() {
		u.protocol.Reset()
	}
	u.board.Reset()
	u.toMove = domain.Black
	u.outcome = domain.Outcome{}
	u.moves = nil
	u.pending = nil
	return nil
}

func (u *useCase) ResetMatch() {
	u.board.Reset()
	u.toMove = domain.Black
	u.outcome = domain.Outcome{}
	u.moves = nil
	u.pending = nil
	u.match = domain.MatchState{WinThreshold: u.settings.WinThreshold}
	if !u.settings.Swap2 {
		u.humanSeat = domain.Opener
		u.assignment = domain.ColorAssignment{
			OpenerColor:    u.settings.HumanColor,
			ResponderColor: u.settings.HumanColor.Opponent(),
		}
		return
	}
	u.humanSeat = domain.Responder
	if u.settings.HumanColor == domain.Black {
		u.humanSeat = domain.Opener
	}
	u.assignment = domain.ColorAssignment{}
	if u.protocol == nil {
		u.protocol = swap2.New(u.settings.BoardSize)
	} else {
		u.protocol.Reset()
	}
}

func (u *useCase) applyProtocol(seat domain.Seat, action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	if err := u.checkOpening(); err != nil {
		return domain.ProtocolEvent{}, err
	}
	event, err := u.protocol.Apply(seat, action)
	if err != nil {
		return domain.ProtocolEvent{}, errors.WithMessagef(err, "%v action", seat)
	}
	u.pending = nil
	if event.Resolved() {
		if err := u.protocol.Seed(u.board); err != nil {
			return domain.ProtocolEvent{}, errors.WithMessage(err, "seed board")
		}
		u.assignment = *event.Assignment
		u.toMove = domain.Black
	}
	return event, nil
}

func (u *useCase) checkOpening() error {
	if u.match.IsOver() {
		return errors.WithMessage(domain.ErrSessionTerminal, "match is over")
	}
	if !u.InOpening() {
		return errors.WithMessage(domain.ErrWrongPhase, "no opening is being negotiated")
	}
	return nil
}

func (u *useCase) checkTurn(stone domain.Stone) error {
	switch {
	case u.match.IsOver():
		return errors.WithMessage(domain.ErrSessionTerminal, "match is over")
	case u.outcome.IsTerminal():
		return errors.WithMessage(domain.ErrSessionTerminal, "round is over")
	case u.InOpening():
		return errors.WithMessagef(domain.ErrWrongPhase, "opening is in '%v'", u.protocol.Phase())
	case u.toMove != stone:
		return errors.WithMessagef(domain.ErrNotYourTurn, "%v to move", u.toMove)
	}
	return nil
}

func (u *useCase) executeMove(c domain.Coord, stone domain.Stone) (domain.RoundEvent, error) {
	if err := u.board.Place(c, stone); err != nil {
		return domain.RoundEvent{}, errors.WithMessage(err, "place stone")
	}
	u.pending = nil
	move := domain.Move{Coord: c, Stone: stone}
	u.moves = append(u.moves, move)
	event := domain.RoundEvent{Kind: domain.Continue, Move: move}
	switch {
	case u.board.CheckWin(c, stone):
		u.outcome = domain.Outcome{Status: domain.Win, Winner: stone}
		u.match.Rounds++
		if stone == domain.Black {
			u.match.BlackWins++
		} else {
			u.match.WhiteWins++
		}
		if u.match.Wins(stone) >= u.match.WinThreshold {
			u.match.Winner = stone
		}
		event.Kind = domain.RoundWon
		event.Winner = stone
		event.Line = u.board.WinningLine(c)
	case u.board.IsFull():
		u.outcome = domain.Outcome{Status: domain.Draw}
		u.match.Rounds++
		u.match.Draws++
		event.Kind = domain.RoundDraw
	default:
		u.toMove = stone.Opponent()
	}
	event.MatchWinner = u.match.Winner
	event.Match = u.match
	return event, nil
}

func (u *useCase) humanColor() domain.Stone {
	return u.assignment.ColorOf(u.humanSeat)
}

func (u *useCase) botColor() domain.Stone {
	return u.assignment.ColorOf(u.humanSeat.Other())
}
