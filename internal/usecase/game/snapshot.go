package game

import (
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/ai"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/swap2"
	"github.com/pkg/errors"
)

func (u *useCase) Snapshot() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		Settings:  u.settings,
		Cells:     u.board.Cells(),
		ToMove:    u.toMove,
		Outcome:   u.outcome,
		Match:     u.match,
		HumanSeat: u.humanSeat,
		BotToAct:  u.BotToAct(),
		Moves:     append([]domain.Move(nil), u.moves...),
		SavedAt:   time.Now(),
	}
	if u.protocol != nil {
		state := u.protocol.State()
		snapshot.Protocol = &state
	}
	if u.assignment != (domain.ColorAssignment{}) {
		assignment := u.assignment
		snapshot.Assignment = &assignment
	}
	return snapshot
}

func Restore(snapshot domain.SessionSnapshot, engine *ai.Engine) (*useCase, error) {
	settings, err := normalizeSettings(snapshot.Settings)
	if err != nil {
		return nil, errors.WithMessage(err, "snapshot settings")
	}
	board, err := domain.BoardFromCells(settings.BoardSize, snapshot.Cells)
	if err != nil {
		return nil, errors.WithMessage(err, "snapshot board")
	}
	u := &useCase{
		settings:  settings,
		board:     board,
		humanSeat: snapshot.HumanSeat,
		toMove:    snapshot.ToMove,
		outcome:   snapshot.Outcome,
		match:     snapshot.Match,
		moves:     append([]domain.Move(nil), snapshot.Moves...),
		engine:    engine,
	}
	if snapshot.Assignment != nil {
		u.assignment = *snapshot.Assignment
	}
	if settings.Swap2 {
		if snapshot.Protocol == nil {
			return nil, errors.New("snapshot of a swap2 session has no protocol state")
		}
		if u.protocol, err = swap2.Restore(settings.BoardSize, *snapshot.Protocol); err != nil {
			return nil, errors.WithMessage(err, "snapshot protocol")
		}
	}
	if u.match.WinThreshold == 0 {
		u.match.WinThreshold = settings.WinThreshold
	}
	if err := u.checkRestored(); err != nil {
		return nil, errors.WithMessage(err, "inconsistent snapshot")
	}
	return u, nil
}

func (u *useCase) checkRestored() error {
	if u.toMove != domain.Black && u.toMove != domain.White {
		return errors.Errorf("side to move %d", u.toMove)
	}
	if u.humanSeat != domain.Opener && u.humanSeat != domain.Responder {
		return errors.Errorf("human seat %d", u.humanSeat)
	}
	if u.match.WinThreshold < 0 {
		return errors.Errorf("win threshold %d", u.match.WinThreshold)
	}
	if u.InOpening() {
		if u.assignment != (domain.ColorAssignment{}) {
			return errors.New("colors are assigned before the opening is resolved")
		}
		return nil
	}
	if u.protocol != nil {
		if assignment, _ := u.protocol.Assignment(); assignment != u.assignment {
			return errors.New("colors differ from the resolved opening")
		}
	} else if u.humanSeat != domain.Opener {
		return errors.New("human must hold the opener seat without swap2")
	}
	if u.assignment.OpenerColor == domain.Empty || u.assignment.OpenerColor > domain.White ||
		u.assignment.ResponderColor != u.assignment.OpenerColor.Opponent() {
		return errors.New("no valid color assignment")
	}
	return nil
}
