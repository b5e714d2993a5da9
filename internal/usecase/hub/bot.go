package hub

import (
	"context"
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PlayBot schedules the bot's next action after the difficulty's thinking
// delay. Work scheduled before a reset, a close or the cancellation of ctx is
// dropped. notify is called without any session lock held, once per applied
// action; the runner keeps going while the bot remains to act, which covers
// the three opening stones of a bot opener. It is a no-op when the bot is not
// to act.
func (u *useCase) PlayBot(ctx context.Context, handle string, notify func(domain.BotTurn)) error {
	s, ok := u.lookup(handle)
	if !ok {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	s.mu.Lock()
	toAct := s.game.BotToAct()
	difficulty := s.game.Settings().Difficulty
	generation := s.generation.Load()
	s.mu.Unlock()
	if !toAct {
		return nil
	}
	u.schedule(ctx, handle, s, generation, u.delay(difficulty), notify)
	return nil
}

func (u *useCase) delay(d domain.Difficulty) time.Duration {
	if delay, ok := u.cfg.ThinkingDelays[d]; ok {
		return delay
	}
	return 0
}

func (u *useCase) schedule(ctx context.Context, handle string, s *session, generation uint64,
	delay time.Duration, notify func(domain.BotTurn)) {
	u.scheduler.After(delay, func() {
		if ctx.Err() != nil {
			u.logger.Debug("bot turn dropped: context is done", zap.String("handle", handle))
			return
		}
		turn, again := u.botTurn(handle, s, generation)
		if turn == nil {
			return
		}
		notify(*turn)
		if again {
			u.schedule(ctx, handle, s, generation, delay, notify)
		}
	})
}

// botTurn computes and applies one bot action unless the session moved on
// since the turn was scheduled.
func (u *useCase) botTurn(handle string, s *session, generation uint64) (*domain.BotTurn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != generation {
		u.logger.Debug("bot turn dropped: session was reset", zap.String("handle", handle))
		return nil, false
	}
	if !s.game.BotToAct() {
		return nil, false
	}
	turn := &domain.BotTurn{Handle: handle}
	if s.game.InOpening() {
		action, err := s.game.BotProtocolAction()
		if err == nil {
			var event domain.ProtocolEvent
			if event, err = s.game.ApplyBotProtocolAction(action); err == nil {
				turn.Protocol = &event
			}
		}
		turn.Err = err
	} else {
		c, err := s.game.BotMove()
		if err == nil {
			var event domain.RoundEvent
			if event, err = s.game.ApplyBotMove(c); err == nil {
				turn.Move = &event
			}
		}
		turn.Err = err
	}
	if turn.Err != nil {
		u.logger.Error("bot turn failed", zap.String("handle", handle), zap.Error(turn.Err))
		return turn, false
	}
	s.dirty.Store(true)
	return turn, s.game.BotToAct()
}
