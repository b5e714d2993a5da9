package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultDifficulty = domain.Intermediate

type connection struct {
	*server
	client client
	handle string
}

func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(err.Error())
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := &connection{
		server: s,
		client: newClient(conn, middleware.GetReqID(r.Context())),
	}
	defer c.client.Close()
	s.logger.Info("new connection", zap.String("client", c.client.Uuid()))
	if handle := strings.TrimSpace(r.Header.Get(domain.ClientUuidHeader)); handle != "" {
		if err := c.resume(ctx, handle); err != nil {
			s.logger.Warn("failed to resume session", zap.String("handle", handle), zap.Error(err))
			if err := c.writeError(err); err != nil {
				s.logger.Error(err.Error())
				return
			}
		}
	}
	defer c.detach()
	for {
		msg, err := c.client.ReadMessage()
		switch {
		case errors.Is(err, domain.ErrConnectionClosed):
			s.logger.Info("connection closed", zap.String("client", c.client.Uuid()))
			return
		case err != nil:
			s.logger.Warn(err.Error(), zap.String("client", c.client.Uuid()))
			return
		}
		if err := c.dispatch(ctx, msg); err != nil {
			if err := c.writeError(err); err != nil {
				s.logger.Error(err.Error())
				return
			}
		}
	}
}

func (c *connection) dispatch(ctx context.Context, msg domain.Message) error {
	if msg.Type != domain.StartSession && c.handle == "" {
		return errors.WithMessage(domain.ErrSessionNotFound, "start a session first")
	}
	switch msg.Type {
	case domain.StartSession:
		return c.startSession(ctx, msg)
	case domain.HumanMove:
		return c.humanMove(ctx, msg)
	case domain.SubmitProtocol:
		return c.protocolAction(ctx, msg)
	case domain.ResetRoundRequest:
		if err := c.hub.ResetRound(ctx, c.handle); err != nil {
			return errors.WithMessage(err, "reset round")
		}
		return c.afterAction(ctx)
	case domain.ResetMatchRequest:
		if err := c.hub.ResetMatch(ctx, c.handle); err != nil {
			return errors.WithMessage(err, "reset match")
		}
		return c.afterAction(ctx)
	default:
		return errors.Errorf("unexpected message type '%d'", msg.Type)
	}
}

func (c *connection) resume(ctx context.Context, handle string) error {
	if err := c.hub.Resume(ctx, handle); err != nil {
		return errors.WithMessage(err, "resume session")
	}
	c.handle = handle
	return c.sessionStarted(ctx)
}

func (c *connection) startSession(ctx context.Context, msg domain.Message) error {
	payload, err := utils.DecodePayload[domain.StartSessionPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "decode payload to 'StartSessionPayload' type")
	}
	difficulty := defaultDifficulty
	if payload.Difficulty != "" {
		var ok bool
		if difficulty, ok = domain.ParseDifficulty(payload.Difficulty); !ok {
			return errors.WithMessagef(domain.ErrInvalidSettings, "difficulty '%s'", payload.Difficulty)
		}
	}
	handle, err := c.hub.StartSession(ctx, domain.Settings{
		BoardSize:  payload.BoardSize,
		Difficulty: difficulty,
		Swap2:      payload.Swap2,
		HumanColor: payload.HumanColor,
	})
	if err != nil {
		return errors.WithMessage(err, "start session")
	}
	if c.handle != "" {
		if err := c.hub.CloseSession(ctx, c.handle); err != nil {
			c.logger.Warn(err.Error(), zap.String("handle", c.handle))
		}
	}
	c.handle = handle
	return c.sessionStarted(ctx)
}

func (c *connection) sessionStarted(ctx context.Context) error {
	snapshot, err := c.hub.Snapshot(ctx, c.handle)
	if err != nil {
		return errors.WithMessage(err, "session snapshot")
	}
	err = c.client.WriteMessage(domain.Message{
		Type:    domain.SessionStarted,
		Payload: domain.SessionStartedPayload{Handle: c.handle, Snapshot: snapshot},
	})
	if err != nil {
		return errors.WithMessage(err, "send message to client")
	}
	return c.playBot(ctx)
}

func (c *connection) humanMove(ctx context.Context, msg domain.Message) error {
	payload, err := utils.DecodePayload[domain.HumanMovePayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "decode payload to 'HumanMovePayload' type")
	}
	event, err := c.hub.SubmitHumanMove(ctx, c.handle, domain.Coord{X: payload.X, Y: payload.Y})
	if err != nil {
		return errors.WithMessage(err, "human move")
	}
	if err := c.sendRoundEvent(ctx, c.handle, event); err != nil {
		return err
	}
	return c.playBot(ctx)
}

func (c *connection) protocolAction(ctx context.Context, msg domain.Message) error {
	payload, err := utils.DecodePayload[domain.ProtocolActionPayload](msg.Payload)
	if err != nil {
		return errors.WithMessage(err, "decode payload to 'ProtocolActionPayload' type")
	}
	var action domain.ProtocolAction
	switch {
	case payload.Place != nil:
		action = domain.PlaceStoneAction(*payload.Place)
	case payload.Choice != nil:
		action = domain.MakeChoiceAction(*payload.Choice)
	default:
		return errors.WithMessage(domain.ErrInvalidChoice, "protocol action carries neither a stone nor a choice")
	}
	event, err := c.hub.SubmitProtocolAction(ctx, c.handle, action)
	if err != nil {
		return errors.WithMessage(err, "protocol action")
	}
	if err := c.sendProtocolEvent(ctx, c.handle, event); err != nil {
		return err
	}
	return c.playBot(ctx)
}

func (c *connection) afterAction(ctx context.Context) error {
	if err := c.sendBoardUpdate(ctx, c.handle); err != nil {
		return err
	}
	return c.playBot(ctx)
}

func (c *connection) playBot(ctx context.Context) error {
	snapshot, err := c.hub.Snapshot(ctx, c.handle)
	if err != nil {
		return errors.WithMessage(err, "session snapshot")
	}
	if !snapshot.BotToAct {
		return nil
	}
	if err := c.client.WriteMessage(domain.Message{Type: domain.BotThinking}); err != nil {
		return errors.WithMessage(err, "send message to client")
	}
	if err := c.hub.PlayBot(ctx, c.handle, c.botTurn(ctx)); err != nil {
		return errors.WithMessage(err, "play bot")
	}
	return nil
}

func (c *connection) botTurn(ctx context.Context) func(domain.BotTurn) {
	return func(turn domain.BotTurn) {
		var err error
		switch {
		case turn.Err != nil:
			err = c.writeError(turn.Err)
		case turn.Move != nil:
			err = c.sendRoundEvent(ctx, turn.Handle, *turn.Move, domain.FromBot())
		case turn.Protocol != nil:
			err = c.sendProtocolEvent(ctx, turn.Handle, *turn.Protocol, domain.FromBot())
		}
		if err != nil {
			c.logger.Warn("failed to report bot turn", zap.String("handle", turn.Handle), zap.Error(err))
		}
	}
}

func (c *connection) sendRoundEvent(ctx context.Context, handle string, event domain.RoundEvent, opts ...domain.BoardUpdateOption) error {
	if err := c.sendBoardUpdate(ctx, handle, append(opts, domain.WithRoundEvent(event))...); err != nil {
		return err
	}
	if event.Kind == domain.Continue {
		return nil
	}
	if err := c.client.WriteMessage(domain.Message{Type: domain.RoundResult, Payload: event}); err != nil {
		return errors.WithMessage(err, "send message to client")
	}
	return nil
}

func (c *connection) sendProtocolEvent(ctx context.Context, handle string, event domain.ProtocolEvent, opts ...domain.BoardUpdateOption) error {
	if err := c.sendBoardUpdate(ctx, handle, append(opts, domain.WithProtocolEvent(event))...); err != nil {
		return err
	}
	if !event.Resolved() {
		return nil
	}
	if err := c.client.WriteMessage(domain.Message{Type: domain.ProtocolUpdate, Payload: event}); err != nil {
		return errors.WithMessage(err, "send message to client")
	}
	return nil
}

func (c *connection) sendBoardUpdate(ctx context.Context, handle string, opts ...domain.BoardUpdateOption) error {
	snapshot, err := c.hub.Snapshot(ctx, handle)
	if err != nil {
		return errors.WithMessage(err, "session snapshot")
	}
	payload := &domain.BoardUpdatePayload{Snapshot: snapshot}
	for _, opt := range opts {
		opt(payload)
	}
	if err := c.client.WriteMessage(domain.Message{Type: domain.BoardUpdate, Payload: payload}); err != nil {
		return errors.WithMessage(err, "send message to client")
	}
	return nil
}

func (c *connection) writeError(err error) error {
	return c.client.WriteMessage(domain.Message{
		Type:    domain.ErrorMessage,
		Payload: domain.ErrorPayload{Message: err.Error()},
	})
}

func (c *connection) detach() {
	if c.handle == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), detachTimeout)
	defer cancel()
	if err := c.hub.Detach(ctx, c.handle); err != nil {
		c.logger.Warn("failed to detach session", zap.String("handle", c.handle), zap.Error(err))
	}
}

func (s *server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	resp := domain.HealthCheckResponse{
		Sessions: s.hub.SessionCount(),
		Status:   "ok",
	}
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		s.logger.Warn(err.Error())
	}
}
