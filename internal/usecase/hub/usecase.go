package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/ai"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/game"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Config struct {
	BoardSize      int
	WinThreshold   int
	Seed           int64
	ThinkingDelays map[domain.Difficulty]time.Duration
}

type session struct {
	game domain.GameUseCase
	mu   *sync.Mutex
	// generation is bumped by every reset or close; scheduled bot work
	// carrying an older value is dropped.
	generation *atomic.Uint64
	dirty      *atomic.Bool
}

type useCase struct {
	sessions  map[string]*session
	repo      domain.SnapshotRepository
	scheduler domain.Scheduler
	cfg       Config
	seeds     *atomic.Int64
	mu        *sync.RWMutex
	logger    *zap.Logger
}

type Option func(u *useCase)

// WithScheduler replaces the timer used for the bot's thinking delay.
func WithScheduler(scheduler domain.Scheduler) Option {
	return func(u *useCase) {
		u.scheduler = scheduler
	}
}

// WithRepository enables resuming sessions from persisted snapshots.
func WithRepository(repo domain.SnapshotRepository) Option {
	return func(u *useCase) {
		u.repo = repo
	}
}

func New(cfg Config, logger *zap.Logger, opts ...Option) *useCase {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	u := &useCase{
		sessions: make(map[string]*session),
		scheduler: domain.SchedulerFunc(func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}),
		cfg:    cfg,
		seeds:  atomic.NewInt64(seed),
		mu:     &sync.RWMutex{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *useCase) StartSession(_ context.Context, settings domain.Settings) (string, error) {
	if settings.BoardSize == 0 {
		settings.BoardSize = u.cfg.BoardSize
	}
	if settings.WinThreshold == 0 {
		settings.WinThreshold = u.cfg.WinThreshold
	}
	g, err := game.New(settings, u.newEngine())
	if err != nil {
		return "", errors.WithMessage(err, "new game session")
	}
	handle := uuid.NewString()
	u.add(handle, g)
	u.logger.Info("session started",
		zap.String("handle", handle),
		zap.Int("board size", settings.BoardSize),
		zap.Stringer("difficulty", settings.Difficulty),
		zap.Bool("swap2", settings.Swap2),
	)
	return handle, nil
}

// Resume loads a detached session back into memory. Every session in memory
// belongs to a live connection, so resuming one of those is refused.
func (u *useCase) Resume(ctx context.Context, handle string) error {
	if _, ok := u.lookup(handle); ok {
		return errors.WithMessagef(domain.ErrSessionAttached, "'%s'", handle)
	}
	if u.repo == nil {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	snapshot, err := u.repo.Load(ctx, handle)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s' has no snapshot", handle)
	case err != nil:
		return errors.WithMessage(err, "load snapshot")
	}
	g, err := game.Restore(snapshot, u.newEngine())
	if err != nil {
		return errors.WithMessage(err, "restore session")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.sessions[handle]; ok {
		return errors.WithMessagef(domain.ErrSessionAttached, "'%s'", handle)
	}
	u.sessions[handle] = newSession(g)
	u.logger.Info("session resumed", zap.String("handle", handle), zap.Time("saved at", snapshot.SavedAt))
	return nil
}

func (u *useCase) SubmitHumanMove(_ context.Context, handle string, c domain.Coord) (domain.RoundEvent, error) {
	var event domain.RoundEvent
	err := u.update(handle, func(g domain.GameUseCase) (err error) {
		event, err = g.SubmitHumanMove(c)
		return err
	})
	return event, err
}

func (u *useCase) SubmitProtocolAction(_ context.Context, handle string, action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	var event domain.ProtocolEvent
	err := u.update(handle, func(g domain.GameUseCase) (err error) {
		event, err = g.SubmitProtocolAction(action)
		return err
	})
	return event, err
}

func (u *useCase) BotMove(_ context.Context, handle string) (domain.Coord, error) {
	var c domain.Coord
	err := u.read(handle, func(g domain.GameUseCase) (err error) {
		c, err = g.BotMove()
		return err
	})
	return c, err
}

func (u *useCase) BotProtocolAction(_ context.Context, handle string) (domain.ProtocolAction, error) {
	var action domain.ProtocolAction
	err := u.read(handle, func(g domain.GameUseCase) (err error) {
		action, err = g.BotProtocolAction()
		return err
	})
	return action, err
}

// ApplyBotMove commits a bot move the host obtained from BotMove, or any
// other legal cell for the bot's color.
func (u *useCase) ApplyBotMove(_ context.Context, handle string, c domain.Coord) (domain.RoundEvent, error) {
	var event domain.RoundEvent
	err := u.update(handle, func(g domain.GameUseCase) (err error) {
		event, err = g.ApplyBotMove(c)
		return err
	})
	return event, err
}

func (u *useCase) ApplyBotProtocolAction(_ context.Context, handle string, action domain.ProtocolAction) (domain.ProtocolEvent, error) {
	var event domain.ProtocolEvent
	err := u.update(handle, func(g domain.GameUseCase) (err error) {
		event, err = g.ApplyBotProtocolAction(action)
		return err
	})
	return event, err
}

func (u *useCase) ResetRound(_ context.Context, handle string) error {
	return u.update(handle, func(g domain.GameUseCase) error {
		return g.ResetRound()
	}, cancelPending)
}

func (u *useCase) ResetMatch(_ context.Context, handle string) error {
	return u.update(handle, func(g domain.GameUseCase) error {
		g.ResetMatch()
		return nil
	}, cancelPending)
}

func (u *useCase) CloseSession(ctx context.Context, handle string) error {
	u.mu.Lock()
	s, ok := u.sessions[handle]
	delete(u.sessions, handle)
	u.mu.Unlock()
	if !ok {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	s.generation.Inc()
	if u.repo != nil {
		if err := u.repo.Delete(ctx, handle); err != nil {
			u.logger.Warn("failed to delete session snapshot", zap.String("handle", handle), zap.Error(err))
		}
	}
	u.logger.Info("session closed", zap.String("handle", handle))
	return nil
}

// Detach drops the session from memory after persisting it, so a reconnecting
// client can Resume it by handle.
func (u *useCase) Detach(ctx context.Context, handle string) error {
	u.mu.Lock()
	s, ok := u.sessions[handle]
	delete(u.sessions, handle)
	u.mu.Unlock()
	if !ok {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	s.generation.Inc()
	if u.repo == nil {
		u.logger.Info("session dropped", zap.String("handle", handle))
		return nil
	}
	s.mu.Lock()
	snapshot := s.game.Snapshot()
	s.mu.Unlock()
	snapshot.Handle = handle
	if err := u.repo.Save(ctx, []domain.SessionSnapshot{snapshot}); err != nil {
		return errors.WithMessage(err, "save detached session")
	}
	u.logger.Info("session detached", zap.String("handle", handle))
	return nil
}

func (u *useCase) Snapshot(_ context.Context, handle string) (domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	err := u.read(handle, func(g domain.GameUseCase) error {
		snapshot = g.Snapshot()
		return nil
	})
	snapshot.Handle = handle
	return snapshot, err
}

func (u *useCase) SessionCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.sessions)
}

func (u *useCase) DirtySnapshots(_ context.Context) []domain.SessionSnapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	var snapshots []domain.SessionSnapshot
	for handle, s := range u.sessions {
		if !s.dirty.Swap(false) {
			continue
		}
		s.mu.Lock()
		snapshot := s.game.Snapshot()
		s.mu.Unlock()
		snapshot.Handle = handle
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func (u *useCase) MarkDirty(handles ...string) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, handle := range handles {
		if s, ok := u.sessions[handle]; ok {
			s.dirty.Store(true)
		}
	}
}

func (u *useCase) newEngine() *ai.Engine {
	return ai.NewSeeded(u.seeds.Inc())
}

func newSession(g domain.GameUseCase) *session {
	return &session{
		game:       g,
		mu:         &sync.Mutex{},
		generation: atomic.NewUint64(0),
		dirty:      atomic.NewBool(true),
	}
}

func (u *useCase) add(handle string, g domain.GameUseCase) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sessions[handle] = newSession(g)
}

func (u *useCase) lookup(handle string) (*session, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s, ok := u.sessions[handle]
	return s, ok
}

type updateOption func(s *session)

func cancelPending(s *session) {
	s.generation.Inc()
}

func (u *useCase) read(handle string, fn func(g domain.GameUseCase) error) error {
	s, ok := u.lookup(handle)
	if !ok {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game)
}

func (u *useCase) update(handle string, fn func(g domain.GameUseCase) error, opts ...updateOption) error {
	s, ok := u.lookup(handle)
	if !ok {
		return errors.WithMessagef(domain.ErrSessionNotFound, "'%s'", handle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.game); err != nil {
		return err
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dirty.Store(true)
	return nil
}
