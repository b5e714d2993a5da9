package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type queuedScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	queue  []func()
}

func (s *queuedScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.queue = append(s.queue, fn)
}

// drain runs scheduled work, including work scheduled while draining.
func (s *queuedScheduler) drain() int {
	ran := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return ran
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
		ran++
	}
}

type memoryRepo struct {
	mu        sync.Mutex
	snapshots map[string]domain.SessionSnapshot
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{snapshots: make(map[string]domain.SessionSnapshot)}
}

func (r *memoryRepo) Save(_ context.Context, snapshots []domain.SessionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range snapshots {
		r.snapshots[s.Handle] = s
	}
	return nil
}

func (r *memoryRepo) Load(_ context.Context, handle string) (domain.SessionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[handle]
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSnapshotNotFound
	}
	return s, nil
}

func (r *memoryRepo) Delete(_ context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, handle)
	return nil
}

var testDelays = map[domain.Difficulty]time.Duration{
	domain.Beginner:     300 * time.Millisecond,
	domain.Intermediate: 500 * time.Millisecond,
	domain.Expert:       700 * time.Millisecond,
	domain.Master:       900 * time.Millisecond,
}

func newHub(repo domain.SnapshotRepository) (*useCase, *queuedScheduler) {
	scheduler := &queuedScheduler{}
	cfg := Config{
		BoardSize:      domain.DefaultBoardSize,
		WinThreshold:   domain.DefaultWinThreshold,
		Seed:           7,
		ThinkingDelays: testDelays,
	}
	opts := []Option{WithScheduler(scheduler)}
	if repo != nil {
		opts = append(opts, WithRepository(repo))
	}
	return New(cfg, zap.NewNop(), opts...), scheduler
}

type turns struct {
	mu  sync.Mutex
	got []domain.BotTurn
}

func (t *turns) notify(turn domain.BotTurn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.got = append(t.got, turn)
}

func TestStartSessionAndLookup(t *testing.T) {
	ctx := context.Background()
	u, _ := newHub(nil)

	handle, err := u.StartSession(ctx, domain.Settings{Difficulty: domain.Expert})
	require.NoError(t, err)
	assert.NotEmpty(t, handle)
	assert.Equal(t, 1, u.SessionCount())

	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, handle, snapshot.Handle)
	assert.Equal(t, domain.DefaultBoardSize, snapshot.Settings.BoardSize)

	_, err = u.StartSession(ctx, domain.Settings{BoardSize: 2})
	require.True(t, errors.Is(err, domain.ErrInvalidSettings))

	_, err = u.SubmitHumanMove(ctx, "missing", domain.Coord{})
	require.True(t, errors.Is(err, domain.ErrSessionNotFound))
	require.True(t, errors.Is(u.Resume(ctx, "missing"), domain.ErrSessionNotFound))

	require.NoError(t, u.CloseSession(ctx, handle))
	assert.Equal(t, 0, u.SessionCount())
	require.True(t, errors.Is(u.CloseSession(ctx, handle), domain.ErrSessionNotFound))
}

func TestPlayBotAppliesMoveAfterDelay(t *testing.T) {
	ctx := context.Background()
	u, scheduler := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{Difficulty: domain.Expert, HumanColor: domain.White})
	require.NoError(t, err)

	var got turns
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	require.Equal(t, []time.Duration{700 * time.Millisecond}, scheduler.delays)
	assert.Equal(t, 1, scheduler.drain())

	require.Len(t, got.got, 1)
	turn := got.got[0]
	require.NoError(t, turn.Err)
	require.NotNil(t, turn.Move)
	assert.Equal(t, domain.Coord{X: 7, Y: 7}, turn.Move.Move.Coord)
	assert.Equal(t, domain.Black, turn.Move.Move.Stone)

	// the human is to move now
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	assert.Equal(t, 0, scheduler.drain())

	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 8, Y: 8})
	require.NoError(t, err)
	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.True(t, snapshot.BotToAct)
	assert.Len(t, snapshot.Moves, 2)
}

func TestResetDropsPendingBotTurn(t *testing.T) {
	ctx := context.Background()
	u, scheduler := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{})
	require.NoError(t, err)
	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 7, Y: 7})
	require.NoError(t, err)

	var got turns
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	require.NoError(t, u.ResetRound(ctx, handle))
	scheduler.drain()
	assert.Empty(t, got.got)

	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Moves)
}

func TestCancelledContextDropsBotTurn(t *testing.T) {
	u, scheduler := newHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	handle, err := u.StartSession(ctx, domain.Settings{HumanColor: domain.White})
	require.NoError(t, err)

	var got turns
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	cancel()
	scheduler.drain()
	assert.Empty(t, got.got)
}

func TestBotOpenerPlacesAllOpeningStones(t *testing.T) {
	ctx := context.Background()
	u, scheduler := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{Swap2: true, HumanColor: domain.White, Difficulty: domain.Master})
	require.NoError(t, err)

	var got turns
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	assert.Equal(t, 3, scheduler.drain())
	require.Len(t, got.got, 3)
	for _, turn := range got.got {
		require.NoError(t, turn.Err)
		require.NotNil(t, turn.Protocol)
		require.NotNil(t, turn.Protocol.Placed)
	}

	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, domain.Choice, snapshot.Protocol.Phase)
	assert.False(t, snapshot.BotToAct)

	_, err = u.SubmitProtocolAction(ctx, handle, domain.MakeChoiceAction(domain.TakeBlack))
	require.NoError(t, err)
	snapshot, err = u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, domain.White, snapshot.Assignment.OpenerColor)
	assert.False(t, snapshot.BotToAct)
}

func TestDirtySnapshots(t *testing.T) {
	ctx := context.Background()
	u, _ := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{})
	require.NoError(t, err)

	snapshots := u.DirtySnapshots(ctx)
	require.Len(t, snapshots, 1)
	assert.Equal(t, handle, snapshots[0].Handle)
	assert.Empty(t, u.DirtySnapshots(ctx))

	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 0, Y: 0})
	require.NoError(t, err)
	assert.Len(t, u.DirtySnapshots(ctx), 1)

	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 1, Y: 1})
	require.True(t, errors.Is(err, domain.ErrNotYourTurn))
	assert.Empty(t, u.DirtySnapshots(ctx))

	u.MarkDirty(handle, "missing")
	assert.Len(t, u.DirtySnapshots(ctx), 1)
}

func TestResumeFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	first, _ := newHub(repo)
	handle, err := first.StartSession(ctx, domain.Settings{Swap2: true})
	require.NoError(t, err)
	_, err = first.SubmitProtocolAction(ctx, handle, domain.PlaceStoneAction(domain.Coord{X: 4, Y: 4}))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first.DirtySnapshots(ctx)))

	second, _ := newHub(repo)
	require.NoError(t, second.Resume(ctx, handle))
	require.True(t, errors.Is(second.Resume(ctx, handle), domain.ErrSessionAttached))
	assert.Equal(t, 1, second.SessionCount())

	want, err := first.Snapshot(ctx, handle)
	require.NoError(t, err)
	got, err := second.Snapshot(ctx, handle)
	require.NoError(t, err)
	got.SavedAt = want.SavedAt
	assert.Equal(t, want, got)

	require.NoError(t, second.CloseSession(ctx, handle))
	_, err = repo.Load(ctx, handle)
	require.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
	require.True(t, errors.Is(second.Resume(ctx, handle), domain.ErrSessionNotFound))
}

func TestDetachPersistsSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	u, _ := newHub(repo)
	handle, err := u.StartSession(ctx, domain.Settings{})
	require.NoError(t, err)
	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 3, Y: 3})
	require.NoError(t, err)

	require.NoError(t, u.Detach(ctx, handle))
	assert.Equal(t, 0, u.SessionCount())
	require.True(t, errors.Is(u.Detach(ctx, handle), domain.ErrSessionNotFound))

	require.NoError(t, u.Resume(ctx, handle))
	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	require.Len(t, snapshot.Moves, 1)
	assert.Equal(t, domain.Coord{X: 3, Y: 3}, snapshot.Moves[0].Coord)
}

func TestBotQueriesAreRepeatableUntilApplied(t *testing.T) {
	ctx := context.Background()
	u, scheduler := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{Difficulty: domain.Beginner})
	require.NoError(t, err)
	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 7, Y: 7})
	require.NoError(t, err)

	want, err := u.BotMove(ctx, handle)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		got, err := u.BotMove(ctx, handle)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	u.DirtySnapshots(ctx)

	event, err := u.ApplyBotMove(ctx, handle, want)
	require.NoError(t, err)
	assert.Equal(t, domain.Move{Coord: want, Stone: domain.White}, event.Move)
	assert.Len(t, u.DirtySnapshots(ctx), 1)

	_, err = u.BotMove(ctx, handle)
	require.True(t, errors.Is(err, domain.ErrNotYourTurn))
	_, err = u.ApplyBotMove(ctx, handle, domain.Coord{X: 0, Y: 0})
	require.True(t, errors.Is(err, domain.ErrNotYourTurn))

	// the deferred runner plays what the host was shown
	_, err = u.SubmitHumanMove(ctx, handle, domain.Coord{X: 0, Y: 0})
	require.NoError(t, err)
	shown, err := u.BotMove(ctx, handle)
	require.NoError(t, err)
	var got turns
	require.NoError(t, u.PlayBot(ctx, handle, got.notify))
	scheduler.drain()
	require.Len(t, got.got, 1)
	require.NotNil(t, got.got[0].Move)
	assert.Equal(t, shown, got.got[0].Move.Move.Coord)
}

func TestApplyBotProtocolAction(t *testing.T) {
	ctx := context.Background()
	u, _ := newHub(nil)
	handle, err := u.StartSession(ctx, domain.Settings{Swap2: true, HumanColor: domain.White})
	require.NoError(t, err)

	want, err := u.BotProtocolAction(ctx, handle)
	require.NoError(t, err)
	got, err := u.BotProtocolAction(ctx, handle)
	require.NoError(t, err)
	require.Equal(t, want, got)

	event, err := u.ApplyBotProtocolAction(ctx, handle, want)
	require.NoError(t, err)
	require.NotNil(t, event.Placed)
	snapshot, err := u.Snapshot(ctx, handle)
	require.NoError(t, err)
	assert.Len(t, snapshot.Protocol.Stones, 1)

	_, err = u.SubmitProtocolAction(ctx, handle, domain.PlaceStoneAction(domain.Coord{X: 0, Y: 0}))
	require.True(t, errors.Is(err, domain.ErrNotYourTurn))
}
