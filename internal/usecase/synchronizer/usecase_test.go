package synchronizer

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

type fakeSource struct {
	mu    sync.Mutex
	dirty map[string]bool
}

func newFakeSource(handles ...string) *fakeSource {
	s := &fakeSource{dirty: make(map[string]bool)}
	s.MarkDirty(handles...)
	return s
}

func (s *fakeSource) DirtySnapshots(_ context.Context) []domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snapshots []domain.SessionSnapshot
	for handle, dirty := range s.dirty {
		if dirty {
			snapshots = append(snapshots, domain.SessionSnapshot{Handle: handle})
			s.dirty[handle] = false
		}
	}
	return snapshots
}

func (s *fakeSource) MarkDirty(handles ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, handle := range handles {
		s.dirty[handle] = true
	}
}

type fakeRepo struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (r *fakeRepo) Save(_ context.Context, snapshots []domain.SessionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, s := range snapshots {
		r.saved = append(r.saved, s.Handle)
	}
	return nil
}

func (r *fakeRepo) Load(context.Context, string) (domain.SessionSnapshot, error) {
	return domain.SessionSnapshot{}, domain.ErrSnapshotNotFound
}

func (r *fakeRepo) Delete(context.Context, string) error {
	return nil
}

func (r *fakeRepo) savedHandles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saved...)
}

func TestFlushSavesDirtySessions(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	u := New(repo, newFakeSource("a", "b"), time.Minute, zap.NewNop())

	require.NoError(t, u.Flush(ctx))
	assert.ElementsMatch(t, []string{"a", "b"}, repo.savedHandles())

	require.NoError(t, u.Flush(ctx))
	assert.Len(t, repo.savedHandles(), 2)
}

func TestFailedFlushKeepsSessionsDirty(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{err: errors.New("connection refused")}
	source := newFakeSource("a")
	u := New(repo, source, time.Minute, zap.NewNop())

	require.Error(t, u.Flush(ctx))

	repo.err = nil
	require.NoError(t, u.Flush(ctx))
	assert.Equal(t, []string{"a"}, repo.savedHandles())
}

func TestSyncFlushesPeriodicallyAndOnShutdown(t *testing.T) {
	repo := &fakeRepo{}
	source := newFakeSource("a")
	u := New(repo, source, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- u.Sync(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(repo.savedHandles()) == 1
	}, time.Second, 5*time.Millisecond)

	source.MarkDirty("b")
	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, repo.savedHandles(), "b")
}
