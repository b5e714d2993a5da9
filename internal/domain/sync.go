package domain

import (
	"context"
)

type SnapshotRepository interface {
	Save(ctx context.Context, snapshots []SessionSnapshot) error
	Load(ctx context.Context, handle string) (SessionSnapshot, error)
	Delete(ctx context.Context, handle string) error
}

// SnapshotSource hands out snapshots of sessions changed since the last call.
type SnapshotSource interface {
	DirtySnapshots(ctx context.Context) []SessionSnapshot
	MarkDirty(handles ...string)
}

type SyncUseCase interface {
	Sync(ctx context.Context) error
	Flush(ctx context.Context) error
}

type HealthCheckResponse struct {
	Sessions int    `json:"sessions"`
	Status   string `json:"status"`
}
