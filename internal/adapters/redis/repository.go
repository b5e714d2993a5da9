package redis

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type repository struct {
	cli    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func New(cli redis.UniversalClient, prefix string, ttl time.Duration) repository {
	return repository{
		cli:    cli,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r repository) Save(ctx context.Context, snapshots []domain.SessionSnapshot) error {
	pipe := r.cli.TxPipeline()
	for _, snapshot := range snapshots {
		data, err := encode(snapshot)
		if err != nil {
			return errors.WithMessagef(err, "session '%s'", snapshot.Handle)
		}
		pipe.Set(ctx, r.key(snapshot.Handle), data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WithMessage(err, "redis pipeline exec")
	}
	return nil
}

func (r repository) Load(ctx context.Context, handle string) (domain.SessionSnapshot, error) {
	data, err := r.cli.Get(ctx, r.key(handle)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return domain.SessionSnapshot{}, errors.WithMessagef(domain.ErrSnapshotNotFound, "'%s'", handle)
	case err != nil:
		return domain.SessionSnapshot{}, errors.WithMessage(err, "redis get")
	}
	return decode(data)
}

func (r repository) Delete(ctx context.Context, handle string) error {
	if err := r.cli.Del(ctx, r.key(handle)).Err(); err != nil {
		return errors.WithMessage(err, "redis del")
	}
	return nil
}

func (r repository) key(handle string) string {
	return r.prefix + handle
}

func encode(snapshot domain.SessionSnapshot) ([]byte, error) {
	data, err := jsoniter.Marshal(snapshot)
	if err != nil {
		return nil, errors.WithMessage(err, "marshal snapshot")
	}
	return data, nil
}

func decode(data []byte) (domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	if err := jsoniter.Unmarshal(data, &snapshot); err != nil {
		return domain.SessionSnapshot{}, errors.WithMessage(err, "unmarshal snapshot")
	}
	return snapshot, nil
}
