package infra_redis_latest_poll

import (
	"context"

	"github.com/go-redis/redis"
	"github.com/humanbelnik/livepoll/internal/model"
)

// Driver keeps the id of the most recently created poll under a single key.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Get(ctx context.Context) (model.PollID, error) {
	id, err := d.client.Get(d.key).Result()
	if err == redis.Nil {
		return model.EmptyPollID, nil
	}
	if err != nil {
		return model.EmptyPollID, err
	}
	return id, nil
}

func (d *Driver) Set(ctx context.Context, id model.PollID) error {
	if id == model.EmptyPollID {
		return nil
	}

	if err := d.client.Set(d.key, id, 0).Err(); err != nil {
		return err
	}
	return nil
}

func (d *Driver) Invalidate(ctx context.Context) error {
	return d.client.Del(d.key).Err()
}
