package redis

import (
	"context"
	"time"

	"github.com/turtacn/dataguard/pkg/errors"
)

const dedupNamespace = "dedup:"

// Deduplicator keeps alert dedup keys in Redis so every replica shares one window.
// Deduplicator 将告警去重键存放在 Redis，多个引擎实例共享同一个去重窗口。
type Deduplicator struct {
	conn *RedisConnection
}

func NewDeduplicator(conn *RedisConnection) *Deduplicator {
	return &Deduplicator{conn: conn}
}

// Claim is a SET NX PX: only the first caller within ttl gets true.
func (d *Deduplicator) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	ok, err := d.conn.client.SetNX(ctx, d.conn.Key(dedupNamespace+key), 1, ttl).Result()
	if err != nil {
		return false, errors.Storage("claim dedup key", err)
	}
	return ok, nil
}

func (d *Deduplicator) Release(ctx context.Context, key string) error {
	if err := d.conn.client.Del(ctx, d.conn.Key(dedupNamespace+key)).Err(); err != nil {
		return errors.Storage("release dedup key", err)
	}
	return nil
}

//Personal.AI order the ending
