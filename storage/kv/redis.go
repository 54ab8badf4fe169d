package kv

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
)

// Change notifications travel over one pub/sub channel per collection root,
// so a sessions subscriber never wakes up for a presence heartbeat.
const changeChannelPrefix = "geoattend:changes:"

// casRetries bounds optimistic-lock retries on contended Update calls.
const casRetries = 5

// RedisStore is the shared-deployment Store. Records are plain keys, change
// notification rides pub/sub, and Update runs under WATCH for atomicity.
type RedisStore struct {
	client *redis.Client

	mu       sync.Mutex
	cleanups map[string]struct{}
	closed   bool
}

var _ Store = (*RedisStore)(nil)

func OpenRedis(conf *core.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &RedisStore{
		client:   client,
		cleanups: make(map[string]struct{}),
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, path string, value []byte) error {
	if err := s.client.Set(ctx, path, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "setting %s", path)
	}
	return s.publish(ctx, path)
}

func (s *RedisStore) Get(ctx context.Context, path string) ([]byte, error) {
	value, err := s.client.Get(ctx, path).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", path)
	}
	return value, nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return errors.Wrapf(err, "deleting %s", path)
	}
	return s.publish(ctx, path)
}

func (s *RedisStore) Update(ctx context.Context, path string, fn func(current []byte) ([]byte, error)) error {
	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, path).Bytes()
		if err == redis.Nil {
			current = nil
		} else if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, path, next, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < casRetries; i++ {
		err = s.client.Watch(ctx, txn, path)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		return errors.Wrapf(err, "updating %s", path)
	}
	return s.publish(ctx, path)
}

func (s *RedisStore) List(ctx context.Context, prefix string) (Snapshot, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"/*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(err, "scanning %s", prefix)
	}

	snap := make(Snapshot, len(keys))
	if len(keys) == 0 {
		return snap, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s records", prefix)
	}
	for i, value := range values {
		if str, ok := value.(string); ok { // nil means deleted between SCAN and MGET
			snap[keys[i]] = []byte(str)
		}
	}
	return snap, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, prefix string, onChange func(Snapshot)) (func(), error) {
	initial, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	onChange(initial)

	pubsub := s.client.Subscribe(ctx, changeChannelPrefix+pathRoot(prefix))
	go func() {
		for range pubsub.Channel() {
			snap, err := s.List(ctx, prefix)
			if err != nil {
				continue
			}
			onChange(snap)
		}
	}()
	return func() { _ = pubsub.Close() }, nil
}

func (s *RedisStore) RegisterDisconnectCleanup(ctx context.Context, path string) error {
	s.mu.Lock()
	s.cleanups[path] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	paths := make([]string, 0, len(s.cleanups))
	for path := range s.cleanups {
		paths = append(paths, path)
	}
	s.mu.Unlock()

	ctx := context.Background()
	for _, path := range paths {
		_ = s.Delete(ctx, path)
	}
	return s.client.Close()
}

func (s *RedisStore) publish(ctx context.Context, path string) error {
	return s.client.Publish(ctx, changeChannelPrefix+pathRoot(path), path).Err()
}

func pathRoot(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
