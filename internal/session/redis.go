package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rpc-auth-go/internal/config"
	"rpc-auth-go/internal/logging"
)

// RedisStore keeps sessions in Redis.
//
//	{prefix}session:{id}          → session JSON
//	{prefix}session:user:{name}   → set of session ids of a user
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger *logging.Logger
}

// NewRedisClient builds the client described by cfg.
func NewRedisClient(cfg *config.Config, password string) *redis.Client {
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       cfg.Redis.DB,
	})
}

// extendTTL raises the TTL of KEYS[1] to ARGV[1] milliseconds, never
// lowering it. The user index must outlive every session it lists.
const extendTTL = `
local cur = redis.call('PTTL', KEYS[1])
local want = tonumber(ARGV[1])
if cur >= 0 and cur >= want then
  return 0
end
return redis.call('PEXPIRE', KEYS[1], want)
`

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		logger: logging.Get("rpcauth.session"),
	}
}

func (s *RedisStore) key(id string) string { return s.prefix + "session:" + id }

func (s *RedisStore) userKey(username string) string {
	return s.prefix + "session:user:" + username
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if s.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := sess.ttl()

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(sess.ID), data, ttl)
	pipe.SAdd(ctx, s.userKey(sess.Username), sess.ID)
	pipe.Eval(ctx, extendTTL, []string{s.userKey(sess.Username)}, ttl.Milliseconds())
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.logger.Printf("[SAVE] user=%s id=%s ttl=%s method=%s", sess.Username, sess.ID, ttl, sess.Method)
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := s.rdb.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Refresh slides the session TTL and keeps the user index alive at least
// as long.
func (s *RedisStore) Refresh(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	sess, err := s.Get(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pipe := s.rdb.TxPipeline()
	exp := pipe.Expire(ctx, s.key(id), ttl)
	pipe.Eval(ctx, extendTTL, []string{s.userKey(sess.Username)}, ttl.Milliseconds())
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return exp.Val(), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	sess, err := s.Get(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.userKey(sess.Username), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	s.logger.Printf("[DELETE] user=%s id=%s", sess.Username, id)
	return del.Val() > 0, nil
}

func (s *RedisStore) DeleteUser(ctx context.Context, username string) (int, error) {
	ids, err := s.rdb.SMembers(ctx, s.userKey(username)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	n, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}
	if err := s.rdb.Del(ctx, s.userKey(username)).Err(); err != nil {
		return int(n), err
	}
	s.logger.Printf("[DELETE] user=%s sessions=%d", username, n)
	return int(n), nil
}
