package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ZaguanLabs/lexicache"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "lexicache:"

// RedisStore is a Record Store kept in Redis, so several processes can share
// one history.
//
// Layout under the prefix:
//
//	seq           INCR counter for ids, never reset
//	record:<id>   hash with the record fields
//	ids           sorted set of every id, scored by id
//	key:<key>     sorted set of ids sharing one cache key, scored by id
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379/0")
	KeyPrefix string // Prefix for all keys (default: "lexicache:")
}

// NewRedisStore connects to Redis with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, unavailable("open", err)
	}

	s := NewRedisStoreFromClient(redis.NewClient(opts), cfg.KeyPrefix)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Init(ctx); err != nil {
		_ = s.client.Close()
		return nil, err
	}

	return s, nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisPrefix
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (s *RedisStore) seqKey() string {
	return s.keyPrefix + "seq"
}

func (s *RedisStore) idsKey() string {
	return s.keyPrefix + "ids"
}

func (s *RedisStore) recordKey(id int64) string {
	return s.keyPrefix + "record:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) indexKey(source, fromLang, toLang string) string {
	return s.keyPrefix + "key:" + lexicache.CacheKey(lexicache.HashText(source), fromLang, toLang)
}

// Init checks that Redis is reachable. There is no schema to create.
func (s *RedisStore) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("init", err)
	}
	return nil
}

// Insert stores a record under a fresh id from the seq counter.
func (s *RedisStore) Insert(ctx context.Context, r Record) (int64, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return 0, writeFailed("insert", err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	member := strconv.FormatInt(id, 10)
	score := float64(id)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(id),
			"source", r.Source,
			"target", r.Target,
			"from_lang", r.FromLang,
			"to_lang", r.ToLang,
			"example", r.Example,
			"created_at", createdAt.UTC().Format(lexicache.TimestampLayout),
		)
		pipe.ZAdd(ctx, s.idsKey(), redis.Z{Score: score, Member: member})
		pipe.ZAdd(ctx, s.indexKey(r.Source, r.FromLang, r.ToLang), redis.Z{Score: score, Member: member})
		return nil
	})
	if err != nil {
		return 0, writeFailed("insert", err)
	}

	return id, nil
}

// FindLatest returns the newest record for the key.
func (s *RedisStore) FindLatest(ctx context.Context, source, fromLang, toLang string) (*Record, error) {
	members, err := s.client.ZRevRange(ctx, s.indexKey(source, fromLang, toLang), 0, 0).Result()
	if err != nil {
		return nil, unavailable("find", err)
	}
	if len(members) == 0 {
		return nil, notFound("find")
	}

	id, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return nil, unavailable("find", err)
	}

	r, err := s.load(ctx, "find", id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListAll returns every record ordered by id.
func (s *RedisStore) ListAll(ctx context.Context) ([]Record, error) {
	members, err := s.client.ZRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}

	records := make([]Record, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		r, err := s.load(ctx, "list", id)
		if err != nil {
			if errors.Is(err, lexicache.ErrNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, *r)
	}

	return records, nil
}

// DeleteByIDs removes the given ids in one MULTI/EXEC block.
func (s *RedisStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	failed := make(map[int64]error)

	var found []*Record
	for _, id := range uniqueIDs(ids) {
		r, err := s.load(ctx, "delete", id)
		if err != nil {
			if errors.Is(err, lexicache.ErrNotFound) {
				failed[id] = lexicache.ErrNotFound
				continue
			}
			return err
		}
		found = append(found, r)
	}

	if len(found) > 0 {
		if err := s.remove(ctx, found); err != nil {
			for _, r := range found {
				failed[r.ID] = writeFailed("delete", err)
			}
		}
	}

	if len(failed) > 0 {
		return &lexicache.DeleteError{Failed: failed}
	}
	return nil
}

// DeleteAll removes every record it lists. Only the listed ids are taken out
// of the ids set, so a record inserted concurrently stays visible. The seq
// counter is kept, so ids are not reused.
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	records, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	all := make([]*Record, len(records))
	for i := range records {
		all[i] = &records[i]
	}

	if err := s.remove(ctx, all); err != nil {
		return writeFailed("clear", err)
	}
	return nil
}

// remove deletes records and their index entries atomically.
func (s *RedisStore) remove(ctx context.Context, records []*Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			member := strconv.FormatInt(r.ID, 10)
			pipe.Del(ctx, s.recordKey(r.ID))
			pipe.ZRem(ctx, s.indexKey(r.Source, r.FromLang, r.ToLang), member)
			pipe.ZRem(ctx, s.idsKey(), member)
		}
		return nil
	})
	return err
}

func (s *RedisStore) load(ctx context.Context, op string, id int64) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, unavailable(op, err)
	}
	if len(fields) == 0 {
		return nil, notFound(op)
	}

	r := &Record{
		ID:       id,
		Source:   fields["source"],
		Target:   fields["target"],
		FromLang: fields["from_lang"],
		ToLang:   fields["to_lang"],
		Example:  fields["example"],
	}
	if t, ok := parseTimestamp(fields["created_at"]); ok {
		r.CreatedAt = t
	}
	return r, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
