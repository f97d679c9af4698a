package records

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	redisKeyPrefix      = "gymstats-records||"
	redisCollectionsKey = "gymstats-records-collections"
)

type RedisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
	}
}

func collectionKey(collection string) string {
	return redisKeyPrefix + collection
}

// Load returns the stored sessions, or an empty list for an unknown collection.
func (s *RedisStore) Load(ctx context.Context, collection string) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.redis.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return nil, err
	}

	payload, err := s.redisClient.Get(ctx, collectionKey(collection)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Session{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", collection, err)
	}

	return unmarshalSessions([]byte(payload))
}

func (s *RedisStore) Save(ctx context.Context, collection string, sessions []Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.redis.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return err
	}

	payload, err := marshalSessions(sessions)
	if err != nil {
		return err
	}

	// payload and registry entry go in one MULTI/EXEC
	if _, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, collectionKey(collection), string(payload), 0)
		pipe.SAdd(ctx, redisCollectionsKey, collection)
		return nil
	}); err != nil {
		return fmt.Errorf("redis save %s: %w", collection, err)
	}

	log.Debugf("records: saved %d sessions to collection [%s]", len(sessions), collection)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.redis.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := ValidateCollectionName(collection); err != nil {
		return err
	}

	var delCmd *redis.IntCmd
	if _, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		delCmd = pipe.Del(ctx, collectionKey(collection))
		pipe.SRem(ctx, redisCollectionsKey, collection)
		return nil
	}); err != nil {
		return fmt.Errorf("redis delete %s: %w", collection, err)
	}
	if delCmd.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	return nil
}

func (s *RedisStore) Collections(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "records.redis.collections")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	names, err := s.redisClient.SMembers(ctx, redisCollectionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
