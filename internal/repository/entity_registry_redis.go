package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
	"FolioPull/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// RedisEntityRegistry stores entities per entry in Redis: a set of ids and a
// hash of id to entity JSON. Both are written in one transaction.
type RedisEntityRegistry struct {
	client *redis.Client
	rc     *cache.RedisCache
}

func NewRedisEntityRegistry(rc *cache.RedisCache) *RedisEntityRegistry {
	return &RedisEntityRegistry{client: rc.Client(), rc: rc}
}

var _ repository.EntityRegistry = (*RedisEntityRegistry)(nil)

func (r *RedisEntityRegistry) idsKey(entryID string) string {
	return r.rc.Prefixed(cache.Key("entities", entryID, "ids"))
}

func (r *RedisEntityRegistry) dataKey(entryID string) string {
	return r.rc.Prefixed(cache.Key("entities", entryID, "data"))
}

func (r *RedisEntityRegistry) Register(ctx context.Context, entities ...models.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, e := range entities {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entity %s: %w", e.UniqueID, err)
		}
		pipe.SAdd(ctx, r.idsKey(e.EntryID), e.UniqueID)
		pipe.HSet(ctx, r.dataKey(e.EntryID), e.UniqueID, b)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register entities: %w", err)
	}
	return nil
}

func (r *RedisEntityRegistry) IDs(ctx context.Context, entryID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.idsKey(entryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list entity ids: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisEntityRegistry) Get(ctx context.Context, entryID, uniqueID string) (models.Entity, error) {
	b, err := r.client.HGet(ctx, r.dataKey(entryID), uniqueID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Entity{}, repository.ErrEntityNotFound
	}
	if err != nil {
		return models.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	var e models.Entity
	if err := json.Unmarshal(b, &e); err != nil {
		return models.Entity{}, fmt.Errorf("decode entity %s: %w", uniqueID, err)
	}
	return e, nil
}

func (r *RedisEntityRegistry) List(ctx context.Context, entryID string) ([]models.Entity, error) {
	all, err := r.client.HGetAll(ctx, r.dataKey(entryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	out := make([]models.Entity, 0, len(all))
	for id, raw := range all {
		var e models.Entity
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode entity %s: %w", id, err)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out, nil
}

func (r *RedisEntityRegistry) Remove(ctx context.Context, entryID string, uniqueIDs ...string) error {
	if len(uniqueIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(uniqueIDs))
	for i, id := range uniqueIDs {
		members[i] = id
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, r.idsKey(entryID), members...)
	pipe.HDel(ctx, r.dataKey(entryID), uniqueIDs...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove entities: %w", err)
	}
	return nil
}
