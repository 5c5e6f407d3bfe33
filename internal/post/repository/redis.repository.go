package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	redisIndexKey     = "posts:index"
	redisDocKeyPrefix = "posts:doc:"
	redisCreatedField = "_createdAt" // unix microseconds
)

// RedisStore keeps each post in a hash and orders them with a sorted set
// scored by creation time. Timestamps come from the Redis server clock.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func docKey(id string) string {
	return redisDocKeyPrefix + id
}

func (r *RedisStore) ListAll(ctx context.Context) ([]Document, error) {
	ids, err := r.Client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		logger.Sugar.Errorf("Failed to read post index: %v", err)
		return nil, unavailable("list", err)
	}

	docs := []Document{}
	if len(ids) == 0 {
		return docs, nil
	}

	cmds := make([]*redis.StringStringMapCmd, len(ids))
	_, err = r.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, docKey(id))
		}
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to load posts: %v", err)
		return nil, unavailable("list", err)
	}

	for i, cmd := range cmds {
		hash := cmd.Val()
		if len(hash) == 0 {
			// deleted between the index read and the load
			continue
		}
		doc, err := decodeHash(ids[i], hash)
		if err != nil {
			return nil, unavailable("list", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *RedisStore) GetByID(ctx context.Context, id string) (Document, bool, error) {
	hash, err := r.Client.HGetAll(ctx, docKey(id)).Result()
	if err != nil {
		logger.Sugar.Errorf("Failed to get post %s: %v", id, err)
		return Document{}, false, unavailable("get", err)
	}
	if len(hash) == 0 {
		return Document{}, false, nil
	}
	doc, err := decodeHash(id, hash)
	if err != nil {
		return Document{}, false, unavailable("get", err)
	}
	return doc, true, nil
}

func (r *RedisStore) Create(ctx context.Context, fields map[string]any) (string, error) {
	values, err := encodeHash(withoutReserved(fields))
	if err != nil {
		return "", err
	}

	now, err := r.Client.Time(ctx).Result()
	if err != nil {
		logger.Sugar.Errorf("Failed to read redis server time: %v", err)
		return "", unavailable("create", err)
	}
	micros := now.UnixMicro()
	values[redisCreatedField] = strconv.FormatInt(micros, 10)

	id := newID()
	_, err = r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, docKey(id), values)
		pipe.ZAdd(ctx, redisIndexKey, &redis.Z{Score: float64(micros), Member: id})
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to create post: %v", err)
		return "", unavailable("create", err)
	}
	return id, nil
}

// updateScript writes only when the hash exists, so an update racing a
// delete can never leave behind a document without a timestamp.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
if #ARGV > 0 then
	redis.call("HSET", KEYS[1], unpack(ARGV))
end
return 1
`)

func (r *RedisStore) UpdateByID(ctx context.Context, id string, fields map[string]any) (bool, error) {
	values, err := encodeHash(withoutReserved(fields))
	if err != nil {
		return false, err
	}

	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	n, err := updateScript.Run(ctx, r.Client, []string{docKey(id)}, args...).Int()
	if err != nil {
		logger.Sugar.Errorf("Failed to update post %s: %v", id, err)
		return false, unavailable("update", err)
	}
	return n == 1, nil
}

func (r *RedisStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, docKey(id))
		pipe.ZRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to delete post %s: %v", id, err)
		return false, unavailable("delete", err)
	}
	return del.Val() > 0, nil
}

// Every hash value carries a type tag so that no user string can be
// mistaken for an encoded one.
const (
	redisStringTag = "s:"
	redisJSONTag   = "j:"
)

// encodeHash stores strings as "s:<text>" and every other value as
// "j:<json>".
func encodeHash(fields map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == redisCreatedField {
			continue
		}
		if s, ok := v.(string); ok {
			values[k] = redisStringTag + s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		values[k] = redisJSONTag + string(b)
	}
	return values, nil
}

func decodeHash(id string, hash map[string]string) (Document, error) {
	doc := Document{ID: id, Fields: make(map[string]any, len(hash))}
	for k, v := range hash {
		switch {
		case k == redisCreatedField:
			micros, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Document{}, fmt.Errorf("decode post %s: %w", id, err)
			}
			t := time.UnixMicro(micros).UTC()
			doc.CreatedAt = &t
		case strings.HasPrefix(v, redisStringTag):
			doc.Fields[k] = strings.TrimPrefix(v, redisStringTag)
		case strings.HasPrefix(v, redisJSONTag):
			var decoded any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(v, redisJSONTag)), &decoded); err != nil {
				return Document{}, fmt.Errorf("decode post %s field %s: %w", id, k, err)
			}
			doc.Fields[k] = decoded
		default:
			// written by hand or by another tool
			doc.Fields[k] = v
		}
	}
	return doc, nil
}
