package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/security"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
)

func slot(sid string, ns Namespace) string {
	return string(ns) + ":" + sid
}

// RedisStore keeps sessions under portal:session:<namespace>:<sid> with the
// session lifetime as TTL.
type RedisStore struct {
	Redis redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{Redis: rdb}
}

func redisKey(sid string, ns Namespace) string {
	return "portal:session:" + slot(sid, ns)
}

func (s *RedisStore) Load(ctx context.Context, sid string, ns Namespace) ([]byte, error) {
	data, err := s.Redis.Get(ctx, redisKey(sid, ns)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	return data, err
}

func (s *RedisStore) Save(ctx context.Context, sid string, ns Namespace, data []byte, ttl time.Duration) error {
	return s.Redis.Set(ctx, redisKey(sid, ns), data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sid string, ns Namespace) error {
	return s.Redis.Del(ctx, redisKey(sid, ns)).Err()
}

// Table holds sessions persisted in the PocketBase database.
const Table = "client_sessions"

type sessionRow struct {
	ID      string `db:"id"`
	Data    string `db:"data"`
	Expires string `db:"expires"`
}

// DBStore keeps sessions in the client_sessions collection.
type DBStore struct {
	db  dbx.Builder
	now func() time.Time
}

func NewDBStore(db dbx.Builder) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func dateString(t time.Time) string {
	dt, err := types.ParseDateTime(t.UTC())
	if err != nil {
		return t.UTC().Format(types.DefaultDateLayout)
	}
	return dt.String()
}

func (s *DBStore) Load(ctx context.Context, sid string, ns Namespace) ([]byte, error) {
	var row sessionRow
	err := s.db.Select("id", "data", "expires").
		From(Table).
		Where(dbx.HashExp{"sid": sid, "namespace": string(ns)}).
		AndWhere(dbx.NewExp("expires > {:now}", dbx.Params{"now": dateString(s.now())})).
		Limit(1).
		WithContext(ctx).
		One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", Table, err)
	}
	return []byte(row.Data), nil
}

func (s *DBStore) Save(ctx context.Context, sid string, ns Namespace, data []byte, ttl time.Duration) error {
	expires := dateString(s.now().Add(ttl))

	res, err := s.db.Update(Table,
		dbx.Params{"data": string(data), "expires": expires},
		dbx.HashExp{"sid": sid, "namespace": string(ns)},
	).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("update %s: %w", Table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.Insert(Table, dbx.Params{
		"id":        security.RandomStringWithAlphabet(15, "abcdefghijklmnopqrstuvwxyz0123456789"),
		"sid":       sid,
		"namespace": string(ns),
		"data":      string(data),
		"expires":   expires,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("insert %s: %w", Table, err)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, sid string, ns Namespace) error {
	_, err := s.db.Delete(Table, dbx.HashExp{"sid": sid, "namespace": string(ns)}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("delete %s: %w", Table, err)
	}
	return nil
}

// Purge removes expired rows.
func (s *DBStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.Delete(Table, dbx.NewExp("expires <= {:now}", dbx.Params{"now": dateString(s.now())})).
		WithContext(ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", Table, err)
	}
	return res.RowsAffected()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore is for development and tests; sessions vanish on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, sid string, ns Namespace) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[slot(sid, ns)]
	if !ok || !s.now().Before(e.expires) {
		delete(s.entries, slot(sid, ns))
		return nil, ErrNoSession
	}
	return append([]byte(nil), e.data...), nil
}

func (s *MemoryStore) Save(_ context.Context, sid string, ns Namespace, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[slot(sid, ns)] = memoryEntry{data: append([]byte(nil), data...), expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string, ns Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, slot(sid, ns))
	return nil
}
