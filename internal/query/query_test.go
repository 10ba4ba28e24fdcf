package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ticket-portal/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestKey(t *testing.T) {
	k := NewKey("events", "e1", "tickets")

	assert.Equal(t, "events:e1:tickets", k.String())
	assert.Equal(t, "events", k.Resource())
	assert.True(t, k.HasPrefix(NewKey("events")))
	assert.True(t, k.HasPrefix(NewKey("events", "e1")))
	assert.False(t, k.HasPrefix(NewKey("events", "e2")))
	assert.False(t, NewKey("events").HasPrefix(k))
}

func TestFetch_ReadThrough(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]event, error) {
		calls++
		return []event{{ID: "e1", Title: "Jazz Night"}}, nil
	}

	first, err := Fetch(ctx, c, NewKey("events", "public"), load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, NewKey("events", "public"), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetch_StaleTimeExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	c := New(store, time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, _ := Fetch(ctx, c, NewKey("n"), load)
	assert.Equal(t, 1, v)

	now = now.Add(61 * time.Second)
	v, _ = Fetch(ctx, c, NewKey("n"), load)
	assert.Equal(t, 2, v)
}

func TestFetch_ErrorsNotCached(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	boom := errors.New("backend down")
	calls := 0

	_, err := Fetch(ctx, c, NewKey("events"), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(ctx, c, NewKey("events"), func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestFetch_CoalescesConcurrentCalls(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(ctx, c, NewKey("events", "public"), func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "ok", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "ok", v)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestInvalidate_Prefix(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	calls := map[string]int{}
	load := func(name string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls[name]++
			return name, nil
		}
	}

	Fetch(ctx, c, NewKey("events", "e1", "tickets"), load("tickets"))
	Fetch(ctx, c, NewKey("events", "e10"), load("e10"))
	Fetch(ctx, c, NewKey("vendor", "events"), load("vendor"))

	require.NoError(t, c.Invalidate(ctx, NewKey("events", "e1")))

	Fetch(ctx, c, NewKey("events", "e1", "tickets"), load("tickets"))
	Fetch(ctx, c, NewKey("events", "e10"), load("e10"))
	Fetch(ctx, c, NewKey("vendor", "events"), load("vendor"))

	assert.Equal(t, 2, calls["tickets"])
	assert.Equal(t, 1, calls["e10"])
	assert.Equal(t, 1, calls["vendor"])
}

func TestMemoryStore_DeletePrefixBySegment(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, NewKey("vendor", "v1"), []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, NewKey("vendor", "v1", "events"), []byte("2"), time.Minute))
	require.NoError(t, store.Set(ctx, NewKey("vendor", "v1:x", "events"), []byte("3"), time.Minute))
	require.NoError(t, store.Set(ctx, NewKey("vendor", "v10"), []byte("4"), time.Minute))

	require.NoError(t, store.DeletePrefix(ctx, NewKey("vendor", "v1")))

	_, err := store.Get(ctx, NewKey("vendor", "v1"))
	assert.ErrorIs(t, err, ErrMiss)
	_, err = store.Get(ctx, NewKey("vendor", "v1", "events"))
	assert.ErrorIs(t, err, ErrMiss)
	got, err := store.Get(ctx, NewKey("vendor", "v1:x", "events"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
	_, err = store.Get(ctx, NewKey("vendor", "v10"))
	assert.NoError(t, err)
}

func TestRedisStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectGet("portal:q:events:public").SetVal(`[{"id":"e1","title":"Jazz Night"}]`)
	mock.ExpectGet("portal:q:events:e2").RedisNil()

	raw, err := store.Get(ctx, NewKey("events", "public"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"e1","title":"Jazz Night"}]`, string(raw))

	_, err = store.Get(ctx, NewKey("events", "e2"))
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_FetchMissThenSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(NewRedisStore(db), 2*time.Minute)
	ctx := context.Background()

	mock.ExpectGet("portal:q:events:e1").RedisNil()
	mock.ExpectSet("portal:q:events:e1", []byte(`{"id":"e1","title":"Jazz Night"}`), 2*time.Minute).SetVal("OK")

	v, err := Fetch(ctx, c, NewKey("events", "e1"), func(context.Context) (event, error) {
		return event{ID: "e1", Title: "Jazz Night"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", v.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_GetErrorFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(NewRedisStore(db), time.Minute)
	ctx := context.Background()

	mock.ExpectGet("portal:q:events:e1").SetErr(errors.New("connection refused"))
	mock.ExpectSet("portal:q:events:e1", []byte(`"fresh"`), time.Minute).SetErr(errors.New("connection refused"))

	v, err := Fetch(ctx, c, NewKey("events", "e1"), func(context.Context) (string, error) {
		return "fresh", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)

	mock.ExpectDel("portal:q:events:e1").SetVal(1)
	mock.ExpectScan(0, "portal:q:events:e1:*", 100).SetVal([]string{"portal:q:events:e1:tickets"}, 42)
	mock.ExpectDel("portal:q:events:e1:tickets").SetVal(1)
	mock.ExpectScan(42, "portal:q:events:e1:*", 100).SetVal([]string{}, 0)

	err := store.DeletePrefix(context.Background(), NewKey("events", "e1"))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutation_InvalidatesOnSuccessOnly(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}
	Fetch(ctx, c, NewKey("events", "e1", "tickets"), load)

	fail := true
	var notices []string
	m := NewMutation(c,
		func(_ context.Context, id string) (string, error) {
			if fail {
				return "", status.Rejected("Sold out")
			}
			return "BK-1", nil
		},
		func(id string, _ string) []Key { return []Key{NewKey("events", id)} },
	)
	m.OnSuccess = func(_ string, ref string) { notices = append(notices, "ok "+ref) }
	m.OnError = func(_ string, err error) { notices = append(notices, "err "+status.Message(err)) }

	_, err := m.Do(ctx, "s1", "e1")
	assert.ErrorIs(t, err, status.ErrBackendRejected)
	v, _ := Fetch(ctx, c, NewKey("events", "e1", "tickets"), load)
	assert.Equal(t, 1, v)

	fail = false
	ref, err := m.Do(ctx, "s1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "BK-1", ref)
	v, _ = Fetch(ctx, c, NewKey("events", "e1", "tickets"), load)
	assert.Equal(t, 2, v)

	assert.Equal(t, []string{"err Sold out", "ok BK-1"}, notices)
}

func TestMutation_RejectsOverlappingTrigger(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	m := NewMutation[string, string](nil,
		func(context.Context, string) (string, error) {
			close(started)
			<-release
			return "done", nil
		}, nil)

	done := make(chan error)
	go func() {
		_, err := m.Do(context.Background(), "s1", "a")
		done <- err
	}()
	<-started

	assert.True(t, m.Pending("s1"))
	_, err := m.Do(context.Background(), "s1", "b")
	assert.ErrorIs(t, err, status.ErrInFlight)

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, m.Pending("s1"))
}
