package session

import (
	"context"
	"testing"
	"time"

	"ticket-portal/internal/status"
	"ticket-portal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "v1",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func vendorReply(token string) *models.AuthReply {
	return &models.AuthReply{
		Token:  token,
		Role:   models.RoleVendor,
		Vendor: &models.VendorProfile{ID: "v1", Name: "Acme Events", Email: "ops@acme.test"},
	}
}

func TestManager_LoginCurrentLogout(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()
	sid := NewID()

	s, err := m.Login(ctx, sid, Vendor, vendorReply(signed(t, time.Now().Add(30*time.Minute))))
	require.NoError(t, err)
	assert.Equal(t, "v1", s.SubjectID())
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), s.ExpiresAt, 2*time.Second)

	got, err := m.Current(ctx, sid, Vendor)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, "Acme Events", got.Vendor.Name)

	_, err = m.Current(ctx, sid, Staff)
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	require.NoError(t, m.Logout(ctx, sid, Vendor))
	_, err = m.Current(ctx, sid, Vendor)
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)

	_, err := m.Login(context.Background(), "sid", Vendor, vendorReply(signed(t, time.Now().Add(-time.Minute))))

	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestManager_RejectsLoginWithoutSubject(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	noProfile := vendorReply("opaque")
	noProfile.Vendor = nil
	_, err := m.Login(ctx, "sid", Vendor, noProfile)
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	noID := vendorReply("opaque")
	noID.Vendor.ID = ""
	_, err = m.Login(ctx, "sid", Vendor, noID)
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	_, err = m.Login(ctx, "sid", Staff, vendorReply("opaque"))
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	_, err = store.Load(ctx, "sid", Vendor)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_OpaqueTokenUsesTTL(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)

	s, err := m.Login(context.Background(), "sid", Vendor, vendorReply("not-a-jwt"))

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 2*time.Second)
}

func TestManager_ExpiresWithToken(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := m.Login(ctx, "sid", Vendor, vendorReply(signed(t, now.Add(10*time.Minute))))
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = m.Current(ctx, "sid", Vendor)
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestManager_Update(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()
	_, err := m.Login(ctx, "sid", Vendor, vendorReply("opaque"))
	require.NoError(t, err)

	_, err = m.Update(ctx, "sid", Vendor, func(s *Session) { s.Vendor.CompanyName = "Acme Ltd" })
	require.NoError(t, err)

	got, err := m.Current(ctx, "sid", Vendor)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", got.Vendor.CompanyName)
}

func TestSealed_RoundTripAndBinding(t *testing.T) {
	inner := NewMemoryStore()
	sealed, err := NewSealed(inner, "a-long-enough-session-secret")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sealed.Save(ctx, "sid", Vendor, []byte(`{"token":"secret-token"}`), time.Hour))

	raw, err := inner.Load(ctx, "sid", Vendor)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	data, err := sealed.Load(ctx, "sid", Vendor)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"secret-token"}`, string(data))

	require.NoError(t, inner.Save(ctx, "other", Vendor, raw, time.Hour))
	_, err = sealed.Load(ctx, "other", Vendor)
	assert.Error(t, err)

	_, err = sealed.Load(ctx, "missing", Vendor)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSealed_ShortSecret(t *testing.T) {
	_, err := NewSealed(NewMemoryStore(), "short")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)
	ctx := context.Background()

	mock.ExpectSet("portal:session:vendor:sid", []byte("data"), time.Minute).SetVal("OK")
	mock.ExpectGet("portal:session:vendor:sid").SetVal("data")
	mock.ExpectGet("portal:session:staff:sid").RedisNil()
	mock.ExpectDel("portal:session:vendor:sid").SetVal(1)

	require.NoError(t, store.Save(ctx, "sid", Vendor, []byte("data"), time.Minute))
	data, err := store.Load(ctx, "sid", Vendor)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	_, err = store.Load(ctx, "sid", Staff)
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, store.Delete(ctx, "sid", Vendor))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func newTestDB(t *testing.T) *dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.NewQuery(`CREATE TABLE client_sessions (
		id TEXT PRIMARY KEY NOT NULL,
		sid TEXT DEFAULT '' NOT NULL,
		namespace TEXT DEFAULT '' NOT NULL,
		data TEXT DEFAULT '' NOT NULL,
		expires TEXT DEFAULT '' NOT NULL
	)`).Execute()
	require.NoError(t, err)
	return db
}

func TestDBStore(t *testing.T) {
	db := newTestDB(t)
	store := NewDBStore(db)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Load(ctx, "sid", Vendor)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, "sid", Vendor, []byte("first"), time.Hour))
	require.NoError(t, store.Save(ctx, "sid", Vendor, []byte("second"), time.Hour))
	require.NoError(t, store.Save(ctx, "sid", Staff, []byte("staff"), time.Minute))

	var count int
	require.NoError(t, db.Select("count(*)").From(Table).Row(&count))
	assert.Equal(t, 2, count)

	data, err := store.Load(ctx, "sid", Vendor)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, "sid", Staff)
	assert.ErrorIs(t, err, ErrNoSession)

	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.Delete(ctx, "sid", Vendor))
	_, err = store.Load(ctx, "sid", Vendor)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_SealedDBStore(t *testing.T) {
	sealed, err := NewSealed(NewDBStore(newTestDB(t)), "a-long-enough-session-secret")
	require.NoError(t, err)
	m := NewManager(sealed, time.Hour)
	ctx := context.Background()

	_, err = m.Login(ctx, "sid", Staff, &models.AuthReply{
		Token: "opaque",
		Role:  models.RoleStaff,
		Staff: &models.Staff{ID: "s1", IsActive: true},
	})
	require.NoError(t, err)

	s, err := m.Current(ctx, "sid", Staff)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.SubjectID())
}
