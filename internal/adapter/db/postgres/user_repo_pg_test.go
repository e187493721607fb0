package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	domain "rest-user-service/internal/domain/user"
	apperrors "rest-user-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func newTestRepo(t *testing.T) *UserRepoPG {
	return NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestUserRepoPG_SaveInsert(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	repo.now = fixedClock(now)

	u := &domain.User{Email: "john@example.com", FirstName: "John", LastName: "Doe"}
	require.NoError(t, repo.Save(context.Background(), u))

	assert.NotZero(t, u.ID)
	assert.Equal(t, now.Truncate(time.Millisecond), u.CreatedAt)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)

	got, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, "John", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestUserRepoPG_SaveAssignsDistinctIDs(t *testing.T) {
	repo := newTestRepo(t)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		u := &domain.User{Email: fmt.Sprintf("user%d@example.com", i), FirstName: "F", LastName: "L"}
		require.NoError(t, repo.Save(context.Background(), u))
		assert.False(t, seen[u.ID], "id %d reused", u.ID)
		seen[u.ID] = true
	}
}

func TestUserRepoPG_SaveUpdate(t *testing.T) {
	repo := newTestRepo(t)
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = fixedClock(created)

	u := &domain.User{Email: "john@example.com", FirstName: "John", LastName: "Doe"}
	require.NoError(t, repo.Save(context.Background(), u))

	// the clock did not move: the update must still advance UpdatedAt
	u.FirstName = "Johnny"
	require.NoError(t, repo.Save(context.Background(), u))

	got, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Johnny", got.FirstName)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	later := created.Add(time.Hour)
	repo.now = fixedClock(later)
	u.LastName = "Smith"
	require.NoError(t, repo.Save(context.Background(), u))

	got, err = repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(later))
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestUserRepoPG_SaveUpdateMissing(t *testing.T) {
	repo := newTestRepo(t)

	u := &domain.User{ID: 42, Email: "ghost@example.com", FirstName: "G", LastName: "H"}
	err := repo.Save(context.Background(), u)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoPG_SaveNil(t *testing.T) {
	repo := newTestRepo(t)
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestUserRepoPG_SaveDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &domain.User{Email: "dup@example.com", FirstName: "A", LastName: "B"}
	require.NoError(t, repo.Save(ctx, first))

	second := &domain.User{Email: "dup@example.com", FirstName: "C", LastName: "D"}
	err := repo.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateKey(err))

	other := &domain.User{Email: "other@example.com", FirstName: "E", LastName: "F"}
	require.NoError(t, repo.Save(ctx, other))

	other.Email = "dup@example.com"
	err = repo.Save(ctx, other)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateKey(err))

	shouting := &domain.User{Email: "DUP@EXAMPLE.COM", FirstName: "G", LastName: "H"}
	err = repo.Save(ctx, shouting)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateKey(err))
}

func TestAutoMigrate_EmailIndexOnly(t *testing.T) {
	db := setupTestDB(t)

	var indexes []string
	require.NoError(t, db.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'users' AND sql IS NOT NULL",
	).Scan(&indexes).Error)
	assert.ElementsMatch(t, []string{EmailIndex, "idx_users_name"}, indexes)

	var ddl string
	require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", EmailIndex).Scan(&ddl).Error)
	assert.Contains(t, ddl, "LOWER(email)")

	// running it again against an existing schema is a no-op
	require.NoError(t, AutoMigrate(db))
}

func TestUserRepoPG_FindByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.FindByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoPG_FindByEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "Mixed.Case@Example.com", FirstName: "M", LastName: "C"}
	require.NoError(t, repo.Save(ctx, u))

	tests := []struct {
		name   string
		email  string
		wantID int64
	}{
		{name: "exact", email: "Mixed.Case@Example.com", wantID: u.ID},
		{name: "lower", email: "mixed.case@example.com", wantID: u.ID},
		{name: "upper", email: "MIXED.CASE@EXAMPLE.COM", wantID: u.ID},
		{name: "missing", email: "nobody@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByEmail(ctx, tt.email)
			require.NoError(t, err)
			if tt.wantID == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, "Mixed.Case@Example.com", got.Email)
		})
	}
}

func TestUserRepoPG_FindAllOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	users := []*domain.User{
		{Email: "a@example.com", FirstName: "Zoe", LastName: "Brown"},
		{Email: "b@example.com", FirstName: "Adam", LastName: "Smith"},
		{Email: "c@example.com", FirstName: "Adam", LastName: "Brown"},
		{Email: "d@example.com", FirstName: "Adam", LastName: "Brown"},
	}
	for _, u := range users {
		require.NoError(t, repo.Save(ctx, u))
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	var got []string
	for _, u := range all {
		got = append(got, u.Email)
	}
	assert.Equal(t, []string{"c@example.com", "d@example.com", "a@example.com", "b@example.com"}, got)
}

func TestUserRepoPG_FindAllEmpty(t *testing.T) {
	repo := newTestRepo(t)

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "gone@example.com", FirstName: "G", LastName: "O"}
	require.NoError(t, repo.Save(ctx, u))

	require.NoError(t, repo.Delete(ctx, u.ID))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// the email is free again
	again := &domain.User{Email: "gone@example.com", FirstName: "G", LastName: "O"}
	require.NoError(t, repo.Save(ctx, again))
	assert.NotEqual(t, u.ID, again.ID)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "gorm translated", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "postgres sqlstate", err: sqlStateErr("23505"), want: true},
		{name: "other sqlstate", err: sqlStateErr("23503"), want: false},
		{name: "sqlite message", err: errors.New("UNIQUE constraint failed: users.email"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

type sqlStateErr string

func (e sqlStateErr) Error() string    { return "sqlstate " + string(e) }
func (e sqlStateErr) SQLState() string { return string(e) }
