package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "rest-user-service/internal/domain/user"
	apperrors "rest-user-service/pkg/errors"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// UserRepoPG implements the user Repository using GORM. PostgreSQL is the
// production store; the same code runs on SQLite for local use and tests.
type UserRepoPG struct {
	db  *gorm.DB          // GORM database connection
	log *zap.Logger       // Structured logger for database operations
	now func() time.Time // Clock used by the lifecycle hooks
}

// EmailIndex is the unique index on LOWER(email).
const EmailIndex = "idx_users_email"

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log, now: time.Now}
}

// UserSchema represents the database schema for the users table.
// The timestamp fields are named so that GORM does not manage them; the
// domain lifecycle hooks own them. Email uniqueness is enforced by the
// idx_users_email expression index, not by a tag.
type UserSchema struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	Email           string    `gorm:"size:255;not null"`
	FirstName       string    `gorm:"size:64;not null;index:idx_users_name,priority:2"`
	LastName        string    `gorm:"size:64;not null;index:idx_users_name,priority:1"`
	CreatedDateTime time.Time `gorm:"column:created_at;not null"`
	UpdatedDateTime time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AutoMigrate creates or updates the users table from UserSchema. It is used
// for SQLite; PostgreSQL is migrated with the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	// emails are unique regardless of case; same index as the SQL migration
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS " + EmailIndex + " ON users (LOWER(email))").Error; err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func toSchema(u *domain.User) UserSchema {
	return UserSchema{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		CreatedDateTime: u.CreatedAt,
		UpdatedDateTime: u.UpdatedAt,
	}
}

func (m UserSchema) toDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		CreatedAt: m.CreatedDateTime.UTC(),
		UpdatedAt: m.UpdatedDateTime.UTC(),
	}
}

// FindAll returns every user ordered by last name, then first name, then ID.
func (r *UserRepoPG) FindAll(ctx context.Context) ([]domain.User, error) {
	var models []UserSchema
	err := r.db.WithContext(ctx).
		Order("last_name ASC").
		Order("first_name ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// FindByID retrieves a user by ID. It returns (nil, nil) when there is none.
func (r *UserRepoPG) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// FindByEmail retrieves a user by email, ignoring case. It returns (nil, nil)
// when there is none.
func (r *UserRepoPG) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// Save inserts u when it has no ID yet, and updates it otherwise. The lifecycle
// hook matching the operation runs first; on insert the generated ID is
// written back to u.
func (r *UserRepoPG) Save(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}

	if u.ID == 0 {
		return r.insert(ctx, u)
	}
	return r.update(ctx, u)
}

func (r *UserRepoPG) insert(ctx context.Context, u *domain.User) error {
	u.OnBeforeInsert(r.now())
	model := toSchema(u)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("unique violation on user insert", zap.String("email", u.Email))
			return fmt.Errorf("failed to create user: %w", apperrors.ErrDuplicateKey)
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = model.ID
	r.log.Info("user created in db", zap.Int64("id", u.ID))
	return nil
}

func (r *UserRepoPG) update(ctx context.Context, u *domain.User) error {
	u.OnBeforeUpdate(r.now())

	res := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"updated_at": u.UpdatedAt,
		})
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("unique violation on user update", zap.Int64("id", u.ID), zap.String("email", u.Email))
			return fmt.Errorf("failed to update user: %w", apperrors.ErrDuplicateKey)
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", u.ID))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update user: %w", apperrors.ErrUserNotFound)
	}

	r.log.Info("user updated in db", zap.Int64("id", u.ID))
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&UserSchema{}, id).Error; err != nil {
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// isUniqueViolation recognises unique constraint failures from GORM's error
// translation, PostgreSQL (pgx) and SQLite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqlState interface{ SQLState() string }
	if errors.As(err, &sqlState) && sqlState.SQLState() == pgUniqueViolation {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
