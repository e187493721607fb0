package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"rest-user-service/internal/adapter/cache"
	domain "rest-user-service/internal/domain/user"
	"rest-user-service/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation. Only
// lookups by ID are cached; every write invalidates the entry.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

var _ user.Repository = (*CachedUserRepository)(nil)

// NewCachedUserRepository creates a new instance of CachedUserRepository.
// A nil cache makes it a pass-through.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// FindAll delegates to the DB repository.
func (r *CachedUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.FindAll(ctx)
}

// FindByID retrieves a user by ID using Cache-Aside pattern.
// Callers always receive their own copy of the record.
func (r *CachedUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			r.log.Debug("user retrieved from cache", zap.Int64("id", id))
			return cachedUser, nil
		}
	}

	// Cache miss or cache disabled - use single-flight to prevent stampede.
	// The shared load outlives the first caller's cancellation, since other
	// callers may be waiting on it.
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := r.group.Do(fmt.Sprintf("user:%d", id), func() (any, error) {
		// Another request may have populated the cache while we were waiting
		if r.cache != nil {
			cachedUser, err := r.cache.Get(loadCtx, id)
			if err == nil && cachedUser != nil {
				r.log.Debug("user retrieved from cache after single-flight wait", zap.Int64("id", id))
				return cachedUser, nil
			}
		}

		u, err := r.dbRepo.FindByID(loadCtx, id)
		if err != nil || u == nil {
			return u, err
		}

		if r.cache != nil {
			if err := r.cache.Set(loadCtx, u); err != nil {
				r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
			}
		}

		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u, _ := result.(*domain.User)
	if u == nil {
		return nil, nil
	}
	return u.Clone(), nil
}

// FindByEmail delegates to the DB repository.
func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.FindByEmail(ctx, email)
}

// Save writes through to the DB repository and invalidates the cached entry.
func (r *CachedUserRepository) Save(ctx context.Context, u *domain.User) error {
	if err := r.dbRepo.Save(ctx, u); err != nil {
		return err
	}

	r.invalidate(ctx, u.ID, "save")
	return nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, id, "delete")
	return nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id int64, op string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
	}
}
