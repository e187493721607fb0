package user

import (
	"context"

	"go.uber.org/zap"

	domain "rest-user-service/internal/domain/user"
	apperrors "rest-user-service/pkg/errors"
	"rest-user-service/pkg/logger"
	"rest-user-service/pkg/validation"
)

// Usecase implements the business logic for user management operations.
// It is the only writer of the repository.
type Usecase struct {
	repo      Repository            // Repository for data access
	log       *zap.Logger           // Logger for structured logging
	validator *validation.Validator // Validator for request payloads
}

var _ UserUsecase = (*Usecase)(nil)

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validator: validation.New()}
}

// ListUsers returns every user ordered by last name, then first name.
func (uc *Usecase) ListUsers(ctx context.Context) ([]domain.Projection, error) {
	log := logger.WithContext(ctx, uc.log)

	users, err := uc.repo.FindAll(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	out := make([]domain.Projection, 0, len(users))
	for i := range users {
		p, err := uc.project(log, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, nil
}

// GetUser returns the user with the given ID.
func (uc *Usecase) GetUser(ctx context.Context, id int64) (*domain.Projection, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.find(ctx, log, id)
	if err != nil {
		return nil, err
	}

	return uc.project(log, u)
}

// CreateUser validates the payload, checks email uniqueness and stores a new user.
func (uc *Usecase) CreateUser(ctx context.Context, in UserInput) (*domain.Projection, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("email", in.Email))

	if err := uc.validate(log, in); err != nil {
		return nil, err
	}

	u := &domain.User{}
	u.PopulateFrom(in.toDomain())

	if err := uc.save(ctx, log, u); err != nil {
		return nil, err
	}

	log.Info("user created", zap.Int64("id", u.ID))
	return uc.project(log, u)
}

// UpdateUser overwrites the mutable fields of an existing user.
func (uc *Usecase) UpdateUser(ctx context.Context, id int64, in UserInput) (*domain.Projection, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", id), zap.String("email", in.Email))

	if err := uc.validate(log, in); err != nil {
		return nil, err
	}

	u, err := uc.find(ctx, log, id)
	if err != nil {
		return nil, err
	}

	u.PopulateFrom(in.toDomain())

	if err := uc.save(ctx, log, u); err != nil {
		return nil, err
	}

	log.Info("user updated", zap.Int64("id", u.ID))
	return uc.project(log, u)
}

// DeleteUser removes a user and returns the projection captured before deletion.
func (uc *Usecase) DeleteUser(ctx context.Context, id int64) (*domain.Projection, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", id))

	u, err := uc.find(ctx, log, id)
	if err != nil {
		return nil, err
	}

	deleted, err := uc.project(log, u)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to delete user", err)
	}

	log.Info("user deleted", zap.Int64("id", id))
	return deleted, nil
}

// validate runs the input validator and converts violations into a ValidationError.
func (uc *Usecase) validate(log *zap.Logger, in UserInput) error {
	messages, err := uc.validator.Struct(in)
	if err != nil {
		log.Error("validator failed", zap.Error(err))
		return apperrors.NewInternalError("failed to validate input", err)
	}
	if len(messages) > 0 {
		log.Warn("validate failed", zap.Strings("violations", messages))
		return apperrors.NewValidationError(messages...)
	}
	return nil
}

// find loads a user or returns ErrUserNotFound.
func (uc *Usecase) find(ctx context.Context, log *zap.Logger, id int64) (*domain.User, error) {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	if u == nil {
		log.Warn("user not found", zap.Int64("id", id))
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

// save checks that no other user holds the same email, then persists u.
// The check is best-effort; a unique violation reported by the store is
// translated to the same error.
func (uc *Usecase) save(ctx context.Context, log *zap.Logger, u *domain.User) error {
	existing, err := uc.repo.FindByEmail(ctx, u.Email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", u.Email), zap.Error(err))
		return apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil && existing.ID != u.ID {
		log.Warn("email already exists", zap.String("email", u.Email), zap.Int64("existing_id", existing.ID))
		return apperrors.ErrDuplicateEmail
	}

	if err := uc.repo.Save(ctx, u); err != nil {
		if apperrors.IsDuplicateKey(err) {
			log.Warn("email already exists (store constraint)", zap.String("email", u.Email))
			return apperrors.ErrDuplicateEmail
		}
		if apperrors.IsNotFound(err) {
			log.Warn("user vanished before save", zap.Int64("id", u.ID))
			return apperrors.ErrUserNotFound
		}
		log.Error("failed to save user", zap.Int64("id", u.ID), zap.Error(err))
		return apperrors.NewInternalError("failed to save user", err)
	}
	return nil
}

// project maps a stored record to its projection.
func (uc *Usecase) project(log *zap.Logger, u *domain.User) (*domain.Projection, error) {
	p, err := u.ToResponse()
	if err != nil {
		log.Error("failed to map user", zap.Int64("id", u.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to map user", err)
	}
	return p, nil
}
