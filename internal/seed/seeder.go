// Package seed fills the user store with generated data.
package seed

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"rest-user-service/internal/usecase/user"
	apperrors "rest-user-service/pkg/errors"
)

// maxAttempts bounds how many generated payloads are tried per user before a
// duplicate email is treated as fatal.
const maxAttempts = 5

// Seeder replaces the stored users with fake ones. All writes go through the
// usecase so validation and uniqueness rules apply.
type Seeder struct {
	uc    user.UserUsecase
	faker *gofakeit.Faker
	log   *zap.Logger
}

// New creates a Seeder. A zero seed picks a random one.
func New(uc user.UserUsecase, seed uint64, log *zap.Logger) *Seeder {
	return &Seeder{uc: uc, faker: gofakeit.New(seed), log: log}
}

// Run deletes every user and creates count new ones.
func (s *Seeder) Run(ctx context.Context, count int) error {
	removed, err := s.Wipe(ctx)
	if err != nil {
		return err
	}
	s.log.Info("existing users removed", zap.Int("count", removed))

	for i := 0; i < count; i++ {
		if err := s.createOne(ctx); err != nil {
			return fmt.Errorf("seed user %d: %w", i+1, err)
		}
	}

	s.log.Info("users seeded", zap.Int("count", count))
	return nil
}

// Wipe deletes every stored user and reports how many were removed.
func (s *Seeder) Wipe(ctx context.Context) (int, error) {
	users, err := s.uc.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if _, err := s.uc.DeleteUser(ctx, u.ID); err != nil && !apperrors.IsNotFound(err) {
			return 0, fmt.Errorf("delete user %d: %w", u.ID, err)
		}
	}

	return len(users), nil
}

func (s *Seeder) createOne(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		_, err = s.uc.CreateUser(ctx, s.fakeInput())
		if err == nil || !apperrors.IsAlreadyExists(err) {
			return err
		}
		s.log.Debug("generated email already taken, retrying", zap.Int("attempt", attempt+1))
	}
	return err
}

func (s *Seeder) fakeInput() user.UserInput {
	return user.UserInput{
		Email:     s.faker.Email(),
		FirstName: s.faker.FirstName(),
		LastName:  s.faker.LastName(),
	}
}
