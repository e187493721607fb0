package user

import domain "rest-user-service/internal/domain/user"

// UserInput represents the request payload for creating or updating a user.
// The same shape is used for both operations.
type UserInput struct {
	Email     string `json:"email" validate:"email,optmax=255"`
	FirstName string `json:"firstName" validate:"required,optmax=64"`
	LastName  string `json:"lastName" validate:"required,optmax=64"`
}

// toDomain converts the payload into the domain input.
func (in UserInput) toDomain() domain.Input {
	return domain.Input{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
}
