package user

import "time"

// ISO8601 is the layout used to render timestamps in projections.
const ISO8601 = "2006-01-02T15:04:05.000Z07:00"

// Projection is the read-only external representation of a User.
type Projection struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ToResponse converts the record into its Projection.
func (u *User) ToResponse() (*Projection, error) {
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		return nil, ErrTimestampsUnset
	}

	return &Projection{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: formatTimestamp(u.CreatedAt),
		UpdatedAt: formatTimestamp(u.UpdatedAt),
	}, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(ISO8601)
}
