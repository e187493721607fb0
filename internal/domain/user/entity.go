package user

import (
	"errors"
	"time"
)

// TimestampPrecision is the resolution at which lifecycle timestamps are kept.
// It matches the precision of the ISO-8601 projection so that a stored value
// and its rendered form never disagree.
const TimestampPrecision = time.Millisecond

// ErrTimestampsUnset is returned by ToResponse for a record that was never persisted.
var ErrTimestampsUnset = errors.New("user timestamps are not set")

// User represents a user entity in the system.
type User struct {
	ID        int64     // ID is assigned by the store on first save
	Email     string    // Email is unique (case-insensitive) across all users
	FirstName string    // FirstName is the given name of the user
	LastName  string    // LastName is the family name of the user
	CreatedAt time.Time // CreatedAt is set once, on insert
	UpdatedAt time.Time // UpdatedAt is set on insert and refreshed on every update
}

// Input carries the mutable fields of a user as supplied by a caller.
type Input struct {
	Email     string
	FirstName string
	LastName  string
}

// OnBeforeInsert stamps both lifecycle timestamps with now.
func (u *User) OnBeforeInsert(now time.Time) {
	ts := normalize(now)
	u.CreatedAt = ts
	u.UpdatedAt = ts
}

// OnBeforeUpdate refreshes UpdatedAt. The new value is always strictly after the
// previous one, even when the clock has not advanced past it.
func (u *User) OnBeforeUpdate(now time.Time) {
	ts := normalize(now)
	if !ts.After(u.UpdatedAt) {
		ts = u.UpdatedAt.Add(TimestampPrecision)
	}
	u.UpdatedAt = ts
}

// PopulateFrom copies the mutable fields of in onto the record.
func (u *User) PopulateFrom(in Input) {
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
}

// Clone returns a copy of the record.
func (u *User) Clone() *User {
	c := *u
	return &c
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}
