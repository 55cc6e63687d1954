package auth

import (
	"context"
	"time"
)

// Profile is the user document kept next to the account.
type Profile struct {
	UID         string     `json:"uid"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Mobile      string     `json:"mobile"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProfilePatch is a merge write: nil fields are left untouched.
type ProfilePatch struct {
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Mobile      *string    `json:"mobile,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Mobile == nil && p.DateOfBirth == nil
}

func (p ProfilePatch) applyTo(dst *Profile) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Email != nil {
		dst.Email = *p.Email
	}
	if p.Mobile != nil {
		dst.Mobile = *p.Mobile
	}
	if p.DateOfBirth != nil {
		d := *p.DateOfBirth
		dst.DateOfBirth = &d
	}
}

// ProfileStore holds profile documents. Merge creates the document when it
// does not exist yet.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (Profile, bool, error)
	Merge(ctx context.Context, uid string, patch ProfilePatch, now time.Time) (Profile, error)
	Ping(ctx context.Context) error
}
