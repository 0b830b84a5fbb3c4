package masterdata

import (
	"context"
	"errors"
	"time"
)

// UserStatus is the lifecycle of a platform user.
type UserStatus string

const (
	UserStatusActive  UserStatus = "A"
	UserStatusBlocked UserStatus = "B"
)

// User owns tags. External roaming users are created locally with a
// synthesized email and Issuer set to false.
type User struct {
	ID          string
	TenantID    string
	Name        string
	Email       string
	Issuer      bool
	Status      UserStatus
	CreatedAt   time.Time
	LastChanged time.Time
}

// Validate checks user invariants.
func (u User) Validate() error {
	if u.TenantID == "" {
		return errors.New("user: empty tenant id")
	}
	if u.Email == "" {
		return errors.New("user: empty email")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	GetByEmail(ctx context.Context, tenantID, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}
