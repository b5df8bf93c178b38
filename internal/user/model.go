package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold.
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
)

// User is the account entity.
type User struct {
	ID                     uuid.UUID  `json:"id"`
	FullName               string     `json:"full_name"`
	Email                  string     `json:"email"`
	PhoneNumber            string     `json:"phone_number,omitempty"`
	Role                   string     `json:"role"`
	PasswordHash           string     `json:"-"` // Never expose password hash in JSON
	VerificationCode       *string    `json:"-"`
	VerificationCodeExpire *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Public is the projection of a user that is safe to return to clients.
type Public struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// ToPublic returns the client-safe projection of the user.
func (u *User) ToPublic() Public {
	return Public{
		ID:    u.ID,
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
}
