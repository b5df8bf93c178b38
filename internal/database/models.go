package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun table model for the users table.
//
// verification_code and verification_code_expire are set together while a
// password reset is in flight and cleared together when the reset completes
// or is rolled back.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                     uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	FullName               string     `bun:"full_name,notnull"`
	Email                  string     `bun:"email,notnull,unique"`
	PhoneNumber            string     `bun:"phone_number,nullzero"`
	Role                   string     `bun:"role,notnull"`
	PasswordHash           string     `bun:"password_hash,notnull"`
	VerificationCode       *string    `bun:"verification_code,nullzero"`
	VerificationCodeExpire *time.Time `bun:"verification_code_expire,nullzero"`
	CreatedAt              time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt              time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
