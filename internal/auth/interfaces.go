package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sougas/auth-api/internal/user"
)

// TokenService issues and validates session tokens.
type TokenService interface {
	CreateToken(userID uuid.UUID, role string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the persistence surface the service depends on.
// Implemented by *user.Repository.
type UserStore interface {
	Create(ctx context.Context, fullName, email, phoneNumber, role, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*user.User, error)
	SetResetCode(ctx context.Context, userID uuid.UUID, code string, expire time.Time) error
	ClearResetCode(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateDetails(ctx context.Context, userID uuid.UUID, fullName, email, role string) (*user.User, error)
}

// Mailer delivers an email with plaintext and HTML bodies.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, text, html string) error
}

// SMSSender delivers a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// ProjectionCache caches client-safe user projections.
// Implemented by *user.Cache.
type ProjectionCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*user.Public, error)
	Set(ctx context.Context, u *user.User) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
