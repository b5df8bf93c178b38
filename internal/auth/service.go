package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html/template"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sougas/auth-api/internal/logging"
	"github.com/sougas/auth-api/internal/user"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid code or code has expired")
	ErrEmailNotFound        = errors.New("there is no user with that email")
	ErrDeliveryFailed       = errors.New("email could not be sent")
)

// Reset codes are valid for 10 minutes from issuance.
const resetCodeTTL = 10 * time.Minute

// Service implements the credential lifecycle: registration, login, the
// reset-code state machine and profile updates.
type Service struct {
	users    UserStore
	cache    ProjectionCache
	tokens   TokenService
	mailer   Mailer
	sms      SMSSender
	logger   *logging.Logger
	tokenTTL time.Duration
}

func NewService(
	users UserStore,
	cache ProjectionCache,
	tokens TokenService,
	mailer Mailer,
	sms SMSSender,
	logger *logging.Logger,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		tokens:   tokens,
		mailer:   mailer,
		sms:      sms,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// Register creates a new account and returns it with a session token.
func (s *Service) Register(ctx context.Context, fullName, email, password, role, phoneNumber string) (*user.User, string, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, fullName, email, phoneNumber, role, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser.ID, newUser.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return newUser, token, nil
}

// Login authenticates a user and returns a session token. A missing user and
// a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	existing, err := s.users.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(existing.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.ID, existing.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return existing, token, nil
}

// CurrentUser returns the client-safe projection for the authenticated user,
// served from the projection cache when possible. Returns user.ErrNotFound if
// the account was deleted after the token was issued.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*user.Public, error) {
	if cached, err := s.cache.Get(ctx, userID); err != nil {
		s.logger.Warn("failed to read user cache", "user_id", userID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.cache.Set(ctx, existing); err != nil {
		s.logger.Warn("failed to cache user", "user_id", userID, "error", err)
	}

	p := existing.ToPublic()
	return &p, nil
}

// ForgotPassword issues a 4-digit reset code valid for 10 minutes and
// delivers it. SMS is attempted first when the user has a phone number; an
// SMS failure is logged and swallowed. Email is the authoritative channel:
// if it fails the issued code is rolled back and ErrDeliveryFailed returned.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	expire := time.Now().Add(resetCodeTTL)
	if err := s.users.SetResetCode(ctx, existing.ID, code, expire); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	message := fmt.Sprintf("Your password reset code is: %s", code)

	if existing.PhoneNumber != "" {
		if err := s.sms.SendSMS(ctx, existing.PhoneNumber, message); err != nil {
			// Non-fatal: email remains the authoritative channel.
			s.logger.Warn("sms delivery failed", "user_id", existing.ID, "error", err)
		}
	}

	html, err := renderResetEmail(code)
	if err != nil {
		s.logger.Warn("failed to render reset email", "error", err)
		html = ""
	}

	if err := s.mailer.SendEmail(ctx, existing.Email, "Password Reset Code", message, html); err != nil {
		s.logger.Error("email delivery failed", "user_id", existing.ID, "error", err)
		// A code the user can never learn must not stay valid.
		if clearErr := s.users.ClearResetCode(ctx, existing.ID); clearErr != nil {
			s.logger.Error("failed to roll back reset code", "user_id", existing.ID, "error", clearErr)
		}
		return ErrDeliveryFailed
	}

	return nil
}

// VerifyCode checks that an unexpired reset code matches the email. It never
// consumes the code; ResetPassword re-validates independently. A wrong email,
// wrong code and expired code are indistinguishable.
func (s *Service) VerifyCode(ctx context.Context, email, code string) error {
	_, err := s.users.GetByEmailAndCode(ctx, email, code, time.Now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to verify code: %w", err)
	}
	return nil
}

// ResetPassword replaces the password for a user holding a matching unexpired
// reset code, consumes the code and returns a fresh session token.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) (*user.User, string, error) {
	existing, err := s.users.GetByEmailAndCode(ctx, email, code, time.Now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidOrExpiredCode
		}
		return nil, "", fmt.Errorf("failed to look up reset code: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	// Clears the code and expiry in the same statement: single use.
	if err := s.users.UpdatePassword(ctx, existing.ID, passwordHash); err != nil {
		return nil, "", fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.cache.Invalidate(ctx, existing.ID); err != nil {
		s.logger.Warn("failed to invalidate user cache", "user_id", existing.ID, "error", err)
	}

	token, err := s.tokens.CreateToken(existing.ID, existing.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return existing, token, nil
}

// UpdateDetails overwrites the name, email and role fields. Blank inputs keep
// the current value. Password and reset-code state are never touched.
func (s *Service) UpdateDetails(ctx context.Context, userID uuid.UUID, fullName, email, role string) (*user.User, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if fullName == "" {
		fullName = current.FullName
	}
	if email == "" {
		email = current.Email
	}
	if role == "" {
		role = current.Role
	}

	updated, err := s.users.UpdateDetails(ctx, userID, fullName, email, role)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user details: %w", err)
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate user cache", "user_id", userID, "error", err)
	}

	return updated, nil
}

// generateResetCode returns a 4-digit code uniformly distributed over
// [1000, 9999].
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

var resetEmailTemplate = template.Must(template.New("resetCode").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password Reset Code</h2>
    <p>Use the code below to reset your Sou Gas account password.</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">{{.Code}}</p>
    <p>The code expires in 10 minutes. If you didn't request a password reset, you can safely ignore this email.</p>
</body>
</html>
`))

func renderResetEmail(code string) (string, error) {
	var buf bytes.Buffer
	if err := resetEmailTemplate.Execute(&buf, struct{ Code string }{Code: code}); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
