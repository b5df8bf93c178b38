package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sougas/auth-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Emails are stored lowercase so uniqueness is
// case-insensitive.
func (r *Repository) Create(ctx context.Context, fullName, email, phoneNumber, role, passwordHash string) (*User, error) {
	dbUser := &database.User{
		FullName:     fullName,
		Email:        strings.ToLower(email),
		PhoneNumber:  phoneNumber,
		Role:         role,
		PasswordHash: passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email. The password hash is not loaded;
// use GetByEmailWithPassword when verifying credentials.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn("password_hash").
		Where("email = ?", strings.ToLower(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmailWithPassword retrieves a user by email including the password
// hash, for credential verification only.
func (r *Repository) GetByEmailWithPassword(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", strings.ToLower(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn("password_hash").
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmailAndCode retrieves a user matching email, reset code and an
// unexpired code window in a single predicate, so callers cannot tell which
// condition failed.
func (r *Repository) GetByEmailAndCode(ctx context.Context, email, code string, now time.Time) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn("password_hash").
		Where("email = ?", strings.ToLower(email)).
		Where("verification_code = ?", code).
		Where("verification_code_expire > ?", now).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email and code: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetResetCode stores a reset code with its expiry. Only the two code columns
// are touched; the rest of the row is left as-is.
func (r *Repository) SetResetCode(ctx context.Context, userID uuid.UUID, code string, expire time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_code = ?", code).
		Set("verification_code_expire = ?", expire).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}

	return checkAffected(result)
}

// ClearResetCode removes any pending reset code from the user.
func (r *Repository) ClearResetCode(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_code = NULL").
		Set("verification_code_expire = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear reset code: %w", err)
	}

	return checkAffected(result)
}

// UpdatePassword replaces the password hash and consumes any pending reset
// code in the same statement.
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("verification_code = NULL").
		Set("verification_code_expire = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return checkAffected(result)
}

// UpdateDetails overwrites the name, email and role fields and returns the
// updated user. Credential and reset-code columns are untouched.
func (r *Repository) UpdateDetails(ctx context.Context, userID uuid.UUID, fullName, email, role string) (*User, error) {
	dbUser := new(database.User)
	result, err := r.db.NewUpdate().
		Model(dbUser).
		Set("full_name = ?", fullName).
		Set("email = ?", strings.ToLower(email)).
		Set("role = ?", role).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user details: %w", err)
	}

	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return mapDBUserToModel(dbUser), nil
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                     dbu.ID,
		FullName:               dbu.FullName,
		Email:                  dbu.Email,
		PhoneNumber:            dbu.PhoneNumber,
		Role:                   dbu.Role,
		PasswordHash:           dbu.PasswordHash,
		VerificationCode:       dbu.VerificationCode,
		VerificationCodeExpire: dbu.VerificationCodeExpire,
		CreatedAt:              dbu.CreatedAt,
		UpdatedAt:              dbu.UpdatedAt,
	}
}
