package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sougas/auth-api/internal/httputil"
	"github.com/sougas/auth-api/internal/logging"
	"github.com/sougas/auth-api/internal/user"
)

// Handler contains HTTP handlers for the authentication endpoints
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	v := validator.New()

	// Report fields by their JSON names in validation messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		service:  service,
		validate: v,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"required,oneof=customer driver"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the reset-code request body
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest represents the code verification request body
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=4,numeric"`
}

// ResetPasswordRequest represents the password reset request body
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=4,numeric"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateDetailsRequest represents the profile update request body.
// Omitted fields keep their current values.
type UpdateDetailsRequest struct {
	FullName string `json:"fullName" validate:"omitempty"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=customer driver"`
}

// TokenResponse is the envelope returned after registration, login and
// password reset.
type TokenResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    user.Public `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an account and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or duplicate email"
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	newUser, token, err := h.service.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role, req.PhoneNumber)
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)
	respondToken(w, newUser, token)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	existing, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}

	logger.Info("user logged in", "user_id", existing.ID)
	respondToken(w, existing, token)
}

// Me returns the authenticated user
// @Summary      Current user
// @Description  Return the profile of the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.DataResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	current, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}

	httputil.RespondData(w, current, http.StatusOK)
}

// UpdateDetails updates the authenticated user's profile
// @Summary      Update user details
// @Description  Overwrite the name, email and role of the authenticated user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateDetailsRequest true "Fields to update"
// @Success      200 {object} httputil.DataResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or duplicate email"
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /api/auth/updatedetails [put]
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	var req UpdateDetailsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateDetails(r.Context(), userID, req.FullName, req.Email, req.Role)
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}

	logger.Info("user details updated", "user_id", userID)
	httputil.RespondData(w, updated.ToPublic(), http.StatusOK)
}

// ForgotPassword issues and delivers a password reset code
// @Summary      Request password reset code
// @Description  Issue a 4-digit reset code and deliver it by SMS and email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      200 {object} httputil.DataResponse
// @Failure      404 {object} httputil.ErrorResponse "Unknown email"
// @Failure      500 {object} httputil.ErrorResponse "Email delivery failed"
// @Router       /api/auth/forgotpassword [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, logger, err)
		return
	}

	logger.Info("reset code sent", "email", req.Email)
	httputil.RespondData(w, "Code sent", http.StatusOK)
}

// VerifyCode checks a reset code without consuming it
// @Summary      Verify reset code
// @Description  Check that a reset code matches and has not expired
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyCodeRequest true "Email and code"
// @Success      200 {object} httputil.DataResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Router       /api/auth/verifycode [post]
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyCodeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeServiceError(w, logger, err)
		return
	}

	httputil.RespondData(w, "Code verified", http.StatusOK)
}

// ResetPassword sets a new password using a valid reset code
// @Summary      Reset password
// @Description  Replace the password using a valid reset code and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email, code and new password"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Router       /api/auth/resetpassword [put]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	existing, token, err := h.service.ResetPassword(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		writeServiceError(w, logger, err)
		return
	}

	logger.Info("password reset", "user_id", existing.ID)
	respondToken(w, existing, token)
}

// decodeAndValidate decodes the JSON body into dst and validates it,
// writing a 400 response on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		httputil.RespondError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}

	return true
}

// validationMessage turns the first validation failure into a client-facing
// message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// writeServiceError collapses a service error to the uniform error envelope.
// All handler error paths go through here.
func writeServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		logger.Warn("request failed: duplicate email")
		httputil.RespondError(w, "email already exists", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		logger.Warn("request failed: invalid credentials")
		httputil.RespondError(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidOrExpiredCode):
		logger.Warn("request failed: invalid or expired code")
		httputil.RespondError(w, "invalid code or code has expired", http.StatusBadRequest)
	case errors.Is(err, ErrEmailNotFound):
		logger.Warn("request failed: unknown email")
		httputil.RespondError(w, "there is no user with that email", http.StatusNotFound)
	case errors.Is(err, user.ErrNotFound):
		logger.Warn("request failed: user not found")
		httputil.RespondError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrDeliveryFailed):
		logger.Error("request failed: email delivery", "error", err.Error())
		httputil.RespondError(w, "email could not be sent", http.StatusInternalServerError)
	default:
		logger.Error("request failed: internal error", "error", err.Error())
		httputil.RespondError(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondToken(w http.ResponseWriter, u *user.User, token string) {
	httputil.RespondJSON(w, TokenResponse{
		Success: true,
		Token:   token,
		User:    u.ToPublic(),
	}, http.StatusOK)
}
