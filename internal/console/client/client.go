package client

import (
	"context"

	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// Endpoint paths, relative to the gateway base URL.
const (
	PathLogin          = "/auth/login"
	PathSignup         = "/auth/signup"
	PathVerifyOTP      = "/auth/verify-otp"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathGoogle         = "/auth/google"
	PathMe             = "/auth/me"
	PathMemberships    = "/memberships"
)

type Client interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Signup(ctx context.Context, p models.SignupPayload) (*MessageResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*MessageResponse, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (*MessageResponse, error)
	GoogleLogin(ctx context.Context, credential string) (*AuthResponse, error)
	Me(ctx context.Context) (*models.UserProfile, error)
	Memberships(ctx context.Context) ([]models.Membership, error)
}

// AuthResponse is returned by login, OTP verification and federated login.
type AuthResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

// Profile converts the response into the session profile.
func (r *AuthResponse) Profile() *models.UserProfile {
	return &models.UserProfile{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}
