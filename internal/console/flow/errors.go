package flow

import "errors"

var (
	ErrBusy         = errors.New("a request is already in progress")
	ErrInvalidEvent = errors.New("event is not valid for the current step")

	// ErrSuperseded is returned when the dialog was closed while a request
	// was in flight; the response is discarded.
	ErrSuperseded = errors.New("dialog closed before the response arrived")

	ErrInvalidResponse = errors.New("invalid response from server")
	ErrNotAdmin        = errors.New("not an admin user")
)

// ValidationError is a client-side input problem. It never reaches the
// gateway and its Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// User-facing texts.
const (
	MsgOTPResent           = "A new OTP has been sent to your email."
	MsgPasswordReset       = "Password reset! Please log in."
	MsgPasswordsMismatch   = "Passwords do not match."
	MsgOTPFormat           = "Please enter the 6-digit code."
	MsgNewPasswordMissing  = "New password is required."
	MsgLoginFieldsMissing  = "Email and password are required."
	MsgSignupFieldsMissing = "Name, email and password are required."
	MsgEmailMissing        = "Email is required."
	MsgNoCredential        = "No credential received from Google."
	MsgFederatedFailed     = "Google login failed. Please try again."
	MsgInvalidResponse     = "Invalid response from server"
	MsgNotAdmin            = "Access denied. Not an admin user."

	FallbackLogin  = "Login failed"
	FallbackSignup = "Signup failed"
	FallbackOTP    = "OTP Verification failed"
	FallbackResend = "Failed to resend OTP"
	FallbackGoogle = "Google login failed"
	FallbackForgot = "Failed to send reset email"
	FallbackReset  = "Failed to reset password"
)
