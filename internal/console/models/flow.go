package models

// Step is the visible stage of the credential dialog.
type Step string

const (
	StepCredentials    Step = "credentials"
	StepOTP            Step = "otp"
	StepForgotPassword Step = "forgotPassword"
	StepResetPassword  Step = "resetPassword"
)

// Tab is the active tab on the credentials step.
type Tab string

const (
	TabLogin  Tab = "login"
	TabSignup Tab = "signup"
)

// SignupPayload is kept between the signup and OTP steps so a resend posts
// exactly what the user first submitted.
type SignupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FlowState is the credential dialog state.
//
// Step == StepOTP requires PendingEmail; Step == StepResetPassword requires
// ForgotEmail. Busy rejects new submissions.
type FlowState struct {
	Step          Step           `json:"step"`
	Tab           Tab            `json:"tab"`
	PendingEmail  string         `json:"pendingEmail,omitempty"`
	PendingSignup *SignupPayload `json:"-"`
	ForgotEmail   string         `json:"forgotEmail,omitempty"`
	Error         string         `json:"error,omitempty"`
	Info          string         `json:"info,omitempty"`
	Busy          bool           `json:"busy"`
}

// InitialFlowState is the state of a freshly opened (or closed) dialog.
func InitialFlowState() FlowState {
	return FlowState{Step: StepCredentials, Tab: TabLogin}
}
