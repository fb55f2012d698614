package flow

import "github.com/dmitrijs2005/tradeconsole/internal/console/models"

// Event is anything that can move the credential dialog. User events come
// from the front end; result events settle a request started by a submit.
type Event interface {
	event()
}

type SelectTab struct{ Tab models.Tab }

type SubmitLogin struct {
	Email    string
	Password string
}

type SubmitSignup struct {
	Name     string
	Email    string
	Password string
}

type SubmitOTP struct{ OTP string }

type ResendOTP struct{}

type Back struct{}

// OpenForgotPassword carries the email typed on the login form forward.
type OpenForgotPassword struct{ Email string }

type SubmitForgotPassword struct{ Email string }

type SubmitResetPassword struct {
	OTP         string
	NewPassword string
	Confirm     string
}

type SubmitFederated struct{ Credential string }

// FederatedFailed is reported by the identity provider widget itself.
type FederatedFailed struct{}

type Close struct{}

type LoginSucceeded struct{}

type SignupSucceeded struct{ Payload models.SignupPayload }

type ResendSucceeded struct{}

type ForgotSucceeded struct{ Email string }

type ResetSucceeded struct{ Message string }

type RequestFailed struct{ Message string }

func (SelectTab) event() {}
func (SubmitLogin) event() {}
func (SubmitSignup) event() {}
func (SubmitOTP) event() {}
func (ResendOTP) event() {}
func (Back) event() {}
func (OpenForgotPassword) event() {}
func (SubmitForgotPassword) event() {}
func (SubmitResetPassword) event() {}
func (SubmitFederated) event() {}
func (FederatedFailed) event() {}
func (Close) event() {}
func (LoginSucceeded) event() {}
func (SignupSucceeded) event() {}
func (ResendSucceeded) event() {}
func (ForgotSucceeded) event() {}
func (ResetSucceeded) event() {}
func (RequestFailed) event() {}
