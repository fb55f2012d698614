// Package flow implements the credential dialog: login, signup with OTP
// verification, forgot/reset password and federated login.
//
// Transition is a pure function over models.FlowState. Controller runs the
// gateway calls a submit implies and feeds their outcome back through it.
package flow

import (
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// Transition applies ev to s. On error the returned state is s unchanged,
// except for a *ValidationError, where it carries the message in Error.
func Transition(s models.FlowState, ev Event) (models.FlowState, error) {
	switch e := ev.(type) {
	case Close:
		return models.InitialFlowState(), nil

	case FederatedFailed:
		s.Error = MsgFederatedFailed
		s.Info = ""
		return s, nil

	case LoginSucceeded:
		if !s.Busy {
			return s, ErrInvalidEvent
		}
		return models.InitialFlowState(), nil

	case RequestFailed:
		if !s.Busy {
			return s, ErrInvalidEvent
		}
		s.Busy = false
		s.Error = e.Message
		return s, nil

	case SignupSucceeded:
		if !s.Busy || s.Step != models.StepCredentials {
			return s, ErrInvalidEvent
		}
		p := e.Payload
		s.Step = models.StepOTP
		s.PendingEmail = p.Email
		s.PendingSignup = &p
		s.Busy = false
		s.Error = ""
		return s, nil

	case ResendSucceeded:
		if !s.Busy || s.Step != models.StepOTP {
			return s, ErrInvalidEvent
		}
		s.Busy = false
		s.Info = MsgOTPResent
		return s, nil

	case ForgotSucceeded:
		if !s.Busy || s.Step != models.StepForgotPassword {
			return s, ErrInvalidEvent
		}
		s.Step = models.StepResetPassword
		s.ForgotEmail = e.Email
		s.Busy = false
		s.Error = ""
		return s, nil

	case ResetSucceeded:
		if !s.Busy || s.Step != models.StepResetPassword {
			return s, ErrInvalidEvent
		}
		msg := e.Message
		if msg == "" {
			msg = MsgPasswordReset
		}
		s.Step = models.StepCredentials
		s.Tab = models.TabLogin
		s.Info = msg
		s.Error = ""
		s.ForgotEmail = ""
		s.PendingSignup = nil
		s.Busy = false
		return s, nil
	}

	// Everything below is user input and waits for the pending request.
	if s.Busy {
		return s, ErrBusy
	}

	switch e := ev.(type) {
	case SelectTab:
		if s.Step != models.StepCredentials || (e.Tab != models.TabLogin && e.Tab != models.TabSignup) {
			return s, ErrInvalidEvent
		}
		s.Tab = e.Tab
		return s, nil

	case SubmitLogin:
		if s.Step != models.StepCredentials {
			return s, ErrInvalidEvent
		}
		if blank(e.Email) || e.Password == "" {
			return invalid(s, MsgLoginFieldsMissing)
		}
		return submitting(s), nil

	case SubmitSignup:
		if s.Step != models.StepCredentials {
			return s, ErrInvalidEvent
		}
		if blank(e.Name) || blank(e.Email) || e.Password == "" {
			return invalid(s, MsgSignupFieldsMissing)
		}
		return submitting(s), nil

	case SubmitOTP:
		if s.Step != models.StepOTP {
			return s, ErrInvalidEvent
		}
		if !isOTP(e.OTP) {
			return invalid(s, MsgOTPFormat)
		}
		return submitting(s), nil

	case ResendOTP:
		if s.Step != models.StepOTP || s.PendingSignup == nil {
			return s, ErrInvalidEvent
		}
		return submitting(s), nil

	case Back:
		switch s.Step {
		case models.StepOTP:
			s.Tab = models.TabSignup
		case models.StepForgotPassword, models.StepResetPassword:
			s.Tab = models.TabLogin
		default:
			return s, ErrInvalidEvent
		}
		s.Step = models.StepCredentials
		s.Error = ""
		s.Info = ""
		return s, nil

	case OpenForgotPassword:
		if s.Step != models.StepCredentials {
			return s, ErrInvalidEvent
		}
		s.Step = models.StepForgotPassword
		s.ForgotEmail = strings.TrimSpace(e.Email)
		s.Error = ""
		s.Info = ""
		return s, nil

	case SubmitForgotPassword:
		if s.Step != models.StepForgotPassword {
			return s, ErrInvalidEvent
		}
		if blank(e.Email) {
			return invalid(s, MsgEmailMissing)
		}
		return submitting(s), nil

	case SubmitResetPassword:
		if s.Step != models.StepResetPassword {
			return s, ErrInvalidEvent
		}
		switch {
		case e.NewPassword != e.Confirm:
			return invalid(s, MsgPasswordsMismatch)
		case !isOTP(e.OTP):
			return invalid(s, MsgOTPFormat)
		case e.NewPassword == "":
			return invalid(s, MsgNewPasswordMissing)
		}
		return submitting(s), nil

	case SubmitFederated:
		if e.Credential == "" {
			return invalid(s, MsgNoCredential)
		}
		return submitting(s), nil
	}

	return s, ErrInvalidEvent
}

func submitting(s models.FlowState) models.FlowState {
	s.Error = ""
	s.Info = ""
	s.Busy = true
	return s
}

func invalid(s models.FlowState, msg string) (models.FlowState, error) {
	s.Error = msg
	s.Info = ""
	return s, &ValidationError{Message: msg}
}

func blank(v string) bool { return strings.TrimSpace(v) == "" }

func isOTP(v string) bool {
	if len(v) != 6 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
