package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/flow"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Open shows the credential dialog.
func (a *App) Open(ctx context.Context) error {
	a.flow.Open()
	a.printHint()
	return nil
}

func (a *App) Tab(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: tab <login|signup>")
		return nil
	}
	return a.report(a.flow.SelectTab(models.Tab(args[0])))
}

// Login prompts for email and password and submits them. The password bytes
// are wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.report(a.flow.Login(ctx, email, string(password)))
}

func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Choose password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.report(a.flow.Signup(ctx, name, email, string(password)))
}

func (a *App) OTP(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter the 6-digit code", a.out)
	if err != nil {
		return err
	}
	return a.report(a.flow.VerifyOTP(ctx, code))
}

func (a *App) Resend(ctx context.Context) error {
	return a.report(a.flow.ResendOTP(ctx))
}

func (a *App) Back(ctx context.Context) error {
	return a.report(a.flow.Back())
}

// Forgot requests a password reset code. From the credentials step it first
// switches the dialog to the forgot-password step.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter account email", a.out)
	if err != nil {
		return err
	}
	if a.flow.State().Step == models.StepCredentials {
		if err := a.flow.OpenForgotPassword(email); err != nil {
			return a.report(err)
		}
	}
	return a.report(a.flow.ForgotPassword(ctx, email))
}

func (a *App) Reset(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter the 6-digit code", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	return a.report(a.flow.ResetPassword(ctx, code, string(password), string(confirm)))
}

// Google exchanges an identity provider credential for a session. With no
// argument the credential is read from the prompt.
func (a *App) Google(ctx context.Context, args []string) error {
	var credential string
	if len(args) > 0 {
		credential = args[0]
	} else {
		var err error
		credential, err = getSimpleText(a.reader, "Paste Google credential", a.out)
		if err != nil {
			return err
		}
	}
	return a.report(a.flow.GoogleLogin(ctx, credential))
}

func (a *App) CloseDialog(ctx context.Context) error {
	a.flow.Close()
	return nil
}

// report prints the outcome of a dialog command and returns err unchanged.
func (a *App) report(err error) error {
	st := a.flow.State()
	switch {
	case errors.Is(err, flow.ErrInvalidEvent), errors.Is(err, flow.ErrBusy), errors.Is(err, flow.ErrSuperseded):
		printlnFn("Error:", err.Error())
		return err
	case err != nil && st.Error != "":
		printlnFn("Error:", st.Error)
		return err
	case err != nil:
		printlnFn("Error:", err.Error())
		return err
	}

	if st.Info != "" {
		printlnFn(st.Info)
	}
	if s := a.session.Snapshot(); s.Authenticated && !s.DialogOpen && s.Profile != nil {
		printlnFn(fmt.Sprintf("Signed in as %s (%s)", s.Profile.Email, s.Role))
		return nil
	}
	a.printHint()
	return nil
}

func (a *App) printHint() {
	st := a.flow.State()
	switch st.Step {
	case models.StepCredentials:
		if st.Tab == models.TabSignup {
			printlnFn("Type 'signup' to create an account, 'tab login' to sign in instead")
		} else {
			printlnFn("Type 'login' to sign in, 'tab signup' to register, 'forgot' to reset your password")
		}
	case models.StepOTP:
		printlnFn(fmt.Sprintf("A code was sent to %s. Type 'otp' to enter it or 'resend' for a new one", st.PendingEmail))
	case models.StepForgotPassword:
		printlnFn("Type 'forgot' to request a reset code")
	case models.StepResetPassword:
		printlnFn(fmt.Sprintf("Type 'reset' with the code sent to %s", st.ForgotEmail))
	}
}
