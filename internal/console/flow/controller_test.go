package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/console/client"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient реализует client.Client и запоминает аргументы.
type fakeClient struct {
	mu sync.Mutex

	LoginRet *client.AuthResponse
	LoginErr error
	// LoginGate, если задан, блокирует Login до закрытия
	LoginGate chan struct{}

	SignupErr error
	VerifyRet *client.AuthResponse
	VerifyErr error
	ForgotErr error
	ResetRet  *client.MessageResponse
	ResetErr  error
	GoogleRet *client.AuthResponse
	GoogleErr error

	LoginCalls  int
	SignupCalls int
	VerifyCalls int
	ForgotCalls int
	ResetCalls  int
	GoogleCalls int

	LastSignup     []models.SignupPayload
	LastVerify     [2]string
	LastForgot     string
	LastReset      [3]string
	LastCredential string
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	f.mu.Lock()
	f.LoginCalls++
	gate := f.LoginGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Signup(ctx context.Context, p models.SignupPayload) (*client.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignupCalls++
	f.LastSignup = append(f.LastSignup, p)
	return &client.MessageResponse{Message: "sent"}, f.SignupErr
}

func (f *fakeClient) VerifyOTP(ctx context.Context, email, otp string) (*client.AuthResponse, error) {
	f.VerifyCalls++
	f.LastVerify = [2]string{email, otp}
	return f.VerifyRet, f.VerifyErr
}

func (f *fakeClient) ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error) {
	f.ForgotCalls++
	f.LastForgot = email
	return &client.MessageResponse{}, f.ForgotErr
}

func (f *fakeClient) ResetPassword(ctx context.Context, email, otp, newPassword string) (*client.MessageResponse, error) {
	f.ResetCalls++
	f.LastReset = [3]string{email, otp, newPassword}
	return f.ResetRet, f.ResetErr
}

func (f *fakeClient) GoogleLogin(ctx context.Context, credential string) (*client.AuthResponse, error) {
	f.GoogleCalls++
	f.LastCredential = credential
	return f.GoogleRet, f.GoogleErr
}

func (f *fakeClient) Me(ctx context.Context) (*models.UserProfile, error) { return nil, nil }

func (f *fakeClient) Memberships(ctx context.Context) ([]models.Membership, error) {
	return nil, nil
}

type fakeSession struct {
	mu sync.Mutex

	LoginCalls  int
	LastToken   string
	LastProfile *models.UserProfile
	DialogOpen  bool
	hooks       []func()
}

func (f *fakeSession) Login(ctx context.Context, token string, profile *models.UserProfile) {
	f.mu.Lock()
	f.LoginCalls++
	f.LastToken = token
	f.LastProfile = profile
	f.DialogOpen = false
	hooks := f.hooks
	f.mu.Unlock()
	for _, h := range hooks {
		h()
	}
}

func (f *fakeSession) SetDialogOpen(open bool) {
	f.mu.Lock()
	f.DialogOpen = open
	f.mu.Unlock()
}

func (f *fakeSession) OnDialogClose(fn func()) {
	f.hooks = append(f.hooks, fn)
}

func adminAuth() *client.AuthResponse {
	return &client.AuthResponse{ID: "1", Email: "a@b", Name: "Ann", Token: "T", Role: models.RoleAdmin}
}

func TestController_LoginSuccess(t *testing.T) {
	fc := &fakeClient{LoginRet: adminAuth()}
	fs := &fakeSession{}
	c := NewController(fc, fs)
	c.Open()

	require.NoError(t, c.Login(context.Background(), "a@b", "pw"))

	assert.Equal(t, 1, fs.LoginCalls)
	assert.Equal(t, "T", fs.LastToken)
	assert.Equal(t, &models.UserProfile{ID: "1", Email: "a@b", Name: "Ann", Role: models.RoleAdmin}, fs.LastProfile)
	assert.False(t, fs.DialogOpen)
	assert.Equal(t, models.InitialFlowState(), c.State())
}

func TestController_LoginFailureUsesServerMessage(t *testing.T) {
	fc := &fakeClient{LoginErr: &client.APIError{Status: 401, Message: "Invalid credentials"}}
	fs := &fakeSession{}
	c := NewController(fc, fs)

	err := c.Login(context.Background(), "a@b", "bad")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	st := c.State()
	assert.Equal(t, "Invalid credentials", st.Error)
	assert.False(t, st.Busy)
	assert.Equal(t, models.StepCredentials, st.Step)
	assert.Equal(t, 0, fs.LoginCalls)
}

func TestController_LoginFailureFallback(t *testing.T) {
	fc := &fakeClient{LoginErr: errors.New("boom")}
	c := NewController(fc, &fakeSession{})

	_ = c.Login(context.Background(), "a@b", "pw")
	assert.Equal(t, FallbackLogin, c.State().Error)
}

func TestController_LoginWithoutToken(t *testing.T) {
	fc := &fakeClient{LoginRet: &client.AuthResponse{Email: "a@b", Role: models.RoleAdmin}}
	fs := &fakeSession{}
	c := NewController(fc, fs)

	err := c.Login(context.Background(), "a@b", "pw")
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, MsgInvalidResponse, c.State().Error)
	assert.Equal(t, 0, fs.LoginCalls)
}

func TestController_AdminOnlyRejectsUsers(t *testing.T) {
	fc := &fakeClient{LoginRet: &client.AuthResponse{Token: "T", Role: models.RoleUser}}
	fs := &fakeSession{}
	c := NewController(fc, fs, WithAdminOnly())

	err := c.Login(context.Background(), "u@b", "pw")
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, MsgNotAdmin, c.State().Error)
	assert.Equal(t, 0, fs.LoginCalls)
}

func TestController_AdminOnlyAcceptsAdmin(t *testing.T) {
	fs := &fakeSession{}
	c := NewController(&fakeClient{LoginRet: adminAuth()}, fs, WithAdminOnly())

	require.NoError(t, c.Login(context.Background(), "a@b", "pw"))
	assert.Equal(t, 1, fs.LoginCalls)
}

func TestController_ValidationNeverCallsGateway(t *testing.T) {
	fc := &fakeClient{}
	c := NewController(fc, &fakeSession{})

	var vErr *ValidationError
	err := c.Login(context.Background(), "", "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, fc.LoginCalls)
	assert.Equal(t, MsgLoginFieldsMissing, c.State().Error)

	err = c.GoogleLogin(context.Background(), "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgNoCredential, c.State().Error)
	assert.Equal(t, 0, fc.GoogleCalls)
}

func TestController_SignupVerifyScenario(t *testing.T) {
	fc := &fakeClient{
		SignupErr: &client.APIError{Status: 400, Message: "Email already registered"},
	}
	fs := &fakeSession{}
	c := NewController(fc, fs)
	ctx := context.Background()

	require.NoError(t, c.SelectTab(models.TabSignup))

	// первая попытка: ошибка сервера, шаг не меняется
	err := c.Signup(ctx, "N", "n@x", "pw")
	require.Error(t, err)
	st := c.State()
	assert.Equal(t, models.StepCredentials, st.Step)
	assert.Equal(t, "Email already registered", st.Error)

	// вторая попытка: успех
	fc.SignupErr = nil
	require.NoError(t, c.Signup(ctx, "N", "n@x", "pw"))
	st = c.State()
	assert.Equal(t, models.StepOTP, st.Step)
	assert.Equal(t, "n@x", st.PendingEmail)
	assert.Equal(t, &models.SignupPayload{Name: "N", Email: "n@x", Password: "pw"}, c.PendingSignup())
	assert.Empty(t, st.Error)

	// неверный формат кода
	err = c.VerifyOTP(ctx, "12")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, fc.VerifyCalls)

	// ошибка проверки кода
	fc.VerifyErr = &client.APIError{Status: 400, Message: "Invalid OTP"}
	require.Error(t, c.VerifyOTP(ctx, "000000"))
	st = c.State()
	assert.Equal(t, models.StepOTP, st.Step)
	assert.Equal(t, "Invalid OTP", st.Error)
	assert.Equal(t, [2]string{"n@x", "000000"}, fc.LastVerify)

	// успех
	fc.VerifyErr = nil
	fc.VerifyRet = &client.AuthResponse{Token: "T", Role: models.RoleUser, Email: "n@x", Name: "N"}
	require.NoError(t, c.VerifyOTP(ctx, "123456"))
	assert.Equal(t, 1, fs.LoginCalls)
	assert.Equal(t, models.RoleUser, fs.LastProfile.Role)
	assert.Equal(t, models.InitialFlowState(), c.State())
}

func TestController_VerifyFailureFallback(t *testing.T) {
	fc := &fakeClient{VerifyErr: errors.New("x")}
	c := NewController(fc, &fakeSession{})
	ctx := context.Background()

	require.NoError(t, c.Signup(ctx, "N", "n@x", "pw"))
	_ = c.VerifyOTP(ctx, "123456")
	assert.Equal(t, FallbackOTP, c.State().Error)
}

func TestController_ResendReusesIdenticalPayload(t *testing.T) {
	fc := &fakeClient{}
	c := NewController(fc, &fakeSession{})
	ctx := context.Background()

	require.NoError(t, c.Signup(ctx, "N", "n@x", "pw"))
	require.NoError(t, c.ResendOTP(ctx))

	require.Len(t, fc.LastSignup, 2)
	assert.Equal(t, fc.LastSignup[0], fc.LastSignup[1])

	st := c.State()
	assert.Equal(t, models.StepOTP, st.Step)
	assert.Equal(t, MsgOTPResent, st.Info)
}

func TestController_ResendFailure(t *testing.T) {
	fc := &fakeClient{}
	c := NewController(fc, &fakeSession{})
	ctx := context.Background()

	require.NoError(t, c.Signup(ctx, "N", "n@x", "pw"))
	fc.SignupErr = errors.New("down")
	require.Error(t, c.ResendOTP(ctx))

	st := c.State()
	assert.Equal(t, FallbackResend, st.Error)
	assert.Equal(t, models.StepOTP, st.Step)
}

func TestController_ForgotResetScenario(t *testing.T) {
	fc := &fakeClient{ResetRet: &client.MessageResponse{}}
	c := NewController(fc, &fakeSession{})
	ctx := context.Background()

	require.NoError(t, c.OpenForgotPassword("f@x"))
	assert.Equal(t, "f@x", c.State().ForgotEmail)

	require.NoError(t, c.ForgotPassword(ctx, "f@x"))
	assert.Equal(t, models.StepResetPassword, c.State().Step)
	assert.Equal(t, "f@x", fc.LastForgot)

	// несовпадение паролей не доходит до сервера
	err := c.ResetPassword(ctx, "123456", "a", "b")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgPasswordsMismatch, c.State().Error)
	assert.Equal(t, 0, fc.ResetCalls)

	require.NoError(t, c.ResetPassword(ctx, "123456", "new", "new"))
	assert.Equal(t, [3]string{"f@x", "123456", "new"}, fc.LastReset)

	st := c.State()
	assert.Equal(t, models.StepCredentials, st.Step)
	assert.Equal(t, models.TabLogin, st.Tab)
	assert.Equal(t, MsgPasswordReset, st.Info)
	assert.Empty(t, st.ForgotEmail)
	assert.Nil(t, st.PendingSignup)
}

func TestController_ForgotFailure(t *testing.T) {
	fc := &fakeClient{ForgotErr: &client.APIError{Status: 404, Message: "Resource not found."}}
	c := NewController(fc, &fakeSession{})

	require.NoError(t, c.OpenForgotPassword(""))
	require.Error(t, c.ForgotPassword(context.Background(), "f@x"))
	st := c.State()
	assert.Equal(t, models.StepForgotPassword, st.Step)
	assert.Equal(t, "Resource not found.", st.Error)
}

func TestController_ResetFailure(t *testing.T) {
	fc := &fakeClient{ResetErr: errors.New("x")}
	c := NewController(fc, &fakeSession{})
	ctx := context.Background()

	require.NoError(t, c.OpenForgotPassword("f@x"))
	require.NoError(t, c.ForgotPassword(ctx, "f@x"))
	require.Error(t, c.ResetPassword(ctx, "123456", "n", "n"))
	st := c.State()
	assert.Equal(t, models.StepResetPassword, st.Step)
	assert.Equal(t, FallbackReset, st.Error)
}

func TestController_GoogleLogin(t *testing.T) {
	fc := &fakeClient{GoogleRet: adminAuth()}
	fs := &fakeSession{}
	c := NewController(fc, fs)

	require.NoError(t, c.GoogleLogin(context.Background(), "cred"))
	assert.Equal(t, "cred", fc.LastCredential)
	assert.Equal(t, 1, fs.LoginCalls)
}

func TestController_GoogleFailures(t *testing.T) {
	fc := &fakeClient{GoogleErr: errors.New("x")}
	c := NewController(fc, &fakeSession{})

	_ = c.GoogleLogin(context.Background(), "cred")
	assert.Equal(t, FallbackGoogle, c.State().Error)

	require.NoError(t, c.GoogleFailed())
	assert.Equal(t, MsgFederatedFailed, c.State().Error)
}

func TestController_BusyRejectsSecondSubmit(t *testing.T) {
	gate := make(chan struct{})
	fc := &fakeClient{LoginRet: adminAuth(), LoginGate: gate}
	c := NewController(fc, &fakeSession{})

	done := make(chan error, 1)
	go func() { done <- c.Login(context.Background(), "a@b", "pw") }()
	require.Eventually(t, func() bool { return c.State().Busy }, time.Second, 5*time.Millisecond)

	before := c.State()
	err := c.Login(context.Background(), "a@b", "pw")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, c.State())

	close(gate)
	require.NoError(t, <-done)
	fc.mu.Lock()
	assert.Equal(t, 1, fc.LoginCalls)
	fc.mu.Unlock()
}

func TestController_CloseDropsInFlightResponse(t *testing.T) {
	gate := make(chan struct{})
	fc := &fakeClient{LoginRet: adminAuth(), LoginGate: gate}
	fs := &fakeSession{}
	c := NewController(fc, fs)
	c.Open()

	done := make(chan error, 1)
	go func() { done <- c.Login(context.Background(), "a@b", "pw") }()
	require.Eventually(t, func() bool { return c.State().Busy }, time.Second, 5*time.Millisecond)

	c.Close()
	close(gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, 0, fs.LoginCalls)
	assert.Equal(t, models.InitialFlowState(), c.State())
	assert.False(t, fs.DialogOpen)
}

func TestController_CloseIsIdempotent(t *testing.T) {
	c := NewController(&fakeClient{}, &fakeSession{})
	require.NoError(t, c.OpenForgotPassword("x"))

	c.Close()
	first := c.State()
	c.Close()
	assert.Equal(t, first, c.State())
	assert.Equal(t, models.InitialFlowState(), first)
}

func TestController_InvalidEventKeepsState(t *testing.T) {
	c := NewController(&fakeClient{}, &fakeSession{})
	before := c.State()
	assert.ErrorIs(t, c.Back(), ErrInvalidEvent)
	assert.ErrorIs(t, c.ResendOTP(context.Background()), ErrInvalidEvent)
	assert.Equal(t, before, c.State())
}
