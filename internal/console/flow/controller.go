package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/tradeconsole/internal/console/client"
	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
)

// Session is the part of the session manager the dialog drives.
type Session interface {
	Login(ctx context.Context, token string, profile *models.UserProfile)
	SetDialogOpen(open bool)
}

// dialogCloser is implemented by sessions that dismiss the dialog on login.
type dialogCloser interface {
	OnDialogClose(fn func())
}

// Controller owns the dialog state and performs the gateway call behind
// each submit. Methods block for the duration of that call; concurrent
// submits are rejected with ErrBusy.
//
// Every method returns the error for callers that want it, while the state
// already carries the user-facing message.
type Controller struct {
	client    client.Client
	session   Session
	log       logging.Logger
	metrics   *metrics.Metrics
	adminOnly bool

	mu    sync.Mutex
	state models.FlowState
	// generation changes whenever the dialog closes, which orphans any
	// request still in flight.
	generation uint64
}

type Option func(*Controller)

// WithAdminOnly rejects logins whose role is not admin. The session is left
// untouched in that case.
func WithAdminOnly() Option {
	return func(c *Controller) { c.adminOnly = true }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func NewController(cl client.Client, s Session, opts ...Option) *Controller {
	c := &Controller{
		client:  cl,
		session: s,
		log:     logging.Nop(),
		state:   models.InitialFlowState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if dc, ok := s.(dialogCloser); ok {
		dc.OnDialogClose(c.reset)
	}
	return c
}

// State returns a copy of the dialog state.
func (c *Controller) State() models.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(c.state)
}

// PendingSignup returns the payload a resend would post, if any.
func (c *Controller) PendingSignup() *models.SignupPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.PendingSignup == nil {
		return nil
	}
	p := *c.state.PendingSignup
	return &p
}

func (c *Controller) Open() {
	c.session.SetDialogOpen(true)
}

// Close dismisses the dialog and fully resets it. Responses still in flight
// are dropped when they arrive.
func (c *Controller) Close() {
	c.reset()
	c.session.SetDialogOpen(false)
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.state, _ = Transition(c.state, Close{})
	c.generation++
	c.mu.Unlock()
}

func (c *Controller) SelectTab(tab models.Tab) error {
	return c.apply(SelectTab{Tab: tab})
}

func (c *Controller) Back() error {
	return c.apply(Back{})
}

func (c *Controller) OpenForgotPassword(email string) error {
	return c.apply(OpenForgotPassword{Email: email})
}

// GoogleFailed records an error reported by the identity provider widget.
func (c *Controller) GoogleFailed() error {
	return c.apply(FederatedFailed{})
}

func (c *Controller) Login(ctx context.Context, email, password string) error {
	gen, _, err := c.begin("login", SubmitLogin{Email: email, Password: password})
	if err != nil {
		return err
	}
	res, err := c.client.Login(ctx, email, password)
	return c.finishAuth(ctx, gen, "login", res, err, FallbackLogin)
}

func (c *Controller) Signup(ctx context.Context, name, email, password string) error {
	gen, _, err := c.begin("signup", SubmitSignup{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	payload := models.SignupPayload{Name: name, Email: email, Password: password}
	if _, err := c.client.Signup(ctx, payload); err != nil {
		return c.fail(ctx, gen, "signup", client.Message(err, FallbackSignup), err)
	}
	return c.succeed(gen, "signup", SignupSucceeded{Payload: payload})
}

func (c *Controller) VerifyOTP(ctx context.Context, otp string) error {
	gen, st, err := c.begin("verify_otp", SubmitOTP{OTP: otp})
	if err != nil {
		return err
	}
	res, err := c.client.VerifyOTP(ctx, st.PendingEmail, otp)
	return c.finishAuth(ctx, gen, "verify_otp", res, err, FallbackOTP)
}

// ResendOTP posts the stored signup payload again, byte for byte.
func (c *Controller) ResendOTP(ctx context.Context) error {
	gen, st, err := c.begin("resend_otp", ResendOTP{})
	if err != nil {
		return err
	}
	if _, err := c.client.Signup(ctx, *st.PendingSignup); err != nil {
		return c.fail(ctx, gen, "resend_otp", client.Message(err, FallbackResend), err)
	}
	return c.succeed(gen, "resend_otp", ResendSucceeded{})
}

func (c *Controller) ForgotPassword(ctx context.Context, email string) error {
	gen, _, err := c.begin("forgot_password", SubmitForgotPassword{Email: email})
	if err != nil {
		return err
	}
	if _, err := c.client.ForgotPassword(ctx, email); err != nil {
		return c.fail(ctx, gen, "forgot_password", client.Message(err, FallbackForgot), err)
	}
	return c.succeed(gen, "forgot_password", ForgotSucceeded{Email: email})
}

func (c *Controller) ResetPassword(ctx context.Context, otp, newPassword, confirm string) error {
	gen, st, err := c.begin("reset_password", SubmitResetPassword{OTP: otp, NewPassword: newPassword, Confirm: confirm})
	if err != nil {
		return err
	}
	res, err := c.client.ResetPassword(ctx, st.ForgotEmail, otp, newPassword)
	if err != nil {
		return c.fail(ctx, gen, "reset_password", client.Message(err, FallbackReset), err)
	}
	var msg string
	if res != nil {
		msg = res.Message
	}
	return c.succeed(gen, "reset_password", ResetSucceeded{Message: msg})
}

func (c *Controller) GoogleLogin(ctx context.Context, credential string) error {
	gen, _, err := c.begin("google", SubmitFederated{Credential: credential})
	if err != nil {
		return err
	}
	res, err := c.client.GoogleLogin(ctx, credential)
	return c.finishAuth(ctx, gen, "google", res, err, FallbackGoogle)
}

func (c *Controller) apply(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Transition(c.state, ev)
	var vErr *ValidationError
	if err == nil || errors.As(err, &vErr) {
		c.state = next
	}
	return err
}

// begin moves the dialog into its busy state and returns the generation the
// request belongs to, together with the state it started from.
func (c *Controller) begin(action string, ev Event) (uint64, models.FlowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := copyState(c.state)
	next, err := Transition(c.state, ev)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			c.state = next
			c.metrics.ObserveFlow(action, "invalid")
		}
		return 0, prev, err
	}
	c.state = next
	return c.generation, prev, nil
}

func (c *Controller) settle(gen uint64, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return ErrSuperseded
	}
	next, err := Transition(c.state, ev)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) succeed(gen uint64, action string, ev Event) error {
	if err := c.settle(gen, ev); err != nil {
		c.metrics.ObserveFlow(action, "superseded")
		return err
	}
	c.metrics.ObserveFlow(action, "success")
	return nil
}

func (c *Controller) fail(ctx context.Context, gen uint64, action, msg string, cause error) error {
	if err := c.settle(gen, RequestFailed{Message: msg}); err != nil {
		c.metrics.ObserveFlow(action, "superseded")
		return err
	}
	c.metrics.ObserveFlow(action, "failure")
	c.log.Debug(ctx, "credential flow request failed", "action", action, "error", cause)
	return cause
}

func (c *Controller) finishAuth(ctx context.Context, gen uint64, action string, res *client.AuthResponse, err error, fallback string) error {
	switch {
	case err != nil:
		return c.fail(ctx, gen, action, client.Message(err, fallback), err)
	case res == nil || res.Token == "":
		return c.fail(ctx, gen, action, MsgInvalidResponse, ErrInvalidResponse)
	case c.adminOnly && !res.Role.IsAdmin():
		return c.fail(ctx, gen, action, MsgNotAdmin, ErrNotAdmin)
	}

	if err := c.succeed(gen, action, LoginSucceeded{}); err != nil {
		return err
	}
	c.session.Login(ctx, res.Token, res.Profile())
	c.log.Info(ctx, "signed in through credential dialog", "action", action, "role", res.Role)
	return nil
}

func copyState(s models.FlowState) models.FlowState {
	if s.PendingSignup != nil {
		p := *s.PendingSignup
		s.PendingSignup = &p
	}
	return s
}
