package cli

import (
	"bufio"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/console/config"
	"github.com/dmitrijs2005/tradeconsole/internal/console/flow"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/gatewaystub"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted replaces the prompt seams with queued answers.
func scripted(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origText, origPass := getSimpleText, getPassword
	t.Cleanup(func() { getSimpleText, getPassword = origText, origPass })

	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		require.NotEmpty(t, texts, "unexpected prompt %q", prompt)
		v := texts[0]
		texts = texts[1:]
		return v, nil
	}
	getPassword = func(prompt string, _ io.Writer) ([]byte, error) {
		require.NotEmpty(t, passwords, "unexpected password prompt %q", prompt)
		v := passwords[0]
		passwords = passwords[1:]
		return []byte(v), nil
	}
}

func newTestApp(t *testing.T, adminOnly bool) (*App, *gatewaystub.Server) {
	t.Helper()
	ctx := context.Background()

	stub := gatewaystub.NewServer([]byte("cli-test"), time.Hour, nil)
	stub.AddUser("Root", "root@example.com", "rootpass", models.RoleAdmin)
	stub.AddUser("Ann", "ann@example.com", "annpass", models.RoleUser)
	require.NoError(t, stub.AddMembership("ann@example.com", "Gold", models.MembershipActive))
	gw := httptest.NewServer(stub.Handler())
	t.Cleanup(gw.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BackendURL = gw.URL
	cfg.DatabasePath = filepath.Join(t.TempDir(), "console.db")
	cfg.AdminOnlyLogin = adminOnly

	app, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	app.out = io.Discard
	t.Cleanup(func() {
		app.session.Close()
		_ = app.repos.Close()
	})
	return app, stub
}

func TestApp_LoginGoAndLogout(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, false)
	app.session.Hydrate(ctx)

	assert.Equal(t, "(signed out)", app.getStatus())
	require.NoError(t, app.Go(ctx, []string{"admin/dashboard"}))
	assert.True(t, app.session.DialogOpen())
	assert.Equal(t, "(signed out [login])", app.getStatus())

	scripted(t, []string{"root@example.com", "root@example.com"}, []string{"wrong", "rootpass"})
	require.Error(t, app.Login(ctx))
	require.NoError(t, app.Login(ctx))

	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(root@example.com admin)", app.getStatus())

	*out = nil
	require.NoError(t, app.Go(ctx, []string{"/admin/chat/Gold"}))
	assert.Contains(t, *out, "Showing /admin/chat/Gold")

	creds, err := app.repos.Credentials.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, creds.Role)

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	creds, err = app.repos.Credentials.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestApp_LoginErrorIsPrinted(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, false)
	app.session.Hydrate(ctx)

	scripted(t, []string{"root@example.com"}, []string{"wrong"})
	require.Error(t, app.Login(ctx))
	assert.Contains(t, *out, "Error: Invalid email or password")
}

func TestApp_SignupWithOTP(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, stub := newTestApp(t, false)
	app.session.Hydrate(ctx)

	require.NoError(t, app.Open(ctx))
	require.NoError(t, app.Tab(ctx, []string{"signup"}))

	scripted(t, []string{"Bob", "bob@example.com"}, []string{"bobpass"})
	require.NoError(t, app.Signup(ctx))
	assert.Contains(t, strings.Join(*out, "\n"), "A code was sent to bob@example.com")

	require.NoError(t, app.Resend(ctx))
	assert.Contains(t, *out, flow.MsgOTPResent)

	code, ok := stub.OTP("bob@example.com")
	require.True(t, ok)
	scripted(t, []string{code}, nil)
	require.NoError(t, app.OTP(ctx))

	snap := app.session.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, models.RoleUser, snap.Role)

	// обычному пользователю админка закрыта
	*out = nil
	require.NoError(t, app.Go(ctx, []string{"/admin/users"}))
	assert.Contains(t, *out, "Redirected to /admin/login")
}

func TestApp_MembershipsRefetch(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, false)
	app.session.Hydrate(ctx)

	scripted(t, []string{"ann@example.com"}, []string{"annpass"})
	require.NoError(t, app.Login(ctx))

	*out = nil
	require.NoError(t, app.Refetch(ctx))
	assert.Contains(t, *out, "Active plans: Gold")

	*out = nil
	require.NoError(t, app.WhoAmI(ctx))
	assert.Contains(t, *out, "Ann <ann@example.com>, role user")
}

func TestApp_ForgotAndReset(t *testing.T) {
	silence(t)
	ctx := context.Background()
	app, stub := newTestApp(t, false)
	app.session.Hydrate(ctx)

	scripted(t, []string{"root@example.com"}, nil)
	require.NoError(t, app.Forgot(ctx))
	assert.Equal(t, models.StepResetPassword, app.flow.State().Step)

	code, ok := stub.ResetCode("root@example.com")
	require.True(t, ok)
	scripted(t, []string{code}, []string{"brand-new", "brand-new"})
	require.NoError(t, app.Reset(ctx))
	assert.Equal(t, models.StepCredentials, app.flow.State().Step)

	scripted(t, []string{"root@example.com"}, []string{"brand-new"})
	require.NoError(t, app.Login(ctx))
	assert.True(t, app.isLoggedIn())
}

func TestApp_AdminOnlyRejectsUser(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, true)
	app.session.Hydrate(ctx)

	scripted(t, []string{"ann@example.com"}, []string{"annpass"})
	require.Error(t, app.Login(ctx))
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, *out, "Error: "+flow.MsgNotAdmin)
}

func TestApp_InvalidStepIsReported(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, false)
	app.session.Hydrate(ctx)

	require.Error(t, app.Back(ctx))
	assert.Contains(t, strings.Join(*out, "\n"), "not valid for the current step")

	*out = nil
	require.NoError(t, app.Tab(ctx, nil))
	assert.Contains(t, *out, "Usage: tab <login|signup>")
}

func TestApp_RunRestoresSessionAndExits(t *testing.T) {
	out := silence(t)
	ctx := context.Background()
	app, _ := newTestApp(t, false)

	// первый запуск: вход и сохранение токена
	app.session.Hydrate(ctx)
	scripted(t, []string{"root@example.com"}, []string{"rootpass"})
	require.NoError(t, app.Login(ctx))

	cfg := *app.config
	cfg.HTTPAddr = "127.0.0.1:0"
	app.session.Close()
	require.NoError(t, app.repos.Close())

	second, err := NewApp(ctx, &cfg, logging.Nop())
	require.NoError(t, err)
	second.reader = bufio.NewReader(strings.NewReader("whoami\nexit\n"))

	done := make(chan error, 1)
	go func() { done <- second.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Bye!")
	// whoami may run before or after hydration finishes
	assert.True(t, strings.Contains(joined, "Root <root@example.com>") || strings.Contains(joined, "Session is being restored"), joined)
}
