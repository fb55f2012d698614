package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/tradeconsole/internal/console/client"
	"github.com/dmitrijs2005/tradeconsole/internal/console/config"
	"github.com/dmitrijs2005/tradeconsole/internal/console/flow"
	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/repositories"
	"github.com/dmitrijs2005/tradeconsole/internal/console/services"
	"github.com/dmitrijs2005/tradeconsole/internal/console/web"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	repos   *repositories.Repositories
	metrics *metrics.Metrics
	session *services.SessionManager
	flow    *flow.Controller
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the credential database and wires the gateway client, the
// session manager and the credential dialog. Nothing talks to the gateway
// until Run.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, c.DatabasePath, c.StoreKey)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	m := metrics.New()
	apiClient := client.NewHTTPClient(c.BackendURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log.With("module", "gateway")),
		client.WithMetrics(m),
	)

	session := services.NewSessionManager(apiClient, repos.Credentials,
		services.WithLogger(log.With("module", "session")),
		services.WithMetrics(m),
	)
	apiClient.SetTokenSource(session)

	opts := []flow.Option{flow.WithLogger(log.With("module", "flow")), flow.WithMetrics(m)}
	if c.AdminOnlyLogin {
		opts = append(opts, flow.WithAdminOnly())
	}

	return &App{
		config:  c,
		log:     log,
		repos:   repos,
		metrics: m,
		session: session,
		flow:    flow.NewController(apiClient, session, opts...),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run hydrates the session in the background, serves the web surface when
// configured, and blocks in the REPL. Everything is released on return.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		a.session.Close()
		if err := a.repos.Close(); err != nil {
			a.log.Warn(context.Background(), "failed to close database", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.session.Hydrate(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchHydration(ctx)
	}()

	if a.config.HTTPAddr != "" {
		router := web.NewRouter(web.RouterOptions{
			Session: a.session,
			Flow:    a.flow,
			Metrics: a.metrics,
			Logger:  a.log,
		})
		srv := web.NewServer(a.config.HTTPAddr, router, a.log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				a.log.Error(ctx, "web server stopped", "error", err)
			}
		}()
	}

	a.Root(ctx)
	return nil
}

// watchHydration reports once how the stored session was restored.
func (a *App) watchHydration(ctx context.Context) {
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return
	}

	s := a.session.Snapshot()
	if s.Authenticated && s.Profile != nil {
		printlnFn(fmt.Sprintf("Session restored: %s (%s)", s.Profile.Email, s.Role))
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Authenticated
}
