// Command gatewaystub serves an in-memory auth gateway for local console
// development. Issued one-time codes are written to the log.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/console/web"
	"github.com/dmitrijs2005/tradeconsole/internal/gatewaystub"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/go-chi/chi/v5"
)

func main() {
	addr := flag.String("a", "127.0.0.1:5000", "listen address")
	prefix := flag.String("p", "/api", "path prefix the gateway is mounted under")
	secret := flag.String("s", "", "token signing secret (random when empty)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token validity")
	admin := flag.String("admin", "admin@example.com:admin123", "seeded admin account as email:password")
	user := flag.String("user", "user@example.com:user123", "seeded user account as email:password (empty to skip)")
	plans := flag.String("plans", "Gold", "comma separated active plans of the seeded user")
	level := flag.String("v", "info", "log level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	logger := logging.NewTextLogger(os.Stderr, *level)

	key := *secret
	if key == "" {
		var err error
		if key, err = common.MakeRandHexString(32); err != nil {
			log.Fatalf("secret: %v", err)
		}
	}
	stub := gatewaystub.NewServer([]byte(key), *ttl, logger.With("module", "gatewaystub"))

	if err := seed(stub, *admin, models.RoleAdmin, ""); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seed(stub, *user, models.RoleUser, *plans); err != nil {
		log.Fatalf("seed user: %v", err)
	}

	r := chi.NewRouter()
	r.Mount(*prefix, stub.Handler())

	if err := web.NewServer(*addr, r, logger).Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

func seed(stub *gatewaystub.Server, account string, role models.Role, plans string) error {
	if account == "" {
		return nil
	}
	email, password, ok := strings.Cut(account, ":")
	if !ok || email == "" || password == "" {
		return common.ErrorInvalidCredentials
	}
	name, _, _ := strings.Cut(email, "@")
	stub.AddUser(name, email, password, role)

	for _, p := range strings.Split(plans, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if err := stub.AddMembership(email, p, models.MembershipActive); err != nil {
			return err
		}
	}
	return nil
}
