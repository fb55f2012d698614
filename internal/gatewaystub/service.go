// Package gatewaystub is an in-memory implementation of the auth gateway
// HTTP contract, for local development and integration tests.
package gatewaystub

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/google/uuid"
)

const minPasswordLength = 6

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// User is a stub account. Passwords are kept as given; this is a fixture.
type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     models.Role
}

type pendingSignup struct {
	payload models.SignupPayload
	code    string
}

// CodeNotifier receives every issued one-time code, e.g. to print it.
type CodeNotifier func(kind, email, code string)

type Service struct {
	secret        []byte
	tokenValidity time.Duration
	notify        CodeNotifier

	mu          sync.Mutex
	users       map[string]*User // by email
	pending     map[string]*pendingSignup
	resetCodes  map[string]string
	memberships map[string][]models.Membership // by user id
}

func NewService(secret []byte, tokenValidity time.Duration, notify CodeNotifier) *Service {
	if notify == nil {
		notify = func(string, string, string) {}
	}
	return &Service{
		secret:        secret,
		tokenValidity: tokenValidity,
		notify:        notify,
		users:         make(map[string]*User),
		pending:       make(map[string]*pendingSignup),
		resetCodes:    make(map[string]string),
		memberships:   make(map[string][]models.Membership),
	}
}

// AddUser seeds a verified account.
func (s *Service) AddUser(name, email, password string, role models.Role) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: uuid.NewString(), Name: name, Email: normalize(email), Password: password, Role: role}
	s.users[u.Email] = u
	return u
}

// AddMembership seeds a membership record for the user with email.
func (s *Service) AddMembership(email, planName string, status models.MembershipStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[normalize(email)]
	if !ok {
		return common.ErrorNotFound
	}
	s.memberships[u.ID] = append(s.memberships[u.ID], models.Membership{
		ID: uuid.NewString(), PlanName: planName, Status: status,
	})
	return nil
}

// OTP returns the pending signup code for email.
func (s *Service) OTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[normalize(email)]
	if !ok {
		return "", false
	}
	return p.code, true
}

// ResetCode returns the pending password reset code for email.
func (s *Service) ResetCode(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.resetCodes[normalize(email)]
	return c, ok
}

// Signup starts (or restarts) a registration and issues a fresh code.
func (s *Service) Signup(ctx context.Context, p models.SignupPayload) error {
	p.Email = normalize(p.Email)
	if strings.TrimSpace(p.Name) == "" || p.Email == "" || p.Password == "" {
		return ErrMissingFields
	}
	if len(p.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	code, err := newCode()
	if err != nil {
		return common.ErrorInternal
	}

	s.mu.Lock()
	if _, exists := s.users[p.Email]; exists {
		s.mu.Unlock()
		return common.ErrorAlreadyExists
	}
	s.pending[p.Email] = &pendingSignup{payload: p, code: code}
	s.mu.Unlock()

	s.notify("signup", p.Email, code)
	return nil
}

func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*User, string, error) {
	email = normalize(email)

	s.mu.Lock()
	p, ok := s.pending[email]
	if !ok {
		s.mu.Unlock()
		return nil, "", common.ErrorNotFound
	}
	if !sameCode(p.code, code) {
		s.mu.Unlock()
		return nil, "", common.ErrorInvalidOTP
	}
	delete(s.pending, email)
	u := &User{ID: uuid.NewString(), Name: p.payload.Name, Email: email, Password: p.payload.Password, Role: models.RoleUser}
	s.users[email] = u
	s.mu.Unlock()

	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	s.mu.Lock()
	u, ok := s.users[normalize(email)]
	s.mu.Unlock()

	// federated accounts have no password and cannot sign in with one
	if !ok || u.Password == "" || subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return nil, "", common.ErrorInvalidCredentials
	}
	return s.issue(u)
}

// GoogleLogin signs in (and on first use registers) the account named by a
// provider ID token.
func (s *Service) GoogleLogin(ctx context.Context, credential string) (*User, string, error) {
	email, name, err := federatedIdentity(credential)
	if err != nil {
		return nil, "", err
	}
	email = normalize(email)

	s.mu.Lock()
	u, ok := s.users[email]
	if !ok {
		u = &User{ID: uuid.NewString(), Name: name, Email: email, Role: models.RoleUser}
		s.users[email] = u
	}
	s.mu.Unlock()

	return s.issue(u)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalize(email)
	if email == "" {
		return ErrMissingFields
	}
	code, err := newCode()
	if err != nil {
		return common.ErrorInternal
	}

	s.mu.Lock()
	if _, ok := s.users[email]; !ok {
		s.mu.Unlock()
		return common.ErrorNotFound
	}
	s.resetCodes[email] = code
	s.mu.Unlock()

	s.notify("reset", email, code)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalize(email)
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.resetCodes[email]
	if !ok || !sameCode(want, code) {
		return common.ErrorInvalidOTP
	}
	u, ok := s.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.Password = newPassword
	delete(s.resetCodes, email)
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	id, err := GetUserIDFromToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrInvalidToken
}

func (s *Service) Memberships(ctx context.Context, userID string) []models.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Membership{}, s.memberships[userID]...)
}

func (s *Service) issue(u *User) (*User, string, error) {
	token, err := GenerateToken(u.ID, s.secret, s.tokenValidity)
	if err != nil {
		return nil, "", errors.Join(common.ErrorInternal, err)
	}
	c := *u
	return &c, token, nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func sameCode(want, got string) bool {
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
