package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tradeconsole/internal/console/client"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
)

// fakeClient реализует client.Client; только Me и Memberships интересны
// менеджеру сессии.
type fakeClient struct {
	mu sync.Mutex

	MeRet  *models.UserProfile
	MeErr  error
	MeGate chan struct{} // если не nil, Me ждёт закрытия

	MembershipsRet  []models.Membership
	MembershipsErr  error
	MembershipsGate chan struct{}

	MeCalls          int
	MembershipsCalls int
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*client.AuthResponse, error) {
	return nil, nil
}
func (f *fakeClient) Signup(ctx context.Context, p models.SignupPayload) (*client.MessageResponse, error) {
	return nil, nil
}
func (f *fakeClient) VerifyOTP(ctx context.Context, email, otp string) (*client.AuthResponse, error) {
	return nil, nil
}
func (f *fakeClient) ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error) {
	return nil, nil
}
func (f *fakeClient) ResetPassword(ctx context.Context, email, otp, newPassword string) (*client.MessageResponse, error) {
	return nil, nil
}
func (f *fakeClient) GoogleLogin(ctx context.Context, credential string) (*client.AuthResponse, error) {
	return nil, nil
}

func (f *fakeClient) Me(ctx context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	f.MeCalls++
	gate := f.MeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MeRet, f.MeErr
}

func (f *fakeClient) Memberships(ctx context.Context) ([]models.Membership, error) {
	f.mu.Lock()
	f.MembershipsCalls++
	gate := f.MembershipsGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MembershipsRet, f.MembershipsErr
}

func (f *fakeClient) membershipsCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MembershipsCalls
}

func (f *fakeClient) meCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MeCalls
}

// fakeStore хранит пару в памяти.
type fakeStore struct {
	mu sync.Mutex

	Creds models.Credentials

	LoadErr  error
	SaveErr  error
	ClearErr error

	SaveCalls  int
	ClearCalls int
}

func (f *fakeStore) Load(ctx context.Context) (models.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Creds, f.LoadErr
}

func (f *fakeStore) Save(ctx context.Context, c models.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveCalls++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Creds = c
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Creds = models.Credentials{}
	return nil
}

func (f *fakeStore) get() models.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Creds
}
