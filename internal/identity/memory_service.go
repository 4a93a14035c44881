package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryService is an in-memory Service, meant for tests and local
// development. The error fields can be set to make individual
// operations fail, OmitProfile simulates a service that responds
// successfully but without a profile record.
type MemoryService struct {
	mu       sync.Mutex
	accounts map[string]memoryAccount
	session  *AuthData

	OAuthRedirectURL string
	OmitProfile      bool

	SignInErr  error
	SignUpErr  error
	OAuthErr   error
	SignOutErr error

	SignInCalls  int
	SignUpCalls  int
	SignOutCalls int
}

type memoryAccount struct {
	data     AuthData
	password string
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		accounts:         make(map[string]memoryAccount),
		OAuthRedirectURL: "https://identity.example.com/authorize?provider=google",
	}
}

// Register seeds an account so it can be signed in to.
func (s *MemoryService) Register(email, password, name string, role Role) Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.accounts[email] = memoryAccount{
		data: AuthData{
			User:    &User{ID: id, Email: email},
			Profile: &Profile{UserID: id, Email: email, Name: name, Role: role},
		},
		password: password,
	}

	return Identity{ID: id, Email: email, Name: name, Role: role}
}

func (s *MemoryService) SignIn(_ context.Context, email, password string) (AuthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SignInCalls++

	if s.SignInErr != nil {
		return AuthData{}, s.SignInErr
	}

	acc, ok := s.accounts[email]
	if !ok || acc.password != password {
		return AuthData{}, ErrInvalidCredentials
	}

	data := acc.data
	if s.OmitProfile {
		data.Profile = nil
	}

	s.session = &data
	return data, nil
}

func (s *MemoryService) SignUp(_ context.Context, email, password, name string, role Role) (AuthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SignUpCalls++

	if s.SignUpErr != nil {
		return AuthData{}, s.SignUpErr
	}

	id := uuid.New()
	acc := memoryAccount{
		data: AuthData{
			User:    &User{ID: id, Email: email},
			Profile: &Profile{UserID: id, Email: email, Name: name, Role: role},
		},
		password: password,
	}
	s.accounts[email] = acc

	data := acc.data
	if s.OmitProfile {
		data.Profile = nil
	}

	s.session = &data
	return data, nil
}

func (s *MemoryService) SignInWithOAuth(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.OAuthErr != nil {
		return "", s.OAuthErr
	}

	return s.OAuthRedirectURL, nil
}

func (s *MemoryService) SignOut(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SignOutCalls++

	// The session is invalidated even when the call reports an error,
	// mirroring how a remote session may be gone already.
	s.session = nil

	return s.SignOutErr
}

func (s *MemoryService) CurrentSession(_ context.Context) (AuthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return AuthData{}, ErrNoSession
	}

	return *s.session, nil
}
