// Package session holds the signed-in customer for one storefront client.
//
// A Session replaces a process-wide auth token: every component that needs
// the token receives the Session explicitly.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
)

// Authenticator exchanges form input for a signed-in user.
// *rest.Client implements it.
type Authenticator interface {
	SignIn(ctx context.Context, creds storefrontx.Credentials) (storefrontx.User, error)
	SignUp(ctx context.Context, reg storefrontx.Registration) (storefrontx.User, error)
}

// Session is safe for concurrent use. The zero value is a signed-out session.
type Session struct {
	mu     sync.RWMutex
	user   storefrontx.User
	logger *slog.Logger
}

// New returns a signed-out session. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{logger: logger}
}

// Token returns the session token and whether one is set.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Token, s.user.Token != ""
}

// User returns the signed-in user, or the zero User when signed out.
func (s *Session) User() storefrontx.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Login installs u as the current user.
func (s *Session) Login(u storefrontx.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.log().Info("session started", "firstname", u.Firstname)
}

// Logout forgets the current user.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = storefrontx.User{}
	s.mu.Unlock()
}

// SignIn validates creds, authenticates them and starts the session.
// Invalid input fails with storefrontx.ErrInvalidInput before any call;
// wrong credentials surface as *storefrontx.RejectedError.
func (s *Session) SignIn(ctx context.Context, auth Authenticator, creds storefrontx.Credentials) (storefrontx.User, error) {
	creds.Mail = strings.TrimSpace(creds.Mail)
	if err := validateStruct(creds); err != nil {
		return storefrontx.User{}, err
	}

	u, err := auth.SignIn(ctx, creds)
	if err != nil {
		return storefrontx.User{}, errors.Wrap(err, "sign in")
	}
	s.Login(u)
	return u, nil
}

// SignUp validates reg, registers it and starts the session.
func (s *Session) SignUp(ctx context.Context, auth Authenticator, reg storefrontx.Registration) (storefrontx.User, error) {
	reg.Mail = strings.TrimSpace(reg.Mail)
	reg.Firstname = strings.TrimSpace(reg.Firstname)
	reg.Lastname = strings.TrimSpace(reg.Lastname)
	if err := validateStruct(reg); err != nil {
		return storefrontx.User{}, err
	}

	u, err := auth.SignUp(ctx, reg)
	if err != nil {
		return storefrontx.User{}, errors.Wrap(err, "sign up")
	}
	s.Login(u)
	return u, nil
}

func (s *Session) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
