// Package service holds the client's session and payment flows
package service

import (
	"context"
	"fmt"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	domain "github.com/damon-houk/payment-web-client/internal/domain/service"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
)

// RefreshOutcome reports the session state after a refresh attempt
type RefreshOutcome struct {
	Authenticated bool
}

// SessionService refreshes, establishes and drops the session
type SessionService struct {
	api     domain.PaymentWebAPI
	session *entity.Session
	logger  logger.Logger
}

// NewSessionService creates a new session service
func NewSessionService(webAPI domain.PaymentWebAPI, session *entity.Session, log logger.Logger) *SessionService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &SessionService{
		api:     webAPI,
		session: session,
		logger:  log,
	}
}

// Session returns the session managed by the service
func (s *SessionService) Session() *entity.Session {
	return s.session
}

// Refresh attempts a silent token refresh. It never fails: a rejected or
// unreachable refresh leaves the session as it was, which on a fresh page
// means not logged in.
func (s *SessionService) Refresh(ctx context.Context) RefreshOutcome {
	token, err := s.api.Refresh(ctx)
	if err != nil {
		s.logger.Warn("Token refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
		return RefreshOutcome{Authenticated: s.session.Authenticated()}
	}

	if token != "" {
		s.session.SetToken(token)
		s.logger.Info("Session refreshed", nil)
	}

	return RefreshOutcome{Authenticated: s.session.Authenticated()}
}

// RefreshThen runs Refresh and calls done exactly once with its outcome
func (s *SessionService) RefreshThen(ctx context.Context, done func(RefreshOutcome)) RefreshOutcome {
	outcome := s.Refresh(ctx)
	if done != nil {
		done(outcome)
	}
	return outcome
}

// Login exchanges credentials for a bearer token and stores it
func (s *SessionService) Login(ctx context.Context, username, password string) (string, error) {
	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login rejected", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return "", fmt.Errorf("login failed: %w", err)
	}

	s.session.SetToken(token)
	s.logger.Info("Logged in", map[string]interface{}{
		"username": username,
	})

	return token, nil
}

// Logout asks the server to end the session and forgets both tokens
// locally, even when the server cannot be reached
func (s *SessionService) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.session.Clear()
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	s.logger.Info("Logged out", nil)
	return nil
}
