package handler

import (
	"context"
	"fmt"

	"github.com/damon-houk/payment-web-client/internal/application/service"
	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/api"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/metrics"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/page"
)

// Element ids used by the login view
const (
	LoginButtonID   = "login-button"
	UsernameInputID = "username"
	PasswordInputID = "password"
	LoginErrorID    = "login_err"

	loginErrorPrefix = "could not login "
)

// Navigator loads a view into the page
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// LoginHandler handles clicks on the login button
type LoginHandler struct {
	sessions *service.SessionService
	nav      Navigator
	doc      *page.Document
	metrics  *metrics.Metrics
	logger   logger.Logger
	guard    inFlightGuard
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(sessions *service.SessionService, nav Navigator, doc *page.Document, m *metrics.Metrics, log logger.Logger) *LoginHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &LoginHandler{
		sessions: sessions,
		nav:      nav,
		doc:      doc,
		metrics:  m,
		logger:   log,
	}
}

// HandleClick reads the credentials, logs in and shows the transactions view.
// A rejected login is rendered into the error element and returned.
func (h *LoginHandler) HandleClick(ctx context.Context) error {
	if !h.guard.acquire() {
		h.metrics.ObserveAction("login", metrics.OutcomeRejected)
		return ErrActionInFlight
	}
	defer h.guard.release()

	username, err := h.doc.Value(UsernameInputID)
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}
	password, err := h.doc.Value(PasswordInputID)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	if _, err := h.sessions.Login(ctx, username, password); err != nil {
		h.metrics.ObserveAction("login", metrics.OutcomeFailed)
		if renderErr := h.doc.SetInnerHTML(LoginErrorID, loginErrorPrefix+api.DisplayText(err)); renderErr != nil {
			h.logger.Error("Could not render login error", map[string]interface{}{
				"error": renderErr.Error(),
			})
		}
		return err
	}

	h.metrics.ObserveAction("login", metrics.OutcomeSucceeded)
	return h.nav.Navigate(ctx, entity.TransactionsPath)
}
