// Package handler binds the page's form handlers and drives view navigation
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/damon-houk/payment-web-client/internal/application/service"
	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	domain "github.com/damon-houk/payment-web-client/internal/domain/service"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/metrics"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/page"
)

// PageController owns the page document and moves it between views
type PageController struct {
	views    domain.PaymentWebAPI
	sessions *service.SessionService
	doc      *page.Document
	router   *page.Router
	logger   logger.Logger

	mu   sync.RWMutex
	view entity.ViewName
}

// NewPageController creates a controller with the login and create handlers bound
func NewPageController(views domain.PaymentWebAPI, sessions *service.SessionService, payments *service.PaymentService, doc *page.Document, m *metrics.Metrics, log logger.Logger) *PageController {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if doc == nil {
		doc = page.NewDocument()
	}

	c := &PageController{
		views:    views,
		sessions: sessions,
		doc:      doc,
		router:   page.NewRouter(doc),
		logger:   log,
	}

	login := NewLoginHandler(sessions, c, doc, m, log)
	create := NewTransactionHandler(payments, c, doc, m, log)
	c.router.Bind(LoginButtonID, login.HandleClick)
	c.router.Bind(CreateButtonID, create.HandleClick)

	return c
}

// Document returns the page document
func (c *PageController) Document() *page.Document {
	return c.doc
}

// State reports whether the session is authenticated and which view is shown
func (c *PageController) State() entity.PageState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return entity.PageState{
		Authenticated: c.sessions.Session().Authenticated(),
		View:          c.view,
	}
}

// Load runs the page-load sequence: a silent refresh, then the transactions
// view when a token was obtained and the login view otherwise
func (c *PageController) Load(ctx context.Context) error {
	var target string
	c.sessions.RefreshThen(ctx, func(outcome service.RefreshOutcome) {
		target = entity.LoginPath
		if outcome.Authenticated {
			target = entity.TransactionsPath
		}
	})

	return c.Navigate(ctx, target)
}

// Navigate loads the view at path into the page
func (c *PageController) Navigate(ctx context.Context, path string) error {
	return c.NavigateThen(ctx, path, nil)
}

// NavigateThen loads the view at path, swaps it into the page, rebinds the
// handlers and then calls done. On failure the page is left unchanged and
// done is not called.
func (c *PageController) NavigateThen(ctx context.Context, path string, done func()) error {
	fragment, err := c.views.LoadView(ctx, path)
	if err != nil {
		c.logger.Error("Could not load view", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return fmt.Errorf("load view %s: %w", path, err)
	}

	if err := c.doc.Replace(fragment); err != nil {
		return fmt.Errorf("render view %s: %w", path, err)
	}
	bound := c.router.Rebind()

	c.mu.Lock()
	c.view = entity.ViewForPath(path)
	c.mu.Unlock()

	c.logger.Info("View loaded", map[string]interface{}{
		"path":     path,
		"handlers": bound,
	})

	if done != nil {
		done()
	}
	return nil
}

// Click dispatches a click on the element with id
func (c *PageController) Click(ctx context.Context, id string) error {
	return c.router.Click(ctx, id)
}

// Fill sets form values by element id
func (c *PageController) Fill(values map[string]string) error {
	for id, v := range values {
		if err := c.doc.SetValue(id, v); err != nil {
			return err
		}
	}
	return nil
}

// Logout ends the session and shows the login view
func (c *PageController) Logout(ctx context.Context) error {
	if err := c.sessions.Logout(ctx); err != nil {
		c.logger.Warn("Logout request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return c.Navigate(ctx, entity.LoginPath)
}
