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

// Element ids used by the transactions view
const (
	CreateButtonID        = "create"
	AmountInputID         = "amount"
	TypeInputID           = "type"
	CustomerEmailInputID  = "customer-email"
	DependsOnInputID      = "depends-on"
	MerchantInputID       = "merchant"
	TransactionErrorBoxID = "transaction-error-box"
)

// TransactionHandler handles clicks on the create transaction button
type TransactionHandler struct {
	payments *service.PaymentService
	nav      Navigator
	doc      *page.Document
	metrics  *metrics.Metrics
	logger   logger.Logger
	guard    inFlightGuard
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(payments *service.PaymentService, nav Navigator, doc *page.Document, m *metrics.Metrics, log logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionHandler{
		payments: payments,
		nav:      nav,
		doc:      doc,
		metrics:  m,
		logger:   log,
	}
}

// HandleClick submits the transaction form. A rejection is rendered into the
// error box and returned; success reloads the transactions view.
func (h *TransactionHandler) HandleClick(ctx context.Context) error {
	if !h.guard.acquire() {
		h.metrics.ObserveAction("create", metrics.OutcomeRejected)
		return ErrActionInFlight
	}
	defer h.guard.release()

	req, err := h.readForm()
	if err != nil {
		return err
	}

	if _, err := h.payments.CreateTransaction(ctx, req); err != nil {
		h.metrics.ObserveAction("create", metrics.OutcomeFailed)
		if renderErr := h.doc.SetInnerHTML(TransactionErrorBoxID, api.DisplayText(err)); renderErr != nil {
			h.logger.Error("Could not render transaction error", map[string]interface{}{
				"error": renderErr.Error(),
			})
		}
		return err
	}

	h.metrics.ObserveAction("create", metrics.OutcomeSucceeded)
	return h.nav.Navigate(ctx, entity.TransactionsPath)
}

func (h *TransactionHandler) readForm() (*entity.TransactionRequest, error) {
	values := make(map[string]string, 5)
	for _, id := range []string{AmountInputID, TypeInputID, CustomerEmailInputID, DependsOnInputID, MerchantInputID} {
		v, err := h.doc.Value(id)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", id, err)
		}
		values[id] = v
	}

	return entity.NewTransactionRequest(
		values[AmountInputID],
		values[TypeInputID],
		values[MerchantInputID],
		values[CustomerEmailInputID],
		values[DependsOnInputID],
	), nil
}
