package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/damon-houk/payment-web-client/internal/domain/repository"
	domain "github.com/damon-houk/payment-web-client/internal/domain/service"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/api"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/middleware"
	"github.com/google/uuid"
)

// ErrHistoryDisabled is returned by History when no repository is configured
var ErrHistoryDisabled = errors.New("submission history is disabled")

// PaymentService submits transactions and keeps the submission history
type PaymentService struct {
	api    domain.PaymentWebAPI
	repo   repository.SubmissionRepository
	logger logger.Logger
	now    func() time.Time
}

// NewPaymentService creates a new payment service. repo may be nil, in which
// case submissions are not recorded.
func NewPaymentService(webAPI domain.PaymentWebAPI, repo repository.SubmissionRepository, log logger.Logger) *PaymentService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &PaymentService{
		api:    webAPI,
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// CreateTransaction posts req and records the attempt
func (s *PaymentService) CreateTransaction(ctx context.Context, req *entity.TransactionRequest) (*entity.TransactionResult, error) {
	submission := &entity.Submission{
		ID:          uuid.New().String(),
		Request:     *req,
		SubmittedAt: s.now().UTC(),
	}
	submission.RequestID = submission.ID
	ctx = middleware.WithRequestID(ctx, submission.RequestID)

	s.logger.Info("Submitting transaction", map[string]interface{}{
		"request_id":  submission.RequestID,
		"type":        req.Type,
		"merchant_id": req.MerchantID,
	})

	result, err := s.api.CreateTransaction(ctx, req)
	if err != nil {
		submission.Status = entity.SubmissionFailed
		submission.Error = api.DisplayText(err)
		s.record(ctx, submission)

		s.logger.Warn("Transaction rejected", map[string]interface{}{
			"request_id": submission.RequestID,
			"status":     api.StatusCode(err),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	submission.Status = entity.SubmissionSucceeded
	submission.Result = result
	s.record(ctx, submission)

	s.logger.Info("Transaction created", map[string]interface{}{
		"request_id": submission.RequestID,
		"uuid":       result.UUID,
	})

	return result, nil
}

// History returns up to limit recorded submissions, newest first
func (s *PaymentService) History(ctx context.Context, limit int) ([]*entity.Submission, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.List(ctx, limit)
}

// record stores a submission; failures are logged and never fail the request
func (s *PaymentService) record(ctx context.Context, submission *entity.Submission) {
	if s.repo == nil {
		return
	}
	if _, err := s.repo.Store(ctx, submission); err != nil {
		s.logger.Error("Failed to record submission", map[string]interface{}{
			"request_id": submission.RequestID,
			"error":      err.Error(),
		})
	}
}
