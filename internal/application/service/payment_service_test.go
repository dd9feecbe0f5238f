package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/api"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/damon-houk/payment-web-client/internal/infrastructure/middleware"
	"github.com/damon-houk/payment-web-client/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	req := entity.NewTransactionRequest("50", "charge", "m1", "a@b.com", "")

	t.Run("success is recorded", func(t *testing.T) {
		webAPI := new(mocks.MockPaymentWebAPI)
		repo := new(mocks.MockSubmissionRepository)
		svc := NewPaymentService(webAPI, repo, logger.Discard())
		svc.now = func() time.Time { return fixed }

		result := &entity.TransactionResult{UUID: "tx-1", Amount: 50, Type: entity.Charge, Status: "approved"}
		webAPI.On("CreateTransaction", mock.MatchedBy(func(c context.Context) bool {
			return middleware.GetRequestID(c) != "unknown"
		}), req).Return(result, nil).Once()
		repo.On("Store", mock.Anything, mock.MatchedBy(func(s *entity.Submission) bool {
			return s.Status == entity.SubmissionSucceeded &&
				s.Result == result &&
				s.RequestID == s.ID &&
				s.SubmittedAt.Equal(fixed) &&
				*s.Request.Amount == 50
		})).Return("id", nil).Once()

		got, err := svc.CreateTransaction(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, result, got)
		webAPI.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("failure is recorded with the server text", func(t *testing.T) {
		webAPI := new(mocks.MockPaymentWebAPI)
		repo := new(mocks.MockSubmissionRepository)
		svc := NewPaymentService(webAPI, repo, logger.Discard())

		webAPI.On("CreateTransaction", mock.Anything, req).
			Return(nil, &api.ResponseError{StatusCode: 400, Body: "merchant with id m1 not found"}).Once()
		repo.On("Store", mock.Anything, mock.MatchedBy(func(s *entity.Submission) bool {
			return s.Status == entity.SubmissionFailed && s.Error == "merchant with id m1 not found" && s.Result == nil
		})).Return("id", nil).Once()

		got, err := svc.CreateTransaction(ctx, req)

		assert.Nil(t, got)
		assert.Equal(t, "merchant with id m1 not found", api.DisplayText(err))
		repo.AssertExpectations(t)
	})

	t.Run("history store failure does not fail the request", func(t *testing.T) {
		webAPI := new(mocks.MockPaymentWebAPI)
		repo := new(mocks.MockSubmissionRepository)
		svc := NewPaymentService(webAPI, repo, logger.Discard())

		webAPI.On("CreateTransaction", mock.Anything, req).Return(&entity.TransactionResult{UUID: "tx-2"}, nil).Once()
		repo.On("Store", mock.Anything, mock.Anything).Return("", errors.New("disk full")).Once()

		got, err := svc.CreateTransaction(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "tx-2", got.UUID)
	})

	t.Run("without history", func(t *testing.T) {
		webAPI := new(mocks.MockPaymentWebAPI)
		svc := NewPaymentService(webAPI, nil, logger.Discard())
		webAPI.On("CreateTransaction", mock.Anything, req).Return(&entity.TransactionResult{UUID: "tx-3"}, nil).Once()

		_, err := svc.CreateTransaction(ctx, req)
		assert.NoError(t, err)

		_, err = svc.History(ctx, 10)
		assert.ErrorIs(t, err, ErrHistoryDisabled)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockSubmissionRepository)
	svc := NewPaymentService(new(mocks.MockPaymentWebAPI), repo, logger.Discard())

	expected := []*entity.Submission{{ID: "b"}, {ID: "a"}}
	repo.On("List", ctx, 2).Return(expected, nil).Once()

	got, err := svc.History(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}
