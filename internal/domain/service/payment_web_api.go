// Package service declares the outbound ports of the client
package service

import (
	"context"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
)

// PaymentWebAPI defines the endpoints of the payment web application.
// Implementations copy every CSRF token the server returns into the session.
type PaymentWebAPI interface {
	// Refresh exchanges the refresh cookie for a bearer token. An empty token
	// with a nil error means the server returned no token.
	Refresh(ctx context.Context) (string, error)

	// LoadView fetches the HTML fragment served at path
	LoadView(ctx context.Context, path string) (string, error)

	// Login posts credentials and returns the bearer token
	Login(ctx context.Context, username, password string) (string, error)

	// CreateTransaction posts a transaction to the payment endpoint
	CreateTransaction(ctx context.Context, req *entity.TransactionRequest) (*entity.TransactionResult, error)

	// Logout asks the server to drop the refresh cookie
	Logout(ctx context.Context) error
}
