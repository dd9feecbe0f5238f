package repository

import (
	"context"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
)

// SubmissionRepository defines the interface for the local submission history
type SubmissionRepository interface {
	// Store saves a submission and returns its ID
	Store(ctx context.Context, submission *entity.Submission) (string, error)

	// FindByID retrieves a submission by its unique identifier
	FindByID(ctx context.Context, id string) (*entity.Submission, error)

	// List returns up to limit submissions, newest first. A limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*entity.Submission, error)
}
