package entity

import "time"

// SubmissionStatus is the outcome of a payment submission
type SubmissionStatus string

const (
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission is one recorded attempt to create a transaction
type Submission struct {
	ID          string             `json:"id"`
	RequestID   string             `json:"request_id,omitempty"`
	Request     TransactionRequest `json:"request"`
	Status      SubmissionStatus   `json:"status"`
	Result      *TransactionResult `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at"`
}
