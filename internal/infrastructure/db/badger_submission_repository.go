// Package db stores the submission history in BadgerDB
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

const (
	submissionPrefix = "submission:"
	indexPrefix      = "submission-at:"
)

// ErrSubmissionNotFound is returned when no submission has the requested ID
var ErrSubmissionNotFound = errors.New("submission not found")

// BadgerSubmissionRepository implements the submission repository interface using BadgerDB.
// Each submission is stored under its ID plus a time-ordered index key.
type BadgerSubmissionRepository struct {
	db *badger.DB
}

// NewBadgerSubmissionRepository creates a new BadgerDB submission repository
func NewBadgerSubmissionRepository(db *badger.DB) *BadgerSubmissionRepository {
	return &BadgerSubmissionRepository{db: db}
}

// Open opens a BadgerDB at path, or an in-memory database when inMemory is set
func Open(path string, inMemory bool) (*badger.DB, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Store saves a submission and returns its ID
func (r *BadgerSubmissionRepository) Store(ctx context.Context, submission *entity.Submission) (string, error) {
	if submission.ID == "" {
		return "", errors.New("submission ID is required")
	}

	data, err := json.Marshal(submission)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(submissionPrefix+submission.ID), data); err != nil {
			return err
		}
		return txn.Set(indexKey(submission), []byte(submission.ID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to store submission: %w", err)
	}

	return submission.ID, nil
}

// FindByID retrieves a submission by its unique identifier
func (r *BadgerSubmissionRepository) FindByID(ctx context.Context, id string) (*entity.Submission, error) {
	var submission entity.Submission

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(submissionPrefix + id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &submission)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve submission: %w", err)
	}

	return &submission, nil
}

// List returns up to limit submissions, newest first. A limit <= 0 means no limit.
func (r *BadgerSubmissionRepository) List(ctx context.Context, limit int) ([]*entity.Submission, error) {
	var submissions []*entity.Submission

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(indexPrefix)
		// Reverse iteration starts from the largest key with the prefix
		seek := append(append([]byte{}, prefix...), 0xFF)

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(submissions) >= limit {
				return nil
			}

			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			item, err := txn.Get([]byte(submissionPrefix + string(id)))
			if err != nil {
				return err
			}

			var submission entity.Submission
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &submission)
			}); err != nil {
				return err
			}
			submissions = append(submissions, &submission)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, nil
}

// indexKey orders submissions by time; the fixed-width timestamp keeps
// lexical and chronological order the same
func indexKey(s *entity.Submission) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", indexPrefix, s.SubmittedAt.UTC().UnixNano(), s.ID))
}
