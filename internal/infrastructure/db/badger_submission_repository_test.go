package db

import (
	"context"
	"testing"
	"time"

	"github.com/damon-houk/payment-web-client/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *BadgerSubmissionRepository {
	t.Helper()
	db, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBadgerSubmissionRepository(db)
}

func submissionAt(id string, at time.Time, status entity.SubmissionStatus) *entity.Submission {
	return &entity.Submission{
		ID:          id,
		RequestID:   id,
		Request:     *entity.NewTransactionRequest("50", "charge", "m1", "a@b.com", ""),
		Status:      status,
		SubmittedAt: at,
	}
}

func TestStoreAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s := submissionAt("sub-1", at, entity.SubmissionSucceeded)
	s.Result = &entity.TransactionResult{UUID: "tx-1", Amount: 50, Status: "approved"}

	id, err := repo.Store(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id)

	found, err := repo.FindByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", found.ID)
	assert.Equal(t, entity.SubmissionSucceeded, found.Status)
	assert.Equal(t, "tx-1", found.Result.UUID)
	assert.Equal(t, 50, *found.Request.Amount)
	assert.True(t, found.SubmittedAt.Equal(at))

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = repo.Store(ctx, &entity.Submission{})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	empty, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i, id := range []string{"first", "second", "third"} {
		_, err := repo.Store(ctx, submissionAt(id, base.Add(time.Duration(i)*time.Minute), entity.SubmissionFailed))
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].ID)
	assert.Equal(t, "second", all[1].ID)
	assert.Equal(t, "first", all[2].ID)

	latest, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "third", latest[0].ID)
	assert.Equal(t, "second", latest[1].ID)
}

func TestOpenOnDisk(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping on-disk badger test in short mode")
	}

	dir := t.TempDir()
	db, err := Open(dir, false)
	require.NoError(t, err)
	repo := NewBadgerSubmissionRepository(db)
	_, err = repo.Store(context.Background(), submissionAt("persisted", time.Now(), entity.SubmissionSucceeded))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dir, false)
	require.NoError(t, err)
	defer db.Close()
	found, err := NewBadgerSubmissionRepository(db).FindByID(context.Background(), "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", found.ID)
}
