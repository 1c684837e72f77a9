package synclog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

func TestRecorder_LogSwallowsStoreErrors(t *testing.T) {
	repo := &mockRepository{CreateFunc: func(context.Context, *synclog.Entry) error {
		return errors.New("disk full")
	}}
	r := NewRecorder(repo, logger.NewNop())

	assert.NotPanics(t, func() {
		r.Log(context.Background(), synclog.Record{
			BranchID: 1, Category: synclog.CategoryInfo, Status: synclog.StatusSuccess, Message: "session opened",
		})
	})
	assert.Empty(t, repo.entries)
}

func TestRecorder_BeginComplete(t *testing.T) {
	completed := 0
	repo := &mockRepository{CompletePendingFunc: func(_ context.Context, e *synclog.Entry) error {
		completed++
		assert.Equal(t, synclog.StatusSuccess, e.Status())
		return nil
	}}
	r := NewRecorder(repo, logger.NewNop())
	ctx := context.Background()

	p := r.Begin(ctx, synclog.Record{
		BranchID: 1, Category: synclog.CategorySync, Message: "syncing member 7", Entity: synclog.Ref("member", 7),
	})
	require.Len(t, repo.entries, 1)
	assert.Equal(t, synclog.StatusPending, repo.entries[0].Status())
	assert.NotEmpty(t, p.ID())

	p.Complete(ctx, synclog.StatusSuccess, "member 7 synced", map[string]any{"doors": 3})
	p.Complete(ctx, synclog.StatusError, "ignored", nil)

	assert.Equal(t, 1, completed)
	assert.Equal(t, "member 7 synced", repo.entries[0].Message())
}

func TestRecorder_CompleteAfterFailedBeginAppendsFinal(t *testing.T) {
	fail := true
	repo := &mockRepository{CreateFunc: func(context.Context, *synclog.Entry) error {
		if fail {
			fail = false
			return errors.New("connection reset")
		}
		return nil
	}}
	r := NewRecorder(repo, logger.NewNop())
	ctx := context.Background()

	p := r.Begin(ctx, synclog.Record{BranchID: 1, Category: synclog.CategorySync, Message: "syncing member 7"})
	require.Empty(t, repo.entries)

	p.Complete(ctx, synclog.StatusError, "vendor rejected person", map[string]any{"code": "PERSON_NOT_FOUND"})
	require.Len(t, repo.entries, 1)
	assert.Equal(t, synclog.StatusError, repo.entries[0].Status())
	assert.Equal(t, synclog.CategoryError, repo.entries[0].Category())
	assert.Equal(t, "PERSON_NOT_FOUND", repo.entries[0].Details()["code"])
}

func TestPending_NilSafe(t *testing.T) {
	var p *Pending
	assert.NotPanics(t, func() { p.Complete(context.Background(), synclog.StatusSuccess, "", nil) })
	assert.Empty(t, p.ID())
}
