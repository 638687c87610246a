package store

import (
	"context"
	"errors"
	"testing"

	"letterforge/api/internal/draft"
)

func TestSnapshotOps_EmptyUserID(t *testing.T) {
	s := NewPostgresStore(nil)

	if _, err := s.ReadSnapshot(context.Background(), ""); !errors.Is(err, draft.ErrInvalidArgument) {
		t.Errorf("ReadSnapshot: expected ErrInvalidArgument, got %v", err)
	}
	if err := s.WriteSnapshot(context.Background(), "", nil, "body"); !errors.Is(err, draft.ErrInvalidArgument) {
		t.Errorf("WriteSnapshot: expected ErrInvalidArgument, got %v", err)
	}
}
