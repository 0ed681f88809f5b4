package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/infra/storage/memory"
)

func TestPruner_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	journal := memory.NewFailedOperationRepo()
	for id, age := range map[string]time.Duration{
		"old":    48 * time.Hour,
		"recent": time.Hour,
	} {
		err := journal.Add(ctx, &domain.FailedOperation{ID: id, Operation: "op", CreatedAt: now.Add(-age)})
		if err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	p := NewPruner(24*time.Hour, journal)
	p.now = func() time.Time { return now }

	if n := p.Prune(ctx); n != 1 {
		t.Fatalf("Prune removed %d, want 1", n)
	}
	if _, err := journal.Get(ctx, "recent"); err != nil {
		t.Errorf("recent entry should survive: %v", err)
	}
	if count, _ := journal.Count(ctx); count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestPruner_Interval(t *testing.T) {
	tests := []struct {
		retention time.Duration
		want      time.Duration
	}{
		{5 * time.Minute, time.Minute},
		{2 * time.Hour, 12 * time.Minute},
		{7 * 24 * time.Hour, time.Hour},
	}
	for _, tt := range tests {
		if got := NewPruner(tt.retention, nil).Interval(); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.retention, got, tt.want)
		}
	}
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewPruner(0, memory.NewFailedOperationRepo()).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return when retention is disabled")
	}
}
