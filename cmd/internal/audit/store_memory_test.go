package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestInMemorySink_ListByTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := NewInMemorySink()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := Entry{
			ID:        fmt.Sprintf("e%d", i),
			ActorID:   "actor-1",
			TargetID:  "m1",
			Action:    ActionPointsAwarded,
			Detail:    fmt.Sprintf("+%d points", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := sink.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := sink.Append(ctx, Entry{ID: "other", ActorID: "actor-1", TargetID: "m2", Action: ActionMemberCreated}); err != nil {
		t.Fatalf("Append other: %v", err)
	}

	entries, err := sink.ListByTarget(ctx, "m1", 0)
	if err != nil {
		t.Fatalf("ListByTarget: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len=%d want=3", len(entries))
	}
	if entries[0].ID != "e2" || entries[2].ID != "e0" {
		t.Fatalf("not newest first: %+v", entries)
	}

	limited, err := sink.ListByTarget(ctx, "m1", 1)
	if err != nil {
		t.Fatalf("ListByTarget limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "e2" {
		t.Fatalf("limit ignored: %+v", limited)
	}
}

func TestInMemorySink_RejectsIncompleteEntry(t *testing.T) {
	t.Parallel()

	sink := NewInMemorySink()
	if err := sink.Append(context.Background(), Entry{TargetID: "m1"}); err != ErrInvalidInput {
		t.Fatalf("err=%v want=%v", err, ErrInvalidInput)
	}
}
