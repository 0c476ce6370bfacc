package memory

import (
	"context"
	"testing"

	"ai-divination-be/pkg/store"
)

func TestConversationRepositoryRoundTrip(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()

	conv := store.NewConversation("sess-1", "user-1")
	three := 3
	conv.Slots.Num1 = &three
	conv.State = store.StateClarifying

	if err := repo.Save(ctx, conv); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, found, err := repo.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found {
		t.Fatal("saved conversation not found")
	}
	if got.State != store.StateClarifying || got.Slots.Num1 == nil || *got.Slots.Num1 != 3 {
		t.Errorf("round trip lost state: %+v", got)
	}
}

func TestConversationRepositoryGetMissing(t *testing.T) {
	repo := NewConversationRepository()

	got, found, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if found || got != nil {
		t.Errorf("Get(missing) = %+v found=%v, want nil/false", got, found)
	}
}

func TestConversationRepositoryDelete(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, store.NewConversation("sess-2", "user-1")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := repo.Delete(ctx, "sess-2"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "sess-2"); found {
		t.Error("deleted conversation still present")
	}
}
