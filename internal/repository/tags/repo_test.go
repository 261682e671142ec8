package tags

import (
	"context"
	"errors"
	"testing"

	"github.com/citeworthy/paperdex/internal/db/memory"
	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/tag"
)

var ctx = context.Background()

func mustTag(t *testing.T, id string, members ...string) tag.Tag {
	t.Helper()
	tg, err := tag.New(id, "u1", "tag "+id, members)
	if err != nil {
		t.Fatalf("tag.New: %v", err)
	}
	return tg
}

func TestPutGet_RoundTrip(t *testing.T) {
	r := New(memory.NewStore(), "test:")
	if err := r.Put(ctx, mustTag(t, "t1", "2501.2", "2501.1")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := r.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name() != "tag t1" || got.Owner() != "u1" {
		t.Errorf("meta = %q/%q", got.Name(), got.Owner())
	}
	members := got.Members()
	if len(members) != 2 || members[0] != "2501.1" || members[1] != "2501.2" {
		t.Errorf("members = %v, want ascending [2501.1 2501.2]", members)
	}
}

func TestGet_NotFound(t *testing.T) {
	r := New(memory.NewStore(), "test:")
	if _, err := r.Get(ctx, "ghost"); !errors.Is(err, domain.ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
	if _, err := r.Members(ctx, "ghost"); !errors.Is(err, domain.ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}
}

func TestAddRemoveMembers(t *testing.T) {
	r := New(memory.NewStore(), "test:")
	if err := r.Put(ctx, mustTag(t, "t1", "a")); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := r.AddMembers(ctx, "t1", "c", "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	members, err := r.Members(ctx, "t1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("members = %v, want 3", members)
	}

	if err := r.RemoveMembers(ctx, "t1", "b", "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	members, err = r.Members(ctx, "t1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0] != "c" {
		t.Errorf("members = %v, want [c]", members)
	}
}

func TestEmptyTagHasNoMembers(t *testing.T) {
	r := New(memory.NewStore(), "test:")
	if err := r.Put(ctx, mustTag(t, "empty")); err != nil {
		t.Fatalf("put: %v", err)
	}

	members, err := r.Members(ctx, "empty")
	if err != nil {
		t.Fatalf("empty tag must be readable: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members = %v, want none", members)
	}
}
