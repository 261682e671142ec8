package tags

import (
	"context"
	"fmt"

	"github.com/citeworthy/paperdex/internal/domain"
	"github.com/citeworthy/paperdex/internal/domain/tag"
)

// store is the consumer interface for tag records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo reads tag membership over a db store. Tag lifecycle (create, rename,
// delete) belongs to the user-facing layer; the retrieval core only reads
// membership at query time. The write path exists so collaborators and
// tests can populate a store.
type Repo struct {
	store  store
	prefix string
}

// New creates a tag repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) metaKey(id string) string {
	return r.prefix + "tag:" + id
}

func (r *Repo) membersKey(id string) string {
	return r.prefix + "tag:" + id + ":members"
}

// Get fetches a tag with its full membership.
func (r *Repo) Get(ctx context.Context, id string) (tag.Tag, error) {
	meta, err := r.store.HGetAll(ctx, r.metaKey(id))
	if err != nil {
		return tag.Tag{}, fmt.Errorf("get tag %s: %w", id, err)
	}
	if len(meta) == 0 {
		return tag.Tag{}, fmt.Errorf("tag %s: %w", id, domain.ErrTagNotFound)
	}

	members, err := r.store.SMembers(ctx, r.membersKey(id))
	if err != nil {
		return tag.Tag{}, fmt.Errorf("get tag %s members: %w", id, err)
	}

	t, err := tag.New(id, meta["owner"], meta["name"], members)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("tag %s: %w", id, err)
	}
	return t, nil
}

// Members returns the member paper ids of a tag, deduplicated, ascending.
func (r *Repo) Members(ctx context.Context, id string) ([]string, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Members(), nil
}

// Put writes a tag record with its membership.
func (r *Repo) Put(ctx context.Context, t tag.Tag) error {
	meta := map[string]string{
		"owner": t.Owner(),
		"name":  t.Name(),
	}
	if err := r.store.HSet(ctx, r.metaKey(t.ID()), meta); err != nil {
		return fmt.Errorf("put tag %s: %w", t.ID(), err)
	}
	if members := t.Members(); len(members) > 0 {
		if err := r.store.SAdd(ctx, r.membersKey(t.ID()), members...); err != nil {
			return fmt.Errorf("put tag %s members: %w", t.ID(), err)
		}
	}
	return nil
}

// AddMembers adds paper ids to an existing tag.
func (r *Repo) AddMembers(ctx context.Context, id string, paperIDs ...string) error {
	if err := r.store.SAdd(ctx, r.membersKey(id), paperIDs...); err != nil {
		return fmt.Errorf("add tag %s members: %w", id, err)
	}
	return nil
}

// RemoveMembers removes paper ids from an existing tag.
func (r *Repo) RemoveMembers(ctx context.Context, id string, paperIDs ...string) error {
	if err := r.store.SRem(ctx, r.membersKey(id), paperIDs...); err != nil {
		return fmt.Errorf("remove tag %s members: %w", id, err)
	}
	return nil
}
