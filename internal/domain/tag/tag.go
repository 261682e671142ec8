package tag

import (
	"fmt"
	"sort"
)

// Tag is a user-defined, named set of paper identifiers used as a
// similarity-query seed. Membership is a set: insertion order is not
// significant and a paper may belong to many tags.
type Tag struct {
	id      string
	owner   string
	name    string
	members []string
}

// New validates and creates a Tag. Members are deduplicated and stored in
// ascending identifier order so that every read of the same tag yields the
// same member sequence.
func New(id, owner, name string, members []string) (Tag, error) {
	if id == "" {
		return Tag{}, fmt.Errorf("tag id is required")
	}
	if name == "" {
		return Tag{}, fmt.Errorf("tag %s: name is required", id)
	}
	return Tag{
		id:      id,
		owner:   owner,
		name:    name,
		members: normalizeMembers(members),
	}, nil
}

// ID returns the tag identifier.
func (t *Tag) ID() string { return t.id }

// Owner returns the owning user identifier.
func (t *Tag) Owner() string { return t.owner }

// Name returns the tag name.
func (t *Tag) Name() string { return t.name }

// Members returns the member paper ids, deduplicated, ascending.
func (t *Tag) Members() []string { return t.members }

// Contains reports whether the paper id is a member of the tag.
func (t *Tag) Contains(paperID string) bool {
	i := sort.SearchStrings(t.members, paperID)
	return i < len(t.members) && t.members[i] == paperID
}

func normalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
