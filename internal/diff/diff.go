// Package diff compares a current arrangement against the last persisted
// one. Each entity kind declares its comparison strategy: OrderedList when
// order carries meaning, MatchedSet when only membership does.
package diff

// ChangeSet is the added / modified / deleted-id triple sent to storage.
type ChangeSet[T any] struct {
	Added      []T      `json:"added"`
	Modified   []T      `json:"modified"`
	DeletedIDs []string `json:"deleted_ids"`
}

// Empty reports whether nothing changed.
func (c ChangeSet[T]) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.DeletedIDs) == 0
}

// Policy is a comparison strategy for one entity kind.
type Policy[T any] interface {
	Compare(current, previous []T) ChangeSet[T]
}

// ComputeChanges compares current to previous under policy. Inputs are never
// modified, so it is safe to call speculatively for a dirty flag.
func ComputeChanges[T any](policy Policy[T], current, previous []T) ChangeSet[T] {
	return policy.Compare(current, previous)
}

func newChangeSet[T any]() ChangeSet[T] {
	return ChangeSet[T]{Added: []T{}, Modified: []T{}, DeletedIDs: []string{}}
}

// OrderedList compares two lists index by index. Moving an element to a
// different index is a modification.
type OrderedList[T any] struct {
	ID        func(T) string
	ItemEqual func(a, b T) bool
}

// Equal reports whether both lists have the same length and pairwise equal
// elements at every index.
func (p OrderedList[T]) Equal(a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !p.ItemEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Compare reports differing indices as modified, extra current elements as
// added and missing previous elements as deleted.
func (p OrderedList[T]) Compare(current, previous []T) ChangeSet[T] {
	cs := newChangeSet[T]()
	for i := 0; i < max(len(current), len(previous)); i++ {
		switch {
		case i >= len(previous):
			cs.Added = append(cs.Added, current[i])
		case i >= len(current):
			cs.DeletedIDs = append(cs.DeletedIDs, p.ID(previous[i]))
		case !p.ItemEqual(current[i], previous[i]):
			cs.Modified = append(cs.Modified, current[i])
		}
	}
	return cs
}

// MatchedSet pairs current entries with previous ones by a stable
// correlating key, never by a freshly generated id. Duplicate keys match in
// order of appearance.
type MatchedSet[T any] struct {
	Key   func(T) string
	ID    func(T) string // Persisted id reported for deletions
	Equal func(current, previous T) bool
	// Carry, when set, builds the modified payload from a matched pair,
	// typically copying the persisted id onto the current entry.
	Carry func(current, previous T) T
}

// Compare reports unmatched current entries as added, unmatched previous
// entries as deleted and matched but unequal pairs as modified.
func (p MatchedSet[T]) Compare(current, previous []T) ChangeSet[T] {
	cs := newChangeSet[T]()

	queues := make(map[string][]int, len(previous))
	for i, prev := range previous {
		k := p.Key(prev)
		queues[k] = append(queues[k], i)
	}
	matched := make([]bool, len(previous))

	for _, cur := range current {
		k := p.Key(cur)
		q := queues[k]
		if len(q) == 0 {
			cs.Added = append(cs.Added, cur)
			continue
		}
		pi := q[0]
		queues[k] = q[1:]
		matched[pi] = true

		prev := previous[pi]
		if p.Equal(cur, prev) {
			continue
		}
		if p.Carry != nil {
			cur = p.Carry(cur, prev)
		}
		cs.Modified = append(cs.Modified, cur)
	}

	for i, prev := range previous {
		if matched[i] {
			continue
		}
		if id := p.ID(prev); id != "" {
			cs.DeletedIDs = append(cs.DeletedIDs, id)
		}
	}
	return cs
}
