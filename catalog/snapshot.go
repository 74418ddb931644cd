package catalog

import (
	"time"
)

// Snapshot is an immutable view of the catalog at one point in time.
type Snapshot struct {
	repositories []string
	known        map[string]struct{}
	index        *Index
	fetchedAt    time.Time
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		repositories: []string{},
		known:        map[string]struct{}{},
		index:        NewIndex(nil),
	}
}

// NewSnapshot builds a snapshot from a freshly fetched catalog. The slice is
// copied so the caller may reuse it.
func NewSnapshot(repositories []string, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		repositories: make([]string, len(repositories)),
		known:        make(map[string]struct{}, len(repositories)),
		index:        NewIndex(repositories),
		fetchedAt:    fetchedAt,
	}

	copy(s.repositories, repositories)
	for _, r := range repositories {
		s.known[r] = struct{}{}
	}

	return s
}

// Repositories returns the repository names in catalog order.
func (s *Snapshot) Repositories() []string {
	r := make([]string, len(s.repositories))
	copy(r, s.repositories)

	return r
}

// Len is the number of repositories.
func (s *Snapshot) Len() int {
	return len(s.repositories)
}

// Contains reports whether name is exactly one of the repositories.
func (s *Snapshot) Contains(name string) bool {
	_, ok := s.known[name]
	return ok
}

// Lookup finds the index node for a path.
func (s *Snapshot) Lookup(path string) *Node {
	return s.index.Lookup(path)
}

// FetchedAt is when the catalog was fetched. It is zero until the first
// successful refresh.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}
