package catalog

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIndexLookup(t *testing.T) {
	idx := NewIndex([]string{"a/b", "a/c", "a/b/d"})

	type test struct {
		path     string
		found    bool
		children []string
	}

	var tests = []test{
		{path: "", found: true, children: []string{"a"}},
		{path: "a", found: true, children: []string{"b", "c"}},
		{path: "a/", found: true, children: []string{"b", "c"}},
		{path: "/a/b/", found: true, children: []string{"d"}},
		{path: "a/b", found: true, children: []string{"d"}},
		{path: "a/b/d", found: true, children: []string{}},
		{path: "a/c", found: true, children: []string{}},
		{path: "b", found: false},
		{path: "a/d", found: false},
		{path: "a/b/d/e", found: false},
		{path: "a/bb", found: false},
	}

	for id, test := range tests {
		node := idx.Lookup(test.path)
		if (node != nil) != test.found {
			t.Errorf("#%d Expected found %t for %q", id, test.found, test.path)
			continue
		}

		if node == nil {
			continue
		}

		if diff := cmp.Diff(test.children, node.ChildNames()); diff != "" {
			t.Errorf("#%d Unexpected children of %q (-want +got):\n%s", id, test.path, diff)
		}
	}
}

func TestIndexInsertIdempotent(t *testing.T) {
	idx := NewIndex([]string{"team/app"})
	idx.Insert("team/app")
	idx.Insert("/team/app/")
	idx.Insert("team//app")

	if diff := cmp.Diff([]string{"team"}, idx.Lookup("").ChildNames()); diff != "" {
		t.Errorf("Unexpected root children (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"app"}, idx.Lookup("team").ChildNames()); diff != "" {
		t.Errorf("Unexpected team children (-want +got):\n%s", diff)
	}
}

func randomPaths(r *rand.Rand, n int) []string {
	segments := []string{"a", "b", "c", "app", "team", "x-y", "Z", "1"}
	paths := make([]string, n)

	for i := range paths {
		depth := 1 + r.Intn(4)
		parts := make([]string, depth)
		for j := range parts {
			parts[j] = segments[r.Intn(len(segments))]
		}
		paths[i] = strings.Join(parts, "/")
	}

	return paths
}

func TestIndexPrefixesReachable(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		paths := randomPaths(r, 1+r.Intn(30))
		idx := NewIndex(paths)

		for _, p := range paths {
			parts := strings.Split(p, "/")
			for i := 1; i <= len(parts); i++ {
				prefix := strings.Join(parts[:i], "/")
				if idx.Lookup(prefix) == nil {
					t.Fatalf("Prefix %q of %q not reachable", prefix, p)
				}
			}
		}
	}
}

func TestIndexUnknownPaths(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	for round := 0; round < 50; round++ {
		paths := randomPaths(r, 1+r.Intn(10))
		idx := NewIndex(paths)

		prefixes := map[string]bool{}
		for _, p := range paths {
			parts := strings.Split(p, "/")
			for i := 1; i <= len(parts); i++ {
				prefixes[strings.Join(parts[:i], "/")] = true
			}
		}

		for _, candidate := range randomPaths(r, 20) {
			if prefixes[candidate] {
				continue
			}

			if idx.Lookup(candidate) != nil {
				t.Fatalf("Found %q which was never inserted", candidate)
			}
		}
	}
}

func TestChildNamesSortedAndUnique(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	idx := NewIndex(randomPaths(r, 200))

	var walk func(n *Node)
	walk = func(n *Node) {
		names := n.ChildNames()
		if !sort.StringsAreSorted(names) {
			t.Errorf("Children not sorted: %v", names)
		}

		for i := 1; i < len(names); i++ {
			if names[i] == names[i-1] {
				t.Errorf("Duplicate child %s", names[i])
			}
		}

		for _, name := range names {
			walk(n.children[name])
		}
	}

	walk(idx.Lookup(""))
}
