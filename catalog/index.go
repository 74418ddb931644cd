package catalog

import (
	"sort"

	"github.com/microscaling/regskin/utils"
)

// Node is one path segment in an Index. A node may be a repository, a
// directory of repositories, or both.
type Node struct {
	children map[string]*Node
}

func newNode() *Node {
	return &Node{children: map[string]*Node{}}
}

// ChildNames returns the names of the immediate children in lexicographic
// order.
func (n *Node) ChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Index is a tree of repository names split on "/". It is built once from a
// full catalog and never modified after it has been published in a Snapshot.
type Index struct {
	root *Node
}

// NewIndex builds an index containing every path.
func NewIndex(paths []string) *Index {
	idx := &Index{root: newNode()}
	for _, p := range paths {
		idx.Insert(p)
	}

	return idx
}

// Insert adds a path, creating any missing intermediate nodes. Inserting the
// same path twice has no effect.
func (idx *Index) Insert(path string) {
	node := idx.root
	for _, segment := range utils.SplitPath(path) {
		child, ok := node.children[segment]
		if !ok {
			child = newNode()
			node.children[segment] = child
		}
		node = child
	}
}

// Lookup walks the index segment by segment. It returns nil if any segment is
// missing. The empty path is the root.
func (idx *Index) Lookup(path string) *Node {
	node := idx.root
	for _, segment := range utils.SplitPath(path) {
		child, ok := node.children[segment]
		if !ok {
			return nil
		}
		node = child
	}

	return node
}
