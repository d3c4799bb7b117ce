package relationship

import (
	"sort"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
)

// Node is one row of the resolved transaction tree
type Node struct {
	Transaction domain.Transaction
	Depth       int
}

type arenaNode struct {
	children []int
	tx       domain.Transaction
}

// BuildTree orders the flat ledger of one order so every parent is followed by its children.
// Roots come in ascending timestamp order and each subtree is emitted depth-first.
// Rows whose parent is not in the list are treated as roots.
// The input slice is not modified.
func BuildTree(txs []domain.Transaction) []Node {
	arena := make([]arenaNode, len(txs))
	for i := range txs {
		arena[i] = arenaNode{tx: txs[i]}
	}
	sort.SliceStable(arena, func(i, j int) bool {
		return arena[i].tx.Timestamp.Before(arena[j].tx.Timestamp)
	})

	index := make(map[string]int, len(arena))
	for i := range arena {
		if _, dup := index[arena[i].tx.UniqueID]; !dup {
			index[arena[i].tx.UniqueID] = i
		}
	}

	roots := make([]int, 0, len(arena))
	for i := range arena {
		tx := &arena[i].tx
		parent, ok := index[tx.ReferenceID]
		if tx.IsRoot() || !ok || parent == i {
			roots = append(roots, i)
			continue
		}
		arena[parent].children = append(arena[parent].children, i)
	}

	out := make([]Node, 0, len(arena))
	visited := make([]bool, len(arena))

	var walk func(i, depth int)
	walk = func(i, depth int) {
		if visited[i] {
			return
		}
		visited[i] = true
		out = append(out, Node{Transaction: arena[i].tx, Depth: depth})
		for _, c := range arena[i].children {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}

	// rows caught in a reference cycle have no root; keep them visible
	for i := range arena {
		walk(i, 0)
	}
	return out
}
