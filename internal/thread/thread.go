// Package thread projects a flat set of comments into reply trees. The
// tree is rebuilt on every read and never stored.
package thread

import (
	"sort"

	"worktrack/internal/models"
)

// Node is one comment with its replies ordered oldest first.
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// Build returns the forest of comments attached to target. Comments for
// other targets are ignored. Roots are comments without a parent, or whose
// parent is not part of the input. Siblings are ordered by creation time,
// ties broken by id.
//
// Build fails with models.ErrCyclicThread when a parent chain does not
// terminate within len(comments) steps.
func Build(target models.Target, comments []models.Comment) ([]*Node, error) {
	nodes := make(map[string]*Node, len(comments))
	order := make([]*Node, 0, len(comments))
	for _, c := range comments {
		if c.Target != target {
			continue
		}
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c}
		nodes[c.ID] = n
		order = append(order, n)
	}

	if err := checkAcyclic(nodes); err != nil {
		return nil, err
	}

	var roots []*Node
	for _, n := range order {
		parent, ok := nodes[n.ParentID]
		if n.ParentID == "" || !ok {
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
	}

	sortNodes(roots)
	for _, n := range order {
		sortNodes(n.Replies)
	}
	return roots, nil
}

// checkAcyclic walks every parent chain. Chains already proven to reach a
// root are remembered so the walk is linear overall.
func checkAcyclic(nodes map[string]*Node) error {
	limit := len(nodes)
	terminates := make(map[string]bool, len(nodes))
	for id := range nodes {
		var path []string
		cur := id
		for steps := 0; ; steps++ {
			if terminates[cur] {
				break
			}
			n, ok := nodes[cur]
			if !ok || n.ParentID == "" {
				break
			}
			if steps > limit {
				return models.Errorf(models.ErrCyclicThread, models.EntityComment, "parent_id", "comment %q does not reach a root", id)
			}
			path = append(path, cur)
			cur = n.ParentID
		}
		for _, p := range path {
			terminates[p] = true
		}
	}
	return nil
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Replies)
	}
	return total
}

// Walk visits every node depth-first in display order. depth is 0 for roots.
func Walk(forest []*Node, visit func(n *Node, depth int)) {
	walk(forest, 0, visit)
}

func walk(forest []*Node, depth int, visit func(n *Node, depth int)) {
	for _, n := range forest {
		visit(n, depth)
		walk(n.Replies, depth+1, visit)
	}
}
