package catalog

import (
	"sort"
	"strings"

	"nadin-revendedoras/models"

	"github.com/gosimple/slug"
)

// CategoryNode is one level of the navigation tree built from cached category paths.
type CategoryNode struct {
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Path     string          `json:"path"`
	Count    int64           `json:"count"`
	Children []*CategoryNode `json:"children,omitempty"`
}

// BuildCategoryTree turns path → product count into a tree. A node's count includes its descendants.
func BuildCategoryTree(counts map[string]int64) []*CategoryNode {
	var roots []*CategoryNode
	index := make(map[string]*CategoryNode)

	for path, n := range counts {
		segments := strings.Split(path, models.CategorySeparator)
		var parent *CategoryNode
		for depth := range segments {
			full := strings.Join(segments[:depth+1], models.CategorySeparator)
			node, ok := index[full]
			if !ok {
				node = &CategoryNode{
					Name: segments[depth],
					Slug: slug.Make(full),
					Path: full,
				}
				index[full] = node
				if parent == nil {
					roots = append(roots, node)
				} else {
					parent.Children = append(parent.Children, node)
				}
			}
			node.Count += n
			parent = node
		}
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
