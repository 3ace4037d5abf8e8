package tree

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type searchSource []Row

func (s searchSource) String(i int) string { return s[i].Name + " " + s[i].Path }
func (s searchSource) Len() int            { return len(s) }

// Search fuzzy-matches pattern against every node's name and request path,
// collapsed or not. The best score wins; ties go to declaration order.
func Search(nodes []Node, pattern string) (Row, bool) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return Row{}, false
	}
	rows := All(nodes)
	matches := fuzzy.FindFrom(pattern, searchSource(rows))
	if len(matches) == 0 {
		return Row{}, false
	}
	return rows[matches[0].Index], true
}
