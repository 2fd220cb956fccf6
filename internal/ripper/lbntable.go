package ripper

import (
	"fmt"
	"io"

	"github.com/Ripper55555/psximager/internal/fsnode"
)

// writeLBNTable prints SPEC_FULL.md's supplemented "-t/--lbn-table" dump:
// one line per node, depth-first in the insertion order buildTree already
// sorted by LBN, as a flat alternative to the catalog.
func writeLBNTable(w io.Writer, root *fsnode.Node) {
	for _, n := range fsnode.PreOrder(root) {
		path := n.Path()
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(w, "%-8d %-6d %-10d %s %s\n", n.FirstSector, n.SectorCount, n.SizeBytes, typeChar(n.Kind), path)
	}
}

func typeChar(k fsnode.Kind) string {
	switch k {
	case fsnode.Dir:
		return "d"
	case fsnode.Form2:
		return "x"
	case fsnode.AudioRef:
		return "a"
	default:
		return "f"
	}
}
