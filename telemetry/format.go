package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/custommodel/output"
)

// slowOperation is the duration from which a timing is highlighted.
const slowOperation = 100 * time.Millisecond

// formatTimingTree outputs the timing tree in a hierarchical format:
//
//	check model.yaml: 12ms
//	├─ load vocabulary: 2ms
//	└─ check document: 9ms
//	   ├─ validate: 4ms
//	   └─ parse conditions: 5ms
func formatTimingTree(w io.Writer, root *timerNode, styles *output.Styles) {
	timing := formatDuration(root.duration())
	if styles != nil {
		_, _ = fmt.Fprintf(w, "%s: %s\n", styles.Keyword(root.name), timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", root.name, timing)
	}

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	duration := node.duration()

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	if styles != nil {
		timing := styles.Timing(formatDuration(duration), duration >= slowOperation)
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), node.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, formatDuration(duration))
	}

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
