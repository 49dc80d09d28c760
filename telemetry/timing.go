package telemetry

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/robinvdvleuten/custommodel/output"
)

// TimingCollector collects hierarchical timing data. Timers started directly
// on the collector nest under the timer that is currently running.
type TimingCollector struct {
	root    *timerNode
	current *timerNode
	mu      sync.Mutex
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
	parent   *timerNode
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins timing an operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{
		name:  name,
		start: time.Now(),
	}

	if c.root == nil {
		c.root = node
	} else {
		node.parent = c.current
		c.current.children = append(c.current.children, node)
	}
	c.current = node

	return &timingTimer{
		collector: c,
		node:      node,
	}
}

// Report writes the timing tree to w.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	formatTimingTree(w, c.root, styles)
}

// LogValue flattens the tree into a group of name=duration attributes, so a
// collector can be passed to slog directly.
func (c *TimingCollector) LogValue() slog.Value {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return slog.GroupValue()
	}
	return slog.GroupValue(nodeAttr(c.root))
}

func nodeAttr(n *timerNode) slog.Attr {
	if len(n.children) == 0 {
		return slog.Duration(n.name, n.duration())
	}
	attrs := make([]any, 0, len(n.children)+1)
	attrs = append(attrs, slog.Duration("total", n.duration()))
	for _, child := range n.children {
		attrs = append(attrs, nodeAttr(child))
	}
	return slog.Group(n.name, attrs...)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

// End stops the timer.
func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.node.end = time.Now()
	if t.node.parent != nil && t.collector.current == t.node {
		t.collector.current = t.node.parent
	}
}

// Child creates a nested timer.
func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{
		name:   name,
		start:  time.Now(),
		parent: t.node,
	}
	t.node.children = append(t.node.children, node)

	return &timingTimer{
		collector: t.collector,
		node:      node,
	}
}
