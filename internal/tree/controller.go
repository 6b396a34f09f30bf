package tree

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Child is one fetched child entry before it becomes a node.
type Child struct {
	ID   NodeID
	Name string
	Kind Kind
}

// Loader fetches one level of the hierarchy for the referenced node.
type Loader interface {
	Children(ctx context.Context, ref Ref) ([]Child, error)
}

// Row is a visible node in depth-first order, as rendered by a view.
type Row struct {
	ID       NodeID
	Name     string
	Kind     Kind
	Depth    int
	Expanded bool
	Loading  bool
	Leaf     bool
}

// Controller orchestrates on-demand expansion. All node state lives behind
// one mutex; fetches happen outside it and merge their results back in only
// if the tree generation is unchanged, so a reset (re-login) discards any
// in-flight result instead of applying it to a rebuilt tree.
type Controller struct {
	loader   Loader
	logger   *slog.Logger
	collator *collate.Collator

	onUpdate func()
	onSelect func(versionID string)

	mu    sync.Mutex
	nodes map[NodeID]*node
	roots []NodeID
	gen   uint64
}

// Option configures a Controller.
type Option func(*Controller)

// OnUpdate registers a view-refresh callback, invoked after every visible
// state change. Called without the controller lock held.
func OnUpdate(fn func()) Option {
	return func(c *Controller) { c.onUpdate = fn }
}

// OnSelect registers the version-selection callback.
func OnSelect(fn func(versionID string)) Option {
	return func(c *Controller) { c.onSelect = fn }
}

// New creates an empty controller. Call Reset with the collection roots
// before toggling anything.
func New(loader Loader, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		loader:   loader,
		logger:   logger,
		collator: collate.New(language.Und, collate.IgnoreCase),
		nodes:    make(map[NodeID]*node),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Reset rebuilds the tree from scratch with the given roots (sorted like
// any other sibling set) and bumps the generation so in-flight fetches
// from the previous tree are discarded on arrival.
func (c *Controller) Reset(roots []Child) {
	c.mu.Lock()

	c.gen++
	c.nodes = make(map[NodeID]*node, len(roots))
	c.roots = c.insertChildren(roots)

	c.mu.Unlock()
	c.notify()
}

// Toggle drives the per-node state machine for a user toggle:
//
//	Expanded           -> Collapsed-Fetched   (no network)
//	Collapsed-Fetched  -> Expanded            (cached children)
//	Collapsed-Unfetched-> Loading -> Expanded (one fetch, sorted merge)
//	Loading            -> no-op
//
// A failed fetch reverts the node to Collapsed-Unfetched with children
// still absent; the error is returned and logged but the rest of the tree
// remains usable. Version nodes are terminal and never toggle.
func (c *Controller) Toggle(ctx context.Context, id NodeID) error {
	c.mu.Lock()

	n, ok := c.nodes[id]
	if !ok || n.kind == KindVersion || n.loading {
		c.mu.Unlock()

		return nil
	}

	if n.expanded {
		n.expanded = false
		c.mu.Unlock()
		c.notify()

		return nil
	}

	if n.children != nil {
		n.expanded = true
		c.mu.Unlock()
		c.notify()

		return nil
	}

	ref, err := ParseID(id)
	if err != nil {
		c.mu.Unlock()

		return err
	}

	n.loading = true
	gen := c.gen

	c.mu.Unlock()
	c.notify()

	kids, err := c.loader.Children(ctx, ref)

	c.mu.Lock()

	// The tree may have been rebuilt while the fetch was in flight.
	// Applying the result to the new generation would merge children into
	// a node the user no longer sees.
	if gen != c.gen {
		c.mu.Unlock()

		c.logger.Debug("discarding stale fetch result", slog.String("node", string(id)))

		return nil
	}

	n.loading = false

	if err != nil {
		c.mu.Unlock()
		c.notify()

		c.logger.Warn("fetching children failed",
			slog.String("node", string(id)),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("tree: fetching children of %s: %w", id, err)
	}

	n.children = c.insertChildren(kids)
	n.expanded = true

	c.mu.Unlock()
	c.notify()

	return nil
}

// Select reports a version node's upstream identifier. Selection never
// mutates expansion state. Returns false for any non-version node.
func (c *Controller) Select(id NodeID) (string, bool) {
	c.mu.Lock()

	n, ok := c.nodes[id]
	if !ok || n.kind != KindVersion {
		c.mu.Unlock()

		return "", false
	}

	c.mu.Unlock()

	ref, err := ParseID(id)
	if err != nil {
		return "", false
	}

	if c.onSelect != nil {
		c.onSelect(ref.ID)
	}

	return ref.ID, true
}

// State returns a node's state-machine position.
func (c *Controller) State(id NodeID) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.nodes[id]
	if !ok {
		return 0, false
	}

	return n.state(), true
}

// Children returns a node's child IDs, or nil if never fetched.
func (c *Controller) Children(id NodeID) []NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.nodes[id]
	if !ok || n.children == nil {
		return nil
	}

	out := make([]NodeID, len(n.children))
	copy(out, n.children)

	return out
}

// Snapshot returns the visible rows in depth-first order. The slice is a
// consistent view: merges are atomic under the lock, so a row set never
// shows partially merged children.
func (c *Controller) Snapshot() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]Row, 0, len(c.nodes))
	for _, id := range c.roots {
		rows = c.appendRows(rows, id, 0)
	}

	return rows
}

func (c *Controller) appendRows(rows []Row, id NodeID, depth int) []Row {
	n, ok := c.nodes[id]
	if !ok {
		return rows
	}

	rows = append(rows, Row{
		ID:       n.id,
		Name:     n.name,
		Kind:     n.kind,
		Depth:    depth,
		Expanded: n.expanded,
		Loading:  n.loading,
		Leaf:     n.kind == KindVersion,
	})

	if n.expanded {
		for _, child := range n.children {
			rows = c.appendRows(rows, child, depth+1)
		}
	}

	return rows
}

// insertChildren sorts a sibling set by display name (caseless, stable on
// fetch order for ties), registers the nodes, and returns their IDs.
// Caller holds c.mu.
func (c *Controller) insertChildren(kids []Child) []NodeID {
	sorted := make([]Child, len(kids))
	copy(sorted, kids)

	sort.SliceStable(sorted, func(i, j int) bool {
		return c.collator.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	ids := make([]NodeID, 0, len(sorted))
	for _, k := range sorted {
		if _, exists := c.nodes[k.ID]; !exists {
			c.nodes[k.ID] = &node{id: k.ID, name: k.Name, kind: k.Kind}
		}

		ids = append(ids, k.ID)
	}

	return ids
}

func (c *Controller) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}
