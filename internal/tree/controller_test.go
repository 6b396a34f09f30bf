package tree

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLoader serves canned children per node and counts fetches. An optional
// gate channel blocks every fetch until released, for concurrency tests.
type fakeLoader struct {
	mu       sync.Mutex
	children map[NodeID][]Child
	err      error
	fetches  atomic.Int32
	gate     chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{children: make(map[NodeID][]Child)}
}

func (f *fakeLoader) Children(_ context.Context, ref Ref) ([]Child, error) {
	f.fetches.Add(1)

	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return f.children[ref.NodeID()], nil
}

func hubChild(id, name string) Child {
	return Child{ID: HubID(id), Name: name, Kind: KindHub}
}

func projectChild(hub, id, name string) Child {
	return Child{ID: ProjectID(hub, id), Name: name, Kind: KindProject}
}

func rowNames(rows []Row) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}

	return names
}

func TestResetSortsRoots(t *testing.T) {
	ctrl := New(newFakeLoader(), testLogger())

	ctrl.Reset([]Child{hubChild("1", "b"), hubChild("2", "A"), hubChild("3", "a")})

	assert.Equal(t, []string{"A", "a", "b"}, rowNames(ctrl.Snapshot()),
		"ordering is caseless with original-order ties")
}

func TestSortStableOnCaselessTies(t *testing.T) {
	loader := newFakeLoader()
	loader.children[HubID("h")] = []Child{
		projectChild("h", "p2", "Beta"),
		projectChild("h", "p1", "alpha"),
		projectChild("h", "p3", "ALPHA"),
	}

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	kids := ctrl.Children(HubID("h"))
	require.Len(t, kids, 3)

	// "alpha" and "ALPHA" tie caselessly; fetch order breaks the tie.
	assert.Equal(t, ProjectID("h", "p1"), kids[0])
	assert.Equal(t, ProjectID("h", "p3"), kids[1])
	assert.Equal(t, ProjectID("h", "p2"), kids[2])
}

func TestToggleFetchesOnceAndCaches(t *testing.T) {
	loader := newFakeLoader()
	loader.children[HubID("h")] = []Child{projectChild("h", "p1", "Proj")}

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	// First toggle fetches and expands.
	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	state, ok := ctrl.State(HubID("h"))
	require.True(t, ok)
	assert.Equal(t, Expanded, state)
	assert.Equal(t, int32(1), loader.fetches.Load())

	// Collapse keeps the cache.
	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	state, _ = ctrl.State(HubID("h"))
	assert.Equal(t, CollapsedFetched, state)

	// Re-expand uses the cache, no second fetch.
	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	state, _ = ctrl.State(HubID("h"))
	assert.Equal(t, Expanded, state)
	assert.Equal(t, int32(1), loader.fetches.Load())
}

func TestToggleWhileLoadingIsNoOp(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	loader.children[HubID("h")] = []Child{projectChild("h", "p1", "Proj")}

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Toggle(context.Background(), HubID("h"))
	}()

	// Wait for the fetch to start.
	require.Eventually(t, func() bool {
		state, _ := ctrl.State(HubID("h"))

		return state == Loading
	}, time.Second, time.Millisecond)

	// A second toggle during the fetch neither blocks nor double-fetches.
	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))
	assert.Equal(t, int32(1), loader.fetches.Load())

	close(loader.gate)
	require.NoError(t, <-done)

	state, _ := ctrl.State(HubID("h"))
	assert.Equal(t, Expanded, state)
}

func TestToggleFetchFailure(t *testing.T) {
	loader := newFakeLoader()
	loader.err = errors.New("upstream down")

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	err := ctrl.Toggle(context.Background(), HubID("h"))
	require.Error(t, err)

	// Failure reverts the node: children stay unfetched, next toggle retries.
	state, _ := ctrl.State(HubID("h"))
	assert.Equal(t, CollapsedUnfetched, state)
	assert.Nil(t, ctrl.Children(HubID("h")))

	loader.mu.Lock()
	loader.err = nil
	loader.mu.Unlock()
	loader.children[HubID("h")] = []Child{projectChild("h", "p1", "Proj")}

	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	state, _ = ctrl.State(HubID("h"))
	assert.Equal(t, Expanded, state)
}

func TestToggleVersionIsNoOp(t *testing.T) {
	loader := newFakeLoader()
	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{{ID: VersionID("urn:v1"), Name: "2026-03-01", Kind: KindVersion}})

	require.NoError(t, ctrl.Toggle(context.Background(), VersionID("urn:v1")))
	assert.Equal(t, int32(0), loader.fetches.Load())
}

func TestToggleUnknownNodeIsNoOp(t *testing.T) {
	ctrl := New(newFakeLoader(), testLogger())
	ctrl.Reset(nil)

	assert.NoError(t, ctrl.Toggle(context.Background(), HubID("ghost")))
}

func TestSelectVersionOnly(t *testing.T) {
	var selected string

	loader := newFakeLoader()
	ctrl := New(loader, testLogger(), OnSelect(func(versionID string) {
		selected = versionID
	}))

	ctrl.Reset([]Child{
		hubChild("h", "Hub"),
		{ID: VersionID("urn:v1?version=2"), Name: "2026-03-01", Kind: KindVersion},
	})

	// Non-version nodes never select.
	_, ok := ctrl.Select(HubID("h"))
	assert.False(t, ok)
	assert.Empty(t, selected)

	id, ok := ctrl.Select(VersionID("urn:v1?version=2"))
	require.True(t, ok)
	assert.Equal(t, "urn:v1?version=2", id)
	assert.Equal(t, "urn:v1?version=2", selected)

	// Selection never mutates expansion state.
	state, _ := ctrl.State(VersionID("urn:v1?version=2"))
	assert.Equal(t, CollapsedUnfetched, state)
	assert.Equal(t, int32(0), loader.fetches.Load())
}

func TestResetDiscardsInFlightFetch(t *testing.T) {
	loader := newFakeLoader()
	loader.gate = make(chan struct{})
	loader.children[HubID("h")] = []Child{projectChild("h", "p1", "Proj")}

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Toggle(context.Background(), HubID("h"))
	}()

	require.Eventually(t, func() bool {
		state, _ := ctrl.State(HubID("h"))

		return state == Loading
	}, time.Second, time.Millisecond)

	// Rebuild the tree while the fetch is in flight.
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	close(loader.gate)
	require.NoError(t, <-done)

	// The stale result must not merge into the rebuilt tree.
	state, ok := ctrl.State(HubID("h"))
	require.True(t, ok)
	assert.Equal(t, CollapsedUnfetched, state)
	assert.Nil(t, ctrl.Children(HubID("h")))
}

func TestSnapshotDepthFirst(t *testing.T) {
	loader := newFakeLoader()
	loader.children[HubID("h")] = []Child{
		projectChild("h", "p1", "Alpha"),
		projectChild("h", "p2", "Beta"),
	}
	loader.children[ProjectID("h", "p1")] = []Child{
		{ID: FolderID("h", "p1", "f1"), Name: "Project Files", Kind: KindFolder},
	}

	ctrl := New(loader, testLogger())
	ctrl.Reset([]Child{hubChild("h", "Hub")})

	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))
	require.NoError(t, ctrl.Toggle(context.Background(), ProjectID("h", "p1")))

	rows := ctrl.Snapshot()
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Hub", "Alpha", "Project Files", "Beta"}, rowNames(rows))
	assert.Equal(t, []int{0, 1, 2, 1}, []int{rows[0].Depth, rows[1].Depth, rows[2].Depth, rows[3].Depth})
	assert.True(t, rows[0].Expanded)
	assert.False(t, rows[3].Expanded)
}

func TestOnUpdateFires(t *testing.T) {
	var updates atomic.Int32

	loader := newFakeLoader()
	loader.children[HubID("h")] = []Child{projectChild("h", "p1", "Proj")}

	ctrl := New(loader, testLogger(), OnUpdate(func() { updates.Add(1) }))

	ctrl.Reset([]Child{hubChild("h", "Hub")})
	require.NoError(t, ctrl.Toggle(context.Background(), HubID("h")))

	// Reset, loading transition, and merge each notify.
	assert.GreaterOrEqual(t, updates.Load(), int32(3))
}
