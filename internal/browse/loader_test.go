package browse

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubview/hubview/internal/aps"
	"github.com/hubview/hubview/internal/session"
	"github.com/hubview/hubview/internal/tree"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoader(t *testing.T, mux *http.ServeMux) *Loader {
	t.Helper()

	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	data := aps.NewClient(upstream.URL, upstream.Client(), testLogger())

	sessions := session.NewStore(func(context.Context, string) (*session.Session, error) {
		t.Fatal("fresh session must not refresh")

		return nil, nil
	}, testLogger())

	backend := session.NewMemoryBackend()
	require.NoError(t, backend.Save(&session.Session{
		InternalToken: "internal-tok",
		PublicToken:   "public-tok",
		RefreshToken:  "rt-1",
		ExpiresAt:     time.Now().Add(time.Hour),
	}))

	return NewLoader(data, sessions, backend)
}

func TestLoaderRoots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/v1/hubs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer internal-tok", r.Header.Get("Authorization"))

		w.Write([]byte(`{"data": [{"id": "b.hub1", "attributes": {"name": "Main",
			"region": "US", "extension": {"type": "hubs:autodesk.bim360:Account"}}}]}`))
	})

	loader := newTestLoader(t, mux)

	roots, err := loader.Roots(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)

	assert.Equal(t, tree.HubID("b.hub1"), roots[0].ID)
	assert.Equal(t, "Main", roots[0].Name)
	assert.Equal(t, tree.KindHub, roots[0].Kind)
}

func TestLoaderHubChildren(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/v1/hubs/b.hub1/projects", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": [{"id": "b.proj1",
			"attributes": {"name": "Bridge", "extension": {"data": {"projectType": "BIM360"}}},
			"relationships": {"hub": {"data": {"id": "b.hub1"}}}}]}`))
	})

	loader := newTestLoader(t, mux)

	kids, err := loader.Children(context.Background(), tree.Ref{Kind: tree.KindHub, ID: "b.hub1"})
	require.NoError(t, err)
	require.Len(t, kids, 1)

	assert.Equal(t, tree.ProjectID("b.hub1", "b.proj1"), kids[0].ID)
	assert.Equal(t, tree.KindProject, kids[0].Kind)
}

func TestLoaderProjectChildrenUsesTopFolders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /project/v1/hubs/b.hub1/projects/b.proj1/topFolders",
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"data": [{"id": "root", "type": "folders",
				"attributes": {"displayName": "Project Files"}}]}`))
		})

	loader := newTestLoader(t, mux)

	kids, err := loader.Children(context.Background(),
		tree.Ref{Kind: tree.KindProject, Hub: "b.hub1", ID: "b.proj1"})
	require.NoError(t, err)
	require.Len(t, kids, 1)

	assert.Equal(t, tree.FolderID("b.hub1", "b.proj1", "root"), kids[0].ID)
	assert.Equal(t, tree.KindFolder, kids[0].Kind)
}

func TestLoaderFolderChildrenSplitsKinds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/v1/projects/b.proj1/folders/f1/contents",
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"data": [
				{"id": "f2", "type": "folders", "attributes": {"displayName": "Drawings"}},
				{"id": "i1", "type": "items", "attributes": {"displayName": "tower.rvt"}}
			]}`))
		})

	loader := newTestLoader(t, mux)

	kids, err := loader.Children(context.Background(),
		tree.Ref{Kind: tree.KindFolder, Hub: "b.hub1", Project: "b.proj1", ID: "f1"})
	require.NoError(t, err)
	require.Len(t, kids, 2)

	assert.Equal(t, tree.KindFolder, kids[0].Kind)
	assert.Equal(t, tree.FolderID("b.hub1", "b.proj1", "f2"), kids[0].ID)
	assert.Equal(t, tree.KindItem, kids[1].Kind)
	assert.Equal(t, tree.ItemID("b.hub1", "b.proj1", "i1"), kids[1].ID)
}

func TestLoaderItemChildrenAreVersions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/v1/projects/b.proj1/items/i1/versions",
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"data": [{"id": "v1",
				"attributes": {"createTime": "2026-03-01T09:00:00Z"}}]}`))
		})

	loader := newTestLoader(t, mux)

	kids, err := loader.Children(context.Background(),
		tree.Ref{Kind: tree.KindItem, Hub: "b.hub1", Project: "b.proj1", ID: "i1"})
	require.NoError(t, err)
	require.Len(t, kids, 1)

	assert.Equal(t, tree.VersionID("v1"), kids[0].ID)
	assert.Equal(t, tree.KindVersion, kids[0].Kind)
	assert.Equal(t, "2026-03-01T09:00:00Z", kids[0].Name)
}

func TestLoaderVersionHasNoChildren(t *testing.T) {
	loader := newTestLoader(t, http.NewServeMux())

	kids, err := loader.Children(context.Background(),
		tree.Ref{Kind: tree.KindVersion, ID: "v1"})
	require.NoError(t, err)
	assert.Nil(t, kids)
}

func TestLoaderWithoutSession(t *testing.T) {
	data := aps.NewClient("http://unused.invalid", nil, testLogger())
	sessions := session.NewStore(nil, testLogger())
	loader := NewLoader(data, sessions, session.NewMemoryBackend())

	_, err := loader.Roots(context.Background())
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}
