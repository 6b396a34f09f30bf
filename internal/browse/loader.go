// Package browse implements the terminal hub browser: a lazily expanding
// tree over the Data Management hierarchy, driven by tree.Controller.
package browse

import (
	"context"

	"github.com/hubview/hubview/internal/aps"
	"github.com/hubview/hubview/internal/session"
	"github.com/hubview/hubview/internal/tree"
)

// Loader fetches tree children through the gateway, validating the session
// before every call so long browsing sessions survive token expiry.
type Loader struct {
	data     *aps.Client
	sessions *session.Store
	backend  session.Backend
}

// NewLoader wires the gateway to the session store.
func NewLoader(data *aps.Client, sessions *session.Store, backend session.Backend) *Loader {
	return &Loader{data: data, sessions: sessions, backend: backend}
}

// Roots lists the hubs that form the tree's collection roots.
func (l *Loader) Roots(ctx context.Context) ([]tree.Child, error) {
	sess, err := l.sessions.EnsureValid(ctx, l.backend)
	if err != nil {
		return nil, err
	}

	hubs, err := l.data.Hubs(ctx, sess.InternalToken)
	if err != nil {
		return nil, err
	}

	kids := make([]tree.Child, 0, len(hubs))
	for _, h := range hubs {
		kids = append(kids, tree.Child{ID: tree.HubID(h.ID), Name: h.Name, Kind: tree.KindHub})
	}

	return kids, nil
}

// Children fetches one level of the hierarchy for the referenced node.
func (l *Loader) Children(ctx context.Context, ref tree.Ref) ([]tree.Child, error) {
	sess, err := l.sessions.EnsureValid(ctx, l.backend)
	if err != nil {
		return nil, err
	}

	token := sess.InternalToken

	switch ref.Kind {
	case tree.KindHub:
		projects, err := l.data.Projects(ctx, ref.ID, token)
		if err != nil {
			return nil, err
		}

		kids := make([]tree.Child, 0, len(projects))
		for _, p := range projects {
			kids = append(kids, tree.Child{
				ID:   tree.ProjectID(ref.ID, p.ID),
				Name: p.Name,
				Kind: tree.KindProject,
			})
		}

		return kids, nil

	case tree.KindProject, tree.KindFolder:
		folderID := ""
		project := ref.ID

		if ref.Kind == tree.KindFolder {
			folderID = ref.ID
			project = ref.Project
		}

		hub := ref.Hub

		entries, err := l.data.Contents(ctx, hub, project, folderID, token)
		if err != nil {
			return nil, err
		}

		kids := make([]tree.Child, 0, len(entries))
		for _, e := range entries {
			if e.Folder {
				kids = append(kids, tree.Child{
					ID:   tree.FolderID(hub, project, e.ID),
					Name: e.Name,
					Kind: tree.KindFolder,
				})
			} else {
				kids = append(kids, tree.Child{
					ID:   tree.ItemID(hub, project, e.ID),
					Name: e.Name,
					Kind: tree.KindItem,
				})
			}
		}

		return kids, nil

	case tree.KindItem:
		versions, err := l.data.Versions(ctx, ref.Project, ref.ID, token)
		if err != nil {
			return nil, err
		}

		kids := make([]tree.Child, 0, len(versions))
		for _, v := range versions {
			kids = append(kids, tree.Child{
				ID:   tree.VersionID(v.ID),
				Name: v.Name,
				Kind: tree.KindVersion,
			})
		}

		return kids, nil

	default:
		// Version nodes are terminal.
		return nil, nil
	}
}
