// Package tree implements the lazily-populated hub hierarchy: a flat index
// of nodes keyed by composite IDs, with a controller that fetches children
// on demand and keeps per-node expansion state.
package tree

import (
	"fmt"
	"strings"
)

// Kind identifies a node's level in the hierarchy.
type Kind int

const (
	KindHub Kind = iota
	KindProject
	KindFolder
	KindItem
	KindVersion
)

func (k Kind) String() string {
	switch k {
	case KindHub:
		return "hub"
	case KindProject:
		return "project"
	case KindFolder:
		return "folder"
	case KindItem:
		return "item"
	case KindVersion:
		return "version"
	default:
		return "unknown"
	}
}

// NodeID is a composite key: the kind plus every ancestor identifier needed
// to refetch the node's children without walking the tree.
//
//	hub|<hubID>
//	project|<hubID>|<projectID>
//	folder|<hubID>|<projectID>|<folderID>
//	item|<hubID>|<projectID>|<itemID>
//	version|<versionID>
type NodeID string

const idSep = "|"

// HubID builds the NodeID for a hub.
func HubID(hubID string) NodeID {
	return NodeID("hub" + idSep + hubID)
}

// ProjectID builds the NodeID for a project within a hub.
func ProjectID(hubID, projectID string) NodeID {
	return NodeID("project" + idSep + hubID + idSep + projectID)
}

// FolderID builds the NodeID for a folder within a project.
func FolderID(hubID, projectID, folderID string) NodeID {
	return NodeID("folder" + idSep + hubID + idSep + projectID + idSep + folderID)
}

// ItemID builds the NodeID for an item within a project.
func ItemID(hubID, projectID, itemID string) NodeID {
	return NodeID("item" + idSep + hubID + idSep + projectID + idSep + itemID)
}

// VersionID builds the NodeID for an item version.
func VersionID(versionID string) NodeID {
	return NodeID("version" + idSep + versionID)
}

// Ref is the decoded form of a NodeID. ID is the node's own upstream
// identifier; Hub and Project are populated for the kinds that carry them.
type Ref struct {
	Kind    Kind
	Hub     string
	Project string
	ID      string
}

// NodeID re-encodes the reference.
func (r Ref) NodeID() NodeID {
	switch r.Kind {
	case KindHub:
		return HubID(r.ID)
	case KindProject:
		return ProjectID(r.Hub, r.ID)
	case KindFolder:
		return FolderID(r.Hub, r.Project, r.ID)
	case KindItem:
		return ItemID(r.Hub, r.Project, r.ID)
	case KindVersion:
		return VersionID(r.ID)
	default:
		return ""
	}
}

// ParseID decodes a composite NodeID.
func ParseID(id NodeID) (Ref, error) {
	parts := strings.Split(string(id), idSep)

	switch parts[0] {
	case "hub":
		if len(parts) != 2 {
			return Ref{}, fmt.Errorf("tree: malformed hub id %q", id)
		}

		return Ref{Kind: KindHub, ID: parts[1]}, nil
	case "project":
		if len(parts) != 3 {
			return Ref{}, fmt.Errorf("tree: malformed project id %q", id)
		}

		return Ref{Kind: KindProject, Hub: parts[1], ID: parts[2]}, nil
	case "folder":
		if len(parts) != 4 {
			return Ref{}, fmt.Errorf("tree: malformed folder id %q", id)
		}

		return Ref{Kind: KindFolder, Hub: parts[1], Project: parts[2], ID: parts[3]}, nil
	case "item":
		if len(parts) != 4 {
			return Ref{}, fmt.Errorf("tree: malformed item id %q", id)
		}

		return Ref{Kind: KindItem, Hub: parts[1], Project: parts[2], ID: parts[3]}, nil
	case "version":
		if len(parts) < 2 {
			return Ref{}, fmt.Errorf("tree: malformed version id %q", id)
		}

		// Version identifiers are URNs that may themselves contain the
		// separator; everything after the prefix is the identifier.
		return Ref{Kind: KindVersion, ID: strings.Join(parts[1:], idSep)}, nil
	default:
		return Ref{}, fmt.Errorf("tree: unknown node kind in %q", id)
	}
}

// node is the in-index representation. Mutated only by the Controller under
// its lock; children stays nil until the first successful fetch and never
// reverts to nil afterwards.
type node struct {
	id       NodeID
	name     string
	kind     Kind
	children []NodeID
	expanded bool
	loading  bool
}

// State is a node's position in the toggle state machine.
type State int

const (
	CollapsedUnfetched State = iota
	Loading
	CollapsedFetched
	Expanded
)

func (s State) String() string {
	switch s {
	case CollapsedUnfetched:
		return "collapsed-unfetched"
	case Loading:
		return "loading"
	case CollapsedFetched:
		return "collapsed-fetched"
	case Expanded:
		return "expanded"
	default:
		return "unknown"
	}
}

func (n *node) state() State {
	switch {
	case n.loading:
		return Loading
	case n.expanded:
		return Expanded
	case n.children != nil:
		return CollapsedFetched
	default:
		return CollapsedUnfetched
	}
}
