package aps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

// Hub is a top-level grouping of projects (an account or team).
type Hub struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Type   string `json:"type"`
}

// Project is a project within a hub.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccountID string `json:"accountId"`
	Type      string `json:"type"`
}

// Entry is a folder or item within a project folder.
type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Folder bool   `json:"folder"`
}

// Version is a specific revision of an item. Name carries the creation
// timestamp, which is what the UI displays.
type Version struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// hubData mirrors one JSON:API hub resource.
// Unexported — callers see Hub via toHub() normalization.
type hubData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name      string `json:"name"`
		Region    string `json:"region"`
		Extension struct {
			Type string `json:"type"`
		} `json:"extension"`
	} `json:"attributes"`
}

func (h *hubData) toHub() Hub {
	return Hub{
		ID:     h.ID,
		Name:   h.Attributes.Name,
		Region: h.Attributes.Region,
		Type:   h.Attributes.Extension.Type,
	}
}

// projectData mirrors one JSON:API project resource.
type projectData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name      string `json:"name"`
		Extension struct {
			Data struct {
				ProjectType string `json:"projectType"`
			} `json:"data"`
		} `json:"extension"`
	} `json:"attributes"`
	Relationships struct {
		Hub struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"hub"`
	} `json:"relationships"`
}

func (p *projectData) toProject() Project {
	return Project{
		ID:        p.ID,
		Name:      p.Attributes.Name,
		AccountID: p.Relationships.Hub.Data.ID,
		Type:      p.Attributes.Extension.Data.ProjectType,
	}
}

// entryData mirrors one JSON:API folder-contents or top-folders resource.
// Folders use attributes.displayName exactly like items do; the resource
// type string distinguishes the two.
type entryData struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		DisplayName string `json:"displayName"`
	} `json:"attributes"`
}

func (e *entryData) toEntry() Entry {
	return Entry{
		ID:     e.ID,
		Name:   e.Attributes.DisplayName,
		Folder: e.Type == "folders",
	}
}

// versionData mirrors one JSON:API version resource.
type versionData struct {
	ID         string `json:"id"`
	Attributes struct {
		CreateTime string `json:"createTime"`
	} `json:"attributes"`
}

func (v *versionData) toVersion() Version {
	return Version{
		ID:   v.ID,
		Name: v.Attributes.CreateTime,
	}
}

// listResponse wraps the data array common to all JSON:API list endpoints.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// Hubs returns all hubs accessible to the token's user.
func (c *Client) Hubs(ctx context.Context, token string) ([]Hub, error) {
	c.logger.Info("listing hubs")

	resp, err := c.get(ctx, "/project/v1/hubs", token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listResponse[hubData]
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("aps: decoding hubs response: %w", err)
	}

	hubs := make([]Hub, 0, len(lr.Data))
	for i := range lr.Data {
		hubs = append(hubs, lr.Data[i].toHub())
	}

	c.logger.Info("listed hubs", slog.Int("count", len(hubs)))

	return hubs, nil
}

// Projects returns the projects within a hub.
func (c *Client) Projects(ctx context.Context, hubID, token string) ([]Project, error) {
	c.logger.Info("listing projects", slog.String("hub_id", hubID))

	path := fmt.Sprintf("/project/v1/hubs/%s/projects", url.PathEscape(hubID))

	resp, err := c.get(ctx, path, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listResponse[projectData]
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("aps: decoding projects response: %w", err)
	}

	projects := make([]Project, 0, len(lr.Data))
	for i := range lr.Data {
		projects = append(projects, lr.Data[i].toProject())
	}

	return projects, nil
}

// Contents returns one level of a project's folder hierarchy. An empty
// folderID fetches the project's top folders; otherwise the contents of
// that folder.
func (c *Client) Contents(ctx context.Context, hubID, projectID, folderID, token string) ([]Entry, error) {
	c.logger.Info("listing contents",
		slog.String("project_id", projectID),
		slog.String("folder_id", folderID),
	)

	var path string
	if folderID == "" {
		path = fmt.Sprintf("/project/v1/hubs/%s/projects/%s/topFolders",
			url.PathEscape(hubID), url.PathEscape(projectID))
	} else {
		path = fmt.Sprintf("/data/v1/projects/%s/folders/%s/contents",
			url.PathEscape(projectID), url.PathEscape(folderID))
	}

	resp, err := c.get(ctx, path, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listResponse[entryData]
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("aps: decoding contents response: %w", err)
	}

	entries := make([]Entry, 0, len(lr.Data))
	for i := range lr.Data {
		entries = append(entries, lr.Data[i].toEntry())
	}

	return entries, nil
}

// Versions returns the revisions of an item, newest first as the API
// delivers them.
func (c *Client) Versions(ctx context.Context, projectID, itemID, token string) ([]Version, error) {
	c.logger.Info("listing versions",
		slog.String("project_id", projectID),
		slog.String("item_id", itemID),
	)

	path := fmt.Sprintf("/data/v1/projects/%s/items/%s/versions",
		url.PathEscape(projectID), url.PathEscape(itemID))

	resp, err := c.get(ctx, path, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lr listResponse[versionData]
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("aps: decoding versions response: %w", err)
	}

	versions := make([]Version, 0, len(lr.Data))
	for i := range lr.Data {
		versions = append(versions, lr.Data[i].toVersion())
	}

	return versions, nil
}
