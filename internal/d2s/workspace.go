package d2s

import (
	"context"
	"log/slog"
)

// Workspace is the root of the resource hierarchy. It holds the shared API
// client and the user's optional API key, and is otherwise stateless.
type Workspace struct {
	// APIKey is the user's api_access_token, stored for callers that want
	// it. It is never attached to outgoing requests.
	APIKey string

	client *Client
}

// NewWorkspace creates a workspace over an already-constructed client.
// The client is shared by reference with every resource fetched below the
// workspace; it is never re-created per level.
func NewWorkspace(client *Client, apiKey string) *Workspace {
	return &Workspace{APIKey: apiKey, client: client}
}

// Project returns a handle for addressing an existing project by id
// without fetching it. Only the id is populated; use it to reach the
// project's children directly.
func (w *Workspace) Project(id string) *Project {
	return &Project{ID: id, client: w.client}
}

// Flight returns a handle for addressing an existing flight by its project
// and flight ids without fetching it. A flight cannot be addressed without
// its parent project id.
func (w *Workspace) Flight(projectID, flightID string) *Flight {
	return &Flight{ID: flightID, ProjectID: projectID, client: w.client}
}

// Projects lists the projects visible to the session's user, in server
// order. When hasRaster is true, only projects with raster data products
// are returned; false omits the filter entirely.
//
// Every call performs a full round trip and returns freshly allocated
// objects — there is no identity caching across calls.
func (w *Workspace) Projects(ctx context.Context, hasRaster bool) (*ProjectCollection, error) {
	raw, err := w.client.Get(ctx, projectsEndpoint, rasterQuery(hasRaster))
	if err != nil {
		return nil, err
	}

	items, err := decodeList(raw, projectsEndpoint)
	if err != nil {
		return nil, err
	}

	projects := make([]*Project, 0, len(items))

	for _, item := range items {
		p, err := newProject(w.client, item)
		if err != nil {
			return nil, err
		}

		projects = append(projects, p)
	}

	w.client.logger.Debug("listed projects",
		slog.Int("count", len(projects)),
		slog.Bool("has_raster", hasRaster),
	)

	return &ProjectCollection{Collection: projects}, nil
}
