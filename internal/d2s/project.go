package d2s

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ProjectCollection is an ordered list of projects from a single fetch,
// in server order.
type ProjectCollection struct {
	Collection []*Project
}

// Project is a D2S project. Known fields are typed; everything else the
// server sent is preserved verbatim in Extra.
type Project struct {
	ID          string
	Title       string
	Description string

	// Extra holds server fields this client does not model, preserved
	// for pass-through but not type-checked.
	Extra map[string]json.RawMessage

	client *Client
}

// newProject decodes one element of the projects response and attaches the
// shared client for child fetches.
func newProject(client *Client, data json.RawMessage) (*Project, error) {
	var fields struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("d2s: decoding project: %w", err)
	}

	extra, err := extraFields(data, "id", "title", "description")
	if err != nil {
		return nil, err
	}

	return &Project{
		ID:          fields.ID,
		Title:       fields.Title,
		Description: fields.Description,
		Extra:       extra,
		client:      client,
	}, nil
}

// Flights lists the project's flights, in server order. When hasRaster is
// true, only flights with raster data products are returned; false omits
// the filter entirely.
func (p *Project) Flights(ctx context.Context, hasRaster bool) (*FlightCollection, error) {
	endpoint := flightsEndpoint(p.ID)

	raw, err := p.client.Get(ctx, endpoint, rasterQuery(hasRaster))
	if err != nil {
		return nil, err
	}

	items, err := decodeList(raw, endpoint)
	if err != nil {
		return nil, err
	}

	flights := make([]*Flight, 0, len(items))

	for _, item := range items {
		f, err := newFlight(p.client, item)
		if err != nil {
			return nil, err
		}

		flights = append(flights, f)
	}

	p.client.logger.Debug("listed flights",
		slog.String("project_id", p.ID),
		slog.Int("count", len(flights)),
		slog.Bool("has_raster", hasRaster),
	)

	return &FlightCollection{Collection: flights}, nil
}

// MarshalJSON renders the project with its typed fields merged back into
// the preserved unknown fields.
func (p *Project) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(p.Extra, map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
	})
}

// flightsEndpoint returns the children endpoint for a project.
func flightsEndpoint(projectID string) string {
	return fmt.Sprintf("%s/%s/flights", projectsEndpoint, projectID)
}
