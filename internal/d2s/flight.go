package d2s

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// FlightCollection is an ordered list of flights from a single fetch,
// in server order.
type FlightCollection struct {
	Collection []*Flight
}

// Flight is a single data-acquisition flight within a project. A flight is
// addressable only through its parent project id, so ProjectID rides along
// for the data-products endpoint.
type Flight struct {
	ID        string
	ProjectID string
	Name      string
	Sensor    string
	Platform  string

	// AcquisitionDate is the calendar date of the flight, YYYY-MM-DD.
	// Server timestamps are truncated to the date portion on construction,
	// so this never contains a time component.
	AcquisitionDate string

	// Extra holds server fields this client does not model, preserved
	// for pass-through but not type-checked.
	Extra map[string]json.RawMessage

	client *Client
}

// newFlight decodes one element of the flights response, normalizes the
// acquisition date, and attaches the shared client.
func newFlight(client *Client, data json.RawMessage) (*Flight, error) {
	var fields struct {
		ID              string `json:"id"`
		ProjectID       string `json:"project_id"`
		Name            string `json:"name"`
		Sensor          string `json:"sensor"`
		Platform        string `json:"platform"`
		AcquisitionDate string `json:"acquisition_date"`
	}

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("d2s: decoding flight: %w", err)
	}

	extra, err := extraFields(data, "id", "project_id", "name", "sensor", "platform", "acquisition_date")
	if err != nil {
		return nil, err
	}

	return &Flight{
		ID:              fields.ID,
		ProjectID:       fields.ProjectID,
		Name:            fields.Name,
		Sensor:          fields.Sensor,
		Platform:        fields.Platform,
		AcquisitionDate: normalizeAcquisitionDate(fields.AcquisitionDate),
		Extra:           extra,
		client:          client,
	}, nil
}

// DataProducts lists the flight's data products, in server order.
func (f *Flight) DataProducts(ctx context.Context) (*DataProductCollection, error) {
	endpoint := dataProductsEndpoint(f.ProjectID, f.ID)

	raw, err := f.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	items, err := decodeList(raw, endpoint)
	if err != nil {
		return nil, err
	}

	products := make([]*DataProduct, 0, len(items))

	for _, item := range items {
		dp, err := newDataProduct(f.client, item)
		if err != nil {
			return nil, err
		}

		products = append(products, dp)
	}

	f.client.logger.Debug("listed data products",
		slog.String("project_id", f.ProjectID),
		slog.String("flight_id", f.ID),
		slog.Int("count", len(products)),
	)

	return &DataProductCollection{Collection: products}, nil
}

// MarshalJSON renders the flight with its typed fields merged back into
// the preserved unknown fields.
func (f *Flight) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(f.Extra, map[string]any{
		"id":               f.ID,
		"project_id":       f.ProjectID,
		"name":             f.Name,
		"sensor":           f.Sensor,
		"platform":         f.Platform,
		"acquisition_date": f.AcquisitionDate,
	})
}

// dataProductsEndpoint returns the children endpoint for a flight, which is
// parameterized by both the parent project id and the flight's own id.
func dataProductsEndpoint(projectID, flightID string) string {
	return fmt.Sprintf("%s/%s/flights/%s/data_products", projectsEndpoint, projectID, flightID)
}
