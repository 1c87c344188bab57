package d2s

import (
	"encoding/json"
	"fmt"
)

// DataProductCollection is an ordered list of data products from a single
// fetch, in server order.
type DataProductCollection struct {
	Collection []*DataProduct
}

// DataProduct is the leaf of the resource hierarchy — a raster or point
// cloud produced from a flight. It has no further children.
type DataProduct struct {
	ID       string
	DataType string
	URL      string
	Status   string

	// Extra holds server fields this client does not model, preserved
	// for pass-through but not type-checked.
	Extra map[string]json.RawMessage

	client *Client
}

// newDataProduct decodes one element of the data-products response and
// attaches the shared client.
func newDataProduct(client *Client, data json.RawMessage) (*DataProduct, error) {
	var fields struct {
		ID       string `json:"id"`
		DataType string `json:"data_type"`
		URL      string `json:"url"`
		Status   string `json:"status"`
	}

	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("d2s: decoding data product: %w", err)
	}

	extra, err := extraFields(data, "id", "data_type", "url", "status")
	if err != nil {
		return nil, err
	}

	return &DataProduct{
		ID:       fields.ID,
		DataType: fields.DataType,
		URL:      fields.URL,
		Status:   fields.Status,
		Extra:    extra,
		client:   client,
	}, nil
}

// MarshalJSON renders the data product with its typed fields merged back
// into the preserved unknown fields.
func (dp *DataProduct) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(dp.Extra, map[string]any{
		"id":        dp.ID,
		"data_type": dp.DataType,
		"url":       dp.URL,
		"status":    dp.Status,
	})
}
