package d2s

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// rasterQuery returns the has_raster filter parameter when filtering was
// requested. No filter means no parameter at all — the server's default
// semantics distinguish an absent parameter from an explicit false.
func rasterQuery(hasRaster bool) url.Values {
	if !hasRaster {
		return nil
	}

	return url.Values{"has_raster": {"true"}}
}

// decodeList splits a JSON array response into its raw elements.
func decodeList(data json.RawMessage, endpoint string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("d2s: decoding %s response: %w", endpoint, err)
	}

	return items, nil
}

// extraFields returns every field of a JSON object except the named known
// ones, preserved verbatim. Unknown server fields ride along on resource
// objects instead of being rejected, so new API fields pass through older
// clients unchanged. Returns nil when nothing is left over.
func extraFields(data json.RawMessage, known ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("d2s: decoding resource fields: %w", err)
	}

	for _, k := range known {
		delete(all, k)
	}

	if len(all) == 0 {
		return nil, nil
	}

	return all, nil
}

// marshalWithExtra renders a resource back to JSON: the typed known fields
// plus the preserved unknown ones. Known fields win on name collision.
func marshalWithExtra(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+len(known))

	for k, v := range extra {
		out[k] = v
	}

	for k, v := range known {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		out[k] = raw
	}

	return json.Marshal(out)
}
