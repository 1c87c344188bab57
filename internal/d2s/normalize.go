package d2s

import "strings"

// normalizeAcquisitionDate truncates a server timestamp to its calendar-date
// portion. "2024-06-10T12:34:56" becomes "2024-06-10"; values without a time
// component are returned unchanged.
func normalizeAcquisitionDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}

	return s
}
