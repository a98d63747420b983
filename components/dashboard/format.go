package dashboard

import (
	"strings"
	"time"
)

var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123,
}

// FormatOrderDate renders a backend timestamp as m/d/yyyy. Values that do not
// parse are returned as given.
func FormatOrderDate(raw string) string {
	value := strings.TrimSpace(raw)
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return raw
}
