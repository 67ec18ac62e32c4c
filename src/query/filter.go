package query

import (
	"strings"

	"coin-dashboard/src/models"
)

// Filter keeps rows whose name or symbol contains text, ignoring case and
// surrounding spaces. Empty text keeps every row. The result is a new slice.
func Filter(rows []models.MCoinSummary, text string) []models.MCoinSummary {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]models.MCoinSummary, 0, len(rows))
	for _, r := range rows {
		if needle == "" ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Symbol), needle) {
			out = append(out, r)
		}
	}
	return out
}
