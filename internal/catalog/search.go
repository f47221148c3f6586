package catalog

import "strings"

// DefaultSearchLimit is the number of matches shown by the catalog list.
const DefaultSearchLimit = 20

// Match is one search hit.
type Match struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	NORADID  int      `json:"norad_id"`
	Category Category `json:"category"`
	Color    Color    `json:"color"`
}

// Search returns up to limit objects whose name contains query, ignoring
// case, in catalog order. An empty query matches everything. A limit of zero
// or less means DefaultSearchLimit.
func (c *Catalog) Search(query string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToUpper(strings.TrimSpace(query))

	matches := []Match{}
	for i := range c.Objects() {
		o := &c.objects[i]
		if q != "" && !strings.Contains(strings.ToUpper(o.Name), q) {
			continue
		}
		matches = append(matches, Match{
			Index:    o.Index,
			Name:     o.Name,
			NORADID:  o.Record.NORADID,
			Category: o.Category,
			Color:    o.Color,
		})
		if len(matches) == limit {
			break
		}
	}
	return matches
}
