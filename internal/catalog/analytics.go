package catalog

// leoMeanMotion is the mean motion (rev/day) above which an orbit counts as
// low Earth orbit, i.e. a period under 128 minutes.
const leoMeanMotion = 11.25

// Stats summarises a catalog for the analytics panel.
type Stats struct {
	Total         int              `json:"total"`
	Debris        int              `json:"debris"`
	Stations      int              `json:"stations"`
	LEODensityPct float64          `json:"leo_density_pct"`
	ByCategory    map[Category]int `json:"by_category"`
}

// Counts returns the number of objects per category. Every category is
// present, possibly with zero.
func (c *Catalog) Counts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, cat := range Categories {
		counts[cat] = 0
	}
	for _, o := range c.Objects() {
		counts[o.Category]++
	}
	return counts
}

// Stats computes the catalog summary.
func (c *Catalog) Stats() Stats {
	counts := c.Counts()
	st := Stats{
		Total:      c.Len(),
		Debris:     counts[CategoryDebris],
		Stations:   counts[CategoryStation],
		ByCategory: counts,
	}
	if st.Total == 0 {
		return st
	}

	leo := 0
	for _, o := range c.Objects() {
		if o.Record.MeanMotion > leoMeanMotion {
			leo++
		}
	}
	st.LEODensityPct = float64(leo) / float64(st.Total) * 100
	return st
}
