package tle

import "time"

// Record is a single named two-line element set together with the
// metadata read from its fixed columns.
type Record struct {
	Name           string
	NORADID        int
	IntlDesignator string
	Epoch          time.Time
	InclinationDeg float64
	Eccentricity   float64
	MeanMotion     float64 // revolutions per day
	Line1          string
	Line2          string
}

// EpochRange represents the minimum and maximum epoch times in a set of records.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// RangeOf returns the epoch range covered by records. The zero range is
// returned for an empty slice.
func RangeOf(records []Record) EpochRange {
	if len(records) == 0 {
		return EpochRange{}
	}
	r := EpochRange{Min: records[0].Epoch, Max: records[0].Epoch}
	for _, rec := range records[1:] {
		if rec.Epoch.Before(r.Min) {
			r.Min = rec.Epoch
		}
		if rec.Epoch.After(r.Max) {
			r.Max = rec.Epoch
		}
	}
	return r
}
