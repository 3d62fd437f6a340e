// Package owid models the Our World in Data COVID-19 dataset: the subset of
// columns this pipeline tracks, plus a CSV codec for reading the upstream
// export and writing local backups. Metric values use NaN to mark cells that
// are missing from the source data; cleaning replaces them downstream.
package owid

import (
	"time"
)

// DateLayout is the date format used by the OWID export.
const DateLayout = "2006-01-02"

// Record is one dataset row: a single location on a single day.
type Record struct {
	ISOCode  string
	Location string
	Date     time.Time

	// Tracked metrics. NaN until cleaning fills missing cells.
	TotalCases            float64
	NewCases              float64
	TotalDeaths           float64
	NewDeaths             float64
	TotalVaccinations     float64
	PeopleVaccinated      float64
	PeopleFullyVaccinated float64
	Population            float64

	// Derived fields. NaN until derivation computes them; never mutated
	// afterward.
	DeathRate                 float64
	VaccinationPercentage     float64
	FullVaccinationPercentage float64
}

// Table is an ordered collection of records. Order is meaningful: sorting by
// (location, date) is a cleaning step, not a parser guarantee.
type Table []Record

// Locations returns the distinct locations in first-seen order.
func (t Table) Locations() []string {
	seen := make(map[string]bool, 16)
	var out []string
	for i := range t {
		loc := t[i].Location
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out
}

// ForLocation returns the records for a single location, preserving order.
func (t Table) ForLocation(location string) Table {
	var out Table
	for i := range t {
		if t[i].Location == location {
			out = append(out, t[i])
		}
	}
	return out
}

// DateRange returns the earliest and latest dates in the table, or zero times
// when the table is empty.
func (t Table) DateRange() (first, last time.Time) {
	for i := range t {
		d := t[i].Date
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last
}
