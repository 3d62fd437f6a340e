// Package dataset holds the pure cleaning and derivation transforms: filter,
// sort, forward-fill, derived ratios, latest snapshot, rolling mean. No I/O,
// no logging; every transform returns a new table.
package dataset

import (
	"math"
	"sort"

	"github.com/EngBaraka/covid19-insights/internal/owid"
)

// DefaultLocations is the standard analysis allow-list.
var DefaultLocations = []string{
	"Kenya",
	"United States",
	"India",
	"Brazil",
	"United Kingdom",
	"Germany",
	"South Africa",
}

// Filter returns the records whose location is in the allow-list, preserving
// input order.
func Filter(t owid.Table, locations []string) owid.Table {
	allowed := make(map[string]bool, len(locations))
	for _, loc := range locations {
		allowed[loc] = true
	}
	var out owid.Table
	for i := range t {
		if allowed[t[i].Location] {
			out = append(out, t[i])
		}
	}
	return out
}

// SortByLocationDate returns a copy sorted by (location asc, date asc). The
// sort is stable so equal keys keep their input order.
func SortByLocationDate(t owid.Table) owid.Table {
	out := make(owid.Table, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ForwardFill replaces each NaN metric value with the most recent prior
// non-NaN value for the same location, or 0 when the location has no prior
// value. Non-NaN values are never altered. "Prior" means earlier in table
// order, so the table should already be sorted by (location, date).
func ForwardFill(t owid.Table, metrics []owid.Metric) (owid.Table, error) {
	out := make(owid.Table, len(t))
	copy(out, t)
	for _, m := range metrics {
		last := make(map[string]float64, 16)
		for i := range out {
			v, err := out[i].Value(m)
			if err != nil {
				return nil, err
			}
			if !math.IsNaN(v) {
				last[out[i].Location] = v
				continue
			}
			fill, ok := last[out[i].Location]
			if !ok {
				fill = 0
			}
			_ = out[i].SetValue(m, fill)
		}
	}
	return out, nil
}

// Derive returns a copy with the derived ratios computed for every record:
//
//	DeathRate                 = TotalDeaths / TotalCases   (denominator 1 when TotalCases is 0)
//	VaccinationPercentage     = PeopleVaccinated / Population × 100
//	FullVaccinationPercentage = PeopleFullyVaccinated / Population × 100
//
// A zero population yields zero percentages rather than dividing by zero.
// Derive expects a forward-filled table; NaN inputs propagate into the
// derived fields.
func Derive(t owid.Table) owid.Table {
	out := make(owid.Table, len(t))
	copy(out, t)
	for i := range out {
		rec := &out[i]

		denom := rec.TotalCases
		if denom == 0 {
			denom = 1
		}
		rec.DeathRate = rec.TotalDeaths / denom

		if rec.Population == 0 {
			rec.VaccinationPercentage = 0
			rec.FullVaccinationPercentage = 0
		} else {
			rec.VaccinationPercentage = rec.PeopleVaccinated / rec.Population * 100
			rec.FullVaccinationPercentage = rec.PeopleFullyVaccinated / rec.Population * 100
		}
	}
	return out
}

// LatestSnapshot returns one record per location: the one with the maximum
// date. When a location has several records on its maximum date, the last
// one in table order wins. The result is ordered by location ascending.
func LatestSnapshot(t owid.Table) owid.Table {
	latest := make(map[string]owid.Record, 16)
	for i := range t {
		rec := t[i]
		cur, ok := latest[rec.Location]
		if !ok || !rec.Date.Before(cur.Date) {
			latest[rec.Location] = rec
		}
	}
	out := make(owid.Table, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// RollingMean computes a trailing fixed-size window mean: out[i] is NaN until
// a full window is available (i < window-1), then the mean of
// values[i-window+1..i]. A NaN inside the window makes that output NaN.
// Returns nil when window < 1.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}
