// Package insights condenses the latest snapshot into extremal and average
// statistics and renders them as a markdown report.
package insights

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

// Extreme pairs a location with the metric value that made it stand out.
type Extreme struct {
	Location string
	Value    float64
}

// Summary holds the statistics the report is built from. Extremes resolve
// ties in favor of the location that appears first in the snapshot, which is
// sorted by location name.
type Summary struct {
	// Date is the most recent date across the snapshot.
	Date      time.Time
	Locations int

	HighestTotalCases      Extreme
	LowestFullVaccination  Extreme
	HighestFullVaccination Extreme
	MeanFullVaccination    float64
	HighestDeathRate       Extreme
	LowestDeathRate        Extreme
}

// Summarize computes the report statistics from a latest snapshot. An empty
// snapshot yields ErrEmptySnapshot.
func Summarize(snapshot owid.Table) (*Summary, error) {
	if len(snapshot) == 0 {
		return nil, pipeline.ErrEmptySnapshot
	}

	s := &Summary{Locations: len(snapshot)}
	for _, rec := range snapshot {
		if rec.Date.After(s.Date) {
			s.Date = rec.Date
		}
	}

	totalCases := func(r owid.Record) float64 { return r.TotalCases }
	fullVax := func(r owid.Record) float64 { return r.FullVaccinationPercentage }
	deathRate := func(r owid.Record) float64 { return r.DeathRate }

	s.HighestTotalCases = maxBy(snapshot, totalCases)
	s.LowestFullVaccination = minBy(snapshot, fullVax)
	s.HighestFullVaccination = maxBy(snapshot, fullVax)
	s.HighestDeathRate = maxBy(snapshot, deathRate)
	s.LowestDeathRate = minBy(snapshot, deathRate)

	vals := make([]float64, 0, len(snapshot))
	for _, rec := range snapshot {
		if !math.IsNaN(rec.FullVaccinationPercentage) {
			vals = append(vals, rec.FullVaccinationPercentage)
		}
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		mean = math.NaN()
	}
	s.MeanFullVaccination = mean

	return s, nil
}

// maxBy scans for the strictly greatest value, skipping NaN entries. With no
// usable entries the result carries a NaN value and no location.
func maxBy(t owid.Table, value func(owid.Record) float64) Extreme {
	best := Extreme{Value: math.NaN()}
	for _, rec := range t {
		v := value(rec)
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(best.Value) || v > best.Value {
			best = Extreme{Location: rec.Location, Value: v}
		}
	}
	return best
}

func minBy(t owid.Table, value func(owid.Record) float64) Extreme {
	best := Extreme{Value: math.NaN()}
	for _, rec := range t {
		v := value(rec)
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(best.Value) || v < best.Value {
			best = Extreme{Location: rec.Location, Value: v}
		}
	}
	return best
}
