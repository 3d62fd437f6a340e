package main

import (
	"fmt"
	"math"
	"os"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"github.com/EngBaraka/covid19-insights/internal/owid"
	"github.com/EngBaraka/covid19-insights/internal/pipeline"
)

// printSnapshot renders the latest-snapshot table to stdout.
func printSnapshot(res *pipeline.Result) {
	fmt.Printf("\nLatest snapshot (%s to %s, %d rows cleaned):\n",
		res.FirstDate.Format(owid.DateLayout),
		res.LastDate.Format(owid.DateLayout),
		res.Rows)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Location", "Date",
		"Total\nCases", "Total\nDeaths",
		"Death\nRate", "Fully\nVaccinated",
	})

	for _, rec := range res.Snapshot {
		table.Append([]string{
			rec.Location,
			rec.Date.Format(owid.DateLayout),
			formatCell(rec.TotalCases, "%.0f"),
			formatCell(rec.TotalDeaths, "%.0f"),
			formatCell(rec.DeathRate*100, "%.2f%%"),
			formatCell(rec.FullVaccinationPercentage, "%.1f%%"),
		})
	}
	table.Render()
}

// printMetricStats renders min/max/mean/median per headline metric across
// the snapshot.
func printMetricStats(snapshot owid.Table) {
	metrics := []struct {
		name   string
		format string
		value  func(owid.Record) float64
	}{
		{"Total Cases", "%.0f", func(r owid.Record) float64 { return r.TotalCases }},
		{"Total Deaths", "%.0f", func(r owid.Record) float64 { return r.TotalDeaths }},
		{"Death Rate (%)", "%.2f", func(r owid.Record) float64 { return r.DeathRate * 100 }},
		{"Fully Vaccinated (%)", "%.1f", func(r owid.Record) float64 { return r.FullVaccinationPercentage }},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Metric", "Min", "Max", "Mean", "Median"})

	for _, m := range metrics {
		vals := make(stats.Float64Data, 0, len(snapshot))
		for _, rec := range snapshot {
			if v := m.value(rec); !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		table.Append(metricRow(m.name, m.format, vals))
	}
	table.Render()
}

// metricRow computes one stats row; with no usable values every cell reads
// n/a.
func metricRow(name, format string, vals stats.Float64Data) []string {
	if len(vals) == 0 {
		return []string{name, "n/a", "n/a", "n/a", "n/a"}
	}
	min, _ := stats.Min(vals)
	max, _ := stats.Max(vals)
	mean, _ := stats.Mean(vals)
	median, _ := stats.Median(vals)
	return []string{
		name,
		fmt.Sprintf(format, min),
		fmt.Sprintf(format, max),
		fmt.Sprintf(format, mean),
		fmt.Sprintf(format, median),
	}
}

func formatCell(v float64, format string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}
