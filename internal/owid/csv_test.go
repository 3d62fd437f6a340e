package owid

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleCSV mimics the upstream export: extra columns interleaved with the
// tracked ones, empty cells for values not yet reported.
const sampleCSV = `iso_code,continent,location,date,total_cases,new_cases,new_tests,total_deaths,new_deaths,total_vaccinations,people_vaccinated,people_fully_vaccinated,population
KEN,Africa,Kenya,2021-01-01,96458,599,,1670,2,,,,53771300
KEN,Africa,Kenya,2021-01-02,96678,220,1200,1685,15,,,,53771300
BRA,South America,Brazil,2021-01-01,7700578,24605,,195411,462,,,,212559409
`

func TestOWID_ParseCSV(t *testing.T) {
	t.Parallel()

	t.Run("parses_upstream_schema", func(t *testing.T) {
		t.Parallel()
		table, err := ParseCSV(strings.NewReader(sampleCSV))
		require.NoError(t, err)
		require.Len(t, table, 3)

		rec := table[0]
		assert.Equal(t, "KEN", rec.ISOCode)
		assert.Equal(t, "Kenya", rec.Location)
		assert.Equal(t, day(t, "2021-01-01"), rec.Date)
		assert.Equal(t, float64(96458), rec.TotalCases)
		assert.Equal(t, float64(599), rec.NewCases)
		assert.Equal(t, float64(1670), rec.TotalDeaths)
		assert.Equal(t, float64(53771300), rec.Population)
		assert.True(t, math.IsNaN(rec.TotalVaccinations))
		assert.True(t, math.IsNaN(rec.PeopleVaccinated))
		assert.True(t, math.IsNaN(rec.PeopleFullyVaccinated))
		assert.True(t, math.IsNaN(rec.DeathRate))
		assert.True(t, math.IsNaN(rec.VaccinationPercentage))
		assert.True(t, math.IsNaN(rec.FullVaccinationPercentage))

		// Row order is preserved.
		assert.Equal(t, []string{"Kenya", "Brazil"}, table.Locations())
	})

	t.Run("short_rows_read_as_missing", func(t *testing.T) {
		t.Parallel()
		in := "iso_code,location,date,total_cases,new_cases,total_deaths,new_deaths,total_vaccinations,people_vaccinated,people_fully_vaccinated,population\n" +
			"KEN,Kenya,2021-01-01,5\n"
		table, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, table, 1)
		assert.Equal(t, float64(5), table[0].TotalCases)
		assert.True(t, math.IsNaN(table[0].NewCases))
		assert.True(t, math.IsNaN(table[0].Population))
	})

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty_input",
			input:   "",
			wantErr: "empty csv input",
		},
		{
			name:    "missing_required_columns",
			input:   "iso_code,location,date,total_cases\nKEN,Kenya,2021-01-01,5\n",
			wantErr: "missing required columns",
		},
		{
			name: "bad_numeric_cell",
			input: "iso_code,location,date,total_cases,new_cases,total_deaths,new_deaths,total_vaccinations,people_vaccinated,people_fully_vaccinated,population\n" +
				"KEN,Kenya,2021-01-01,abc,,,,,,,\n",
			wantErr: "csv row 2",
		},
		{
			name: "bad_date_cell",
			input: "iso_code,location,date,total_cases,new_cases,total_deaths,new_deaths,total_vaccinations,people_vaccinated,people_fully_vaccinated,population\n" +
				"KEN,Kenya,01/02/2021,5,,,,,,,\n",
			wantErr: "parse date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOWID_WriteCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	table := Table{
		{
			ISOCode: "KEN", Location: "Kenya", Date: day(t, "2021-06-01"),
			TotalCases: 170000, NewCases: 120, TotalDeaths: 3300, NewDeaths: 10,
			TotalVaccinations: 1000000, PeopleVaccinated: 800000, PeopleFullyVaccinated: nan,
			Population: 53771300,
			DeathRate:  0.0194, VaccinationPercentage: 1.5, FullVaccinationPercentage: nan,
		},
		{
			ISOCode: "DEU", Location: "Germany", Date: day(t, "2021-06-01"),
			TotalCases: 3700000, NewCases: nan, TotalDeaths: 89000, NewDeaths: nan,
			TotalVaccinations: nan, PeopleVaccinated: nan, PeopleFullyVaccinated: nan,
			Population: 83783945,
			DeathRate:  nan, VaccinationPercentage: nan, FullVaccinationPercentage: nan,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	parsed, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(table, parsed, cmpopts.EquateNaNs()))
}

func TestOWID_WriteCSV_EmptyTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	// Header only.
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(buf.String()), "\n")+1)
	assert.Contains(t, buf.String(), "iso_code,location,date")
}
