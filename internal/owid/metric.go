package owid

import "errors"

// ErrUnknownMetric is returned when a metric name does not match a tracked
// dataset column.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names a tracked dataset column. Tracked metrics are the columns that
// cleaning forward-fills; derived fields are not metrics.
type Metric string

const (
	MetricTotalCases            Metric = "total_cases"
	MetricNewCases              Metric = "new_cases"
	MetricTotalDeaths           Metric = "total_deaths"
	MetricNewDeaths             Metric = "new_deaths"
	MetricTotalVaccinations     Metric = "total_vaccinations"
	MetricPeopleVaccinated      Metric = "people_vaccinated"
	MetricPeopleFullyVaccinated Metric = "people_fully_vaccinated"
	MetricPopulation            Metric = "population"
)

// TrackedMetrics lists every tracked metric in canonical column order.
var TrackedMetrics = []Metric{
	MetricTotalCases,
	MetricNewCases,
	MetricTotalDeaths,
	MetricNewDeaths,
	MetricTotalVaccinations,
	MetricPeopleVaccinated,
	MetricPeopleFullyVaccinated,
	MetricPopulation,
}

// Value returns the record's value for the given metric, NaN included.
func (r *Record) Value(m Metric) (float64, error) {
	switch m {
	case MetricTotalCases:
		return r.TotalCases, nil
	case MetricNewCases:
		return r.NewCases, nil
	case MetricTotalDeaths:
		return r.TotalDeaths, nil
	case MetricNewDeaths:
		return r.NewDeaths, nil
	case MetricTotalVaccinations:
		return r.TotalVaccinations, nil
	case MetricPeopleVaccinated:
		return r.PeopleVaccinated, nil
	case MetricPeopleFullyVaccinated:
		return r.PeopleFullyVaccinated, nil
	case MetricPopulation:
		return r.Population, nil
	}
	return 0, ErrUnknownMetric
}

// SetValue sets the record's value for the given metric.
func (r *Record) SetValue(m Metric, v float64) error {
	switch m {
	case MetricTotalCases:
		r.TotalCases = v
	case MetricNewCases:
		r.NewCases = v
	case MetricTotalDeaths:
		r.TotalDeaths = v
	case MetricNewDeaths:
		r.NewDeaths = v
	case MetricTotalVaccinations:
		r.TotalVaccinations = v
	case MetricPeopleVaccinated:
		r.PeopleVaccinated = v
	case MetricPeopleFullyVaccinated:
		r.PeopleFullyVaccinated = v
	case MetricPopulation:
		r.Population = v
	default:
		return ErrUnknownMetric
	}
	return nil
}
