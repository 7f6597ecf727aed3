package domain

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// AggregationMode selects how incomplete daily series are handled.
type AggregationMode int

const (
	// Lenient drops days with a missing metric and keeps whatever remains.
	Lenient AggregationMode = iota
	// Strict drops the same days, then requires every month of every
	// processed year to have its full calendar length.
	Strict
)

func (m AggregationMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseAggregationMode parses "strict" or "lenient".
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch strings.ToLower(s) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return 0, fmt.Errorf("unknown aggregation mode %q", s)
	}
}

// Aggregator folds daily observations into seasonal summaries.
type Aggregator struct {
	mode   AggregationMode
	logger *slog.Logger

	// OnDrop, if set, is called for every day dropped because of a gap.
	OnDrop func(day time.Time, metric string)
}

// NewAggregator creates an Aggregator in the given mode.
func NewAggregator(mode AggregationMode, logger *slog.Logger) *Aggregator {
	return &Aggregator{mode: mode, logger: logger}
}

// Mode returns the aggregation mode.
func (a *Aggregator) Mode() AggregationMode {
	return a.mode
}

// Aggregate summarizes both seasons. In strict mode every winter and summer
// month of every year present in series must be complete.
func (a *Aggregator) Aggregate(series []DailyObservation) (winter, summer SeasonalSummary, err error) {
	byYear, years := a.group(series)
	if a.mode == Strict {
		if err := validate(byYear, years, Winter, Summer); err != nil {
			return SeasonalSummary{}, SeasonalSummary{}, err
		}
	}
	if winter, err = summarize(byYear, years, Winter); err != nil {
		return SeasonalSummary{}, SeasonalSummary{}, err
	}
	if summer, err = summarize(byYear, years, Summer); err != nil {
		return SeasonalSummary{}, SeasonalSummary{}, err
	}
	return winter, summer, nil
}

// AggregateSeason summarizes a single season. In strict mode only that
// season's months are validated.
func (a *Aggregator) AggregateSeason(series []DailyObservation, season Season) (SeasonalSummary, error) {
	byYear, years := a.group(series)
	if a.mode == Strict {
		if err := validate(byYear, years, season); err != nil {
			return SeasonalSummary{}, err
		}
	}
	return summarize(byYear, years, season)
}

// daySummary is a complete observation converted to summary units.
type daySummary struct {
	tempMax, tempMin, tempMean             float64
	apparentMax, apparentMin, apparentMean float64
	wind                                   float64
	daylight, sunshine                     float64 // hours
	rain, snow, et                         float64 // mm
	precipitationHours                     float64
}

func convert(o DailyObservation) daySummary {
	return daySummary{
		tempMax:            *o.TemperatureMax,
		tempMin:            *o.TemperatureMin,
		tempMean:           *o.TemperatureMean,
		apparentMax:        *o.ApparentTemperatureMax,
		apparentMin:        *o.ApparentTemperatureMin,
		apparentMean:       *o.ApparentTemperatureMean,
		wind:               *o.WindSpeedMax,
		daylight:           *o.DaylightDuration / 3600,
		sunshine:           *o.SunshineDuration / 3600,
		rain:               *o.RainSum,
		snow:               *o.SnowfallSum * 10,
		et:                 *o.Evapotranspiration,
		precipitationHours: *o.PrecipitationHours,
	}
}

type yearMonths map[time.Month][]daySummary

// group drops incomplete days and buckets the rest by year and season month.
// Every year seen in series is returned, even if all its days were dropped.
func (a *Aggregator) group(series []DailyObservation) (map[int]yearMonths, []int) {
	byYear := make(map[int]yearMonths)
	for _, o := range series {
		year := o.Date.Year()
		if _, ok := byYear[year]; !ok {
			byYear[year] = make(yearMonths)
		}
		if _, ok := seasonOf(o.Date.Month()); !ok {
			continue
		}
		if missing := o.MissingMetric(); missing != "" {
			a.drop(o.Date, missing)
			continue
		}
		byYear[year][o.Date.Month()] = append(byYear[year][o.Date.Month()], convert(o))
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)
	return byYear, years
}

func (a *Aggregator) drop(day time.Time, metric string) {
	if a.mode == Lenient {
		a.logger.Warn("missing weather metric, skipping day", "date", day.Format(time.DateOnly), "metric", metric)
	} else {
		a.logger.Debug("missing weather metric", "date", day.Format(time.DateOnly), "metric", metric)
	}
	if a.OnDrop != nil {
		a.OnDrop(day, metric)
	}
}

func validate(byYear map[int]yearMonths, years []int, seasons ...Season) error {
	if len(years) == 0 {
		return &DataCompletenessError{Season: seasons[0]}
	}
	for _, year := range years {
		for _, season := range seasons {
			for _, month := range season.Months() {
				got := len(byYear[year][month])
				if !completeMonth(year, month, got) {
					return &DataCompletenessError{
						Season: season,
						Year:   year,
						Month:  month,
						Got:    got,
						Want:   expectedDays(month, year),
					}
				}
			}
		}
	}
	return nil
}

// summarize means daily metrics over every qualifying day, and cumulative
// metrics over per-year seasonal totals. Years without any qualifying day in
// the season do not contribute a zero total.
func summarize(byYear map[int]yearMonths, years []int, season Season) (SeasonalSummary, error) {
	var (
		sum        daySummary
		days       int
		rainTotals []float64
		snowTotals []float64
		etTotals   []float64
	)
	for _, year := range years {
		var rain, snow, et float64
		n := 0
		for _, month := range season.Months() {
			for _, d := range byYear[year][month] {
				sum.tempMax += d.tempMax
				sum.tempMin += d.tempMin
				sum.tempMean += d.tempMean
				sum.apparentMax += d.apparentMax
				sum.apparentMin += d.apparentMin
				sum.apparentMean += d.apparentMean
				sum.wind += d.wind
				sum.daylight += d.daylight
				sum.sunshine += d.sunshine
				sum.precipitationHours += d.precipitationHours
				rain += d.rain
				snow += d.snow
				et += d.et
				n++
			}
		}
		if n == 0 {
			continue
		}
		days += n
		rainTotals = append(rainTotals, rain)
		snowTotals = append(snowTotals, snow)
		etTotals = append(etTotals, et)
	}

	if days == 0 {
		return SeasonalSummary{}, &DataCompletenessError{Season: season}
	}

	n := float64(days)
	return SeasonalSummary{
		Season:                  season,
		Years:                   len(rainTotals),
		Days:                    days,
		TemperatureMax:          sum.tempMax / n,
		TemperatureMin:          sum.tempMin / n,
		TemperatureMean:         sum.tempMean / n,
		ApparentTemperatureMax:  sum.apparentMax / n,
		ApparentTemperatureMin:  sum.apparentMin / n,
		ApparentTemperatureMean: sum.apparentMean / n,
		WindSpeedMax:            sum.wind / n,
		DaylightHours:           sum.daylight / n,
		SunshineHours:           sum.sunshine / n,
		Rainfall:                mean(rainTotals),
		Snowfall:                mean(snowTotals),
		PrecipitationHours:      sum.precipitationHours / n,
		Evapotranspiration:      mean(etTotals),
	}, nil
}

// AverageSummaries returns the field-wise mean of summaries, all of the same
// season. Years and Days are summed.
func AverageSummaries(summaries []SeasonalSummary) (SeasonalSummary, error) {
	if len(summaries) == 0 {
		return SeasonalSummary{}, fmt.Errorf("average summaries: no summary to average")
	}
	out := SeasonalSummary{Season: summaries[0].Season}
	for _, s := range summaries {
		if s.Season != out.Season {
			return SeasonalSummary{}, fmt.Errorf("average summaries: mixed seasons %s and %s", out.Season, s.Season)
		}
		out.Years += s.Years
		out.Days += s.Days
		out.TemperatureMax += s.TemperatureMax
		out.TemperatureMin += s.TemperatureMin
		out.TemperatureMean += s.TemperatureMean
		out.ApparentTemperatureMax += s.ApparentTemperatureMax
		out.ApparentTemperatureMin += s.ApparentTemperatureMin
		out.ApparentTemperatureMean += s.ApparentTemperatureMean
		out.WindSpeedMax += s.WindSpeedMax
		out.DaylightHours += s.DaylightHours
		out.SunshineHours += s.SunshineHours
		out.Rainfall += s.Rainfall
		out.Snowfall += s.Snowfall
		out.PrecipitationHours += s.PrecipitationHours
		out.Evapotranspiration += s.Evapotranspiration
	}
	n := float64(len(summaries))
	out.TemperatureMax /= n
	out.TemperatureMin /= n
	out.TemperatureMean /= n
	out.ApparentTemperatureMax /= n
	out.ApparentTemperatureMin /= n
	out.ApparentTemperatureMean /= n
	out.WindSpeedMax /= n
	out.DaylightHours /= n
	out.SunshineHours /= n
	out.Rainfall /= n
	out.Snowfall /= n
	out.PrecipitationHours /= n
	out.Evapotranspiration /= n
	return out, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
