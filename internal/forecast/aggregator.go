package forecast

import (
	"time"

	"github.com/truthsource/insight-service/internal/domain"
)

// DailySeries collapses raw order lines into one value per calendar day,
// from the first to the last observed day inclusive. Days without sales are
// filled with zero so downstream models see a contiguous series.
func DailySeries(lines []domain.OrderLine) []float64 {
	if len(lines) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(lines))
	var first, last time.Time
	for i, line := range lines {
		day := truncateToDay(line.CreatedAt)
		byDay[day] += line.Quantity
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	days := int(last.Sub(first).Hours()/24) + 1
	series := make([]float64, 0, days)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, byDay[day])
	}

	return series
}

// DailySeriesPoints is DailySeries with the calendar dates attached.
func DailySeriesPoints(lines []domain.OrderLine) []domain.TimeSeriesPoint {
	if len(lines) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(lines))
	var first, last time.Time
	for i, line := range lines {
		day := truncateToDay(line.CreatedAt)
		byDay[day] += line.Quantity
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	var points []domain.TimeSeriesPoint
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		points = append(points, domain.TimeSeriesPoint{Date: day, Value: byDay[day]})
	}

	return points
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
