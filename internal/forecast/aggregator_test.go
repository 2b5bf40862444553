package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthsource/insight-service/internal/domain"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestDailySeriesEmpty(t *testing.T) {
	assert.Nil(t, DailySeries(nil))
	assert.Nil(t, DailySeries([]domain.OrderLine{}))
}

func TestDailySeriesZeroFillsGaps(t *testing.T) {
	lines := []domain.OrderLine{
		{Quantity: 5, CreatedAt: day(2026, time.March, 1)},
		{Quantity: 3, CreatedAt: day(2026, time.March, 5)},
	}

	series := DailySeries(lines)
	require.Len(t, series, 5)
	assert.Equal(t, []float64{5, 0, 0, 0, 3}, series)
}

func TestDailySeriesSumsSameDay(t *testing.T) {
	lines := []domain.OrderLine{
		{Quantity: 2, CreatedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)},
		{Quantity: 4, CreatedAt: time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC)},
	}

	series := DailySeries(lines)
	require.Len(t, series, 1)
	assert.Equal(t, 6.0, series[0])
}

func TestDailySeriesTruncatesInUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 02:00 on March 2 in UTC+9 is still March 1 in UTC.
	lines := []domain.OrderLine{
		{Quantity: 1, CreatedAt: time.Date(2026, time.March, 2, 2, 0, 0, 0, loc)},
		{Quantity: 1, CreatedAt: day(2026, time.March, 1)},
	}

	series := DailySeries(lines)
	require.Len(t, series, 1)
	assert.Equal(t, 2.0, series[0])
}

func TestDailySeriesLengthCoversRange(t *testing.T) {
	lines := []domain.OrderLine{
		{Quantity: 1, CreatedAt: day(2026, time.January, 1)},
		{Quantity: 1, CreatedAt: day(2026, time.January, 31)},
	}

	series := DailySeries(lines)
	assert.Len(t, series, 31)
}

func TestDailySeriesPointsCarryDates(t *testing.T) {
	lines := []domain.OrderLine{
		{Quantity: 2, CreatedAt: day(2026, time.March, 3)},
		{Quantity: 7, CreatedAt: day(2026, time.March, 1)},
	}

	points := DailySeriesPoints(lines)
	require.Len(t, points, 3)
	assert.Equal(t, day(2026, time.March, 1), points[0].Date)
	assert.Equal(t, 7.0, points[0].Value)
	assert.Equal(t, 0.0, points[1].Value)
	assert.Equal(t, day(2026, time.March, 3), points[2].Date)
	assert.Equal(t, 2.0, points[2].Value)
}
