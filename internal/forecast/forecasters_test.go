package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialSmoothingConstantSeries(t *testing.T) {
	f := &exponentialSmoothingForecaster{alpha: smoothingAlpha}

	predictions := f.Forecast([]float64{10, 10, 10, 10}, 5)
	require.Len(t, predictions, 5)
	for _, v := range predictions {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestExponentialSmoothingFlatHorizon(t *testing.T) {
	f := &exponentialSmoothingForecaster{alpha: smoothingAlpha}

	predictions := f.Forecast([]float64{1, 5, 3, 8, 2}, 7)
	require.Len(t, predictions, 7)
	for _, v := range predictions[1:] {
		assert.Equal(t, predictions[0], v)
	}
}

func TestLinearRegressionExtrapolatesTrend(t *testing.T) {
	// y = 2x + 1 over x = 0..4, so the next points are 11, 13, 15.
	series := []float64{1, 3, 5, 7, 9}

	predictions := linearRegressionForecaster{}.Forecast(series, 3)
	require.Len(t, predictions, 3)
	assert.InDelta(t, 11.0, predictions[0], 1e-9)
	assert.InDelta(t, 13.0, predictions[1], 1e-9)
	assert.InDelta(t, 15.0, predictions[2], 1e-9)
}

func TestLinearRegressionFloorsAtZero(t *testing.T) {
	// Steeply declining series extrapolates below zero without the floor.
	series := []float64{100, 80, 60, 40, 20}

	predictions := linearRegressionForecaster{}.Forecast(series, 10)
	for _, v := range predictions {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	assert.Equal(t, 0.0, predictions[9])
}

func TestLinearRegressionSinglePoint(t *testing.T) {
	predictions := linearRegressionForecaster{}.Forecast([]float64{4}, 3)
	require.Len(t, predictions, 3)
	for _, v := range predictions {
		assert.InDelta(t, 4.0, v, 1e-9)
	}
}

func TestDifferencedMeanNonNegative(t *testing.T) {
	f := &differencedMeanForecaster{rng: rand.New(rand.NewSource(42))}
	series := []float64{5, 0, 8, 1, 0, 3, 0, 0, 2, 9}

	predictions := f.Forecast(series, 60)
	require.Len(t, predictions, 60)
	for _, v := range predictions {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestDifferencedMeanReproducibleWithSeed(t *testing.T) {
	series := []float64{5, 7, 6, 9, 8, 11, 10}

	a := (&differencedMeanForecaster{rng: rand.New(rand.NewSource(7))}).Forecast(series, 14)
	b := (&differencedMeanForecaster{rng: rand.New(rand.NewSource(7))}).Forecast(series, 14)
	assert.Equal(t, a, b)
}

func TestDifferencedMeanShortSeries(t *testing.T) {
	f := &differencedMeanForecaster{rng: rand.New(rand.NewSource(1))}

	predictions := f.Forecast([]float64{3}, 4)
	assert.Equal(t, []float64{0, 0, 0, 0}, predictions)
}

func TestMovingAverageForecast(t *testing.T) {
	predictions := movingAverageForecast([]float64{2, 4, 6}, 3)
	assert.Equal(t, []float64{4, 4, 4}, predictions)
}

func TestMovingAverageForecastEmptySeries(t *testing.T) {
	predictions := movingAverageForecast(nil, 2)
	assert.Equal(t, []float64{0, 0}, predictions)
}
