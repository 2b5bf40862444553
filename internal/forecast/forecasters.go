package forecast

import "math/rand"

// Forecaster projects a dense daily series forward by horizon days. Every
// implementation must return exactly horizon non-negative values.
type Forecaster interface {
	Forecast(series []float64, horizon int) []float64
}

const (
	// smoothingAlpha is the fixed factor of the simple exponential smoother.
	smoothingAlpha = 0.3
	// noiseHalfWidth scales the uniform noise term of the differenced-mean
	// model: each step draws from [-noiseHalfWidth, +noiseHalfWidth] times
	// the standard deviation of the first differences.
	noiseHalfWidth = 0.5
)

// differencedMeanForecaster is a random-walk-with-drift heuristic, not a
// fitted ARIMA model. The drift is the mean of the first differences; a
// uniform noise term scaled by the differences' standard deviation is added
// at each step. The noise source is injected so runs are reproducible.
type differencedMeanForecaster struct {
	rng *rand.Rand
}

func (f *differencedMeanForecaster) Forecast(series []float64, horizon int) []float64 {
	predictions := make([]float64, horizon)
	if len(series) < 2 {
		return predictions
	}

	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i] - series[i-1]
	}

	drift := mean(diffs)
	sigma := stdDev(diffs)

	current := series[len(series)-1]
	for i := range predictions {
		noise := (f.rng.Float64() - 0.5) * 2 * noiseHalfWidth * sigma
		current += drift + noise
		if current < 0 {
			current = 0
		}
		predictions[i] = current
	}

	return predictions
}

// exponentialSmoothingForecaster applies simple (non-trend) exponential
// smoothing; the forecast is the final smoothed level repeated for every
// horizon day.
type exponentialSmoothingForecaster struct {
	alpha float64
}

func (f *exponentialSmoothingForecaster) Forecast(series []float64, horizon int) []float64 {
	predictions := make([]float64, horizon)
	if len(series) == 0 {
		return predictions
	}

	level := series[0]
	for _, v := range series[1:] {
		level = f.alpha*v + (1-f.alpha)*level
	}
	if level < 0 {
		level = 0
	}

	for i := range predictions {
		predictions[i] = level
	}

	return predictions
}

// linearRegressionForecaster fits value against day index by ordinary least
// squares and extrapolates, flooring at zero.
type linearRegressionForecaster struct{}

func (linearRegressionForecaster) Forecast(series []float64, horizon int) []float64 {
	predictions := make([]float64, horizon)
	n := float64(len(series))
	if n == 0 {
		return predictions
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	var slope, intercept float64
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
		intercept = (sumY - slope*sumX) / n
	} else {
		intercept = sumY / n
	}

	for i := range predictions {
		x := n + float64(i)
		v := slope*x + intercept
		if v < 0 {
			v = 0
		}
		predictions[i] = v
	}

	return predictions
}

// movingAverageForecast is the short-history fallback: the arithmetic mean
// of all observed values repeated for the whole horizon.
func movingAverageForecast(series []float64, horizon int) []float64 {
	predictions := make([]float64, horizon)
	avg := mean(series)
	if avg < 0 {
		avg = 0
	}
	for i := range predictions {
		predictions[i] = avg
	}
	return predictions
}
