package forecast

import "github.com/truthsource/insight-service/internal/domain"

// MonthlyFactors computes a demand multiplier per calendar month: the mean
// quantity of that month's order lines divided by the overall mean. Months
// with no observations get a neutral 1.0. Empty input returns nil.
func MonthlyFactors(lines []domain.OrderLine) map[int]float64 {
	if len(lines) == 0 {
		return nil
	}

	var overallSum float64
	monthSums := make(map[int]float64, 12)
	monthCounts := make(map[int]int, 12)
	for _, line := range lines {
		month := int(line.CreatedAt.UTC().Month())
		monthSums[month] += line.Quantity
		monthCounts[month]++
		overallSum += line.Quantity
	}

	overallAvg := overallSum / float64(len(lines))

	factors := make(map[int]float64, 12)
	for month := 1; month <= 12; month++ {
		if count := monthCounts[month]; count > 0 && overallAvg > 0 {
			factors[month] = (monthSums[month] / float64(count)) / overallAvg
		} else {
			factors[month] = 1.0
		}
	}

	return factors
}
