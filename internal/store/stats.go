package store

import (
	"github.com/shopspring/decimal"
)

// averagePlaces is the number of decimal places kept in [Statistics.Average].
const averagePlaces = 2

// ComputeStatistics returns the average and median of numbers.
//
// An empty input yields the zero [Statistics]. The average is the exact
// quotient of sum and count rounded half-to-even (banker's rounding), so
// 2.125 becomes 2.12 and 2.135 becomes 2.14. The median is not rounded.
func ComputeStatistics(numbers []int32) Statistics {
	if len(numbers) == 0 {
		return Statistics{}
	}

	return Statistics{
		Average: roundedAverage(numbers),
		Median:  median(QuickSort(numbers, Ascending)),
	}
}

// roundedAverage divides in decimal arithmetic before rounding so that ties
// are detected on the true quotient rather than its binary approximation.
func roundedAverage(numbers []int32) float64 {
	var sum int64
	for _, n := range numbers {
		sum += int64(n)
	}
	avg := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(numbers)))).
		RoundBank(averagePlaces)
	f, _ := avg.Float64()
	return f
}

// median expects an ascending, non-empty slice.
func median(sorted []int32) float64 {
	n := len(sorted)
	if n%2 == 0 {
		// float addition avoids overflow on large neighbours
		return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
	}
	return float64(sorted[n/2])
}
