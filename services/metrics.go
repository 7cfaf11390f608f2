package services

import (
	"math"
	"sort"
	"strconv"

	"safety-compliance-api/models"
)

// trirNormalization is the OSHA full-time-equivalent constant:
// 100 employees x 2,000 hours/year.
const trirNormalization = 200000

// trirWindowYears is the rolling window over the most recent annual rows.
const trirWindowYears = 3

// ComputeTRIR returns the rolling 3-year Total Recordable Incident Rate for a
// set of annual rows, formatted to two decimal places. Input order does not
// matter; rows are sorted by year descending before the window is taken.
// Returns "0.00" when the window holds no man-hours.
func ComputeTRIR(stats []models.AnnualStat) string {
	sorted := make([]models.AnnualStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year > sorted[j].Year
	})

	if len(sorted) > trirWindowYears {
		sorted = sorted[:trirWindowYears]
	}

	var recordables, manhours int
	for _, row := range sorted {
		recordables += row.Recordables
		manhours += row.Manhours
	}

	if manhours <= 0 {
		return "0.00"
	}

	trir := float64(recordables) * trirNormalization / float64(manhours)
	return strconv.FormatFloat(math.Round(trir*100)/100, 'f', 2, 64)
}
