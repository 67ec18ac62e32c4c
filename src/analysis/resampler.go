package analysis

import (
	"sort"

	"coin-dashboard/src/models"
)

// Window is a group of consecutive sample indices sharing a time bucket.
type Window struct {
	Indices   []int
	StartTime int64
	EndTime   int64
}

// TimeSeriesResampler groups timestamped samples into fixed-width buckets.
type TimeSeriesResampler struct{}

// -----------------------------------------------------------------------------

// ResampleIndices buckets sorted timestamps into windows of width, dropping
// empty buckets.
func (r *TimeSeriesResampler) ResampleIndices(timestamps []int64, width int64) []Window {
	if len(timestamps) == 0 || width <= 0 {
		return []Window{}
	}

	minTs := timestamps[0]
	maxTs := timestamps[len(timestamps)-1]

	var results []Window
	for start := minTs; start <= maxTs; start += width {
		end := start + width

		startIdx := SearchSorted(timestamps, start)
		endIdx := SearchSorted(timestamps, end)
		if startIdx >= endIdx {
			continue
		}

		indices := make([]int, endIdx-startIdx)
		for idx := startIdx; idx < endIdx; idx++ {
			indices[idx-startIdx] = idx
		}
		results = append(results, Window{Indices: indices, StartTime: start, EndTime: end})
	}
	return results
}

// -----------------------------------------------------------------------------

// Downsample reduces points to at most maxPoints by keeping the last sample
// of each time bucket. The first and last points always survive when
// maxPoints is at least 2; a single slot keeps only the latest point.
func (r *TimeSeriesResampler) Downsample(points []models.MChartPoint, maxPoints int) []models.MChartPoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return append([]models.MChartPoint(nil), points...)
	}

	sorted := append([]models.MChartPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	if maxPoints == 1 {
		return sorted[len(sorted)-1:]
	}

	timestamps := make([]int64, len(sorted))
	for i, p := range sorted {
		timestamps[i] = p.Timestamp
	}

	// One slot is reserved for the opening point
	buckets := int64(maxPoints - 1)
	span := timestamps[len(timestamps)-1] - timestamps[0]
	width := span/buckets + 1

	out := make([]models.MChartPoint, 0, maxPoints)
	out = append(out, sorted[0])
	for _, w := range r.ResampleIndices(timestamps, width) {
		last := w.Indices[len(w.Indices)-1]
		if last == 0 {
			continue
		}
		out = append(out, sorted[last])
	}
	return out
}

// -----------------------------------------------------------------------------

// SearchSorted returns the first index whose value is >= value.
func SearchSorted(arr []int64, value int64) int {
	return sort.Search(len(arr), func(i int) bool {
		return arr[i] >= value
	})
}
