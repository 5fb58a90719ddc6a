package features

// BuildLabels marks every delay strictly above threshold minutes as 1.
func BuildLabels(diffs []float64, threshold float64) []int {
	labels := make([]int, len(diffs))
	for i, d := range diffs {
		if d > threshold {
			labels[i] = 1
		}
	}
	return labels
}
