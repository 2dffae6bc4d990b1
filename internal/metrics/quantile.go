package metrics

import (
	"slices"
	"time"
)

// p95Partitions and p95Cut select the 95th percentile as the boundary after the
// 19th of 20 equal-width quantile partitions.
const (
	p95Partitions = 20
	p95Cut        = 19
)

// Median returns the median of samples. For an even count it is the mean of the
// two middle samples. ok is false when samples is empty.
func Median(samples []time.Duration) (median time.Duration, ok bool) {
	if len(samples) == 0 {
		return 0, false
	}
	sorted := sortedCopy(samples)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// P95 returns the 95th percentile of samples using the exclusive quantile
// method over 20 partitions. ok is false when fewer than 20 samples exist.
func P95(samples []time.Duration) (p95 time.Duration, ok bool) {
	if len(samples) < p95Partitions {
		return 0, false
	}
	return quantileExclusive(sortedCopy(samples), p95Partitions, p95Cut), true
}

// quantileExclusive returns the i-th cut point (1-based) dividing sorted into
// n partitions, using the (len+1) positioning of the exclusive method with
// linear interpolation between neighbouring samples. It requires
// len(sorted) >= n so that both neighbours exist.
func quantileExclusive(sorted []time.Duration, n, i int) time.Duration {
	m := len(sorted) + 1
	j := i * m / n
	delta := i*m - j*n
	if j < 1 {
		return sorted[0]
	}
	if j >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	lo := float64(sorted[j-1])
	hi := float64(sorted[j])
	return time.Duration((lo*float64(n-delta) + hi*float64(delta)) / float64(n))
}

func sortedCopy(samples []time.Duration) []time.Duration {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted
}
