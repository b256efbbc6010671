package charts

import (
	"math"
	"sort"
	"strconv"

	"riego/internal/modules/dashboard/types"
)

// ValueKey is the equality key for readings: values equal to two decimals
// are the same category. Negative zero collapses to zero.
func ValueKey(v float64) float64 {
	k := math.Round(v*100) / 100
	if k == 0 {
		return 0
	}
	return k
}

// FormatValue renders a category label in its shortest decimal form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(ValueKey(v), 'f', -1, 64)
}

type counter struct {
	order  []float64
	counts map[float64]int
}

func newCounter() *counter {
	return &counter{counts: make(map[float64]int)}
}

func (c *counter) add(v float64) {
	k := ValueKey(v)
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

func (c *counter) points(keys []float64) []types.Point {
	out := make([]types.Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Point{Label: FormatValue(k), Value: float64(c.counts[k])})
	}
	return out
}

// MostCommon returns up to n categories by descending count. Ties keep the
// order in which values were first seen.
func MostCommon(values []float64, n int) []types.Point {
	c := newCounter()
	for _, v := range values {
		c.add(v)
	}
	keys := append([]float64(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if n >= 0 && len(keys) > n {
		keys = keys[:n]
	}
	return c.points(keys)
}

// GroupCounts returns one point per distinct value in ascending value order.
func GroupCounts(values []float64) []types.Point {
	c := newCounter()
	for _, v := range values {
		c.add(v)
	}
	keys := append([]float64(nil), c.order...)
	sort.Float64s(keys)
	return c.points(keys)
}

// StackedCounts buckets rows by bucket label and splits each bucket by
// value. Buckets and segments both follow first-seen order; empty segments
// are omitted.
func StackedCounts(buckets []string, values []float64) []types.Stack {
	var bucketOrder []string
	byBucket := make(map[string]map[float64]int)
	valueOrder := newCounter()
	for i, b := range buckets {
		if _, ok := byBucket[b]; !ok {
			bucketOrder = append(bucketOrder, b)
			byBucket[b] = make(map[float64]int)
		}
		k := ValueKey(values[i])
		valueOrder.add(k)
		byBucket[b][k]++
	}

	out := make([]types.Stack, 0, len(bucketOrder))
	for _, b := range bucketOrder {
		stack := types.Stack{Label: b}
		for _, k := range valueOrder.order {
			if n := byBucket[b][k]; n > 0 {
				stack.Segments = append(stack.Segments, types.Point{Label: FormatValue(k), Value: float64(n)})
			}
		}
		out = append(out, stack)
	}
	return out
}
