// Package stats aggregates joined listings into per-neighborhood statistics.
package stats

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/model"
	"github.com/urbanlens/geoatlas/internal/spatial"
)

// FillPolicy controls the value given to neighborhoods with no listings.
type FillPolicy string

const (
	// FillMean assigns the mean of the other neighborhoods' medians.
	FillMean FillPolicy = "mean"
	// FillZero assigns zero.
	FillZero FillPolicy = "zero"
)

// Median returns the median of values: the middle element for odd counts, the
// mean of the two middle elements for even counts. The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Aggregate computes the median listing price per neighborhood from a join
// result. Every neighborhood gets a stat row; empty ones receive the fill
// value and are marked Filled. Output order follows the input neighborhoods.
func Aggregate(res *spatial.JoinResult, hoods []model.Neighborhood, policy FillPolicy) ([]model.NeighborhoodStat, error) {
	if res == nil {
		return nil, eris.New("stats: nil join result")
	}
	if policy != FillMean && policy != FillZero {
		return nil, eris.Errorf("stats: unknown fill policy %q", policy)
	}

	now := time.Now().UTC()
	out := make([]model.NeighborhoodStat, 0, len(hoods))

	var sum float64
	var computed int
	for i := range hoods {
		n := &hoods[i]
		contained := res.ByNeighborhood[n.ID]

		s := model.NeighborhoodStat{
			ID:             uuid.New().String(),
			NeighborhoodID: n.ID,
			Name:           n.Name,
			ListingCount:   len(contained),
			ComputedAt:     now,
		}
		if len(contained) > 0 {
			prices := make([]float64, 0, len(contained))
			for _, l := range contained {
				prices = append(prices, l.Price)
			}
			s.MedianPrice = Median(prices)
			sum += s.MedianPrice
			computed++
		} else {
			s.Filled = true
		}
		out = append(out, s)
	}

	// Second pass: resolve the fallback for empty neighborhoods.
	fill := 0.0
	if policy == FillMean && computed > 0 {
		fill = sum / float64(computed)
	}
	var filled int
	for i := range out {
		if out[i].Filled {
			out[i].MedianPrice = fill
			filled++
		}
	}

	zap.L().Info("aggregation complete",
		zap.Int("neighborhoods", len(out)),
		zap.Int("filled", filled),
		zap.String("fill_policy", string(policy)),
	)

	return out, nil
}

// QuantileBreaks returns k-1 interior break values splitting the stats'
// medians into k classes of roughly equal population. Duplicates are kept so
// callers can rely on len(breaks) == k-1.
func QuantileBreaks(stats []model.NeighborhoodStat, k int) []float64 {
	if k < 2 || len(stats) == 0 {
		return nil
	}
	values := make([]float64, 0, len(stats))
	for i := range stats {
		values = append(values, stats[i].MedianPrice)
	}
	sort.Float64s(values)

	breaks := make([]float64, 0, k-1)
	for i := 1; i < k; i++ {
		pos := float64(i) / float64(k) * float64(len(values)-1)
		lo := int(pos)
		frac := pos - float64(lo)
		v := values[lo]
		if lo+1 < len(values) {
			v += frac * (values[lo+1] - values[lo])
		}
		breaks = append(breaks, v)
	}
	return breaks
}

// ClassIndex returns the class for a value given interior breaks: values at
// or below a break fall into the lower class.
func ClassIndex(v float64, breaks []float64) int {
	for i, b := range breaks {
		if v <= b {
			return i
		}
	}
	return len(breaks)
}
