package reduce

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// Sampler draws k distinct indices from [0, n). Injected so tests can pin
// the random source.
type Sampler interface {
	Sample(n, k int) []int
}

// randSampler draws without replacement using a partial Fisher-Yates
// shuffle over the index space.
type randSampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler seeded with seed; seed 0 means time-seeded.
func NewSampler(seed int64) Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randSampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSampler) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// SampleResult describes one stratified sampling pass.
type SampleResult struct {
	Records   []model.Contract
	Threshold float64
	Large     int
	Small     int
	Sampled   int
}

// StratifiedSample bounds a cleaned record set while over-representing
// high-value contracts: every record at or above the 80th-percentile value
// is kept, and an equal-sized random cross-section (capped at the small
// partition's size) is drawn from the rest.
//
// When every value is equal the small partition is empty and the full input
// is returned; that is a boundary condition, not an error. Records must be
// cleaned first: the value field is assumed non-nil.
func StratifiedSample(records []model.Contract, quantile float64, sampler Sampler) SampleResult {
	log := zap.L().With(zap.String("stage", "sample"))

	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = *rec.CurrentTotalValue
	}
	threshold := percentile(values, quantile)

	var large, small []model.Contract
	for _, rec := range records {
		if *rec.CurrentTotalValue >= threshold {
			large = append(large, rec)
		} else {
			small = append(small, rec)
		}
	}

	k := len(large)
	if k > len(small) {
		k = len(small)
	}

	out := make([]model.Contract, 0, len(large)+k)
	out = append(out, large...)
	for _, i := range sampler.Sample(len(small), k) {
		out = append(out, small[i])
	}

	log.Info("stratified sample drawn",
		zap.Float64("threshold", threshold),
		zap.Int("large", len(large)),
		zap.Int("small", len(small)),
		zap.Int("sampled", k),
		zap.Int("total", len(out)),
	)

	return SampleResult{
		Records:   out,
		Threshold: threshold,
		Large:     len(large),
		Small:     len(small),
		Sampled:   k,
	}
}

// percentile computes the q-th quantile of values with linear interpolation
// between order statistics. values must be non-empty; it is not modified.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
