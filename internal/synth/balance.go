package synth

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// balancer keeps run-wide answer counts per question family and rejects
// answers that would make a family's distribution too skewed.
type balancer struct {
	cfg    Balance
	counts map[int]map[string]int
}

func newBalancer(cfg Balance) *balancer {
	return &balancer{cfg: cfg, counts: make(map[int]map[string]int)}
}

func (b *balancer) enabled() bool {
	return b.cfg.RunnerUpRatio > 0
}

// accept reports whether one more answer key may be emitted for family.
// domain lists the family's possible answers; observed answers outside it
// are counted too.
func (b *balancer) accept(family int, domain []string, key string) bool {
	if !b.enabled() {
		return true
	}
	counts := b.counts[family]
	current := float64(counts[key])

	values := b.values(family, domain, key)
	if len(values) >= 2 {
		runnerUp := values[len(values)-2]
		if current > b.cfg.RunnerUpRatio*runnerUp {
			return false
		}
	}

	if b.cfg.MedianRatio > 0 {
		median := stat.Quantile(0.5, stat.Empirical, values, nil)
		if current > b.cfg.MedianRatio*max(median, b.cfg.MedianFloor) {
			return false
		}
	}
	return true
}

func (b *balancer) record(family int, key string) {
	counts, ok := b.counts[family]
	if !ok {
		counts = make(map[string]int)
		b.counts[family] = counts
	}
	counts[key]++
}

// values returns the sorted counts over domain, observed answers and key.
func (b *balancer) values(family int, domain []string, key string) []float64 {
	counts := b.counts[family]
	keys := make(map[string]struct{}, len(domain)+len(counts)+1)
	for _, k := range domain {
		keys[k] = struct{}{}
	}
	for k := range counts {
		keys[k] = struct{}{}
	}
	keys[key] = struct{}{}

	values := make([]float64, 0, len(keys))
	for k := range keys {
		values = append(values, float64(counts[k]))
	}
	sort.Float64s(values)
	return values
}

// Counts returns a copy of the per-family answer counts.
func (b *balancer) Counts() map[int]map[string]int {
	out := make(map[int]map[string]int, len(b.counts))
	for family, counts := range b.counts {
		c := make(map[string]int, len(counts))
		for k, v := range counts {
			c[k] = v
		}
		out[family] = c
	}
	return out
}
