package gbm

import (
	"slices"
	"sort"
)

// stats accumulates first and second order gradients over a set of rows.
type stats struct {
	g, h float64
	n    int
}

func (s *stats) add(o stats) {
	s.g += o.g
	s.h += o.h
	s.n += o.n
}

func (s stats) sub(o stats) stats {
	return stats{g: s.g - o.g, h: s.h - o.h, n: s.n - o.n}
}

// score is the loss reduction a leaf with these sums contributes.
func (s stats) score(lambda float64) float64 {
	return s.g * s.g / (s.h + lambda)
}

type histogram []stats

func buildHistogram(bins []uint16, numBins int, rows []int, grad, hess []float64) histogram {
	hist := make(histogram, numBins+1)
	for _, r := range rows {
		b := &hist[bins[r]]
		b.g += grad[r]
		b.h += hess[r]
		b.n++
	}
	return hist
}

// split describes the best partition found for a leaf. feature is -1 when
// no acceptable split exists.
type split struct {
	feature      int
	gain         float64
	categorical  bool
	thresholdBin int
	threshold    float64
	categories   []int
	defaultLeft  bool
}

func (s split) valid() bool { return s.feature >= 0 }

func noSplit(p Params) split {
	return split{feature: -1, gain: p.MinGainToSplit}
}

type splitFinder struct {
	p Params
}

func (f splitFinder) acceptable(l, r stats) bool {
	return l.n >= f.p.MinDataInLeaf && r.n >= f.p.MinDataInLeaf &&
		l.h >= f.p.MinSumHessian && r.h >= f.p.MinSumHessian
}

// numeric scans thresholds left to right, trying missing values on each side.
func (f splitFinder) numeric(feature int, hist histogram, m binMapper, total stats) split {
	best := noSplit(f.p)
	nb := m.numBins
	miss := hist[nb]
	parent := total.score(f.p.Lambda)

	directions := []bool{false}
	if miss.n > 0 {
		directions = append(directions, true)
	}

	for _, missLeft := range directions {
		var acc stats
		for t := 0; t < nb-1; t++ {
			acc.add(hist[t])
			l := acc
			if missLeft {
				l.add(miss)
			}
			r := total.sub(l)
			if !f.acceptable(l, r) {
				continue
			}
			gain := l.score(f.p.Lambda) + r.score(f.p.Lambda) - parent
			if gain > best.gain {
				best = split{
					feature:      feature,
					gain:         gain,
					thresholdBin: t,
					threshold:    m.bounds[t],
					defaultLeft:  missLeft,
				}
			}
		}
	}
	return best
}

// categorical finds a category subset to send left. Missing and unseen
// categories always go right.
func (f splitFinder) categorical(feature int, hist histogram, m binMapper, total stats) split {
	best := noSplit(f.p)

	used := make([]int, 0, m.numBins)
	for c := 0; c < m.numBins; c++ {
		if hist[c].n > 0 {
			used = append(used, c)
		}
	}
	if len(used) == 0 {
		return best
	}

	if m.numBins <= f.p.MaxCatToOneHot {
		parent := total.score(f.p.Lambda)
		for _, c := range used {
			l := hist[c]
			r := total.sub(l)
			if !f.acceptable(l, r) {
				continue
			}
			gain := l.score(f.p.Lambda) + r.score(f.p.Lambda) - parent
			if gain > best.gain {
				best = split{feature: feature, gain: gain, categorical: true, categories: []int{c}}
			}
		}
		return best
	}

	// Order categories by smoothed mean gradient and scan prefixes from both
	// ends of the ordering.
	lambda := f.p.Lambda + f.p.CatL2
	ratio := func(c int) float64 { return hist[c].g / (hist[c].h + f.p.CatSmooth) }
	sort.SliceStable(used, func(i, j int) bool { return ratio(used[i]) < ratio(used[j]) })

	maxNum := min(f.p.MaxCatThreshold, (len(used)+1)/2)
	parent := total.score(lambda)
	minGroup := max(f.p.MinDataInLeaf, f.p.MinDataPerGroup)

	for _, reverse := range []bool{false, true} {
		var acc stats
		for i := 0; i < maxNum; i++ {
			idx := i
			if reverse {
				idx = len(used) - 1 - i
			}
			acc.add(hist[used[idx]])
			r := total.sub(acc)
			if acc.n < minGroup || acc.h < f.p.MinSumHessian {
				continue
			}
			if r.n < minGroup || r.h < f.p.MinSumHessian {
				break
			}
			gain := acc.score(lambda) + r.score(lambda) - parent
			if gain <= best.gain {
				continue
			}
			var cats []int
			if reverse {
				cats = slices.Clone(used[len(used)-1-i:])
			} else {
				cats = slices.Clone(used[:i+1])
			}
			slices.Sort(cats)
			best = split{feature: feature, gain: gain, categorical: true, categories: cats}
		}
	}
	return best
}
