package gbm

import (
	"math/rand/v2"
	"slices"
)

// leaf is a frontier node of the tree being grown.
type leaf struct {
	node  int
	rows  []int
	sum   stats
	depth int
	best  split
}

// grower builds one tree leaf-wise: it always splits the frontier leaf with
// the largest gain until NumLeaves is reached or nothing can be split.
type grower struct {
	p        Params
	data     *binnedData
	finder   splitFinder
	grad     []float64
	hess     []float64
	features []int
}

func (g *grower) newLeaf(node int, rows []int, depth int) *leaf {
	l := &leaf{node: node, rows: rows, depth: depth}
	for _, r := range rows {
		l.sum.add(stats{g: g.grad[r], h: g.hess[r], n: 1})
	}
	l.best = g.findBest(l)
	return l
}

func (g *grower) findBest(l *leaf) split {
	best := noSplit(g.p)
	if g.p.MaxDepth > 0 && l.depth >= g.p.MaxDepth {
		return best
	}
	if len(l.rows) < 2*g.p.MinDataInLeaf {
		return best
	}
	for _, f := range g.features {
		m := g.data.mappers[f]
		if m.numBins == 0 {
			continue
		}
		hist := buildHistogram(g.data.bins[f], m.numBins, l.rows, g.grad, g.hess)
		var s split
		if m.categorical {
			s = g.finder.categorical(f, hist, m, l.sum)
		} else {
			s = g.finder.numeric(f, hist, m, l.sum)
		}
		if s.valid() && s.gain > best.gain {
			best = s
		}
	}
	return best
}

func (g *grower) goesLeft(s split, row int) bool {
	b := g.data.bins[s.feature][row]
	m := g.data.mappers[s.feature]
	if b == m.missing() {
		return !s.categorical && s.defaultLeft
	}
	if s.categorical {
		_, found := slices.BinarySearch(s.categories, int(b))
		return found
	}
	return int(b) <= s.thresholdBin
}

func (g *grower) partition(l *leaf) (left, right []int) {
	for _, r := range l.rows {
		if g.goesLeft(l.best, r) {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

// grow builds a tree over rows. It reports false when the root cannot be
// split, which ends boosting.
func (g *grower) grow(rows []int) (Tree, []*leaf, bool) {
	tree := Tree{Nodes: []Node{{Leaf: true, Count: len(rows)}}}
	root := g.newLeaf(0, rows, 0)
	if !root.best.valid() {
		return Tree{}, nil, false
	}

	leaves := []*leaf{root}
	for len(leaves) < g.p.NumLeaves {
		pick := -1
		for i, l := range leaves {
			if !l.best.valid() {
				continue
			}
			if pick < 0 || l.best.gain > leaves[pick].best.gain {
				pick = i
			}
		}
		if pick < 0 {
			break
		}

		l := leaves[pick]
		leftRows, rightRows := g.partition(l)
		leftIdx := len(tree.Nodes)
		rightIdx := leftIdx + 1
		s := l.best
		tree.Nodes[l.node] = Node{
			Feature:     s.feature,
			Threshold:   s.threshold,
			Categories:  s.categories,
			Categorical: s.categorical,
			DefaultLeft: s.defaultLeft,
			Left:        leftIdx,
			Right:       rightIdx,
			Gain:        s.gain,
			Count:       len(l.rows),
		}
		tree.Nodes = append(tree.Nodes,
			Node{Leaf: true, Count: len(leftRows)},
			Node{Leaf: true, Count: len(rightRows)},
		)

		leaves[pick] = g.newLeaf(leftIdx, leftRows, l.depth+1)
		leaves = append(leaves, g.newLeaf(rightIdx, rightRows, l.depth+1))
	}

	for _, l := range leaves {
		tree.Nodes[l.node].Value = -l.sum.g / (l.sum.h + g.p.Lambda) * g.p.LearningRate
	}
	return tree, leaves, true
}

// sampleFeatures picks the columns a tree may split on.
func sampleFeatures(rng *rand.Rand, n int, fraction float64) []int {
	if fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := max(1, int(float64(n)*fraction+0.5))
	picked := rng.Perm(n)[:k]
	slices.Sort(picked)
	return picked
}
