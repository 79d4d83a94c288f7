package issuecorrelation

import "sort"

// Stage is one matching pass. Key returns the correlation key of an item, or
// false when the item takes no part in the stage.
type Stage[T any] struct {
	Name string
	Key  func(T) (string, bool)
}

// Match pairs a new item with the known item it was correlated to, by index.
type Match struct {
	New   int
	Known int
	// Stage is the name of the stage that produced the match.
	Stage string
}

// Correlator pairs new items with known items. Every item takes part in at
// most one match: once matched in a stage it is excluded from later stages.
// Use NewCorrelator to create an instance and call Process() to compute
// matches. After processing, use Matches(), UnmatchedNew() and
// UnmatchedKnown() to inspect results.
type Correlator[T any] struct {
	NewItems   []T
	KnownItems []T
	Stages     []Stage[T]

	// internal indexes populated by Process()
	newToKnown map[int]int
	knownToNew map[int]int
	stageOf    map[int]string // new index -> stage name

	processed bool
}

// NewCorrelator constructs a Correlator over the provided items. The
// correlator is inert until Process() is called.
func NewCorrelator[T any](newItems, knownItems []T, stages ...Stage[T]) *Correlator[T] {
	return &Correlator[T]{
		NewItems:   newItems,
		KnownItems: knownItems,
		Stages:     stages,
	}
}

// Process runs the stages in order. Within a stage, items with equal keys are
// paired first-come first-served in input order on both sides, so equal
// items match positionally. Process is idempotent.
func (c *Correlator[T]) Process() {
	if c.processed {
		return
	}
	c.newToKnown = make(map[int]int)
	c.knownToNew = make(map[int]int)
	c.stageOf = make(map[int]string)

	for _, stage := range c.Stages {
		queues := make(map[string][]int)
		for ki, k := range c.KnownItems {
			if _, done := c.knownToNew[ki]; done {
				continue
			}
			if key, ok := stage.Key(k); ok {
				queues[key] = append(queues[key], ki)
			}
		}
		if len(queues) == 0 {
			continue
		}

		for ni, n := range c.NewItems {
			if _, done := c.newToKnown[ni]; done {
				continue
			}
			key, ok := stage.Key(n)
			if !ok || len(queues[key]) == 0 {
				continue
			}
			ki := queues[key][0]
			queues[key] = queues[key][1:]
			c.newToKnown[ni] = ki
			c.knownToNew[ki] = ni
			c.stageOf[ni] = stage.Name
		}
	}

	c.processed = true
}

// Matches returns every match ordered by new index. If Process() has not been
// run it will be invoked.
func (c *Correlator[T]) Matches() []Match {
	if !c.processed {
		c.Process()
	}

	out := make([]Match, 0, len(c.newToKnown))
	for ni, ki := range c.newToKnown {
		out = append(out, Match{New: ni, Known: ki, Stage: c.stageOf[ni]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].New < out[j].New })
	return out
}

// KnownFor returns the known index matched to new index ni.
func (c *Correlator[T]) KnownFor(ni int) (int, bool) {
	if !c.processed {
		c.Process()
	}
	ki, ok := c.newToKnown[ni]
	return ki, ok
}

// UnmatchedNew returns, in input order, the indexes of new items that were
// not correlated to any known item.
func (c *Correlator[T]) UnmatchedNew() []int {
	if !c.processed {
		c.Process()
	}

	var out []int
	for ni := range c.NewItems {
		if _, ok := c.newToKnown[ni]; !ok {
			out = append(out, ni)
		}
	}
	return out
}

// UnmatchedKnown returns, in input order, the indexes of known items that
// were not correlated to any new item.
func (c *Correlator[T]) UnmatchedKnown() []int {
	if !c.processed {
		c.Process()
	}

	var out []int
	for ki := range c.KnownItems {
		if _, ok := c.knownToNew[ki]; !ok {
			out = append(out, ki)
		}
	}
	return out
}
