package prefilter

// Tracker drives a prefilter through one search and monitors how much it
// skips.
//
// A prefilter pays for itself only when candidates are sparse. When a literal
// occurs almost everywhere (a common letter in prose, say), every candidate
// costs a Find call on top of the automaton attempt. The tracker measures
// the density of candidates over the positions scanned and, past a warmup
// period, retires the prefilter when the density exceeds MaxDensity: from
// then on every position is a candidate.
//
// Next has the signature of the candidate function taken by
// nfa.Backtracker.Search.
//
// Example usage:
//
//	pf := prefilter.NewBuilder(prefixes).Build()
//	tracker := prefilter.NewTracker(func(pos int) int { return pf.Find(haystack, pos) })
//	caps, err := backtracker.Search(state, nfa.Bytes(haystack), 0, tracker.Next)
type Tracker struct {
	find func(start int) int

	candidates uint64 // candidates reported
	scanned    uint64 // positions covered by the scans that produced them

	checkInterval  uint64
	maxDensity     float64
	warmupPeriod   uint64
	lastCheckpoint uint64

	active bool
}

// TrackerConfig holds configuration for the effectiveness tracker.
type TrackerConfig struct {
	// CheckInterval is how often to check effectiveness (in candidates).
	// Default: 64
	CheckInterval uint64

	// MaxDensity is the largest acceptable ratio of candidates to positions
	// scanned. Above it the prefilter is retired.
	// Default: 0.5
	MaxDensity float64

	// WarmupPeriod is the minimum number of candidates before checking
	// effectiveness.
	// Default: 128
	WarmupPeriod uint64
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		CheckInterval: 64,
		MaxDensity:    0.5,
		WarmupPeriod:  128,
	}
}

// NewTracker creates a new tracker for the given candidate function with
// default config. Returns nil if find is nil.
func NewTracker(find func(start int) int) *Tracker {
	return NewTrackerWithConfig(find, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a new tracker with custom configuration.
// Returns nil if find is nil.
func NewTrackerWithConfig(find func(start int) int, config TrackerConfig) *Tracker {
	if find == nil {
		return nil
	}
	return &Tracker{
		find:          find,
		checkInterval: config.CheckInterval,
		maxDensity:    config.MaxDensity,
		warmupPeriod:  config.WarmupPeriod,
		active:        true,
	}
}

// Next returns the next candidate at or after pos, or -1 when there is none.
// Once the prefilter is retired, Next returns pos itself.
func (t *Tracker) Next(pos int) int {
	if !t.active {
		return pos
	}
	c := t.find(pos)
	if c >= 0 {
		t.candidates++
		t.scanned += uint64(c-pos) + 1
		t.checkEffectiveness()
	}
	return c
}

// IsActive returns true if the prefilter is still being used.
func (t *Tracker) IsActive() bool {
	return t.active
}

// Stats returns the candidates reported so far, the positions their scans
// covered and whether the prefilter is still active.
func (t *Tracker) Stats() (candidates, scanned uint64, active bool) {
	return t.candidates, t.scanned, t.active
}

// Reset clears statistics and re-enables the prefilter.
func (t *Tracker) Reset() {
	t.candidates = 0
	t.scanned = 0
	t.lastCheckpoint = 0
	t.active = true
}

// checkEffectiveness retires the prefilter when candidates are too dense.
// Called after each candidate; the check itself runs at CheckInterval.
func (t *Tracker) checkEffectiveness() {
	if t.candidates < t.warmupPeriod {
		return
	}
	if t.candidates-t.lastCheckpoint < t.checkInterval {
		return
	}
	t.lastCheckpoint = t.candidates

	density := float64(t.candidates) / float64(t.scanned)
	if density > t.maxDensity {
		t.active = false
	}
}
