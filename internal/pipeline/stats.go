package pipeline

import (
	"math"
	"slices"
	"sync"
	"time"
)

// PhaseSnapshot summarizes the timings currently inside a PhaseStats window.
type PhaseSnapshot struct {
	Count  int     `json:"count"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

type timing struct {
	at      time.Time
	elapsed time.Duration
}

// PhaseStats keeps the timings of one pipeline phase observed during the
// last window.
type PhaseStats struct {
	mu      sync.Mutex
	window  time.Duration
	timings []timing // ordered by at
	now     func() time.Time
}

func NewPhaseStats(window time.Duration) *PhaseStats {
	if window <= 0 {
		window = time.Hour
	}
	return &PhaseStats{window: window, now: time.Now}
}

// Observe adds one timing. Negative durations count as zero.
func (p *PhaseStats) Observe(elapsed time.Duration) {
	elapsed = max(elapsed, 0)
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.expire(now)
	p.timings = append(p.timings, timing{at: now, elapsed: elapsed})
}

// Since observes the time elapsed since start.
func (p *PhaseStats) Since(start time.Time) {
	p.Observe(p.now().Sub(start))
}

func (p *PhaseStats) Snapshot() PhaseSnapshot {
	p.mu.Lock()
	p.expire(p.now())
	sorted := make([]time.Duration, len(p.timings))
	for i, t := range p.timings {
		sorted[i] = t.elapsed
	}
	p.mu.Unlock()

	if len(sorted) == 0 {
		return PhaseSnapshot{}
	}
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return PhaseSnapshot{
		Count:  len(sorted),
		MinMs:  ms(sorted[0]),
		MaxMs:  ms(sorted[len(sorted)-1]),
		MeanMs: ms(total) / float64(len(sorted)),
		P50Ms:  ms(quantile(sorted, 0.50)),
		P90Ms:  ms(quantile(sorted, 0.90)),
		P99Ms:  ms(quantile(sorted, 0.99)),
	}
}

// expire drops timings older than the window. Timings are appended in time
// order, so the expired ones form a prefix.
func (p *PhaseStats) expire(now time.Time) {
	cutoff := now.Add(-p.window)
	i, _ := slices.BinarySearchFunc(p.timings, cutoff, func(t timing, c time.Time) int {
		return t.at.Compare(c)
	})
	if i > 0 {
		p.timings = slices.Delete(p.timings, 0, i)
	}
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []time.Duration, q float64) time.Duration {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + time.Duration(math.Round(frac*float64(sorted[lo+1]-sorted[lo])))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Stats holds the per-phase windows of the pipeline.
type Stats struct {
	Fetch *PhaseStats
	Parse *PhaseStats
}

func NewStats(window time.Duration) *Stats {
	return &Stats{
		Fetch: NewPhaseStats(window),
		Parse: NewPhaseStats(window),
	}
}
