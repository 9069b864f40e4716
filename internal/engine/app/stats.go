package app

import (
	"math"
	"time"
)

// SystemStats is the execution record of one registered system.
type SystemStats struct {
	Name           string
	Stage          Stage
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStats struct {
	name  string
	count int64
	min   time.Duration
	max   time.Duration
	last  time.Duration
	total time.Duration
}

func newSystemStats(name string) *systemStats {
	return &systemStats{name: name, min: time.Duration(math.MaxInt64)}
}

func (s *systemStats) record(d time.Duration) {
	s.count++
	s.last = d
	s.total += d
	if d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

// Stats returns per-system timings, startup systems first.
func (a *App) Stats() []SystemStats {
	var out []SystemStats
	for _, stage := range []Stage{StageStartup, StageUpdate} {
		for _, r := range a.stages[stage] {
			s := r.stats
			st := SystemStats{
				Name:           s.name,
				Stage:          stage,
				ExecutionCount: s.count,
				MaxDuration:    s.max,
				LastDuration:   s.last,
				TotalDuration:  s.total,
			}
			if s.count > 0 {
				st.MinDuration = s.min
				st.AvgDuration = s.total / time.Duration(s.count)
			}
			out = append(out, st)
		}
	}
	return out
}
