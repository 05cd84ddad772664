// Package delayed schedules commands (windup attacks, projectile travel
// time, channelled abilities) for resolution at a future tick. Due times
// are bucketed by tick index rather than kept in a heap: with a fixed
// 100ms cadence the number of distinct future ticks in flight is small,
// so a map of slices is both simpler and cheaper than heap upkeep.
package delayed

import "heroworld/pkg/entity"

// Job is one scheduled attack awaiting resolution. Only the original
// entity.Attack is stored; at resolve time the dispatcher looks both
// participants up again and skips the attack if either is gone. No
// INSIDE_TOWER or other positional condition is checked.
type Job struct {
	DueTick uint64
	Attack  entity.Attack
}

// Scheduler buckets jobs by the tick they resolve on.
type Scheduler struct {
	buckets map[uint64][]Job
}

// NewScheduler constructs an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{buckets: make(map[uint64][]Job)}
}

// Schedule enqueues a job to resolve at dueTick.
func (s *Scheduler) Schedule(dueTick uint64, a entity.Attack) {
	s.buckets[dueTick] = append(s.buckets[dueTick], Job{DueTick: dueTick, Attack: a})
}

// Due pops and returns every job scheduled for exactly currentTick. Jobs
// scheduled for a tick that has already passed (e.g. the scheduler fell
// behind) are not returned; DrainUpTo handles catch-up, and Due is for
// the common case of checking the current tick only.
func (s *Scheduler) Due(currentTick uint64) []Job {
	jobs := s.buckets[currentTick]
	delete(s.buckets, currentTick)
	return jobs
}

// DrainUpTo returns and removes every job due at or before currentTick,
// covering the case where the dispatcher skipped ticks (e.g. after a
// stall). Results are not ordered across ticks beyond bucket iteration.
func (s *Scheduler) DrainUpTo(currentTick uint64) []Job {
	var out []Job
	for tick, jobs := range s.buckets {
		if tick <= currentTick {
			out = append(out, jobs...)
			delete(s.buckets, tick)
		}
	}
	return out
}

// Pending reports how many jobs are still scheduled across all ticks.
func (s *Scheduler) Pending() int {
	n := 0
	for _, jobs := range s.buckets {
		n += len(jobs)
	}
	return n
}
