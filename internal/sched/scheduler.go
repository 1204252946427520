// Package sched manages recurring batch-save jobs. Each job is a ticker
// goroutine; the scheduler only tracks bookkeeping and shutdown.
package sched

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one recurring save schedule.
type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IntervalMin int       `json:"interval_min"`
	Enabled     bool      `json:"enabled"`
	Created     time.Time `json:"created"`
}

// Scheduler runs named jobs at fixed minute intervals.
type Scheduler struct {
	// run is invoked with the job's label on every tick.
	run func(label string)

	mu   sync.Mutex
	jobs map[string]Job
	stop map[string]chan struct{}
}

// New returns a Scheduler dispatching to run.
func New(run func(label string)) *Scheduler {
	return &Scheduler{
		run:  run,
		jobs: make(map[string]Job),
		stop: make(map[string]chan struct{}),
	}
}

// Add registers and starts a new job. The label passed to the run callback
// is the lowercased, underscored job name.
func (s *Scheduler) Add(name string, intervalMin int) Job {
	if intervalMin < 1 {
		intervalMin = 1
	}
	job := Job{
		ID:          "save_" + uuid.NewString()[:8],
		Name:        name,
		IntervalMin: intervalMin,
		Enabled:     true,
		Created:     time.Now(),
	}
	done := make(chan struct{})

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.stop[job.ID] = done
	s.mu.Unlock()

	label := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	go func() {
		ticker := time.NewTicker(time.Duration(intervalMin) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(label)
			case <-done:
				return
			}
		}
	}()

	return job
}

// Remove stops and forgets a job. Unknown ids are a no-op.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done, ok := s.stop[id]; ok {
		close(done)
		delete(s.stop, id)
		delete(s.jobs, id)
	}
}

// Jobs lists all schedules, oldest first.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Shutdown stops every job.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, done := range s.stop {
		close(done)
		delete(s.stop, id)
	}
}
