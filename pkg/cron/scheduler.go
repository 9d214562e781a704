// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cron runs named jobs on robfig/cron schedules. Specs carry a
// leading seconds field ("0 30 2 * * *" is 02:30:00 every day).
package cron

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/safe"
)

var ErrDuplicateJob = errors.New("cron job already registered")

// MetricsRecorder observes job runs.
type MetricsRecorder interface {
	RecordJobRun(jobName string, duration time.Duration, err error)
	UpdateNextRun(jobName string, nextRun time.Time)
	UpdateJobsCount(count int)
}

// JobFunc is a job that can fail. Failures are logged and recorded, never fatal.
type JobFunc func() error

// Entry describes one registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type OpOption func(*Scheduler)

func WithLocation(loc *time.Location) OpOption {
	return func(s *Scheduler) {
		s.location = loc
	}
}

func WithMetrics(m MetricsRecorder) OpOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	location *time.Location
	metrics  MetricsRecorder
	jobs     map[string]*namedJob
	running  bool
}

type namedJob struct {
	name     string
	spec     string
	schedule cron.Schedule
	fn       JobFunc
	s        *Scheduler
}

func (j *namedJob) Run() {
	start := time.Now()
	err := safe.Run(j.name, j.fn)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorw("cron job failed", "job", j.name, "duration", elapsed, "error", err)
	} else {
		log.Infow("cron job finished", "job", j.name, "duration", elapsed)
	}
	if m := j.s.metrics; m != nil {
		m.RecordJobRun(j.name, elapsed, err)
		m.UpdateNextRun(j.name, j.schedule.Next(time.Now().In(j.s.location)))
	}
}

func New(opts ...OpOption) *Scheduler {
	s := &Scheduler{location: time.Local, jobs: make(map[string]*namedJob)}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.NewWithLocation(s.location)
	return s
}

// AddFunc registers fn under name. Names are unique.
func (s *Scheduler) AddFunc(name, spec string, fn JobFunc) error {
	schedule, err := cron.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	job := &namedJob{name: name, spec: spec, schedule: schedule, fn: fn, s: s}
	s.jobs[name] = job
	s.cron.Schedule(schedule, job)

	if s.metrics != nil {
		s.metrics.UpdateJobsCount(len(s.jobs))
		s.metrics.UpdateNextRun(name, schedule.Next(time.Now().In(s.location)))
	}
	log.Infow("cron job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts scheduling. Jobs already running are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
}

// Entries lists registered jobs sorted by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	byJob := make(map[*namedJob]*cron.Entry)
	for _, e := range s.cron.Entries() {
		if j, ok := e.Job.(*namedJob); ok {
			byJob[j] = e
		}
	}
	entries := make([]Entry, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := Entry{Name: j.name, Spec: j.spec}
		if e, ok := byJob[j]; ok {
			entry.Next, entry.Prev = e.Next, e.Prev
		}
		if entry.Next.IsZero() {
			entry.Next = j.schedule.Next(time.Now().In(s.location))
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, k int) bool { return entries[i].Name < entries[k].Name })
	return entries
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cron job %q not found", name)
	}
	job.Run()
	return nil
}
