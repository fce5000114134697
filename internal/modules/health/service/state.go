package service

import (
	"sync"
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastCycleUnix atomic.Int64 // unix seconds
	tracked       atomic.Int64

	mu      sync.Mutex
	lastErr string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// ObserveCycle: итог цикла трекера. Готовность выставляется после первого успешного цикла
// и дальше не сбрасывается: ошибки цикла видны в LastError.
func (s *State) ObserveCycle(at time.Time, tracked int, err error) {
	s.lastCycleUnix.Store(at.Unix())
	s.tracked.Store(int64(tracked))

	s.mu.Lock()
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err == nil {
		s.ready.Store(true)
	}
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Tracked() int { return int(s.tracked.Load()) }

func (s *State) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
