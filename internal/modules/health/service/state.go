package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	lastQuoteUnix atomic.Int64 // unix seconds
	signalsSeen   atomic.Int64
	signalsDone   atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchQuote(t time.Time) { s.lastQuoteUnix.Store(t.Unix()) }
func (s *State) LastQuote() time.Time {
	u := s.lastQuoteUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// Счётчики пайплайна: замечено сигналов / доведено до терминального исхода.
func (s *State) SignalSeen() { s.signalsSeen.Add(1) }
func (s *State) SignalDone() { s.signalsDone.Add(1) }

func (s *State) SignalsSeen() int64 { return s.signalsSeen.Load() }
func (s *State) SignalsDone() int64 { return s.signalsDone.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
