package logger

import "sync/atomic"

// everyN passes the first call and then one of every n; n <= 1 passes all.
type everyN struct {
	n    atomic.Uint64
	seen atomic.Uint64
}

func (s *everyN) set(n int) {
	if n < 1 {
		n = 1
	}
	s.n.Store(uint64(n))
	s.seen.Store(0)
}

func (s *everyN) allow() bool {
	n := s.n.Load()
	if n <= 1 {
		return true
	}
	return (s.seen.Add(1)-1)%n == 0
}
