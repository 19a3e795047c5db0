package service

import "sync"

const (
	MinYear     = -3000
	MaxYear     = 1911
	DefaultYear = -221
)

// YearService tracks the year being viewed. There is no year 0.
type YearService interface {
	Year() int
	// Set jumps to y. 0 becomes 1.
	Set(y int) (int, error)
	Forward() (int, error)
	Backward() (int, error)
	Bounds() (min, max int)
	// Subscribe delivers every new year.
	Subscribe(buffer int) (<-chan int, func())
}

type yearService struct {
	mu   sync.RWMutex
	year int
	bus  Broadcaster[int]
}

// NewYearService starts at DefaultYear.
func NewYearService() YearService {
	return &yearService{year: DefaultYear}
}

func (s *yearService) Year() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.year
}

func (s *yearService) Bounds() (int, int) { return MinYear, MaxYear }

func (s *yearService) Set(y int) (int, error) {
	if y < MinYear || y > MaxYear {
		return s.Year(), ErrYearOutOfRange
	}
	if y == 0 {
		y = 1
	}
	s.mu.Lock()
	changed := s.year != y
	s.year = y
	s.mu.Unlock()
	if changed {
		s.bus.Publish(y)
	}
	return y, nil
}

func (s *yearService) Forward() (int, error) {
	return s.step(1)
}

func (s *yearService) Backward() (int, error) {
	return s.step(-1)
}

func (s *yearService) step(delta int) (int, error) {
	s.mu.Lock()
	next := s.year + delta
	if next == 0 {
		next += delta
	}
	if next < MinYear || next > MaxYear {
		cur := s.year
		s.mu.Unlock()
		return cur, ErrYearOutOfRange
	}
	s.year = next
	s.mu.Unlock()
	s.bus.Publish(next)
	return next, nil
}

func (s *yearService) Subscribe(buffer int) (<-chan int, func()) {
	return s.bus.Subscribe(buffer)
}
