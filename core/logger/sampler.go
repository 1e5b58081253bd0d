package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler admits numerator out of every denominator calls.
// A zero denominator admits nothing; 1/1 admits everything.
type ratioSampler struct {
	mu          sync.Mutex
	numerator   int
	denominator int
	counter     int
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	if numerator < 0 {
		numerator = 0
	}
	if denominator < 1 {
		denominator = 1
	}
	if numerator > denominator {
		numerator = denominator
	}
	return &ratioSampler{numerator: numerator, denominator: denominator}
}

// Set replaces the ratio at runtime.
func (s *ratioSampler) Set(numerator, denominator int) {
	if numerator < 0 {
		numerator = 0
	}
	if denominator < 1 {
		denominator = 1
	}
	if numerator > denominator {
		numerator = denominator
	}
	s.mu.Lock()
	s.numerator = numerator
	s.denominator = denominator
	s.counter = 0
	s.mu.Unlock()
}

// Allow reports whether the current call falls into the sampled window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.numerator <= 0 {
		return false
	}
	if s.numerator >= s.denominator {
		return true
	}
	allowed := s.counter < s.numerator
	s.counter++
	if s.counter >= s.denominator {
		s.counter = 0
	}
	return allowed
}

// parseRatioSpec parses "N/M" specs such as "1/10". A bare "1" means 1/1,
// a zero numerator disables sampling, and malformed specs yield (-1, -1).
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return -1, -1
	}
	parts := strings.SplitN(spec, "/", 2)
	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return -1, -1
	}
	den := 1
	if len(parts) == 2 {
		den, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return -1, -1
		}
	}
	if num < 0 || den < 1 {
		return -1, -1
	}
	if num == 0 {
		return 0, 0
	}
	return num, den
}
