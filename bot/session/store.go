// Package session keeps per-user dialog state in process memory.
// A process restart drops all in-flight sessions; that is explicitly fine.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/druk3d/servicebot/core/logger"
)

// Step names the current position of a user inside the dialog. The full
// ordered set lives in bot/flow; the store only cares about the zero value.
type Step string

// StepInitial is the step of a freshly created session.
const StepInitial Step = "initial"

// ErrMediaLimit is returned when the combined photo+video cap is reached.
var ErrMediaLimit = errors.New("session: media limit reached")

// ErrCompleted is returned on attempts to attach media after completion.
var ErrCompleted = errors.New("session: request already completed")

// Session holds everything the bot remembers about one user's dialog.
type Session struct {
	UserID    int64
	Step      Step
	Request   Request
	ErrStreak int
	TouchedAt time.Time
}

// Store is an in-memory session store guarded by a single RWMutex.
// It provides no cross-call atomicity; callers that read-modify-write
// must serialize per user (the flow engine does).
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	maxMedia int
	onEvict  func(userID int64)
}

// NewStore creates an empty store. maxMedia bounds the combined number of
// photos and videos per request; values below one fall back to ten.
func NewStore(maxMedia int) *Store {
	if maxMedia < 1 {
		maxMedia = 10
	}
	return &Store{
		sessions: make(map[int64]*Session),
		maxMedia: maxMedia,
	}
}

// MaxMedia returns the configured combined media cap.
func (s *Store) MaxMedia() int { return s.maxMedia }

// OnEvict registers a hook called with each user id Sweep removes,
// outside the store lock. Set it before the janitor starts.
func (s *Store) OnEvict(fn func(userID int64)) { s.onEvict = fn }

// GetOrCreate returns a copy of the user's session, creating it at
// StepInitial when absent. It never fails and is idempotent.
func (s *Store) GetOrCreate(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.locked(userID)
}

// locked returns the live session pointer, creating one when absent.
// Callers must hold s.mu.
func (s *Store) locked(userID int64) *Session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{
			UserID:    userID,
			Step:      StepInitial,
			Request:   Request{StartedAt: time.Now()},
			TouchedAt: time.Now(),
		}
		s.sessions[userID] = sess
	}
	return sess
}

// Step returns the user's current step, StepInitial when no session exists.
func (s *Store) Step(userID int64) Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.Step
	}
	return StepInitial
}

// SetStep moves the user to the given step.
func (s *Store) SetStep(userID int64, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Step = step
	sess.TouchedAt = time.Now()
}

// SetOrderNumber stores the order number; nil marks a non-customer.
func (s *Store) SetOrderNumber(userID int64, order *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	if order == nil {
		sess.Request.OrderNumber = nil
	} else {
		v := *order
		sess.Request.OrderNumber = &v
	}
	sess.TouchedAt = time.Now()
}

// SetFullName stores the validated full name.
func (s *Store) SetFullName(userID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.FullName = name
	sess.TouchedAt = time.Now()
}

// SetPhoneNumber stores the normalized phone number.
func (s *Store) SetPhoneNumber(userID int64, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.PhoneNumber = phone
	sess.TouchedAt = time.Now()
}

// SetPrinterModel stores the selected or custom printer model.
func (s *Store) SetPrinterModel(userID int64, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.PrinterModel = model
	sess.TouchedAt = time.Now()
}

// SetPlastic stores the plastic type and optional brand.
func (s *Store) SetPlastic(userID int64, plasticType, brand string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.PlasticType = plasticType
	sess.Request.PlasticBrand = brand
	sess.TouchedAt = time.Now()
}

// SetDescription stores the validated issue description.
func (s *Store) SetDescription(userID int64, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.IssueDescription = description
	sess.TouchedAt = time.Now()
}

// AddPhoto appends a photo reference, enforcing the combined cap and the
// completed-request guard. Returns the resulting combined media count.
func (s *Store) AddPhoto(userID int64, ref string) (int, error) {
	return s.addMedia(userID, ref, false)
}

// AddVideo appends a video reference under the same rules as AddPhoto.
func (s *Store) AddVideo(userID int64, ref string) (int, error) {
	return s.addMedia(userID, ref, true)
}

func (s *Store) addMedia(userID int64, ref string, video bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	if !sess.Request.CompletedAt.IsZero() {
		return sess.Request.MediaCount(), ErrCompleted
	}
	if sess.Request.MediaCount() >= s.maxMedia {
		return sess.Request.MediaCount(), ErrMediaLimit
	}
	if video {
		sess.Request.VideoFiles = append(sess.Request.VideoFiles, ref)
	} else {
		sess.Request.PhotoFiles = append(sess.Request.PhotoFiles, ref)
	}
	sess.TouchedAt = time.Now()
	return sess.Request.MediaCount(), nil
}

// Complete stamps CompletedAt and keeps the record.
func (s *Store) Complete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.Request.CompletedAt = time.Now()
	sess.TouchedAt = time.Now()
}

// Clear removes the session record entirely.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// BumpErrStreak increments the consecutive-error counter and returns it.
func (s *Store) BumpErrStreak(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.locked(userID)
	sess.ErrStreak++
	return sess.ErrStreak
}

// ResetErrStreak clears the consecutive-error counter.
func (s *Store) ResetErrStreak(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.ErrStreak = 0
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the given duration and returns
// how many were removed. A non-positive idle disables eviction.
func (s *Store) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-idle)
	s.mu.Lock()
	var evicted []int64
	for id, sess := range s.sessions {
		if sess.TouchedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()
	if s.onEvict != nil {
		for _, id := range evicted {
			s.onEvict(id)
		}
	}
	return len(evicted)
}

// Janitor sweeps idle sessions on the given interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Sweep(ttl); evicted > 0 {
				logger.Flow.Info("idle sessions evicted",
					slog.String("event", "session.sweep"),
					slog.Int("evicted", evicted),
				)
			}
		}
	}
}
