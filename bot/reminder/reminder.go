// Package reminder nudges users who started a request and went dormant.
// Reminders never mutate session state; they only send a message.
package reminder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/druk3d/servicebot/bot/texts"
	"github.com/druk3d/servicebot/core/logger"
)

// maxPerSession caps how many nudges one dormant session receives.
// Configured offsets past the cap are dropped at construction.
const maxPerSession = 3

// SendFunc delivers one reminder text to the user chat.
type SendFunc func(userID int64, text string) error

// Service schedules one-shot reminder jobs at fixed offsets. Per-user
// bookkeeping lives only while a chain has jobs left to fire; once the
// last offset fires (or the chain is cancelled) the entry is gone.
type Service struct {
	mu      sync.Mutex
	sched   gocron.Scheduler
	offsets []time.Duration
	send    SendFunc
	jobs    map[int64][]uuid.UUID
	pending map[int64]int
}

// New creates a stopped reminder service. Call Start before scheduling.
func New(offsets []time.Duration, send SendFunc) (*Service, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("reminder: scheduler: %w", err)
	}
	if len(offsets) > maxPerSession {
		offsets = offsets[:maxPerSession]
	}
	return &Service{
		sched:   sched,
		offsets: offsets,
		send:    send,
		jobs:    make(map[int64][]uuid.UUID),
		pending: make(map[int64]int),
	}, nil
}

// Start launches the underlying scheduler.
func (s *Service) Start() {
	s.sched.Start()
	logger.Remind.Info("reminder service started",
		slog.String("event", "remind.start"),
		slog.Int("count", len(s.offsets)),
	)
}

// Stop shuts the scheduler down, dropping all pending jobs.
func (s *Service) Stop() error {
	return s.sched.Shutdown()
}

// Schedule (re)plans the reminder chain for a user. Any previously
// scheduled jobs are replaced.
func (s *Service) Schedule(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(userID)

	for _, offset := range s.offsets {
		offset := offset
		job, err := s.sched.NewJob(
			gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(offset))),
			gocron.NewTask(func() { s.fire(userID, offset) }),
		)
		if err != nil {
			logger.Remind.Warn("reminder job not scheduled",
				slog.String("event", "remind.schedule"),
				slog.Int64("user_id", userID),
				slog.Int64("reminder_offset_ms", offset.Milliseconds()),
				slog.String("err", err.Error()),
			)
			continue
		}
		s.jobs[userID] = append(s.jobs[userID], job.ID())
	}
	if n := len(s.jobs[userID]); n > 0 {
		s.pending[userID] = n
	}

	logger.Remind.Debug("reminders scheduled",
		slog.String("event", "remind.schedule"),
		slog.Int64("user_id", userID),
		slog.Int("count", len(s.jobs[userID])),
	)
}

// Cancel drops every pending reminder for the user. Called on dispatch,
// on explicit cancellation and when the session janitor evicts the user.
func (s *Service) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID)
	delete(s.pending, userID)
}

func (s *Service) removeLocked(userID int64) {
	for _, id := range s.jobs[userID] {
		_ = s.sched.RemoveJob(id)
	}
	delete(s.jobs, userID)
}

func (s *Service) fire(userID int64, offset time.Duration) {
	s.mu.Lock()
	if s.pending[userID] <= 0 {
		// Cancelled, evicted or already exhausted.
		s.mu.Unlock()
		return
	}
	s.pending[userID]--
	// The last offset just fired; drop the user's bookkeeping so the
	// maps do not accumulate one entry per dormant session forever.
	if s.pending[userID] == 0 {
		s.removeLocked(userID)
		delete(s.pending, userID)
	}
	s.mu.Unlock()

	text := fmt.Sprintf(texts.Reminder, FormatOffset(offset))
	if err := s.send(userID, text); err != nil {
		logger.Remind.Warn("reminder not delivered",
			slog.String("event", "remind.send"),
			slog.Int64("user_id", userID),
			slog.Int64("reminder_offset_ms", offset.Milliseconds()),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Remind.Info("reminder sent",
		slog.String("event", "remind.send"),
		slog.Int64("user_id", userID),
		slog.Int64("reminder_offset_ms", offset.Milliseconds()),
	)
}

// FormatOffset renders a duration the way the reminder text expects:
// minutes under an hour, hours under a day, days beyond.
func FormatOffset(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d хвилин", int(d.Minutes()))
	case d < 24*time.Hour:
		hours := d.Hours()
		if hours == float64(int(hours)) {
			return fmt.Sprintf("%d %s", int(hours), hourWord(int(hours)))
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", hours), "0"), ".") + " години"
	default:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%d %s", days, dayWord(days))
	}
}

func hourWord(n int) string {
	switch {
	case n == 1:
		return "годину"
	case n >= 2 && n <= 4:
		return "години"
	default:
		return "годин"
	}
}

func dayWord(n int) string {
	switch {
	case n == 1:
		return "день"
	case n >= 2 && n <= 4:
		return "дні"
	default:
		return "днів"
	}
}
