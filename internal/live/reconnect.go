package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
)

const (
	defaultBackoffInitial = time.Second
	defaultMaxAttempts    = 3
	defaultBackoffCap     = 30 * time.Second
)

func normalizeBackoff(cfg shared.BackoffConfig) shared.BackoffConfig {
	if cfg.Initial <= 0 {
		cfg.Initial = defaultBackoffInitial
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultBackoffCap
	}
	return cfg
}

// backoffDelay is the pacing curve: initial doubled per prior attempt,
// clamped to the cap.
func backoffDelay(cfg shared.BackoffConfig, attempt int) time.Duration {
	if attempt >= 62 {
		return cfg.MaxDelay
	}
	d := cfg.Initial << uint(attempt)
	if d <= 0 || d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}

// scheduler owns reconnect pacing. At most one retry timer is armed at a
// time; attempts count up until the ceiling and reset only on a successful
// open. Once the ceiling is reached scheduling refuses until Reset.
type scheduler struct {
	cfg    shared.BackoffConfig
	logger *slog.Logger
	timer  eventTimer

	mu       sync.Mutex
	attempts int
}

func newScheduler(cfg shared.BackoffConfig, logger *slog.Logger) *scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &scheduler{
		cfg:    normalizeBackoff(cfg),
		logger: logger.With("component", "live_reconnect"),
	}
}

// Schedule arms the next retry and reports the chosen delay. Returns false
// without arming anything once the attempt ceiling is reached.
func (s *scheduler) Schedule(fn func()) (time.Duration, bool) {
	s.mu.Lock()
	if s.attempts >= s.cfg.MaxAttempts {
		s.mu.Unlock()
		return 0, false
	}
	delay := backoffDelay(s.cfg, s.attempts)
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	s.logger.Debug("arming retry", "delay", delay, "attempt", attempt, "ceiling", s.cfg.MaxAttempts)
	s.timer.Schedule(delay, fn)
	return delay, true
}

// CancelPending disarms a scheduled retry without touching the attempt
// count. Safe when nothing is armed.
func (s *scheduler) CancelPending() bool {
	return s.timer.Cancel()
}

// Reset clears the attempt count and any armed retry. Called on successful
// opens and on owner-initiated disconnects.
func (s *scheduler) Reset() {
	s.timer.Cancel()
	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()
}

func (s *scheduler) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *scheduler) Pending() bool {
	return s.timer.Pending()
}
