package live

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultHealthInterval = 10 * time.Second
	defaultSilenceFactor  = 3
)

// monitor watches inbound traffic recency. It never sends anything on the
// wire; a peer silent for more than factor*interval is declared dead and
// onDead fires once, after which the loop exits. Start arms a fresh loop
// for each session.
type monitor struct {
	interval time.Duration
	factor   int
	onDead   func(silence time.Duration)
	logger   *slog.Logger

	mu       sync.Mutex
	lastSeen time.Time
	stop     chan struct{}
}

func newMonitor(interval time.Duration, factor int, onDead func(time.Duration), logger *slog.Logger) *monitor {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	if factor <= 0 {
		factor = defaultSilenceFactor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &monitor{
		interval: interval,
		factor:   factor,
		onDead:   onDead,
		logger:   logger.With("component", "live_health"),
	}
}

// Touch marks inbound traffic now. Called for every frame before any other
// handling so that even malformed traffic counts as liveness.
func (m *monitor) Touch() {
	m.mu.Lock()
	m.lastSeen = time.Now()
	m.mu.Unlock()
}

func (m *monitor) SinceLastSeen() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSeen.IsZero() {
		return 0
	}
	return time.Since(m.lastSeen)
}

// Start begins watching, replacing any previous watch. Opening the channel
// counts as traffic so a quiet but healthy start is not declared dead.
func (m *monitor) Start() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
	}
	stop := make(chan struct{})
	m.stop = stop
	m.lastSeen = time.Now()
	m.mu.Unlock()
	go m.run(stop)
}

func (m *monitor) Stop() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	m.mu.Unlock()
}

func (m *monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop != nil
}

func (m *monitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	threshold := time.Duration(m.factor) * m.interval
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			silence := m.SinceLastSeen()
			if silence <= threshold {
				continue
			}
			m.logger.Warn("peer silent past threshold",
				"silence", silence,
				"interval", m.interval,
				"factor", m.factor,
			)
			if m.onDead != nil {
				m.onDead(silence)
			}
			return
		}
	}
}
