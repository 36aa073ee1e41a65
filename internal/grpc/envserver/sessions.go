package envserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/experience"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

const (
	DefaultMaxSessions = 100
	DefaultSessionTTL  = 10 * time.Minute
	minCleanupInterval = time.Second
)

// session owns one environment. mu serialises every call into it.
type session struct {
	id     string
	envID  string
	mu     sync.Mutex
	env    env.Env
	closed bool

	createdAt    time.Time
	lastActivity time.Time
}

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	Registry    *env.Registry
	MaxSessions int
	// SessionTTL is the idle time after which a session is reaped. Zero disables reaping.
	SessionTTL time.Duration
	// Buffer, when set, receives a transition for every step of every session.
	Buffer *experience.Buffer
	// EventBus receives the game events of every session.
	EventBus events.Publisher
	Clock    quartz.Clock
	Logger   zerolog.Logger
}

// SessionManager tracks live environment sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	registry    *env.Registry
	maxSessions int
	ttl         time.Duration
	buffer      *experience.Buffer
	eventBus    events.Publisher
	clock       quartz.Clock
	logger      zerolog.Logger
}

// NewSessionManager creates a session manager. A nil registry gets the defaults registered.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Registry == nil {
		opts.Registry = env.NewRegistry()
		_ = env.RegisterDefaults(opts.Registry)
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &SessionManager{
		sessions:    make(map[string]*session),
		registry:    opts.Registry,
		maxSessions: opts.MaxSessions,
		ttl:         opts.SessionTTL,
		buffer:      opts.Buffer,
		eventBus:    opts.EventBus,
		clock:       opts.Clock,
		logger:      opts.Logger.With().Str("component", "session_manager").Logger(),
	}
}

// Create makes a new environment session and returns its ID.
func (m *SessionManager) Create(envID string, opts env.Options) (string, error) {
	m.mu.RLock()
	current := len(m.sessions)
	m.mu.RUnlock()
	if current >= m.maxSessions {
		m.logger.Warn().
			Int("current_sessions", current).
			Int("max_sessions", m.maxSessions).
			Msg("Rejecting session creation - server at capacity")
		return "", fmt.Errorf("%w: %d/%d sessions active", ErrTooManySessions, current, m.maxSessions)
	}

	id := uuid.NewString()
	opts.GameID = id
	if opts.EventBus == nil {
		opts.EventBus = m.eventBus
	}
	opts.Logger = m.logger.With().Str("session_id", id).Logger()

	e, err := m.registry.Make(envID, opts)
	if err != nil {
		return "", err
	}
	if m.buffer != nil {
		e = experience.NewRecorder(e, m.buffer, m.clock, opts.Logger)
	}

	now := m.clock.Now()
	s := &session{
		id:           id,
		envID:        envID,
		env:          e,
		createdAt:    now,
		lastActivity: now,
	}

	m.mu.Lock()
	if len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		_ = e.Close()
		return "", fmt.Errorf("%w: %d/%d sessions active", ErrTooManySessions, m.maxSessions, m.maxSessions)
	}
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info().
		Str("session_id", id).
		Str("env_id", envID).
		Int("sessions", count).
		Msg("Created session")
	return id, nil
}

// Do runs fn against the session's environment while holding its lock.
func (m *SessionManager) Do(id string, fn func(e env.Env) error) error {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastActivity = m.clock.Now()
	return fn(s.env)
}

// Close removes the session and closes its environment.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return m.closeSession(s, "closed by client")
}

func (m *SessionManager) closeSession(s *session, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.env.Close()

	m.logger.Info().
		Str("session_id", s.id).
		Str("reason", reason).
		Dur("age", m.clock.Since(s.createdAt)).
		Msg("Closed session")
	return err
}

// CleanupIdle closes every session whose last activity is older than the TTL
// at now, and returns how many were closed.
func (m *SessionManager) CleanupIdle(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	// Collect references first so session locks are never taken under m.mu.
	m.mu.RLock()
	refs := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		refs = append(refs, s)
	}
	m.mu.RUnlock()

	var expired []*session
	for _, s := range refs {
		s.mu.Lock()
		idle := now.Sub(s.lastActivity)
		s.mu.Unlock()
		if idle > m.ttl {
			expired = append(expired, s)
		}
	}
	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	for _, s := range expired {
		delete(m.sessions, s.id)
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	for _, s := range expired {
		if err := m.closeSession(s, "idle timeout"); err != nil {
			m.logger.Warn().Err(err).Str("session_id", s.id).Msg("Error closing idle session")
		}
	}

	m.logger.Info().
		Int("cleaned", len(expired)).
		Int("remaining", remaining).
		Msg("Session cleanup completed")
	return len(expired)
}

// Run reaps idle sessions every half TTL until ctx is done. The returned
// channel is closed when the loop exits. With reaping disabled it only waits
// for ctx.
func (m *SessionManager) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if m.ttl <= 0 {
		go func() {
			defer close(done)
			<-ctx.Done()
		}()
		return done
	}

	interval := m.ttl / 2
	if interval < minCleanupInterval {
		interval = minCleanupInterval
	}
	ticker := m.clock.NewTicker(interval, "session_cleanup")

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanupIdle(m.clock.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// CloseAll closes every session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range all {
		if err := m.closeSession(s, "shutdown"); err != nil {
			m.logger.Warn().Err(err).Str("session_id", s.id).Msg("Error closing session")
		}
	}
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EnvIDs lists the registered environment IDs.
func (m *SessionManager) EnvIDs() []string {
	return m.registry.IDs()
}
