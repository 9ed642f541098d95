// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/citaciones/internal/session"
	"github.com/pdiddy/citaciones/pkg/types"
)

// DefaultReapSchedule runs the idle-session reaper every five minutes.
const DefaultReapSchedule = "@every 5m"

// Registry holds the live sessions. Sessions idle for longer than ttl are
// closed by a cron job.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	ttl      time.Duration
	template func() types.TemplateConfig
	assetDir string
	cron     *cron.Cron
	now      func() time.Time
}

// NewRegistry creates a registry. template supplies the starting template
// of each new session. ttl <= 0 keeps sessions until Close.
func NewRegistry(template func() types.TemplateConfig, ttl time.Duration, assetDir string) *Registry {
	return &Registry{
		sessions: make(map[string]*session.Session),
		ttl:      ttl,
		template: template,
		assetDir: assetDir,
		now:      time.Now,
	}
}

// Create starts a session.
func (r *Registry) Create() *session.Session {
	s := session.New(r.template(), r.assetDir)
	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()
	slog.Info("session created", "session", s.ID, "live", n)
	return s
}

// Get returns the session with id and records activity on it.
func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes sessions idle for longer than the ttl and returns how many
// were closed.
func (r *Registry) Reap() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var idle []*session.Session
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(); err != nil {
			slog.Warn("closing idle session", "session", s.ID, "error", err)
		}
	}
	if len(idle) > 0 {
		slog.Info("reaped idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Start schedules Reap. An empty schedule uses DefaultReapSchedule.
func (r *Registry) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultReapSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.Reap() }); err != nil {
		return fmt.Errorf("scheduling session reaper %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Close stops the reaper and closes every session.
func (r *Registry) Close() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*session.Session)
	r.mu.Unlock()

	for _, s := range all {
		if err := s.Close(); err != nil {
			slog.Warn("closing session", "session", s.ID, "error", err)
		}
	}
}
