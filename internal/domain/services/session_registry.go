package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oculusai/console/internal/pkg/logutil"
)

// RegistryOptions configures the session registry
type RegistryOptions struct {
	// Session is the template every new session is built from; its ID is ignored
	Session     SessionOptions
	IdleTTL     time.Duration
	MaxSessions int
}

// CreateSessionRequest carries the page-load parameters of a new session
type CreateSessionRequest struct {
	ModelParam string `json:"model,omitempty"`
}

// SessionSummary is a short listing entry
type SessionSummary struct {
	ID              string    `json:"id"`
	Conversations   int       `json:"conversations"`
	SelectedModelID string    `json:"selected_model_id"`
	SecretUnlocked  bool      `json:"secret_unlocked"`
	Streaming       bool      `json:"streaming"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivity    time.Time `json:"last_activity"`
}

// SessionRegistry hosts the live sessions, one per console page mount
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     RegistryOptions
	logger   *logutil.Logger
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(opts RegistryOptions) *SessionRegistry {
	opts.Session.ID = ""
	opts.Session.applyDefaults()

	return &SessionRegistry{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   opts.Session.Logger,
	}
}

func newSessionID() string {
	return uuid.NewString()
}

// Catalog returns the model catalog shared by every session
func (r *SessionRegistry) Catalog() *ModelCatalog {
	return r.opts.Session.Catalog
}

// Create opens a session and applies its bootstrap model parameter
func (r *SessionRegistry) Create(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	r.mu.Lock()
	if r.opts.MaxSessions > 0 && len(r.sessions) >= r.opts.MaxSessions {
		r.mu.Unlock()
		return nil, ErrTooManySessions
	}

	opts := r.opts.Session
	opts.ID = newSessionID()
	session := NewSession(opts)
	r.sessions[session.ID()] = session
	count := len(r.sessions)
	r.mu.Unlock()

	if err := session.Bootstrap(ctx, req.ModelParam); err != nil {
		r.remove(session.ID())
		return nil, fmt.Errorf("failed to bootstrap session: %w", err)
	}

	if opts.Metrics != nil {
		opts.Metrics.RecordSessionOpened()
	}
	r.logger.Info("Session opened", logutil.Fields{
		"session_id": session.ID(),
		"model":      session.SelectedModel().ID,
		"sessions":   count,
	})
	return session, nil
}

// Get returns a live session
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Close tears a session down and forgets it
func (r *SessionRegistry) Close(ctx context.Context, id string) error {
	session := r.remove(id)
	if session == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	if err := session.Close(ctx); err != nil {
		return err
	}

	if r.opts.Session.Metrics != nil {
		r.opts.Session.Metrics.RecordSessionClosed()
	}
	r.logger.Info("Session closed", logutil.Fields{"session_id": id})
	return nil
}

func (r *SessionRegistry) remove(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)
	return session
}

// Count returns the number of live sessions
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List summarizes the live sessions, oldest first
func (r *SessionRegistry) List() []SessionSummary {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		snap := s.Snapshot()
		summaries = append(summaries, SessionSummary{
			ID:              snap.ID,
			Conversations:   len(snap.Conversations),
			SelectedModelID: snap.SelectedModelID,
			SecretUnlocked:  snap.SecretUnlocked,
			Streaming:       snap.Streaming,
			CreatedAt:       snap.CreatedAt,
			LastActivity:    snap.LastActivity,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// ReapIdle closes every session idle for longer than the TTL and returns how many were closed.
// Sessions with a pending reply are kept.
func (r *SessionRegistry) ReapIdle(ctx context.Context) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}

	now := r.opts.Session.Scheduler.Now()

	r.mu.RLock()
	var idle []string
	for id, s := range r.sessions {
		if !s.IsStreaming() && now.Sub(s.LastActivity()) > r.opts.IdleTTL {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if err := r.Close(ctx, id); err == nil {
			reaped++
		}
	}

	if reaped > 0 {
		r.logger.Info("Reaped idle sessions", logutil.Fields{"count": reaped})
	}
	return reaped
}

// StartReaper runs ReapIdle every interval until ctx is done
func (r *SessionRegistry) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.opts.IdleTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.ReapIdle(ctx)
			}
		}
	}()
}

// CloseAll tears down every session, used on shutdown
func (r *SessionRegistry) CloseAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		if err := r.Close(ctx, id); err != nil {
			r.logger.Warn("Failed to close session", logutil.Fields{"session_id": id, "error": err.Error()})
		}
	}
}
