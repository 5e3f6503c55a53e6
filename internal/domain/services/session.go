package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/oculusai/console/internal/domain/entities"
	"github.com/oculusai/console/internal/domain/metrics"
	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/pkg/clock"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// Session defaults
const (
	DefaultConversationLatency = 900 * time.Millisecond
	DefaultDeepThinkLatency    = 2000 * time.Millisecond
	DefaultUnlockThreshold     = 3
	DefaultTitleMaxLength      = 48
)

// SessionOptions configures a Session
type SessionOptions struct {
	ID             string
	Catalog        *ModelCatalog
	Scheduler      ports.Scheduler
	Messaging      ports.MessagingPort
	TokenCounter   ports.TokenCounter
	Metrics        *metrics.Collector
	Logger         *logutil.Logger
	DefaultModelID string

	ConversationLatency time.Duration
	DeepThinkLatency    time.Duration
	UnlockThreshold     int
	TitleMaxLength      int
	SearchContextChars  int
	EnforceRateLimits   bool
}

func (o *SessionOptions) applyDefaults() {
	if o.ID == "" {
		o.ID = newSessionID()
	}
	if o.Catalog == nil {
		o.Catalog = NewModelCatalog()
	}
	if o.Scheduler == nil {
		o.Scheduler = clock.System{}
	}
	if o.Logger == nil {
		o.Logger = logutil.NewDefaultLogger()
	}
	if o.DefaultModelID == "" {
		o.DefaultModelID = DefaultModelID
	}
	if o.ConversationLatency <= 0 {
		o.ConversationLatency = DefaultConversationLatency
	}
	if o.DeepThinkLatency <= 0 {
		o.DeepThinkLatency = DefaultDeepThinkLatency
	}
	if o.UnlockThreshold <= 0 {
		o.UnlockThreshold = DefaultUnlockThreshold
	}
	if o.TitleMaxLength <= 0 {
		o.TitleMaxLength = DefaultTitleMaxLength
	}
	if o.SearchContextChars <= 0 {
		o.SearchContextChars = DefaultSearchContext
	}
}

// pendingReply is a deferred assistant reply for one conversation
type pendingReply struct {
	timer     ports.Timer
	prompt    string
	model     entities.Model
	mode      entities.Mode
	submitted time.Time
	dueAt     time.Time
}

// Session owns the conversations, active selection, model binding and mode of one
// console visit. It lives from page mount until Close.
type Session struct {
	mu sync.Mutex

	id        string
	opts      SessionOptions
	catalog   *ModelCatalog
	scheduler ports.Scheduler
	tokens    ports.TokenCounter
	metrics   *metrics.Collector
	logger    *logutil.FieldLogger
	events    *eventPublisher

	conversations        []*entities.Conversation
	activeConversationID string
	selectedModelID      string
	mode                 entities.Mode
	secretUnlocked       bool
	unlockProgress       int
	searchResults        []entities.SearchResult

	pending  map[string]*pendingReply
	limiters map[string]*rate.Limiter
	eventSeq uint64

	createdAt    time.Time
	lastActivity time.Time
	closed       bool
}

// NewSession creates a session seeded with one conversation bound to the default model
func NewSession(opts SessionOptions) *Session {
	opts.applyDefaults()

	logger := opts.Logger.WithFields(logutil.Fields{"session_id": opts.ID})
	now := opts.Scheduler.Now()

	s := &Session{
		id:        opts.ID,
		opts:      opts,
		catalog:   opts.Catalog,
		scheduler: opts.Scheduler,
		tokens:    opts.TokenCounter,
		metrics:   opts.Metrics,
		logger:    logger,
		events: &eventPublisher{
			messaging: opts.Messaging,
			logger:    logger,
		},
		mode:         entities.ModeConversation,
		pending:      make(map[string]*pendingReply),
		limiters:     make(map[string]*rate.Limiter),
		createdAt:    now,
		lastActivity: now,
	}

	model := s.catalog.Default(opts.DefaultModelID)
	seed := s.newConversation(model, now)
	s.conversations = []*entities.Conversation{seed}
	s.activeConversationID = seed.ID
	s.selectedModelID = model.ID

	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// CreateConversation prepends a new conversation seeded with a greeting and makes it active.
// An empty modelID uses the currently selected model.
func (s *Session) CreateConversation(ctx context.Context, modelID string) (*entities.Conversation, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	now := s.touch()
	if strings.TrimSpace(modelID) == "" {
		modelID = s.selectedModelID
	}
	model := s.catalog.Resolve(modelID, s.secretUnlocked)

	conversation := s.newConversation(model, now)
	s.conversations = append([]*entities.Conversation{conversation}, s.conversations...)
	s.activeConversationID = conversation.ID
	s.selectedModelID = model.ID

	batch := s.batch(now)
	batch.add(ports.SubjectConversationCreated, "conversation.created", map[string]interface{}{
		"conversation_id": conversation.ID,
		"model_id":        model.ID,
	})
	snapshot := conversation.Snapshot()
	s.mu.Unlock()

	s.logger.Debug("Conversation created", logutil.Fields{"conversation_id": conversation.ID, "model_id": model.ID})
	s.events.publish(ctx, batch.events)
	return snapshot, nil
}

// SelectConversation makes a conversation active and re-synchronizes the selected model to it
func (s *Session) SelectConversation(ctx context.Context, conversationID string) (*entities.Conversation, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	conversation := s.findConversation(conversationID)
	if conversation == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	now := s.touch()
	s.activeConversationID = conversation.ID
	s.selectedModelID = s.catalog.Resolve(conversation.ModelID, s.secretUnlocked).ID

	batch := s.batch(now)
	batch.add(ports.SubjectConversationSelected, "conversation.selected", map[string]interface{}{
		"conversation_id": conversation.ID,
		"model_id":        s.selectedModelID,
	})
	snapshot := conversation.Snapshot()
	s.mu.Unlock()

	s.events.publish(ctx, batch.events)
	return snapshot, nil
}

// SelectModel binds a model to the session and to the active conversation.
// Ids that are not visible snap to the first visible model.
func (s *Session) SelectModel(ctx context.Context, modelID string) (entities.Model, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return entities.Model{}, ErrSessionClosed
	}

	now := s.touch()
	model := s.catalog.Resolve(strings.TrimSpace(modelID), s.secretUnlocked)
	s.selectedModelID = model.ID
	if active := s.activeConversation(); active != nil {
		active.SetModel(model.ID)
	}

	batch := s.batch(now)
	batch.add(ports.SubjectModelSelected, "model.selected", map[string]interface{}{
		"requested_model_id": modelID,
		"model_id":           model.ID,
		"conversation_id":    s.activeConversationID,
	})
	s.mu.Unlock()

	s.events.publish(ctx, batch.events)
	return model, nil
}

// SetMode switches the interaction mode; any change clears search results
func (s *Session) SetMode(ctx context.Context, mode entities.Mode) error {
	if !validMode(mode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	now := s.touch()
	if s.mode == mode {
		s.mu.Unlock()
		return nil
	}

	previous := s.mode
	s.mode = mode
	s.searchResults = nil

	batch := s.batch(now)
	batch.add(ports.SubjectModeChanged, "mode.changed", map[string]interface{}{
		"previous": previous,
		"mode":     mode,
	})
	s.mu.Unlock()

	s.events.publish(ctx, batch.events)
	return nil
}

// ClearSearch drops the transient search results
func (s *Session) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.searchResults = nil
}

// SubmitResult describes what a submission did
type SubmitResult struct {
	Mode           entities.Mode           `json:"mode"`
	ConversationID string                  `json:"conversation_id,omitempty"`
	UserMessage    *entities.Message       `json:"user_message,omitempty"`
	Title          string                  `json:"title,omitempty"`
	ReplyDueAt     *time.Time              `json:"reply_due_at,omitempty"`
	SearchResults  []entities.SearchResult `json:"search_results,omitempty"`
}

// SubmitInput interprets text according to mode. An empty mode uses the session's current mode.
// In search mode it only runs a search; otherwise it appends a user message and schedules
// the synthesized assistant reply.
func (s *Session) SubmitInput(ctx context.Context, text string, mode entities.Mode) (*SubmitResult, error) {
	if mode != "" && !validMode(mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if mode == "" {
		mode = s.mode
	}
	s.mu.Unlock()

	if mode == entities.ModeSearch {
		results, err := s.Search(ctx, text)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Mode: mode, SearchResults: results}, nil
	}

	return s.submitMessage(ctx, text, mode)
}

func (s *Session) submitMessage(ctx context.Context, text string, mode entities.Mode) (*SubmitResult, error) {
	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return nil, ErrBlankInput
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	active := s.activeConversation()
	if active == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveConversation
	}

	model, ok := s.catalog.Get(active.ModelID)
	if !ok {
		model, ok = s.catalog.Get(s.selectedModelID)
	}
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoActiveModel
	}

	if _, busy := s.pending[active.ID]; busy {
		s.mu.Unlock()
		return nil, ErrReplyPending
	}

	now := s.touch()
	if s.opts.EnforceRateLimits && !s.limiterFor(model).AllowN(now, 1) {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordRateLimited(model.ID)
		}
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, model.ID)
	}

	firstTurn := active.HasOnlyGreeting()
	userMessage := entities.NewMessage(active.ID, entities.RoleUser, prompt, now).WithMode(mode)
	userMessage.TokenCount = s.countTokens(prompt)
	active.AppendMessage(userMessage, now)
	if firstTurn {
		active.SetTitleFromPrompt(prompt, s.opts.TitleMaxLength)
	}

	latency := s.opts.ConversationLatency
	if mode == entities.ModeDeepThink {
		latency = s.opts.DeepThinkLatency
	}
	dueAt := now.Add(latency)

	conversationID := active.ID
	reply := &pendingReply{
		prompt:    prompt,
		model:     model,
		mode:      mode,
		submitted: now,
		dueAt:     dueAt,
	}
	s.pending[conversationID] = reply
	reply.timer = s.scheduler.AfterFunc(latency, func() {
		s.deliverReply(conversationID, reply)
	})

	batch := s.batch(now)
	batch.add(ports.SubjectMessageNew, "message.new", userMessage)
	batch.add(ports.SubjectReplyPending, "reply.pending", map[string]interface{}{
		"conversation_id": conversationID,
		"model_id":        model.ID,
		"mode":            mode,
		"due_at":          dueAt,
	})

	result := &SubmitResult{
		Mode:           mode,
		ConversationID: conversationID,
		UserMessage:    copyMessage(userMessage),
		Title:          active.Title,
		ReplyDueAt:     &dueAt,
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSubmission(string(mode))
	}
	s.logger.Debug("Message submitted", logutil.Fields{
		"conversation_id": conversationID,
		"mode":            mode,
		"latency_ms":      latency.Milliseconds(),
	})
	s.events.publish(ctx, batch.events)
	return result, nil
}

// deliverReply runs when the simulated latency elapses
func (s *Session) deliverReply(conversationID string, reply *pendingReply) {
	s.mu.Lock()
	if s.closed || s.pending[conversationID] != reply {
		s.mu.Unlock()
		return
	}
	delete(s.pending, conversationID)

	conversation := s.findConversation(conversationID)
	if conversation == nil {
		s.mu.Unlock()
		return
	}

	now := s.scheduler.Now()
	content := SynthesizeReply(reply.prompt, reply.model, reply.mode)
	message := entities.NewMessage(conversationID, entities.RoleAssistant, content, now).WithMode(reply.mode)
	message.TokenCount = s.countTokens(content)
	conversation.AppendMessage(message, now)

	sort.SliceStable(s.conversations, func(i, j int) bool {
		return s.conversations[i].UpdatedAt.After(s.conversations[j].UpdatedAt)
	})

	batch := s.batch(now)
	batch.add(ports.SubjectMessageNew, "message.new", message)
	batch.add(ports.SubjectReplyReady, "reply.ready", map[string]interface{}{
		"conversation_id": conversationID,
		"message_id":      message.ID,
		"streaming":       len(s.pending) > 0,
	})
	elapsed := now.Sub(reply.submitted)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordReplyDelivered(elapsed)
	}
	s.events.publish(context.Background(), batch.events)
}

// Search runs a local text search across every stored message and keeps the results
func (s *Session) Search(ctx context.Context, query string) ([]entities.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrBlankInput
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}

	now := s.touch()
	results := SearchConversations(s.conversations, query, s.opts.SearchContextChars)
	s.searchResults = results

	batch := s.batch(now)
	batch.add(ports.SubjectSearchCompleted, "search.completed", map[string]interface{}{
		"query":   query,
		"results": len(results),
	})
	out := append([]entities.SearchResult(nil), results...)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSearch(len(out))
	}
	s.events.publish(ctx, batch.events)
	return out, nil
}

// UnlockState reports progress toward the secret model
type UnlockState struct {
	Progress  int  `json:"progress"`
	Threshold int  `json:"threshold"`
	Unlocked  bool `json:"unlocked"`
}

// UnlockSecretTap counts one tap toward unlocking the secret model.
// Once unlocked, further taps change nothing.
func (s *Session) UnlockSecretTap(ctx context.Context) (UnlockState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return UnlockState{}, ErrSessionClosed
	}

	now := s.touch()
	if s.secretUnlocked {
		state := s.unlockState()
		s.mu.Unlock()
		return state, nil
	}

	s.unlockProgress = min(s.unlockProgress+1, s.opts.UnlockThreshold)
	batch := s.batch(now)
	if s.unlockProgress >= s.opts.UnlockThreshold {
		s.secretUnlocked = true
		batch.add(ports.SubjectSecretUnlocked, "secret.unlocked", map[string]interface{}{
			"model_id": s.catalog.Secret().ID,
			"via":      "tap",
		})
	} else {
		batch.add(ports.SubjectSecretProgress, "secret.progress", map[string]interface{}{
			"progress":  s.unlockProgress,
			"threshold": s.opts.UnlockThreshold,
		})
	}
	state := s.unlockState()
	s.mu.Unlock()

	if state.Unlocked {
		if s.metrics != nil {
			s.metrics.RecordUnlock()
		}
		s.logger.Info("Secret model unlocked", logutil.Fields{"via": "tap"})
	}
	s.events.publish(ctx, batch.events)
	return state, nil
}

// Bootstrap applies the optional model query parameter read once at session start.
// The secret id or its alias unlocks and selects the secret model; a public id is
// preselected; anything else is ignored.
func (s *Session) Bootstrap(ctx context.Context, modelParam string) error {
	modelParam = strings.TrimSpace(modelParam)
	if modelParam == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	var model entities.Model
	secret := s.catalog.IsSecretAlias(modelParam)
	if secret {
		model = s.catalog.Secret()
	} else {
		m, ok := s.catalog.GetPublic(modelParam)
		if !ok {
			s.mu.Unlock()
			s.logger.Debug("Ignoring unknown model parameter", logutil.Fields{"model": modelParam})
			return nil
		}
		model = m
	}

	now := s.touch()
	batch := s.batch(now)
	if secret && !s.secretUnlocked {
		s.secretUnlocked = true
		s.unlockProgress = s.opts.UnlockThreshold
		batch.add(ports.SubjectSecretUnlocked, "secret.unlocked", map[string]interface{}{
			"model_id": model.ID,
			"via":      "parameter",
		})
	}

	s.selectedModelID = model.ID
	if len(s.conversations) > 0 {
		first := s.conversations[0]
		first.SetModel(model.ID)
		if first.ReplaceGreeting(Greeting(model), now) {
			first.Messages[0].TokenCount = s.countTokens(first.Messages[0].Content)
		}
		first.UpdatedAt = now
	}
	batch.add(ports.SubjectModelSelected, "model.selected", map[string]interface{}{
		"requested_model_id": modelParam,
		"model_id":           model.ID,
		"conversation_id":    s.activeConversationID,
	})
	s.mu.Unlock()

	if secret && s.metrics != nil {
		s.metrics.RecordUnlock()
	}
	s.events.publish(ctx, batch.events)
	return nil
}

// DeleteConversation removes a conversation and cancels its pending reply.
// The session always keeps one active conversation, seeding a new one when needed.
func (s *Session) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	index := -1
	for i, c := range s.conversations {
		if c.ID == conversationID {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	now := s.touch()
	batch := s.batch(now)
	cancelled := s.cancelPending(conversationID, batch)

	s.conversations = append(s.conversations[:index], s.conversations[index+1:]...)
	batch.add(ports.SubjectConversationDeleted, "conversation.deleted", map[string]interface{}{
		"conversation_id": conversationID,
	})

	if len(s.conversations) == 0 {
		model := s.catalog.Resolve(s.selectedModelID, s.secretUnlocked)
		seed := s.newConversation(model, now)
		s.conversations = []*entities.Conversation{seed}
		batch.add(ports.SubjectConversationCreated, "conversation.created", map[string]interface{}{
			"conversation_id": seed.ID,
			"model_id":        model.ID,
		})
	}

	if s.activeConversationID == conversationID {
		next := s.conversations[0]
		s.activeConversationID = next.ID
		s.selectedModelID = s.catalog.Resolve(next.ModelID, s.secretUnlocked).ID
	}
	s.mu.Unlock()

	if cancelled && s.metrics != nil {
		s.metrics.RecordReplyCancelled()
	}
	s.events.publish(ctx, batch.events)
	return nil
}

// Close tears the session down, cancelling every pending reply
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	now := s.scheduler.Now()
	batch := s.batch(now)
	cancelled := 0
	for conversationID := range s.pending {
		if s.cancelPending(conversationID, batch) {
			cancelled++
		}
	}
	s.closed = true
	batch.add(ports.SubjectSessionClosed, "closed", map[string]interface{}{
		"cancelled_replies": cancelled,
	})
	s.mu.Unlock()

	if s.metrics != nil {
		for i := 0; i < cancelled; i++ {
			s.metrics.RecordReplyCancelled()
		}
	}
	s.logger.Debug("Session closed", logutil.Fields{"cancelled_replies": cancelled})
	s.events.publish(ctx, batch.events)
	return nil
}

// cancelPending stops the deferred reply of a conversation. Caller holds s.mu.
func (s *Session) cancelPending(conversationID string, batch *eventBatch) bool {
	reply, ok := s.pending[conversationID]
	if !ok {
		return false
	}
	reply.timer.Stop()
	delete(s.pending, conversationID)
	batch.add(ports.SubjectReplyCancelled, "reply.cancelled", map[string]interface{}{
		"conversation_id": conversationID,
	})
	return true
}

// IsClosed reports whether Close has run
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IsStreaming reports whether any reply is pending
func (s *Session) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// LastActivity returns when the session was last used
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Mode returns the current interaction mode
func (s *Session) Mode() entities.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SelectedModel returns the model driving new replies
func (s *Session) SelectedModel() entities.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Resolve(s.selectedModelID, s.secretUnlocked)
}

// UnlockState returns the current secret unlock progress
func (s *Session) UnlockState() UnlockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlockState()
}

// SearchResults returns the results of the last search
func (s *Session) SearchResults() []entities.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.SearchResult(nil), s.searchResults...)
}

// VisibleModels returns the models currently selectable
func (s *Session) VisibleModels() []entities.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Visible(s.secretUnlocked)
}

// Options returns the model dropdown groups for the current unlock state
func (s *Session) Options() []ModelGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Options(s.secretUnlocked)
}

// Hints returns the context hints for the active model and current mode
func (s *Session) Hints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	modelID := s.selectedModelID
	if active := s.activeConversation(); active != nil {
		modelID = active.ModelID
	}
	model, ok := s.catalog.Get(modelID)
	if !ok {
		model = s.catalog.Resolve(s.selectedModelID, s.secretUnlocked)
	}
	return s.catalog.Hints(model, s.mode)
}

// ContextUsage reports how much of the model's context window a conversation occupies
type ContextUsage struct {
	UsedTokens   int     `json:"used_tokens"`
	WindowTokens int     `json:"window_tokens"`
	Percent      float64 `json:"percent"`
}

// ConversationView is a conversation snapshot with its live status
type ConversationView struct {
	*entities.Conversation
	Streaming    bool         `json:"streaming"`
	ContextUsage ContextUsage `json:"context_usage"`
}

// SessionSnapshot is a consistent copy of the whole session state
type SessionSnapshot struct {
	ID                     string                  `json:"id"`
	Conversations          []ConversationView      `json:"conversations"`
	ActiveConversationID   string                  `json:"active_conversation_id"`
	SelectedModelID        string                  `json:"selected_model_id"`
	Mode                   entities.Mode           `json:"mode"`
	SecretUnlocked         bool                    `json:"secret_unlocked"`
	UnlockProgress         int                     `json:"unlock_progress"`
	UnlockThreshold        int                     `json:"unlock_threshold"`
	Streaming              bool                    `json:"streaming"`
	PendingConversationIDs []string                `json:"pending_conversation_ids"`
	SearchResults          []entities.SearchResult `json:"search_results"`
	CreatedAt              time.Time               `json:"created_at"`
	LastActivity           time.Time               `json:"last_activity"`
}

// Snapshot copies the session state
func (s *Session) Snapshot() *SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ConversationView, len(s.conversations))
	for i, c := range s.conversations {
		views[i] = s.view(c)
	}

	pending := make([]string, 0, len(s.pending))
	for id := range s.pending {
		pending = append(pending, id)
	}
	sort.Strings(pending)

	return &SessionSnapshot{
		ID:                     s.id,
		Conversations:          views,
		ActiveConversationID:   s.activeConversationID,
		SelectedModelID:        s.selectedModelID,
		Mode:                   s.mode,
		SecretUnlocked:         s.secretUnlocked,
		UnlockProgress:         s.unlockProgress,
		UnlockThreshold:        s.opts.UnlockThreshold,
		Streaming:              len(s.pending) > 0,
		PendingConversationIDs: pending,
		SearchResults:          append([]entities.SearchResult{}, s.searchResults...),
		CreatedAt:              s.createdAt,
		LastActivity:           s.lastActivity,
	}
}

// Conversations returns every conversation in display order
func (s *Session) Conversations() []ConversationView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ConversationView, len(s.conversations))
	for i, c := range s.conversations {
		views[i] = s.view(c)
	}
	return views
}

// Conversation returns one conversation by id
func (s *Session) Conversation(conversationID string) (ConversationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.findConversation(conversationID)
	if c == nil {
		return ConversationView{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return s.view(c), nil
}

// ActiveConversation returns the active conversation
func (s *Session) ActiveConversation() (ConversationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.activeConversation()
	if c == nil {
		return ConversationView{}, ErrNoActiveConversation
	}
	return s.view(c), nil
}

func (s *Session) view(c *entities.Conversation) ConversationView {
	_, streaming := s.pending[c.ID]
	usage := ContextUsage{UsedTokens: c.TokenUsage()}
	if model, ok := s.catalog.Get(c.ModelID); ok && model.ContextWindowTokens > 0 {
		usage.WindowTokens = model.ContextWindowTokens
		usage.Percent = float64(usage.UsedTokens) / float64(model.ContextWindowTokens) * 100
	}
	return ConversationView{
		Conversation: c.Snapshot(),
		Streaming:    streaming,
		ContextUsage: usage,
	}
}

func (s *Session) newConversation(model entities.Model, now time.Time) *entities.Conversation {
	c := entities.NewConversation(model.ID, Greeting(model), now)
	c.Messages[0].TokenCount = s.countTokens(c.Messages[0].Content)
	return c
}

func (s *Session) findConversation(id string) *entities.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Session) activeConversation() *entities.Conversation {
	return s.findConversation(s.activeConversationID)
}

func (s *Session) limiterFor(model entities.Model) *rate.Limiter {
	if limiter, ok := s.limiters[model.ID]; ok {
		return limiter
	}

	limit := rate.Inf
	burst := model.RateLimits.Burst
	if model.RateLimits.RPM > 0 {
		limit = rate.Limit(float64(model.RateLimits.RPM) / 60)
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := rate.NewLimiter(limit, burst)
	s.limiters[model.ID] = limiter
	return limiter
}

func (s *Session) countTokens(text string) int {
	if s.tokens == nil {
		return 0
	}
	return s.tokens.CountTokens(text)
}

func (s *Session) unlockState() UnlockState {
	return UnlockState{
		Progress:  s.unlockProgress,
		Threshold: s.opts.UnlockThreshold,
		Unlocked:  s.secretUnlocked,
	}
}

func (s *Session) touch() time.Time {
	now := s.scheduler.Now()
	s.lastActivity = now
	return now
}

func (s *Session) batch(now time.Time) *eventBatch {
	return &eventBatch{sessionID: s.id, now: now, seq: &s.eventSeq}
}

func validMode(mode entities.Mode) bool {
	switch mode {
	case entities.ModeConversation, entities.ModeSearch, entities.ModeDeepThink:
		return true
	}
	return false
}

func copyMessage(m *entities.Message) *entities.Message {
	cp := *m
	return &cp
}
