package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/oculusai/console/internal/adapters/api/websocket"
	"github.com/oculusai/console/internal/domain/entities"
	"github.com/oculusai/console/internal/domain/metrics"
	"github.com/oculusai/console/internal/domain/ports"
	"github.com/oculusai/console/internal/domain/services"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/httputil"
	"github.com/oculusai/console/internal/pkg/logutil"
)

// sessionKey holds the *services.Session resolved from the :sid path parameter
const sessionKey = "session"

var (
	errInputTooLong = fmt.Errorf("input exceeds %d characters", constants.MaxInputLength)
	errQueryTooLong = fmt.Errorf("query exceeds %d characters", constants.MaxQueryLength)
	errModelHidden  = errors.New(constants.ErrMsgModelNotFound)
)

// statusReporter is implemented by messaging adapters that expose connection details
type statusReporter interface {
	Status() map[string]interface{}
}

// APIHandlers contains all HTTP API handlers
type APIHandlers struct {
	registry         *services.SessionRegistry
	messaging        ports.MessagingPort
	forms            *services.FormValidator
	metricsCollector *metrics.Collector
	wsHub            *websocket.Hub
	logger           *logutil.Logger
	middleware       httputil.MiddlewareConfig
	startedAt        time.Time
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(registry *services.SessionRegistry, messaging ports.MessagingPort, forms *services.FormValidator, mc *metrics.Collector, hub *websocket.Hub, logger *logutil.Logger, mw httputil.MiddlewareConfig) *APIHandlers {
	if logger == nil {
		logger = logutil.NewDefaultLogger()
	}
	if forms == nil {
		forms = services.NewFormValidator()
	}
	return &APIHandlers{
		registry:         registry,
		messaging:        messaging,
		forms:            forms,
		metricsCollector: mc,
		wsHub:            hub,
		logger:           logger,
		middleware:       mw,
		startedAt:        time.Now(),
	}
}

// SetupRoutes configures all API routes
func (h *APIHandlers) SetupRoutes(r *gin.Engine) {
	var observe func(time.Duration)
	if h.metricsCollector != nil {
		observe = h.metricsCollector.RecordResponseTime
	}

	r.Use(
		httputil.RequestIDMiddleware(),
		httputil.RequestLogger(h.logger, observe),
		httputil.CORSMiddleware(h.middleware),
		httputil.TimeoutMiddleware(h.middleware.Timeouts),
	)

	// Health check
	r.GET("/health", h.handleHealth)

	if h.wsHub != nil {
		r.GET("/ws", h.wsHub.HandleWebSocket)
	}

	api := r.Group("/api/" + constants.APIVersion)
	{
		// Sessions
		api.GET("/sessions", h.listSessions)
		api.POST("/sessions", h.createSession)

		session := api.Group("/sessions/:sid", h.loadSession)
		{
			session.GET("", h.getSession)
			session.DELETE("", h.closeSession)

			// Conversations
			session.GET("/conversations", h.listConversations)
			session.POST("/conversations", h.createConversation)
			session.GET("/conversations/:cid", h.getConversation)
			session.DELETE("/conversations/:cid", h.deleteConversation)
			session.PUT("/active-conversation", h.selectConversation)

			// Model and mode
			session.GET("/models", h.listSessionModels)
			session.PUT("/model", h.selectModel)
			session.PUT("/mode", h.setMode)
			session.GET("/hints", h.getHints)

			// Input and search
			session.POST("/input", h.submitInput)
			session.POST("/search", h.search)
			session.DELETE("/search", h.clearSearch)

			session.POST("/unlock", h.unlockSecretTap)
		}

		// Public catalog
		api.GET("/models", h.listModels)
		api.GET("/models/:id", h.getModel)
		api.GET("/plans", h.listPlans)
		api.GET("/account-types", h.listAccountTypes)

		// Forms
		api.POST("/register", h.validateRegistration)
		api.POST("/checkout", h.validateCheckout)

		// System metrics and health
		api.GET("/system/health", h.getSystemHealth)
		api.GET("/system/metrics", h.getSystemMetrics)
		api.GET("/system/connections", h.getSystemConnections)
	}
}

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBlankInput), errors.Is(err, services.ErrInvalidMode):
		httputil.BadRequestError(c, err)
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrConversationNotFound):
		httputil.NotFoundError(c, err)
	case errors.Is(err, services.ErrReplyPending),
		errors.Is(err, services.ErrNoActiveConversation),
		errors.Is(err, services.ErrNoActiveModel):
		httputil.ConflictError(c, err)
	case errors.Is(err, services.ErrRateLimited):
		httputil.TooManyRequestsError(c, err)
	case errors.Is(err, services.ErrSessionClosed):
		httputil.GoneError(c, err)
	case errors.Is(err, services.ErrTooManySessions):
		httputil.ServiceUnavailableError(c, err)
	default:
		httputil.InternalServerError(c, err)
	}
}

// Health check endpoint
func (h *APIHandlers) handleHealth(c *gin.Context) {
	status := gin.H{
		"status":    constants.StatusOK,
		"timestamp": time.Now().Unix(),
		"service":   constants.ServiceName,
		"version":   constants.ServiceVersion,
		"sessions":  h.registry.Count(),
	}

	if err := h.messaging.Ping(); err != nil {
		status["status"] = constants.StatusDegraded
		status["messaging"] = constants.StatusError
		status["messaging_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["messaging"] = constants.StatusOK

	c.JSON(http.StatusOK, status)
}

// Session handlers

func (h *APIHandlers) loadSession(c *gin.Context) {
	sid, err := httputil.RequiredParam(c, "sid")
	if err != nil {
		httputil.BadRequestError(c, err)
		c.Abort()
		return
	}

	session, err := h.registry.Get(sid)
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}

	c.Set(sessionKey, session)
	c.Set(constants.ContextKeySessionID, sid)
	c.Header(constants.HeaderSessionID, sid)
	c.Next()
}

func currentSession(c *gin.Context) *services.Session {
	return c.MustGet(sessionKey).(*services.Session)
}

func (h *APIHandlers) listSessions(c *gin.Context) {
	summaries := h.registry.List()
	if httputil.ParseBoolParam(c, "streaming_only", false) {
		streaming := summaries[:0]
		for _, summary := range summaries {
			if summary.Streaming {
				streaming = append(streaming, summary)
			}
		}
		summaries = streaming
	}

	pagination := httputil.ParsePaginationParams(c)
	page := httputil.Paginate(summaries, &pagination)
	httputil.SuccessResponseWithMeta(c, page, pagination)
}

func (h *APIHandlers) createSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.BadRequestError(c, err)
			return
		}
	}
	if model := c.Query("model"); model != "" {
		req.ModelParam = model
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	session, err := h.registry.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(constants.HeaderSessionID, session.ID())
	httputil.CreatedResponse(c, session.Snapshot())
}

func (h *APIHandlers) getSession(c *gin.Context) {
	httputil.SuccessResponse(c, currentSession(c).Snapshot())
}

func (h *APIHandlers) closeSession(c *gin.Context) {
	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	sid := c.GetString(constants.ContextKeySessionID)
	if err := h.registry.Close(ctx, sid); err != nil {
		respondError(c, err)
		return
	}

	httputil.SuccessResponse(c, gin.H{"message": constants.MsgSessionClosed, "session_id": sid})
}

// Conversation handlers

func (h *APIHandlers) listConversations(c *gin.Context) {
	session := currentSession(c)
	pagination := httputil.ParsePaginationParams(c)
	page := httputil.Paginate(session.Conversations(), &pagination)

	httputil.SuccessResponseWithMeta(c, page, gin.H{
		"limit":                  pagination.Limit,
		"offset":                 pagination.Offset,
		"total":                  pagination.Total,
		"active_conversation_id": session.Snapshot().ActiveConversationID,
	})
}

func (h *APIHandlers) createConversation(c *gin.Context) {
	var req struct {
		ModelID string `json:"model_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.BadRequestError(c, err)
			return
		}
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	session := currentSession(c)
	conversation, err := session.CreateConversation(ctx, req.ModelID)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := session.Conversation(conversation.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.CreatedResponse(c, view)
}

func (h *APIHandlers) getConversation(c *gin.Context) {
	view, err := currentSession(c).Conversation(c.Param("cid"))
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponse(c, view)
}

func (h *APIHandlers) deleteConversation(c *gin.Context) {
	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	session := currentSession(c)
	cid := c.Param("cid")
	if err := session.DeleteConversation(ctx, cid); err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponseWithMeta(c, session.Snapshot(), gin.H{"message": constants.MsgConversationDeleted, "conversation_id": cid})
}

func (h *APIHandlers) selectConversation(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	session := currentSession(c)
	if _, err := session.SelectConversation(ctx, req.ConversationID); err != nil {
		respondError(c, err)
		return
	}

	view, err := session.ActiveConversation()
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponseWithMeta(c, view, gin.H{"selected_model_id": session.SelectedModel().ID})
}

// Model and mode handlers

func (h *APIHandlers) listSessionModels(c *gin.Context) {
	session := currentSession(c)
	httputil.SuccessResponseWithMeta(c, session.Options(), gin.H{
		"selected_model_id": session.SelectedModel().ID,
		"unlock":            session.UnlockState(),
	})
}

func (h *APIHandlers) selectModel(c *gin.Context) {
	var req struct {
		ModelID string `json:"model_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	model, err := currentSession(c).SelectModel(ctx, req.ModelID)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponse(c, model)
}

func (h *APIHandlers) setMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	mode, err := entities.ParseMode(req.Mode)
	if err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	session := currentSession(c)
	if err := session.SetMode(ctx, mode); err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponse(c, gin.H{"mode": session.Mode(), "hints": session.Hints()})
}

func (h *APIHandlers) getHints(c *gin.Context) {
	session := currentSession(c)
	httputil.SuccessResponse(c, gin.H{
		"mode":     session.Mode(),
		"model_id": session.SelectedModel().ID,
		"hints":    session.Hints(),
	})
}

// Input handlers

func (h *APIHandlers) submitInput(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequestError(c, err)
		return
	}
	if utf8.RuneCountInString(req.Text) > constants.MaxInputLength {
		httputil.BadRequestError(c, errInputTooLong)
		return
	}

	var mode entities.Mode
	if strings.TrimSpace(req.Mode) != "" {
		parsed, err := entities.ParseMode(req.Mode)
		if err != nil {
			httputil.BadRequestError(c, err)
			return
		}
		mode = parsed
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	result, err := currentSession(c).SubmitInput(ctx, req.Text, mode)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.ReplyDueAt != nil {
		httputil.AcceptedResponse(c, result)
		return
	}
	httputil.SuccessResponse(c, result)
}

func (h *APIHandlers) search(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequestError(c, err)
		return
	}
	if utf8.RuneCountInString(req.Query) > constants.MaxQueryLength {
		httputil.BadRequestError(c, errQueryTooLong)
		return
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	results, err := currentSession(c).Search(ctx, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponseWithMeta(c, results, gin.H{"query": req.Query, "count": len(results)})
}

func (h *APIHandlers) clearSearch(c *gin.Context) {
	currentSession(c).ClearSearch()
	httputil.SuccessResponse(c, gin.H{"message": constants.MsgSearchCleared})
}

func (h *APIHandlers) unlockSecretTap(c *gin.Context) {
	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	state, err := currentSession(c).UnlockSecretTap(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.SuccessResponse(c, state)
}

// Catalog handlers

func (h *APIHandlers) listModels(c *gin.Context) {
	models := h.registry.Catalog().Public()
	httputil.SuccessResponseWithMeta(c, models, gin.H{"count": len(models)})
}

func (h *APIHandlers) getModel(c *gin.Context) {
	model, ok := h.registry.Catalog().GetPublic(c.Param("id"))
	if !ok {
		httputil.NotFoundError(c, errModelHidden)
		return
	}
	httputil.SuccessResponse(c, model)
}

func (h *APIHandlers) listPlans(c *gin.Context) {
	httputil.SuccessResponse(c, services.Plans())
}

func (h *APIHandlers) listAccountTypes(c *gin.Context) {
	httputil.SuccessResponse(c, services.AccountTypes())
}

// Form handlers

func (h *APIHandlers) validateRegistration(c *gin.Context) {
	var form services.RegistrationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	if fields := h.forms.ValidateRegistration(form); !fields.Valid() {
		httputil.FieldErrorResponse(c, "registration is invalid", fields)
		return
	}
	httputil.SuccessResponse(c, gin.H{"valid": true, "message": constants.MsgRegistrationReceived, "email": form.Email, "account_type": form.AccountType})
}

func (h *APIHandlers) validateCheckout(c *gin.Context) {
	var form services.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		httputil.BadRequestError(c, err)
		return
	}

	if fields := h.forms.ValidateCheckout(form); !fields.Valid() {
		httputil.FieldErrorResponse(c, "checkout is invalid", fields)
		return
	}
	httputil.SuccessResponse(c, gin.H{"valid": true, "message": constants.MsgCheckoutReceived, "plan": form.Plan})
}

// System handlers

func (h *APIHandlers) getSystemHealth(c *gin.Context) {
	health := gin.H{
		"api":       constants.StatusHealthy,
		"messaging": constants.StatusHealthy,
		"sessions":  h.registry.Count(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now(),
	}

	if err := h.messaging.Ping(); err != nil {
		health["messaging"] = constants.StatusError
		health["messaging_error"] = err.Error()
	}
	if reporter, ok := h.messaging.(statusReporter); ok {
		health["messaging_status"] = reporter.Status()
	}

	httputil.SuccessResponse(c, health)
}

func (h *APIHandlers) getSystemMetrics(c *gin.Context) {
	if h.metricsCollector == nil {
		httputil.ServiceUnavailableError(c, errors.New(constants.ErrMsgMetricsDisabled))
		return
	}

	ctx, cancel := httputil.WithOperationContext(c, httputil.OperationSession)
	defer cancel()

	httputil.SuccessResponse(c, h.metricsCollector.GetSystemMetrics(ctx))
}

func (h *APIHandlers) getSystemConnections(c *gin.Context) {
	connections := gin.H{
		"sessions":  h.registry.Count(),
		"websocket": 0,
		"timestamp": time.Now(),
	}

	if h.wsHub != nil {
		stats := h.wsHub.GetStats()
		connections["websocket"] = stats["total_connections"]
		connections["rooms"] = stats["sessions"]
	}

	httputil.SuccessResponse(c, connections)
}
