package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculusai/console/internal/adapters/messaging/memory"
	"github.com/oculusai/console/internal/domain/metrics"
	"github.com/oculusai/console/internal/domain/services"
	"github.com/oculusai/console/internal/pkg/constants"
	"github.com/oculusai/console/internal/pkg/httputil"
	"github.com/oculusai/console/internal/pkg/logutil"
	"github.com/oculusai/console/pkg/tokenizer"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Meta    json.RawMessage   `json:"meta"`
}

type apiFixture struct {
	router    *gin.Engine
	registry  *services.SessionRegistry
	bus       *memory.Bus
	collector *metrics.Collector
}

func newAPIFixture(t *testing.T, mutate ...func(*services.RegistryOptions)) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logutil.NewNopLogger()
	bus := memory.NewBus(logger)
	collector := metrics.NewCollector()

	opts := services.RegistryOptions{
		Session: services.SessionOptions{
			Messaging:    bus,
			TokenCounter: tokenizer.HeuristicCounter{},
			Metrics:      collector,
			Logger:       logger,
			// replies never land while a test runs
			ConversationLatency: time.Hour,
			DeepThinkLatency:    time.Hour,
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	registry := services.NewSessionRegistry(opts)
	t.Cleanup(func() { registry.CloseAll(context.Background()) })

	handlers := NewAPIHandlers(registry, bus, nil, collector, nil, logger, httputil.DefaultMiddlewareConfig)
	router := gin.New()
	handlers.SetupRoutes(router)

	return &apiFixture{router: router, registry: registry, bus: bus, collector: collector}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(constants.HeaderContentType, "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (f *apiFixture) createSession(t *testing.T, query string) services.SessionSnapshot {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/sessions"+query, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var snapshot services.SessionSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	return snapshot
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, constants.StatusOK, health["status"])
	assert.Equal(t, constants.ServiceVersion, health["version"])

	require.NoError(t, f.bus.Close())
	w, _ = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, constants.StatusDegraded, health["status"])
	assert.Equal(t, constants.StatusError, health["messaging"])
}

func TestCreateSession(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snapshot := decode[services.SessionSnapshot](t, env.Data)

	assert.Equal(t, snapshot.ID, w.Header().Get(constants.HeaderSessionID))
	assert.Len(t, snapshot.Conversations, 1)
	assert.Equal(t, services.DefaultModelID, snapshot.SelectedModelID)
	assert.False(t, snapshot.SecretUnlocked)

	w, env = f.do(t, http.MethodGet, "/api/v1/sessions/"+snapshot.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snapshot.ID, decode[services.SessionSnapshot](t, env.Data).ID)

	w, env = f.do(t, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.SessionSummary](t, env.Data), 1)
}

func TestListSessions_StreamingOnly(t *testing.T) {
	f := newAPIFixture(t)
	busy := f.createSession(t, "")
	f.createSession(t, "")

	w, _ := f.do(t, http.MethodPost, "/api/v1/sessions/"+busy.ID+"/input", gin.H{"text": "still thinking"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w, env := f.do(t, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.SessionSummary](t, env.Data), 2)

	w, env = f.do(t, http.MethodGet, "/api/v1/sessions?streaming_only=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	streaming := decode[[]services.SessionSummary](t, env.Data)
	require.Len(t, streaming, 1)
	assert.Equal(t, busy.ID, streaming[0].ID)
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, env.Meta)["total"])
}

func TestCreateSession_ModelParameter(t *testing.T) {
	f := newAPIFixture(t)

	secret := f.createSession(t, "?model="+services.SecretModelAlias)
	assert.True(t, secret.SecretUnlocked)
	assert.Equal(t, "openflowith-1.0", secret.SelectedModelID)

	w, env := f.do(t, http.MethodPost, "/api/v1/sessions", services.CreateSessionRequest{ModelParam: "oculus-mini-1.0"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "oculus-mini-1.0", decode[services.SessionSnapshot](t, env.Data).SelectedModelID)

	unknown := f.createSession(t, "?model=gpt-9")
	assert.Equal(t, services.DefaultModelID, unknown.SelectedModelID)
}

func TestCreateSession_TooMany(t *testing.T) {
	f := newAPIFixture(t, func(o *services.RegistryOptions) { o.MaxSessions = 1 })

	f.createSession(t, "")
	w, env := f.do(t, http.MethodPost, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
}

func TestUnknownSessionAndConversation(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodGet, "/api/v1/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, env.Error, "session not found")

	session := f.createSession(t, "")
	w, _ = f.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID+"/conversations/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/sessions/"+session.ID+"/conversations/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPut, "/api/v1/sessions/"+session.ID+"/active-conversation", gin.H{"conversation_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	base := "/api/v1/sessions/" + session.ID
	first := session.Conversations[0].ID

	w, env := f.do(t, http.MethodPost, base+"/conversations", gin.H{"model_id": "oculus-mini-1.0"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[services.ConversationView](t, env.Data)
	assert.Equal(t, "oculus-mini-1.0", created.ModelID)

	w, env = f.do(t, http.MethodGet, base+"/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]services.ConversationView](t, env.Data)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	meta := decode[map[string]interface{}](t, env.Meta)
	assert.Equal(t, created.ID, meta["active_conversation_id"])
	assert.Equal(t, float64(2), meta["total"])

	w, env = f.do(t, http.MethodPut, base+"/active-conversation", gin.H{"conversation_id": first})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, decode[services.ConversationView](t, env.Data).ID)
	assert.Contains(t, string(env.Meta), services.DefaultModelID)

	w, env = f.do(t, http.MethodDelete, base+"/conversations/"+first, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgConversationDeleted, decode[map[string]interface{}](t, env.Meta)["message"])
	after := decode[services.SessionSnapshot](t, env.Data)
	require.Len(t, after.Conversations, 1)
	assert.Equal(t, created.ID, after.Conversations[0].ID)

	w, _ = f.do(t, http.MethodPut, base+"/active-conversation", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitInput(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	path := "/api/v1/sessions/" + session.ID + "/input"

	w, env := f.do(t, http.MethodPost, path, gin.H{"text": "Describe this zebra"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	result := decode[services.SubmitResult](t, env.Data)
	require.NotNil(t, result.ReplyDueAt)
	assert.Equal(t, "Describe this zebra", result.UserMessage.Content)
	assert.Equal(t, "Describe this zebra", result.Title)

	w, env = f.do(t, http.MethodPost, path, gin.H{"text": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Error, "pending")

	w, _ = f.do(t, http.MethodPost, path, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, path, gin.H{"text": "hi", "mode": "shouting"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = f.do(t, http.MethodPost, path, gin.H{"text": "zebra", "mode": "search"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[services.SubmitResult](t, env.Data).SearchResults, 1)

	w, env = f.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.SessionSnapshot](t, env.Data).Streaming)
}

func TestSearchAndClear(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	base := "/api/v1/sessions/" + session.ID

	w, _ := f.do(t, http.MethodPost, base+"/input", gin.H{"text": "A quokka on the beach"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w, env := f.do(t, http.MethodPost, base+"/search", gin.H{"query": "QUOKKA"})
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]map[string]interface{}](t, env.Data)
	require.Len(t, results, 1)
	assert.Equal(t, "quokka", results[0]["match"])

	w, env = f.do(t, http.MethodDelete, base+"/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.MsgSearchCleared, decode[map[string]interface{}](t, env.Data)["message"])

	w, env = f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[services.SessionSnapshot](t, env.Data).SearchResults)
}

func TestModeModelAndHints(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	base := "/api/v1/sessions/" + session.ID

	w, env := f.do(t, http.MethodPut, base+"/mode", gin.H{"mode": "DeepThink"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deepthink", decode[map[string]interface{}](t, env.Data)["mode"])

	w, _ = f.do(t, http.MethodPut, base+"/mode", gin.H{"mode": "loud"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = f.do(t, http.MethodPut, base+"/model", gin.H{"model_id": "oculus-mini-1.0"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"id":"oculus-mini-1.0"`)

	// hidden secret model snaps back to a visible one
	w, env = f.do(t, http.MethodPut, base+"/model", gin.H{"model_id": "openflowith-1.0"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), `"id":"openflowith-1.0"`)

	w, env = f.do(t, http.MethodGet, base+"/hints", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hints := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "deepthink", hints["mode"])
	assert.NotEmpty(t, hints["hints"])
}

func TestUnlockSecretTap(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	base := "/api/v1/sessions/" + session.ID

	_, env := f.do(t, http.MethodGet, base+"/models", nil)
	assert.NotContains(t, string(env.Data), "openflowith-1.0")

	var state services.UnlockState
	for i := 1; i <= 3; i++ {
		w, env := f.do(t, http.MethodPost, base+"/unlock", nil)
		require.Equal(t, http.StatusOK, w.Code)
		state = decode[services.UnlockState](t, env.Data)
		assert.Equal(t, i, state.Progress)
	}
	assert.True(t, state.Unlocked)

	w, env := f.do(t, http.MethodGet, base+"/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "openflowith-1.0")
}

func TestCloseSession(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	base := "/api/v1/sessions/" + session.ID

	w, _ := f.do(t, http.MethodPost, base+"/input", gin.H{"text": "pending"})
	require.Equal(t, http.StatusAccepted, w.Code)

	w, env := f.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	closed := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, constants.MsgSessionClosed, closed["message"])
	assert.Equal(t, session.ID, closed["session_id"])

	w, _ = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats := f.collector.Snapshot()
	assert.Equal(t, int64(1), stats.ReplyFlow.Cancelled)
	assert.Equal(t, int64(1), stats.Sessions.Closed)
}

func TestPublicCatalog(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodGet, "/api/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "openflowith")

	w, _ = f.do(t, http.MethodGet, "/api/v1/models/oculus-mini-1.0", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/models/openflowith-1.0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, constants.ErrMsgModelNotFound, env.Error)

	w, env = f.do(t, http.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.Plan](t, env.Data), 3)

	w, env = f.do(t, http.MethodGet, "/api/v1/account-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.AccountType](t, env.Data), 3)
}

func TestFormValidation(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/v1/register", services.RegistrationForm{Email: "nope", Password: "Secret123", AccountType: "builder"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]string{"email": "Please enter a valid email address"}, env.Fields)

	w, _ = f.do(t, http.MethodPost, "/api/v1/register", services.RegistrationForm{Email: "ada@oculus.ai", Password: "Secret123", AccountType: "builder"})
	assert.Equal(t, http.StatusOK, w.Code)

	checkout := services.CheckoutForm{Plan: "growth", CardNumber: "4242 4242 4242 4242", Expiry: "09/27", CVC: "123", Name: "Ada Lovelace"}
	w, _ = f.do(t, http.MethodPost, "/api/v1/checkout", checkout)
	assert.Equal(t, http.StatusOK, w.Code)

	checkout.CVC = "12"
	w, env = f.do(t, http.MethodPost, "/api/v1/checkout", checkout)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "CVC must be 3 or 4 digits", env.Fields["cvc"])
}

func TestSystemEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	session := f.createSession(t, "")
	f.do(t, http.MethodPost, "/api/v1/sessions/"+session.ID+"/input", gin.H{"text": "count me"})

	w, env := f.do(t, http.MethodGet, "/api/v1/system/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := decode[metrics.SystemMetrics](t, env.Data)
	assert.Equal(t, int64(1), snapshot.ReplyFlow.Submitted)
	assert.Equal(t, int64(1), snapshot.Sessions.Active)

	w, env = f.do(t, http.MethodGet, "/api/v1/system/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "healthy", health["messaging"])
	assert.Equal(t, float64(1), health["sessions"])

	w, env = f.do(t, http.MethodGet, "/api/v1/system/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]interface{}](t, env.Data)["websocket"])
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodOptions, "/api/v1/sessions", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
