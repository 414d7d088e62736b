package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whatsapp-salesbot/internal/analytics"
	"whatsapp-salesbot/internal/api"
	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
	"whatsapp-salesbot/internal/script"
	"whatsapp-salesbot/internal/testutil"
	"whatsapp-salesbot/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewStore(t)
	require.NoError(t, store.SeedScripts(script.Seeds()))
	cls := classifier.New(zap.NewNop())
	rulebook := script.NewRulebook(store, cls, zap.NewNop())
	reporter := analytics.NewReporter(store)
	hub := ws.NewHub(zap.NewNop())

	return api.NewRouter(store, rulebook, reporter, hub), store
}

func TestGetAnalyticsContacts(t *testing.T) {
	router, store := newRouter(t)

	_, err := store.GetOrCreateContact("Ana", "moda", "vendas baixas")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/contacts", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var reports []analytics.ContactReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "Ana", reports[0].Name)
	assert.Equal(t, 50, reports[0].LeadScore)
}

func TestGetMessagesRequiresContact(t *testing.T) {
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesUnknownContact(t *testing.T) {
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages?contact=Ninguem", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMessagesForContact(t *testing.T) {
	router, store := newRouter(t)

	contact, err := store.GetOrCreateContact("Ana", "", "")
	require.NoError(t, err)
	require.NoError(t, store.LogMessage(contact.ID, "oi", models.SenderUser, classifier.SentimentNeutral))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/messages?contact=Ana", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "oi", messages[0].Message)
}

func TestTrainScript(t *testing.T) {
	router, store := newRouter(t)

	body := `{"stage":"objection","keyword":"prazo","response":"O {product} chega rápido, {contact_name}!","tone":"casual"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scripts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	scripts, err := store.ScriptsByStage(funnel.StageObjection)
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	assert.Equal(t, "prazo", scripts[2].Keyword)
	assert.Equal(t, "casual", scripts[2].Tone)
}

func TestTrainScriptRejectsMissingFields(t *testing.T) {
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scripts", strings.NewReader(`{"stage":"objection"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
