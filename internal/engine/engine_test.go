package engine_test

import (
	"testing"
	"time"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/engine"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
	"whatsapp-salesbot/internal/script"
	"whatsapp-salesbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	sent     []string
	failures int
}

func (f *fakeTransport) Send(contactName, text string) engine.SendResult {
	if f.failures > 0 {
		f.failures--
		return engine.SendResult{OK: false, Reason: "simulated failure"}
	}
	f.sent = append(f.sent, text)
	return engine.SendResult{OK: true}
}

func (f *fakeTransport) ReceiveLatest(contactName string, window time.Duration) ([]string, error) {
	return nil, nil
}

func newEngine(t *testing.T) (*engine.Engine, *database.Store, *fakeTransport) {
	t.Helper()
	store := testutil.NewStore(t)
	require.NoError(t, store.SeedScripts(script.Seeds()))
	cls := classifier.New(zap.NewNop())
	rulebook := script.NewRulebook(store, cls, zap.NewNop())
	transport := &fakeTransport{}
	eng := engine.New(store, cls, rulebook, transport, "Ebook de Marketing Digital", zap.NewNop())
	return eng, store, transport
}

func mustContact(t *testing.T, store *database.Store, name, industry, painPoint string) *models.Contact {
	t.Helper()
	contact, err := store.GetOrCreateContact(name, industry, painPoint)
	require.NoError(t, err)
	return contact
}

func TestHandleInboundInquiryAdvancesFunnel(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "moda", "vendas baixas")

	processed, err := eng.HandleInbound(contact, "Olá! Gostaria de saber mais sobre o produto")
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, string(funnel.StageNurturing), contact.CurrentStage)
	assert.Equal(t, string(funnel.EngagementPositive), contact.EngagementLevel)

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, 65, got.LeadScore)
	assert.Equal(t, string(funnel.StageNurturing), got.CurrentStage)

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "Ana")
	assert.Contains(t, transport.sent[0], "moda")

	messages, err := store.MessagesForContact(contact.ID, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestHandleInboundDuplicateIsNoOp(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "moda", "vendas baixas")

	processed, err := eng.HandleInbound(contact, "Gostaria de saber mais sobre o produto")
	require.NoError(t, err)
	require.True(t, processed)
	sentBefore := len(transport.sent)

	processed, err = eng.HandleInbound(contact, "Gostaria de saber mais sobre o produto")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Len(t, transport.sent, sentBefore)

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, 65, got.LeadScore)
}

func TestHandleInboundEmptyText(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "", "")

	processed, err := eng.HandleInbound(contact, "   ")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Empty(t, transport.sent)
}

func TestHandleInboundPurchaseIntentRoutesToClosing(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "moda", "vendas baixas")

	processed, err := eng.HandleInbound(contact, "quero comprar agora")
	require.NoError(t, err)
	assert.True(t, processed)

	// Reply comes from the closing script, but the persisted stage stays
	// sentiment-derived.
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "oferta especial")

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, string(funnel.StageNurturing), got.CurrentStage)
	assert.Equal(t, 65, got.LeadScore)

	closing, err := store.ScriptsByStage(funnel.StageClosing)
	require.NoError(t, err)
	require.Len(t, closing, 1)
	assert.Equal(t, 1, closing[0].UseCount)
	assert.Equal(t, 1, closing[0].SuccessCount)
}

func TestHandleInboundOptOutIsTerminal(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "", "")

	processed, err := eng.HandleInbound(contact, "Não, pare de me enviar mensagens")
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "Respeito sua decisão")

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, string(funnel.StageOptOut), got.CurrentStage)
	assert.Equal(t, string(funnel.EngagementNegative), got.EngagementLevel)
	assert.Equal(t, 0, got.LeadScore)

	// Nothing else reaches an opted-out contact.
	processed, err = eng.HandleInbound(contact, "mudei de ideia")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Len(t, transport.sent, 1)
}

func TestHandleInboundSendFailureSkipsScoring(t *testing.T) {
	eng, store, transport := newEngine(t)
	transport.failures = 1
	contact := mustContact(t, store, "Ana", "", "")

	processed, err := eng.HandleInbound(contact, "Gostaria de saber mais sobre o produto")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, transport.sent)

	// The inbound turn is logged, but without a delivered reply there is no
	// score movement and no success counter.
	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, 50, got.LeadScore)

	messages, err := store.MessagesForContact(contact.ID, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestHandleInitialOutreach(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "moda", "vendas baixas")

	sent, err := eng.HandleInitialOutreach(contact)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "Olá, Ana!")

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.True(t, got.InitialMessageSent)

	sent, err = eng.HandleInitialOutreach(contact)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, transport.sent, 1)
}

func TestHandleInboundNegativeLowersScore(t *testing.T) {
	eng, store, transport := newEngine(t)
	contact := mustContact(t, store, "Ana", "", "")

	processed, err := eng.HandleInbound(contact, "achei bem caro esse material")
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, transport.sent, 1)

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	assert.Equal(t, 40, got.LeadScore)
	assert.Equal(t, string(funnel.StageObjection), got.CurrentStage)
}
