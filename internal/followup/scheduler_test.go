package followup_test

import (
	"testing"
	"time"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/engine"
	"whatsapp-salesbot/internal/followup"
	"whatsapp-salesbot/internal/funnel"
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

func newScheduler(t *testing.T) (*followup.Scheduler, *database.Store, *fakeTransport) {
	t.Helper()
	store := testutil.NewStore(t)
	require.NoError(t, store.SeedScripts(script.Seeds()))
	cls := classifier.New(zap.NewNop())
	rulebook := script.NewRulebook(store, cls, zap.NewNop())
	transport := &fakeTransport{}
	scheduler := followup.New(store, cls, rulebook, transport, "Ebook de Marketing Digital", 48*time.Hour, 48*time.Hour, zap.NewNop())
	return scheduler, store, transport
}

func idleContact(t *testing.T, store *database.Store, name string, now time.Time) uint {
	t.Helper()
	contact, err := store.GetOrCreateContact(name, "moda", "vendas baixas")
	require.NoError(t, err)
	require.NoError(t, store.UpdateEngagement(contact.ID, funnel.EngagementNeutral, funnel.StageProspecting, now.Add(-72*time.Hour)))
	return contact.ID
}

func TestRunSendsFollowUpAndStamps(t *testing.T) {
	scheduler, store, transport := newScheduler(t)
	now := time.Now()
	id := idleContact(t, store, "Ana", now)

	require.NoError(t, scheduler.Run(now))

	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "Ana")
	assert.Contains(t, transport.sent[0], "Lembrei de você")

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	require.NotNil(t, got.LastFollowUp)

	messages, err := store.MessagesForContact(id, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	// A second pass in the same window finds nothing due.
	require.NoError(t, scheduler.Run(now))
	assert.Len(t, transport.sent, 1)
}

func TestRunStampsEvenWhenSendFails(t *testing.T) {
	scheduler, store, transport := newScheduler(t)
	transport.failures = 1
	now := time.Now()
	id := idleContact(t, store, "Ana", now)

	require.NoError(t, scheduler.Run(now))

	assert.Empty(t, transport.sent)

	got, err := store.ContactByName("Ana")
	require.NoError(t, err)
	require.NotNil(t, got.LastFollowUp)

	messages, err := store.MessagesForContact(id, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRunSkipsOptedOutContacts(t *testing.T) {
	scheduler, store, transport := newScheduler(t)
	now := time.Now()
	id := idleContact(t, store, "Ana", now)
	require.NoError(t, store.MarkOptOut(id))

	require.NoError(t, scheduler.Run(now))
	assert.Empty(t, transport.sent)
}

func TestRunSkipsActiveContacts(t *testing.T) {
	scheduler, store, transport := newScheduler(t)
	now := time.Now()

	contact, err := store.GetOrCreateContact("Ana", "", "")
	require.NoError(t, err)
	require.NoError(t, store.UpdateEngagement(contact.ID, funnel.EngagementNeutral, funnel.StageProspecting, now.Add(-1*time.Hour)))

	require.NoError(t, scheduler.Run(now))
	assert.Empty(t, transport.sent)
}
