package funnel_test

import (
	"testing"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/funnel"

	"github.com/stretchr/testify/assert"
)

func TestNextStage(t *testing.T) {
	assert.Equal(t, funnel.StageNurturing, funnel.NextStage(classifier.SentimentPositive))
	assert.Equal(t, funnel.StageNurturing, funnel.NextStage(classifier.SentimentCurious))
	assert.Equal(t, funnel.StageObjection, funnel.NextStage(classifier.SentimentNegative))
	assert.Equal(t, funnel.StageProspecting, funnel.NextStage(classifier.SentimentHesitant))
	assert.Equal(t, funnel.StageProspecting, funnel.NextStage(classifier.SentimentNeutral))
}

func TestEngagementFor(t *testing.T) {
	assert.Equal(t, funnel.EngagementPositive, funnel.EngagementFor(classifier.SentimentPositive))
	assert.Equal(t, funnel.EngagementPositive, funnel.EngagementFor(classifier.SentimentCurious))
	assert.Equal(t, funnel.EngagementNegative, funnel.EngagementFor(classifier.SentimentNegative))
	assert.Equal(t, funnel.EngagementNeutral, funnel.EngagementFor(classifier.SentimentNeutral))
	assert.Equal(t, funnel.EngagementNeutral, funnel.EngagementFor(classifier.SentimentHesitant))
}

func TestIsOptOut(t *testing.T) {
	assert.True(t, funnel.IsOptOut("não tenho interesse"))
	assert.True(t, funnel.IsOptOut("Nao, obrigado"))
	assert.True(t, funnel.IsOptOut("pare de me enviar mensagens"))
	assert.True(t, funnel.IsOptOut("STOP"))

	assert.False(t, funnel.IsOptOut("quero saber mais"))
	// Keyword embedded in a longer word must not match.
	assert.False(t, funnel.IsOptOut("passei pelo stopover"))
}

func TestIsPurchaseIntent(t *testing.T) {
	assert.True(t, funnel.IsPurchaseIntent("quero comprar agora"))
	assert.True(t, funnel.IsPurchaseIntent("posso comprar?"))

	assert.False(t, funnel.IsPurchaseIntent("o querosene subiu de preço"))
	assert.False(t, funnel.IsPurchaseIntent("me conta mais"))
}
