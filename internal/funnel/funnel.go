// Package funnel holds the sales-funnel state machine: the stage enum, the
// sentiment-driven transition function, and the keyword checks that force a
// contact out of the funnel or route a turn to the closing script.
package funnel

import (
	"regexp"

	"whatsapp-salesbot/internal/classifier"
)

type Stage string

const (
	StageProspecting Stage = "prospecting"
	StageNurturing   Stage = "nurturing"
	StageObjection   Stage = "objection"
	StageClosing     Stage = "closing"
	StageFollowUp    Stage = "follow-up"
	StageOptOut      Stage = "opt-out"
)

type Engagement string

const (
	EngagementPositive Engagement = "positive"
	EngagementNegative Engagement = "negative"
	EngagementNeutral  Engagement = "neutral"
)

var (
	optOutPattern   = regexp.MustCompile(`(?i)(?:^|\P{L})(não|nao|pare|stop|desinteressado)(?:\P{L}|$)`)
	purchasePattern = regexp.MustCompile(`(?i)(?:^|\P{L})(quero|comprar)(?:\P{L}|$)`)
)

// NextStage maps the sentiment of the latest inbound turn to the stage that
// gets persisted. Closing and follow-up are never reached from sentiment
// alone: closing is routed by purchase-intent keywords and follow-up only by
// the scheduler.
func NextStage(sentiment classifier.Sentiment) Stage {
	switch sentiment {
	case classifier.SentimentPositive, classifier.SentimentCurious:
		return StageNurturing
	case classifier.SentimentNegative:
		return StageObjection
	default:
		return StageProspecting
	}
}

// EngagementFor derives the engagement label persisted alongside the stage.
func EngagementFor(sentiment classifier.Sentiment) Engagement {
	switch sentiment {
	case classifier.SentimentPositive, classifier.SentimentCurious:
		return EngagementPositive
	case classifier.SentimentNegative:
		return EngagementNegative
	default:
		return EngagementNeutral
	}
}

// IsOptOut reports whether text contains an explicit refusal keyword. A
// matching contact is force-transitioned to opt-out, which is terminal.
func IsOptOut(text string) bool {
	return optOutPattern.MatchString(text)
}

// IsPurchaseIntent reports whether text contains explicit purchase keywords.
// These route the current turn's script selection to the closing stage
// without changing the persisted stage.
func IsPurchaseIntent(text string) bool {
	return purchasePattern.MatchString(text)
}
