// Package engine orchestrates one conversation turn: dedupe, classify,
// persist funnel state, select a scripted response, and request the send.
package engine

import (
	"fmt"
	"strings"
	"time"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
	"whatsapp-salesbot/internal/script"

	"go.uber.org/zap"
)

// SendResult is the outcome of a collaborator send attempt. Failures are
// values, not errors: the engine branches on them without unwinding.
type SendResult struct {
	OK     bool
	Reason string
}

// Transport is the messaging-surface collaborator (browser automation in
// production). Send retries transient failures internally; ReceiveLatest may
// return nothing when the conversation cannot be located.
type Transport interface {
	Send(contactName, text string) SendResult
	ReceiveLatest(contactName string, window time.Duration) ([]string, error)
}

// Notifier receives conversation events for live observers (the dashboard
// websocket hub). Optional.
type Notifier interface {
	NotifyInbound(contact, message string, sentiment classifier.Sentiment)
	NotifyOutbound(contact, message string)
	NotifyStage(contact string, stage funnel.Stage)
}

// Lead score deltas per observed sentiment. Unclamped.
const (
	scoreDeltaPositive = 15
	scoreDeltaNegative = -10
)

type Engine struct {
	store      *database.Store
	classifier *classifier.Classifier
	rulebook   *script.Rulebook
	transport  Transport
	notifier   Notifier
	product    string
	log        *zap.Logger
}

func New(store *database.Store, cls *classifier.Classifier, rulebook *script.Rulebook, transport Transport, product string, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		classifier: cls,
		rulebook:   rulebook,
		transport:  transport,
		product:    product,
		log:        logger,
	}
}

// SetNotifier attaches an optional event observer.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// HandleInbound processes one inbound turn for a contact. Returns whether
// any new content was processed; duplicate text for the same contact is an
// idempotent no-op, and opted-out contacts are never responded to.
func (e *Engine) HandleInbound(contact *models.Contact, rawText string) (bool, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return false, nil
	}
	if contact.CurrentStage == string(funnel.StageOptOut) {
		return false, nil
	}

	hash := database.Fingerprint(text)
	exists, err := e.store.MessageExists(contact.ID, hash)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if exists {
		return false, nil
	}

	sentiment, _ := e.classifier.Classify(text)
	if err := e.store.LogMessage(contact.ID, text, models.SenderUser, sentiment); err != nil {
		return false, fmt.Errorf("log inbound: %w", err)
	}
	e.log.Info("inbound message",
		zap.String("contact", contact.Name),
		zap.String("sentiment", string(sentiment)))
	if e.notifier != nil {
		e.notifier.NotifyInbound(contact.Name, text, sentiment)
	}

	engagement := funnel.EngagementFor(sentiment)
	stage := funnel.NextStage(sentiment)
	if err := e.store.UpdateEngagement(contact.ID, engagement, stage, time.Now()); err != nil {
		return false, fmt.Errorf("update contact: %w", err)
	}
	contact.EngagementLevel = string(engagement)
	contact.CurrentStage = string(stage)
	contact.InitialMessageSent = true
	if e.notifier != nil {
		e.notifier.NotifyStage(contact.Name, stage)
	}

	if funnel.IsOptOut(text) {
		return true, e.handleOptOut(contact)
	}

	// Purchase-intent keywords route this turn to the closing script; the
	// persisted stage stays sentiment-derived.
	selectStage := stage
	if funnel.IsPurchaseIntent(text) {
		selectStage = funnel.StageClosing
	}

	response, ruleID := e.rulebook.SelectResponse(selectStage, text, e.renderContext(contact))
	result := e.transport.Send(contact.Name, response)
	if !result.OK {
		e.log.Warn("send failed",
			zap.String("contact", contact.Name),
			zap.String("reason", result.Reason))
		return true, nil
	}

	e.logOutbound(contact, response)

	if sentiment == classifier.SentimentPositive || sentiment == classifier.SentimentCurious {
		if err := e.store.MarkScriptSuccess(ruleID); err != nil {
			e.log.Warn("success counter update failed", zap.Uint("script_id", ruleID), zap.Error(err))
		}
	}
	if delta := scoreDelta(sentiment); delta != 0 {
		if err := e.store.AddLeadScore(contact.ID, delta); err != nil {
			return true, fmt.Errorf("lead score update: %w", err)
		}
		contact.LeadScore += delta
	}
	return true, nil
}

// HandleInitialOutreach sends the prospecting greeting to a contact that has
// never been messaged. Reports whether the greeting went out.
func (e *Engine) HandleInitialOutreach(contact *models.Contact) (bool, error) {
	if contact.InitialMessageSent || contact.CurrentStage == string(funnel.StageOptOut) {
		return false, nil
	}

	response, _ := e.rulebook.SelectResponse(funnel.StageProspecting, "oi", e.renderContext(contact))
	result := e.transport.Send(contact.Name, response)
	if !result.OK {
		e.log.Warn("initial outreach failed",
			zap.String("contact", contact.Name),
			zap.String("reason", result.Reason))
		return false, nil
	}

	e.logOutbound(contact, response)
	if err := e.store.MarkInitialSent(contact.ID, time.Now()); err != nil {
		return true, fmt.Errorf("mark initial sent: %w", err)
	}
	contact.InitialMessageSent = true
	e.log.Info("initial outreach sent", zap.String("contact", contact.Name))
	return true, nil
}

// handleOptOut sends the respectful goodbye and terminally opts the contact
// out, short-circuiting the rest of the turn.
func (e *Engine) handleOptOut(contact *models.Contact) error {
	goodbye := fmt.Sprintf("Entendido, %s. Respeito sua decisão. Caso queira conversar no futuro, é só me chamar! 😊", contact.Name)
	result := e.transport.Send(contact.Name, goodbye)
	if result.OK {
		e.logOutbound(contact, goodbye)
	} else {
		e.log.Warn("opt-out goodbye failed",
			zap.String("contact", contact.Name),
			zap.String("reason", result.Reason))
	}

	if err := e.store.MarkOptOut(contact.ID); err != nil {
		return fmt.Errorf("mark opt-out: %w", err)
	}
	contact.CurrentStage = string(funnel.StageOptOut)
	contact.EngagementLevel = string(funnel.EngagementNegative)
	contact.LeadScore = 0
	e.log.Info("contact opted out", zap.String("contact", contact.Name))
	if e.notifier != nil {
		e.notifier.NotifyStage(contact.Name, funnel.StageOptOut)
	}
	return nil
}

func (e *Engine) logOutbound(contact *models.Contact, text string) {
	sentiment, _ := e.classifier.Classify(text)
	if err := e.store.LogMessage(contact.ID, text, models.SenderBot, sentiment); err != nil {
		e.log.Warn("log outbound failed", zap.String("contact", contact.Name), zap.Error(err))
	}
	if e.notifier != nil {
		e.notifier.NotifyOutbound(contact.Name, text)
	}
}

func (e *Engine) renderContext(contact *models.Contact) script.RenderContext {
	return script.RenderContext{
		ContactName: contact.Name,
		Product:     e.product,
		PainPoint:   contact.PainPoint,
		Industry:    contact.Industry,
	}
}

func scoreDelta(sentiment classifier.Sentiment) int {
	switch sentiment {
	case classifier.SentimentPositive, classifier.SentimentCurious:
		return scoreDeltaPositive
	case classifier.SentimentNegative:
		return scoreDeltaNegative
	default:
		return 0
	}
}
