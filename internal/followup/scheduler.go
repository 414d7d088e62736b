// Package followup re-engages contacts that have gone quiet by injecting a
// synthetic "silence" stimulus into the follow-up script stage.
package followup

import (
	"time"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/engine"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
	"whatsapp-salesbot/internal/script"

	"go.uber.org/zap"
)

// silenceStimulus is the synthetic message matched against the follow-up
// stage's keyword rules.
const silenceStimulus = "silêncio"

type Scheduler struct {
	store      *database.Store
	classifier *classifier.Classifier
	rulebook   *script.Rulebook
	transport  engine.Transport
	product    string
	interval   time.Duration
	grace      time.Duration
	log        *zap.Logger
}

func New(store *database.Store, cls *classifier.Classifier, rulebook *script.Rulebook, transport engine.Transport, product string, interval, grace time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		classifier: cls,
		rulebook:   rulebook,
		transport:  transport,
		product:    product,
		interval:   interval,
		grace:      grace,
		log:        logger,
	}
}

// DueFollowUps returns the contacts idle past the grace window whose last
// follow-up is unset or older than the configured interval.
func (s *Scheduler) DueFollowUps(now time.Time) ([]models.Contact, error) {
	return s.store.DueFollowUps(now, s.interval, s.grace)
}

// Run sends one follow-up to each due contact. last_follow_up is stamped
// regardless of the send outcome so a failing contact does not turn into a
// tight retry loop; failures are logged and retried no earlier than the next
// interval.
func (s *Scheduler) Run(now time.Time) error {
	due, err := s.DueFollowUps(now)
	if err != nil {
		return err
	}

	for i := range due {
		contact := &due[i]
		response, _ := s.rulebook.SelectResponse(funnel.StageFollowUp, silenceStimulus, script.RenderContext{
			ContactName: contact.Name,
			Product:     s.product,
			PainPoint:   contact.PainPoint,
			Industry:    contact.Industry,
		})

		result := s.transport.Send(contact.Name, response)
		if result.OK {
			sentiment, _ := s.classifier.Classify(response)
			if err := s.store.LogMessage(contact.ID, response, models.SenderBot, sentiment); err != nil {
				s.log.Warn("log follow-up failed", zap.String("contact", contact.Name), zap.Error(err))
			}
			s.log.Info("follow-up sent", zap.String("contact", contact.Name))
		} else {
			s.log.Warn("follow-up send failed",
				zap.String("contact", contact.Name),
				zap.String("reason", result.Reason))
		}

		if err := s.store.StampFollowUp(contact.ID, now); err != nil {
			return err
		}
	}
	return nil
}
