package database

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/config"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the single owner of persisted state. Every component receives it
// explicitly; nothing else touches the database handle.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(cfg *config.Config, zlog *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.DBPath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Contact{},
		&models.Message{},
		&models.SalesScript{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration: %w", err)
	}

	zlog.Info("database initialized", zap.String("driver", cfg.DBDriver))
	return &Store{db: db, log: zlog}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Scripts ---

// SeedScripts inserts the default rulebook when the table is empty.
func (s *Store) SeedScripts(seeds []models.SalesScript) error {
	var count int64
	if err := s.db.Model(&models.SalesScript{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.db.Create(&seeds).Error
}

// ReseedScripts wipes the rulebook and reinserts the seed set. Operator
// trained rules are lost; that is the point of a reseed.
func (s *Store) ReseedScripts(seeds []models.SalesScript) error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SalesScript{}).Error; err != nil {
		return err
	}
	return s.db.Create(&seeds).Error
}

// ScriptsByStage returns the stage's rules in insertion order, which is the
// tie-break when several rules match.
func (s *Store) ScriptsByStage(stage funnel.Stage) ([]models.SalesScript, error) {
	var scripts []models.SalesScript
	err := s.db.Where("stage = ?", string(stage)).Order("id ASC").Find(&scripts).Error
	return scripts, err
}

func (s *Store) AddScript(script *models.SalesScript) error {
	return s.db.Create(script).Error
}

func (s *Store) IncrementScriptUse(id uint) error {
	if id == 0 {
		return nil
	}
	return s.db.Model(&models.SalesScript{}).Where("id = ?", id).
		UpdateColumn("use_count", gorm.Expr("use_count + 1")).Error
}

func (s *Store) MarkScriptSuccess(id uint) error {
	if id == 0 {
		return nil
	}
	return s.db.Model(&models.SalesScript{}).Where("id = ?", id).
		UpdateColumn("success_count", gorm.Expr("success_count + 1")).Error
}

// UsedScripts returns the rules that fired at least once.
func (s *Store) UsedScripts() ([]models.SalesScript, error) {
	var scripts []models.SalesScript
	err := s.db.Where("use_count > 0").Order("id ASC").Find(&scripts).Error
	return scripts, err
}

// --- Contacts ---

// GetOrCreateContact returns the contact for name, creating it with funnel
// defaults (score 50, prospecting, neutral) on first reference. Industry and
// pain point refresh when non-empty; last_interaction is touched either way.
func (s *Store) GetOrCreateContact(name, industry, painPoint string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("name = ?", name).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = models.Contact{
			Name:            name,
			Industry:        industry,
			PainPoint:       painPoint,
			LeadScore:       50,
			EngagementLevel: string(funnel.EngagementNeutral),
			CurrentStage:    string(funnel.StageProspecting),
			LastInteraction: time.Now(),
		}
		if err := s.db.Create(&contact).Error; err != nil {
			return nil, err
		}
		return &contact, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"last_interaction": time.Now()}
	if industry != "" {
		updates["industry"] = industry
		contact.Industry = industry
	}
	if painPoint != "" {
		updates["pain_point"] = painPoint
		contact.PainPoint = painPoint
	}
	if err := s.db.Model(&contact).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Store) ContactByName(name string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.Where("name = ?", name).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateEngagement persists the turn's derived engagement and stage along
// with the interaction timestamp. Receiving a reply implies the opening
// message reached the contact, so initial_message_sent is set too.
func (s *Store) UpdateEngagement(contactID uint, engagement funnel.Engagement, stage funnel.Stage, now time.Time) error {
	return s.db.Model(&models.Contact{}).Where("id = ?", contactID).Updates(map[string]interface{}{
		"engagement_level":     string(engagement),
		"current_stage":        string(stage),
		"last_interaction":     now,
		"initial_message_sent": true,
	}).Error
}

func (s *Store) MarkInitialSent(contactID uint, now time.Time) error {
	return s.db.Model(&models.Contact{}).Where("id = ?", contactID).Updates(map[string]interface{}{
		"initial_message_sent": true,
		"last_interaction":     now,
	}).Error
}

// AddLeadScore applies a score delta. Unclamped: repeated negative turns can
// drive the score below zero.
func (s *Store) AddLeadScore(contactID uint, delta int) error {
	return s.db.Model(&models.Contact{}).Where("id = ?", contactID).
		UpdateColumn("lead_score", gorm.Expr("lead_score + ?", delta)).Error
}

// MarkOptOut is the terminal transition: score reset to 0, engagement
// negative, stage opt-out.
func (s *Store) MarkOptOut(contactID uint) error {
	return s.db.Model(&models.Contact{}).Where("id = ?", contactID).Updates(map[string]interface{}{
		"lead_score":       0,
		"engagement_level": string(funnel.EngagementNegative),
		"current_stage":    string(funnel.StageOptOut),
	}).Error
}

func (s *Store) StampFollowUp(contactID uint, now time.Time) error {
	return s.db.Model(&models.Contact{}).Where("id = ?", contactID).
		Update("last_follow_up", now).Error
}

// DueFollowUps returns contacts whose last follow-up is unset or older than
// followUpInterval and whose last interaction is older than idleGrace.
// Opted-out contacts never receive follow-ups.
func (s *Store) DueFollowUps(now time.Time, followUpInterval, idleGrace time.Duration) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.db.
		Where("(last_follow_up IS NULL OR last_follow_up < ?)", now.Add(-followUpInterval)).
		Where("last_interaction < ?", now.Add(-idleGrace)).
		Where("current_stage <> ?", string(funnel.StageOptOut)).
		Find(&contacts).Error
	return contacts, err
}

// ContactsByScore lists all contacts ordered by descending lead score.
func (s *Store) ContactsByScore() ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.db.Order("lead_score DESC").Find(&contacts).Error
	return contacts, err
}

// --- Messages ---

// Fingerprint is the stable content hash used for per-contact deduplication.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *Store) MessageExists(contactID uint, hash string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("contact_id = ? AND message_hash = ?", contactID, hash).
		Count(&count).Error
	return count > 0, err
}

// LogMessage records one turn. Duplicate (contact, fingerprint) pairs are
// silently skipped, keeping the write idempotent under re-reads.
func (s *Store) LogMessage(contactID uint, text, sender string, sentiment classifier.Sentiment) error {
	hash := Fingerprint(text)
	exists, err := s.MessageExists(contactID, hash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	summary, err := s.ContextSummary(contactID)
	if err != nil {
		s.log.Warn("context summary failed", zap.Uint("contact_id", contactID), zap.Error(err))
		summary = ""
	}

	msg := models.Message{
		ContactID:      contactID,
		Message:        text,
		Sender:         sender,
		Timestamp:      time.Now(),
		Sentiment:      string(sentiment),
		MessageHash:    hash,
		ContextSummary: summary,
	}
	return s.db.Create(&msg).Error
}

// ContextSummary builds the rolling summary of the last ten turns, each
// truncated to 50 runes, the whole capped at 200 runes.
func (s *Store) ContextSummary(contactID uint) (string, error) {
	var messages []models.Message
	err := s.db.Where("contact_id = ?", contactID).
		Order("timestamp DESC").Limit(10).Find(&messages).Error
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Conversa recente: ")
	for _, msg := range messages {
		b.WriteString(msg.Sender)
		b.WriteString(": ")
		b.WriteString(truncateRunes(msg.Message, 50))
		b.WriteString("... ")
	}
	return truncateRunes(b.String(), 200), nil
}

func (s *Store) MessagesForContact(contactID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("contact_id = ?", contactID).
		Order("timestamp ASC").Limit(limit).Find(&messages).Error
	return messages, err
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
