package models

import (
	"time"
)

// Message sender roles.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Contact represents a sales lead matched by name against the messaging surface
type Contact struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Phone              string     `gorm:"type:varchar(50)" json:"phone"`
	LastInteraction    time.Time  `json:"last_interaction"`
	LeadScore          int        `gorm:"default:50" json:"lead_score"`
	InitialMessageSent bool       `gorm:"default:false" json:"initial_message_sent"`
	Industry           string     `gorm:"type:varchar(255)" json:"industry"`
	PainPoint          string     `gorm:"type:text" json:"pain_point"`
	LastFollowUp       *time.Time `json:"last_follow_up"`
	EngagementLevel    string     `gorm:"type:varchar(20);default:'neutral'" json:"engagement_level"`
	CurrentStage       string     `gorm:"type:varchar(20);default:'prospecting'" json:"current_stage"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Message is one immutable conversation turn. The (contact_id, message_hash)
// pair is unique so duplicate inbound text is never re-logged.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ContactID      uint      `gorm:"not null;uniqueIndex:idx_contact_hash" json:"contact_id"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	Sender         string    `gorm:"type:varchar(10);not null" json:"sender"`
	Timestamp      time.Time `gorm:"not null" json:"timestamp"`
	Sentiment      string    `gorm:"type:varchar(20)" json:"sentiment"`
	MessageHash    string    `gorm:"type:varchar(64);uniqueIndex:idx_contact_hash" json:"message_hash"`
	ContextSummary string    `gorm:"type:text" json:"context_summary"`
}

func (Message) TableName() string {
	return "messages"
}

// SalesScript is a row in the rulebook: matched in insertion order within a stage.
type SalesScript struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Stage        string `gorm:"type:varchar(20);not null;index" json:"stage"`
	Keyword      string `gorm:"type:text;not null" json:"keyword"`
	Response     string `gorm:"type:text;not null" json:"response"`
	SuccessCount int    `gorm:"default:0" json:"success_count"`
	UseCount     int    `gorm:"default:0" json:"use_count"`
	Tone         string `gorm:"type:varchar(20);default:'professional'" json:"tone"`
}

func (SalesScript) TableName() string {
	return "sales_scripts"
}
