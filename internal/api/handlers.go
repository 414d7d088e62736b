package api

import (
	"net/http"
	"strconv"

	"whatsapp-salesbot/internal/analytics"
	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
	"whatsapp-salesbot/internal/script"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	Reporter *analytics.Reporter
}

func NewAnalyticsHandler(reporter *analytics.Reporter) *AnalyticsHandler {
	return &AnalyticsHandler{Reporter: reporter}
}

// GetContacts returns contacts ordered by descending lead score.
func (h *AnalyticsHandler) GetContacts(c *gin.Context) {
	reports, err := h.Reporter.ContactReport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []analytics.ContactReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// GetScripts returns success rates for every rule that fired.
func (h *AnalyticsHandler) GetScripts(c *gin.Context) {
	reports, err := h.Reporter.ScriptReport()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []analytics.ScriptReport{}
	}
	c.JSON(http.StatusOK, reports)
}

type ContactHandler struct {
	Store *database.Store
}

func NewContactHandler(store *database.Store) *ContactHandler {
	return &ContactHandler{Store: store}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	contacts, err := h.Store.ContactsByScore()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// GetMessages returns the conversation history for one contact.
func (h *ContactHandler) GetMessages(c *gin.Context) {
	name := c.Query("contact")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contact query parameter is required"})
		return
	}

	contact, err := h.Store.ContactByName(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.Store.MessagesForContact(contact.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

type ScriptHandler struct {
	Rulebook *script.Rulebook
}

func NewScriptHandler(rulebook *script.Rulebook) *ScriptHandler {
	return &ScriptHandler{Rulebook: rulebook}
}

// TrainScript appends an operator rule to the rulebook. Templates are not
// validated here; bad placeholders surface at selection time.
func (h *ScriptHandler) TrainScript(c *gin.Context) {
	var req struct {
		Stage    string `json:"stage" binding:"required"`
		Keyword  string `json:"keyword" binding:"required"`
		Response string `json:"response" binding:"required"`
		Tone     string `json:"tone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Rulebook.Train(funnel.Stage(req.Stage), req.Keyword, req.Response, classifier.Tone(req.Tone)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Script saved successfully"})
}
