// Package script implements the rulebook: an ordered list of keyword/tone
// predicates per funnel stage, evaluated in insertion order, rendering
// templated responses for the matching rule.
package script

import (
	"fmt"
	"regexp"
	"strings"

	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"

	"go.uber.org/zap"
)

// Generic phrases substituted when a contact has no recorded pain point or
// industry.
const (
	genericPainPoint = "seus desafios"
	genericIndustry  = "seu setor"
	genericBenefit   = "resultados rápidos"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// RenderContext carries the placeholder values for one turn.
type RenderContext struct {
	ContactName string
	Product     string
	PainPoint   string
	Industry    string
}

type Rulebook struct {
	store      *database.Store
	classifier *classifier.Classifier
	log        *zap.Logger
}

func NewRulebook(store *database.Store, cls *classifier.Classifier, logger *zap.Logger) *Rulebook {
	return &Rulebook{store: store, classifier: cls, log: logger}
}

// SelectResponse picks the first rule in the requested stage whose keyword
// pattern matches text as a whole-word, case-insensitive alternation and
// whose tone equals the detected tone or is professional (the universal
// fallback tone). Returns the rendered response and the id of the rule that
// fired, or 0 when the generic fallback was used. A fired rule's use counter
// is bumped.
func (r *Rulebook) SelectResponse(stage funnel.Stage, text string, ctx RenderContext) (string, uint) {
	_, tone := r.classifier.Classify(text)

	scripts, err := r.store.ScriptsByStage(stage)
	if err != nil {
		r.log.Error("loading scripts failed", zap.String("stage", string(stage)), zap.Error(err))
		return r.fallback(ctx), 0
	}

	for _, s := range scripts {
		pattern, err := wordPattern(s.Keyword)
		if err != nil {
			r.log.Warn("invalid script keyword", zap.Uint("script_id", s.ID), zap.Error(err))
			continue
		}
		if !pattern.MatchString(text) {
			continue
		}
		if classifier.Tone(s.Tone) != tone && s.Tone != string(classifier.ToneProfessional) {
			continue
		}

		rendered, err := Render(s.Response, ctx)
		if err != nil {
			// Operator-trained templates are not pre-validated; a bad
			// placeholder surfaces here and must not halt the engine.
			r.log.Error("template rendering failed", zap.Uint("script_id", s.ID), zap.Error(err))
			return r.fallback(ctx), 0
		}

		if err := r.store.IncrementScriptUse(s.ID); err != nil {
			r.log.Warn("use counter update failed", zap.Uint("script_id", s.ID), zap.Error(err))
		}
		return rendered, s.ID
	}

	return r.fallback(ctx), 0
}

// Train appends an operator rule. Templates are not validated; malformed
// placeholders fail at render time.
func (r *Rulebook) Train(stage funnel.Stage, keyword, response string, tone classifier.Tone) error {
	if tone == "" {
		tone = classifier.ToneProfessional
	}
	return r.store.AddScript(&models.SalesScript{
		Stage:    string(stage),
		Keyword:  strings.ToLower(strings.TrimSpace(keyword)),
		Response: response,
		Tone:     string(tone),
	})
}

// Render substitutes the five supported placeholders. A placeholder left
// unresolved is an error; the caller falls back to the generic response.
func Render(template string, ctx RenderContext) (string, error) {
	benefit := genericBenefit
	painPoint := ctx.PainPoint
	if painPoint == "" {
		painPoint = genericPainPoint
	} else {
		benefit = "técnicas para superar " + painPoint
	}
	industry := ctx.Industry
	if industry == "" {
		industry = genericIndustry
	}

	rendered := strings.NewReplacer(
		"{contact_name}", ctx.ContactName,
		"{product}", ctx.Product,
		"{benefit}", benefit,
		"{pain_point}", painPoint,
		"{industry}", industry,
	).Replace(template)

	if unresolved := placeholderPattern.FindString(rendered); unresolved != "" {
		return "", fmt.Errorf("unsupported placeholder %s", unresolved)
	}
	return rendered, nil
}

func (r *Rulebook) fallback(ctx RenderContext) string {
	painPoint := ctx.PainPoint
	if painPoint == "" {
		painPoint = genericPainPoint
	}
	industry := ctx.Industry
	if industry == "" {
		industry = genericIndustry
	}
	return fmt.Sprintf(
		"Entendi, %s! Parece que você está interessado em resolver %s no %s. Nosso %s tem estratégias específicas para isso. Quer que eu explique mais ou envie um trecho grátis? 😊",
		ctx.ContactName, painPoint, industry, ctx.Product)
}

// wordPattern compiles a keyword alternation into a whole-word,
// case-insensitive matcher. Go's \b is ASCII-only, so accented Portuguese
// keywords need explicit letter-class boundaries.
func wordPattern(keyword string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(?:^|\P{L})(?:` + keyword + `)(?:\P{L}|$)`)
}
