package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Sentiment labels assigned to a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentCurious  Sentiment = "Curious"
	SentimentHesitant Sentiment = "Hesitant"
	SentimentNeutral  Sentiment = "Neutral"
)

// Tone is the register of a message, independent of sentiment.
type Tone string

const (
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
	ToneFormal       Tone = "formal"
)

// Lexical rules take precedence over the polarity score. Keywords are
// Brazilian Portuguese, matching the market the bot operates in.
// `\b` is ASCII-only in Go regexp, so accented keywords use explicit
// letter-class boundaries instead.
var (
	positivePattern = regexp.MustCompile(`(?i)(?:^|\P{L})(quero|comprar|interessado|show|legal|ótimo|otimo|valeu|adoraria)(?:\P{L}|$)`)
	negativePattern = regexp.MustCompile(`(?i)(?:^|\P{L})(não|nao|caro|pare|stop|desinteressado)(?:\P{L}|$)`)
	curiousPattern  = regexp.MustCompile(`(?i)(?:^|\P{L})(saber|explicar|como|qual|detalhes|mostrar|me explique)(?:\P{L}|$)`)

	formalPattern = regexp.MustCompile(`(?i)(?:^|\P{L})(prezado|prezada|atenciosamente|obrigado|obrigada|cordialmente)(?:\P{L}|$)`)
)

var casualMarkers = []string{"😊", "😄", "🚀", "haha", "lol", "kkk"}

// polarityLexicon backs the continuous score used when no lexical rule fires.
// Weights are in [-1, 1]; the score for a message is the mean weight of the
// lexicon words it contains.
var polarityLexicon = map[string]float64{
	"excelente":   1.0,
	"maravilhoso": 1.0,
	"perfeito":    0.9,
	"incrível":    0.9,
	"amei":        0.9,
	"gostei":      0.8,
	"feliz":       0.8,
	"bom":         0.6,
	"boa":         0.6,
	"bacana":      0.5,
	"interessante": 0.25,
	"talvez":      0.2,
	"quem sabe":   0.15,
	"depois":      -0.15,
	"ocupado":     -0.2,
	"difícil":     -0.2,
	"complicado":  -0.25,
	"duvido":      -0.4,
	"ruim":        -0.6,
	"péssimo":     -0.9,
	"horrível":    -1.0,
	"odiei":       -1.0,
}

type Classifier struct {
	log *zap.Logger
}

func New(logger *zap.Logger) *Classifier {
	return &Classifier{log: logger}
}

// Classify returns the sentiment and tone of a raw message. It never fails:
// any internal panic is recorded and degrades to Neutral/professional.
func (c *Classifier) Classify(text string) (sentiment Sentiment, tone Tone) {
	sentiment = SentimentNeutral
	tone = ToneProfessional
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("classifier recovered", zap.Any("panic", r))
			sentiment = SentimentNeutral
			tone = ToneProfessional
		}
	}()

	tone = c.detectTone(text)
	sentiment = c.analyzeSentiment(text)
	return sentiment, tone
}

func (c *Classifier) detectTone(text string) Tone {
	length := utf8.RuneCountInString(text)
	if length < 20 {
		return ToneCasual
	}
	for _, marker := range casualMarkers {
		if strings.Contains(strings.ToLower(text), marker) {
			return ToneCasual
		}
	}
	if length > 100 || formalPattern.MatchString(text) {
		return ToneFormal
	}
	return ToneProfessional
}

func (c *Classifier) analyzeSentiment(text string) Sentiment {
	if positivePattern.MatchString(text) {
		return SentimentPositive
	}
	if negativePattern.MatchString(text) {
		return SentimentNegative
	}
	if curiousPattern.MatchString(text) {
		return SentimentCurious
	}

	polarity := Polarity(text)
	switch {
	case polarity > 0.3:
		return SentimentPositive
	case polarity < -0.3:
		return SentimentNegative
	case polarity > 0.1 && polarity <= 0.3:
		return SentimentCurious
	case polarity >= -0.3 && polarity < -0.1:
		return SentimentHesitant
	default:
		return SentimentNeutral
	}
}

// Polarity scores text in [-1, 1] as the mean lexicon weight of the words it
// contains; 0 when no lexicon word appears.
func Polarity(text string) float64 {
	lower := strings.ToLower(text)
	var sum float64
	var hits int
	for word, weight := range polarityLexicon {
		if strings.Contains(lower, word) {
			sum += weight
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}
