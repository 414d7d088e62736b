package script

import (
	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/models"
)

// Seeds is the default rulebook installed on first run (and by cmd/reseed).
func Seeds() []models.SalesScript {
	return []models.SalesScript{
		{
			Stage:    string(funnel.StageProspecting),
			Keyword:  "oi|olá|ola",
			Response: "Olá, {contact_name}! Tudo bem? Percebi que você atua no setor de {industry} e enfrenta {pain_point}. Nosso {product} pode ajudar a resolver isso de forma prática e eficiente. Posso te contar como? 😊",
			Tone:     string(classifier.ToneProfessional),
		},
		{
			Stage:    string(funnel.StageProspecting),
			Keyword:  "oi|olá|ola",
			Response: "Oi, {contact_name}! Como tá indo? Soube que você trabalha com {industry} e talvez lide com {pain_point}. Nosso {product} tem soluções legais pra isso! Quer saber mais? 🚀",
			Tone:     string(classifier.ToneCasual),
		},
		{
			Stage:    string(funnel.StageNurturing),
			Keyword:  "saber|explicar|interessado|claro|ok|clr|como|adoraria|mostrar|me explique",
			Response: "Que ótimo, {contact_name}! Nosso {product} ensina estratégias comprovadas para atrair mais clientes no setor de {industry}. Por exemplo, ele mostra como criar campanhas que resolvem {pain_point}. Quer um trecho grátis? 📖",
			Tone:     string(classifier.ToneProfessional),
		},
		{
			Stage:    string(funnel.StageNurturing),
			Keyword:  "saber|explicar|interessado|claro|ok|clr|como|adoraria|mostrar|me explique",
			Response: "Demais, {contact_name}! O {product} tem dicas práticas pra resolver {pain_point} no {industry}. Te mando um pedacinho grátis pra você ver como é? 😄",
			Tone:     string(classifier.ToneCasual),
		},
		{
			Stage:    string(funnel.StageObjection),
			Keyword:  "caro",
			Response: "Entendo, {contact_name}. O custo pode parecer alto, mas o {product} entrega {benefit}, com retorno rápido. Temos clientes no {industry} com resultados incríveis! Quer um caso de sucesso? 📈",
			Tone:     string(classifier.ToneProfessional),
		},
		{
			Stage:    string(funnel.StageObjection),
			Keyword:  "tempo",
			Response: "Sei que tempo é corrido, {contact_name}! O {product} é simples e resolve {pain_point} rapidinho. Posso te mostrar como em 5 minutos? ⏱️",
			Tone:     string(classifier.ToneProfessional),
		},
		{
			Stage:    string(funnel.StageClosing),
			Keyword:  "quero|comprar",
			Response: "Show, {contact_name}! 🚀 Vamos garantir seu {product} agora? Temos uma oferta especial hoje: 20% de desconto! Qual o melhor jeito de te enviar o link? 💼",
			Tone:     string(classifier.ToneProfessional),
		},
		{
			Stage:    string(funnel.StageFollowUp),
			Keyword:  "silêncio",
			Response: "Oi, {contact_name}! Tudo certo? Lembrei de você porque nosso {product} é ideal para {pain_point}. Outros no {industry} estão vendo resultados. Quer conversar? 🌟",
			Tone:     string(classifier.ToneProfessional),
		},
	}
}
