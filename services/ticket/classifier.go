package ticket

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	CategoryFiscal      = "Fiscal"
	CategoryFinanceiro  = "Financeiro"
	CategoryImpressora  = "Impressora"
	CategoryIntegracoes = "Integrações"
	CategoryCRM         = "CRM"
	CategoryGeral       = "Geral"
)

const (
	highWeight   = 30
	mediumWeight = 10
)

var (
	highUrgencyKeywords = []string{
		"pagamento", "fiscal", "nfe", "fora do ar", "travado",
		"perda de dados", "cobrança", "bloqueado", "expirou", "urgente",
	}
	mediumUrgencyKeywords = []string{
		"erro", "bug", "falha", "não funciona", "api",
		"integração", "lento", "senha", "login",
	}
)

// categoryRules are checked in order; the first rule with a matching keyword wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{CategoryFiscal, []string{"fiscal", "nfe"}},
	{CategoryFinanceiro, []string{"pagamento", "boleto", "cartão"}},
	{CategoryImpressora, []string{"impressora", "imprimir"}},
	{CategoryIntegracoes, []string{"api", "whatsapp"}},
	{CategoryCRM, []string{"crm", "cashback"}},
}

var categoryActions = map[string]string{
	CategoryFiscal:      "Verificar validade do Certificado Digital A1.",
	CategoryFinanceiro:  "Consultar status da assinatura no painel.",
	CategoryIntegracoes: "Testar conexão da API no menu Configurações.",
}

const printerAction = "Verificar se o QZ Tray está rodando no PC."

type RiskAssessment struct {
	UserErrorProbability      int `json:"user_error_probability"`
	TechnicalErrorProbability int `json:"technical_error_probability"`
}

type Analysis struct {
	Score              int            `json:"urgency_score"`
	Level              Urgency        `json:"urgency_level"`
	Category           string         `json:"category"`
	Summary            string         `json:"summary"`
	Risk               RiskAssessment `json:"risk_assessment"`
	RecommendedActions []string       `json:"recommended_actions"`
}

var levelLabels = map[Urgency]string{
	UrgencyHigh:   "ALTA",
	UrgencyMedium: "MEDIA",
	UrgencyLow:    "BAIXA",
}

// Classify scores a ticket by keyword membership. It is pure: the same
// subject and description always give the same analysis.
func Classify(subject, description string) Analysis {
	text := strings.ToLower(norm.NFC.String(subject + " " + description))

	score := 0
	for _, w := range highUrgencyKeywords {
		if strings.Contains(text, w) {
			score += highWeight
		}
	}
	for _, w := range mediumUrgencyKeywords {
		if strings.Contains(text, w) {
			score += mediumWeight
		}
	}

	level := UrgencyLow
	switch {
	case score >= highWeight:
		level = UrgencyHigh
	case score >= mediumWeight:
		level = UrgencyMedium
	}

	category := CategoryGeral
rules:
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				category = rule.category
				break rules
			}
		}
	}

	technical := 40
	if level == UrgencyHigh {
		technical = 80
	}

	actions := []string{}
	if a, ok := categoryActions[category]; ok {
		actions = append(actions, a)
	}
	if strings.Contains(text, "impressora") {
		actions = append(actions, printerAction)
	}

	return Analysis{
		Score:    score,
		Level:    level,
		Category: category,
		Summary:  "Ticket classificado como " + levelLabels[level] + " devido a palavras-chave identificadas.",
		Risk: RiskAssessment{
			UserErrorProbability:      100 - technical,
			TechnicalErrorProbability: technical,
		},
		RecommendedActions: actions,
	}
}
