package ticket

import "strings"

type FAQCategory struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

type Article struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content"`
}

var faqCategories = []FAQCategory{
	{ID: "store", Title: "Sistema da Loja", Icon: "Store"},
	{ID: "admin", Title: "Sistema Admin", Icon: "LayoutDashboard"},
	{ID: "fiscal", Title: "Fiscal e NFe", Icon: "FileText"},
	{ID: "printer", Title: "Impressoras", Icon: "Printer"},
	{ID: "crm", Title: "CRM e Cashback", Icon: "Users"},
	{ID: "whatsapp", Title: "API WhatsApp", Icon: "MessageCircle"},
	{ID: "billing", Title: "Pagamentos", Icon: "CreditCard"},
	{ID: "general", Title: "Geral", Icon: "HelpCircle"},
}

var articles = []Article{
	{ID: "1", Title: "Como configurar Certificado A1", Category: "fiscal", Tags: []string{"nfe", "certificado"}, Content: "Passo a passo para instalar o certificado A1 nas configurações fiscais."},
	{ID: "2", Title: "Cupom fiscal cortando errado", Category: "printer", Tags: []string{"impressora", "corte", "layout"}, Content: "Ajuste a largura do papel nas configurações do QZ Tray."},
	{ID: "3", Title: "Integração WhatsApp desconectada", Category: "whatsapp", Tags: []string{"api", "conexão"}, Content: "Leia o QR Code novamente no menu de configurações."},
	{ID: "4", Title: "Como renovar assinatura", Category: "billing", Tags: []string{"pagamento", "plano"}, Content: "Acesse o menu Financeiro > Assinatura."},
}

func FAQCategories() []FAQCategory {
	return append([]FAQCategory(nil), faqCategories...)
}

// SearchArticles matches q case-insensitively against title, tags and
// content. An empty query matches nothing.
func SearchArticles(q string) []Article {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []Article{}
	if q == "" {
		return out
	}
	for _, a := range articles {
		if matches(a, q) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a Article, q string) bool {
	if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Content), q) {
		return true
	}
	for _, t := range a.Tags {
		if strings.Contains(t, q) {
			return true
		}
	}
	return false
}
