package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	CapCashback         = "cashback"
	CapCRMCampaigns     = "crm_campaigns"
	CapCurvaABC         = "curva_abc"
	CapAPIWhatsApp      = "api_whatsapp"
	CapNotaFiscal       = "nota_fiscal"
	CapMultiLoja        = "multi_loja"
	CapListaInteligente = "lista_inteligente"
)

// KnownCapabilities in display order.
var KnownCapabilities = []string{
	CapCashback,
	CapCRMCampaigns,
	CapCurvaABC,
	CapAPIWhatsApp,
	CapNotaFiscal,
	CapMultiLoja,
	CapListaInteligente,
}

var capabilityLabels = map[string]string{
	CapCashback:         "Cashback",
	CapCRMCampaigns:     "Campanhas de CRM",
	CapCurvaABC:         "Curva ABC",
	CapAPIWhatsApp:      "API WhatsApp",
	CapNotaFiscal:       "Nota Fiscal",
	CapMultiLoja:        "Multi-loja",
	CapListaInteligente: "Lista Inteligente",
}

var capabilityAliases = map[string]string{
	"curve_abc": CapCurvaABC,
}

// Features is the single stored shape of a plan's feature set. Legacy rows
// holding a bullet array, a newline string or an object of booleans are
// converted on read.
type Features struct {
	Capabilities   map[string]bool `json:"capabilities"`
	DisplayBullets []string        `json:"display_bullets"`
}

func (f Features) Has(capability string) bool {
	if alias, ok := capabilityAliases[capability]; ok {
		capability = alias
	}
	return f.Capabilities[capability]
}

func (f *Features) UnmarshalJSON(data []byte) error {
	normalized, err := NormalizeFeatures(data)
	if err != nil {
		return err
	}
	*f = normalized
	return nil
}

// NormalizeFeatures accepts every feature shape ever written and returns the
// canonical form with all known capabilities present.
func NormalizeFeatures(raw []byte) (Features, error) {
	out := Features{Capabilities: map[string]bool{}, DisplayBullets: []string{}}
	for _, c := range KnownCapabilities {
		out.Capabilities[c] = false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	switch raw[0] {
	case '[':
		var bullets []string
		if err := json.Unmarshal(raw, &bullets); err != nil {
			return out, fmt.Errorf("plan features: %w", err)
		}
		out.DisplayBullets = cleanBullets(bullets)
		return out, nil

	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return out, fmt.Errorf("plan features: %w", err)
		}
		out.DisplayBullets = cleanBullets(strings.Split(text, "\n"))
		return out, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return out, fmt.Errorf("plan features: %w", err)
		}

		capsRaw, hasCaps := obj["capabilities"]
		bulletsRaw, hasBullets := obj["display_bullets"]
		if hasCaps || hasBullets {
			var caps map[string]bool
			if hasCaps && len(capsRaw) > 0 && string(capsRaw) != "null" {
				if err := json.Unmarshal(capsRaw, &caps); err != nil {
					return out, fmt.Errorf("plan features: capabilities: %w", err)
				}
			}
			mergeCapabilities(out.Capabilities, caps)

			var bullets []string
			if hasBullets && len(bulletsRaw) > 0 && string(bulletsRaw) != "null" {
				if err := json.Unmarshal(bulletsRaw, &bullets); err != nil {
					return out, fmt.Errorf("plan features: display_bullets: %w", err)
				}
			}
			out.DisplayBullets = cleanBullets(bullets)
			return out, nil
		}

		flags := make(map[string]bool, len(obj))
		for k, v := range obj {
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return out, fmt.Errorf("plan features: %q is not a boolean", k)
			}
			flags[k] = b
		}
		mergeCapabilities(out.Capabilities, flags)
		out.DisplayBullets = bulletsFromCapabilities(out.Capabilities)
		return out, nil

	default:
		return out, fmt.Errorf("plan features: unsupported shape %q", string(raw[:1]))
	}
}

func mergeCapabilities(dst, src map[string]bool) {
	for k, v := range src {
		key := strings.ToLower(strings.TrimSpace(k))
		if alias, ok := capabilityAliases[key]; ok {
			key = alias
		}
		if key == "" {
			continue
		}
		dst[key] = dst[key] || v
	}
}

func cleanBullets(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func bulletsFromCapabilities(caps map[string]bool) []string {
	out := []string{}
	for _, c := range KnownCapabilities {
		if caps[c] {
			out = append(out, capabilityLabels[c])
		}
	}

	var extra []string
	for k, v := range caps {
		if _, known := capabilityLabels[k]; !known && v {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
