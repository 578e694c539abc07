package plan

import "gorm.io/datatypes"

func allCapabilities() Features {
	f, _ := NormalizeFeatures(nil)
	for _, c := range KnownCapabilities {
		f.Capabilities[c] = true
	}
	f.DisplayBullets = bulletsFromCapabilities(f.Capabilities)
	return f
}

func withCapabilities(caps ...string) Features {
	f, _ := NormalizeFeatures(nil)
	for _, c := range caps {
		f.Capabilities[c] = true
	}
	f.DisplayBullets = bulletsFromCapabilities(f.Capabilities)
	return f
}

// Defaults is the catalog installed on an empty database.
func Defaults() []*Plan {
	mk := func(code, name string, month, year float64, clients, users int, f Features) *Plan {
		return &Plan{
			Code:       code,
			Name:       name,
			PriceMonth: month,
			PriceYear:  year,
			Limits:     datatypes.NewJSONType(Limits{MaxClients: clients, MaxUsers: users}),
			Features:   datatypes.NewJSONType(f),
			IsActive:   true,
		}
	}
	return []*Plan{
		mk("START", "Start", 199, 1990, 500, 2, withCapabilities(CapCashback, CapNotaFiscal)),
		mk("PREMIUM", "Premium", 399, 3990, 2000, 5, withCapabilities(CapCashback, CapNotaFiscal, CapCRMCampaigns, CapCurvaABC)),
		mk("ADVANCED", "Advanced", 699, 6990, 10000, 15, allCapabilities()),
		mk("ENTERPRISE", "Enterprise", 1299, 12990, 999999, 999, allCapabilities()),
	}
}
