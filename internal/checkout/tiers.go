package checkout

// Tier is a fixed, named ticket category with an associated price in minor
// currency units. The catalog is the single source of truth for both the
// displayed and the charged price.
type Tier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

// TierCatalog resolves tier identifiers to their configuration. Legacy
// identifiers from earlier pricing revisions resolve to the current tiers
// so that old checkout links keep working.
type TierCatalog struct {
	tiers   map[string]Tier
	aliases map[string]string
}

// DefaultTiers returns the catalog for the current event edition.
func DefaultTiers() *TierCatalog {
	return &TierCatalog{
		tiers: map[string]Tier{
			"basico": {
				ID:          "basico",
				Name:        "Básico",
				AmountCents: 50000,
				Description: "Acesso ao evento com benefícios essenciais",
			},
			"intermediario": {
				ID:          "intermediario",
				Name:        "Intermediário",
				AmountCents: 55000,
				Description: "Acesso completo com benefícios adicionais",
			},
			"premium": {
				ID:          "premium",
				Name:        "Premium",
				AmountCents: 60000,
				Description: "Experiência completa com benefícios exclusivos",
			},
			// Stripe minimum charge, used to exercise the full flow.
			"teste": {
				ID:          "teste",
				Name:        "Teste",
				AmountCents: 100,
				Description: "Ingresso de teste para validar o fluxo",
			},
		},
		aliases: map[string]string{
			"individual": "basico",
			"vip":        "intermediario",
			"dupla":      "premium",
		},
	}
}

// Resolve looks up a tier by identifier, following legacy aliases.
func (c *TierCatalog) Resolve(id string) (Tier, bool) {
	if canonical, ok := c.aliases[id]; ok {
		id = canonical
	}
	tier, ok := c.tiers[id]
	return tier, ok
}

// All returns every current tier, for display surfaces.
func (c *TierCatalog) All() []Tier {
	out := make([]Tier, 0, len(c.tiers))
	for _, t := range c.tiers {
		out = append(out, t)
	}
	return out
}
