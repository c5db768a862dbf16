package checkout_test

import (
	"testing"

	"ela-checkout/internal/checkout"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTiers(t *testing.T) {
	catalog := checkout.DefaultTiers()

	cases := map[string]int64{
		"basico":        50000,
		"intermediario": 55000,
		"premium":       60000,
		"teste":         100,
	}

	for id, amount := range cases {
		tier, ok := catalog.Resolve(id)
		if !ok {
			t.Fatalf("Expected tier %s to resolve", id)
		}
		if tier.AmountCents != amount {
			t.Errorf("Tier %s: expected amount %d, got %d", id, amount, tier.AmountCents)
		}
		if tier.ID != id {
			t.Errorf("Tier %s: expected ID %s, got %s", id, id, tier.ID)
		}
	}
}

func TestTierAliases(t *testing.T) {
	catalog := checkout.DefaultTiers()

	aliases := map[string]string{
		"individual": "basico",
		"vip":        "intermediario",
		"dupla":      "premium",
	}

	for alias, canonical := range aliases {
		tier, ok := catalog.Resolve(alias)
		if !ok {
			t.Fatalf("Expected alias %s to resolve", alias)
		}
		assert.Equal(t, canonical, tier.ID, "alias %s should resolve to %s", alias, canonical)
	}
}

func TestUnknownTierDoesNotResolve(t *testing.T) {
	catalog := checkout.DefaultTiers()

	_, ok := catalog.Resolve("platinum")
	assert.False(t, ok)

	_, ok = catalog.Resolve("")
	assert.False(t, ok)
}

func TestAllListsCanonicalTiersOnly(t *testing.T) {
	catalog := checkout.DefaultTiers()

	all := catalog.All()
	if len(all) != 4 {
		t.Fatalf("Expected 4 canonical tiers, got %d", len(all))
	}

	seen := make(map[string]bool)
	for _, tier := range all {
		seen[tier.ID] = true
	}
	for _, alias := range []string{"individual", "vip", "dupla"} {
		if seen[alias] {
			t.Errorf("Alias %s must not appear in the canonical list", alias)
		}
	}
}
