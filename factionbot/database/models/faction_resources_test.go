package models

import "testing"

func TestIsKnownResource(t *testing.T) {
	for _, name := range KnownResources {
		if !IsKnownResource(name) {
			t.Errorf("IsKnownResource(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "gold", "Food", "food "} {
		if IsKnownResource(name) {
			t.Errorf("IsKnownResource(%q) = true, want false", name)
		}
	}
}

func TestFactionResourcesBalances(t *testing.T) {
	res := &FactionResources{
		Food:     50,
		Water:    25,
		Currency: 1200,
	}

	balances := res.Balances()
	if len(balances) != len(KnownResources) {
		t.Fatalf("Balances() has %d entries, want %d", len(balances), len(KnownResources))
	}
	if balances[ResourceFood] != 50 {
		t.Errorf("Balances()[food] = %d, want 50", balances[ResourceFood])
	}
	if balances[ResourceWater] != 25 {
		t.Errorf("Balances()[water] = %d, want 25", balances[ResourceWater])
	}
	if balances[ResourceEnergy] != 0 {
		t.Errorf("Balances()[energy] = %d, want 0", balances[ResourceEnergy])
	}
}
