package housing

import (
	"testing"

	"github.com/factionrealms/factionbot/factionbot/database/models"
)

func TestSpecForSize(t *testing.T) {
	tests := []struct {
		size models.PlotSize
		want SizeSpec
	}{
		{models.PlotSizeSmall, SizeSpec{BasePrice: 1000, MaxOccupants: 2, Maintenance: 50}},
		{models.PlotSizeMedium, SizeSpec{BasePrice: 2500, MaxOccupants: 4, Maintenance: 125}},
		{models.PlotSizeLarge, SizeSpec{BasePrice: 5000, MaxOccupants: 6, Maintenance: 250}},
		{models.PlotSizeEstate, SizeSpec{BasePrice: 10000, MaxOccupants: 10, Maintenance: 500}},
	}
	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			got, ok := SpecForSize(tt.size)
			if !ok {
				t.Fatalf("SpecForSize(%s) not found", tt.size)
			}
			if got != tt.want {
				t.Errorf("SpecForSize(%s) = %+v, want %+v", tt.size, got, tt.want)
			}
		})
	}

	if _, ok := SpecForSize("castle"); ok {
		t.Error("SpecForSize(castle) should not exist")
	}
}

func TestUpgradeCost(t *testing.T) {
	tests := []struct {
		name      string
		baseValue int64
		newTier   int
		want      int64
	}{
		{name: "small to tier 2", baseValue: 1000, newTier: 2, want: 750},
		{name: "small to tier 5", baseValue: 1000, newTier: 5, want: 1500},
		{name: "medium to tier 3", baseValue: 2500, newTier: 3, want: 2500},
		{name: "odd value floors", baseValue: 1001, newTier: 2, want: 750},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpgradeCost(tt.baseValue, tt.newTier); got != tt.want {
				t.Errorf("UpgradeCost(%d, %d) = %d, want %d", tt.baseValue, tt.newTier, got, tt.want)
			}
		})
	}
}

func TestUpgradedOccupants(t *testing.T) {
	tests := []struct {
		current int
		want    int
	}{
		{2, 2},  // floor(2.4)
		{4, 4},  // floor(4.8)
		{6, 7},  // floor(7.2)
		{10, 12},
	}
	for _, tt := range tests {
		if got := UpgradedOccupants(tt.current); got != tt.want {
			t.Errorf("UpgradedOccupants(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}

func TestUpgradedMaintenance(t *testing.T) {
	tests := []struct {
		current int64
		want    int64
	}{
		{50, 65},
		{125, 162},  // floor(162.5)
		{250, 325},
		{500, 650},
	}
	for _, tt := range tests {
		if got := UpgradedMaintenance(tt.current); got != tt.want {
			t.Errorf("UpgradedMaintenance(%d) = %d, want %d", tt.current, got, tt.want)
		}
	}
}
