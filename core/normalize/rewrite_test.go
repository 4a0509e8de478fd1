package normalize_test

import (
	"testing"

	"stocksync/core/normalize"

	"github.com/stretchr/testify/assert"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"WarehouseSuffix", "MAIN WAREHOUSE", "MAIN_WH"},
		{"DistributionCenter", "ALPHA DISTRIBUTION CENTER", "ALPHA_DC"},
		{"FulfillmentCenter", "NORTH FULFILLMENT CENTER", "NORTH_FC"},
		{"SortingCenter", "EAST SORTING CENTER", "EAST_SC"},
		{"RegionalBeatsPlainFulfillment", "TVER REGIONAL FULFILLMENT CENTER", "TVER_RFC"},
		{"BareType", "WAREHOUSE", "WH"},
		{"CyrillicSuffix", "КАЗАНЬ РФЦ", "КАЗАНЬ_RFC"},
		{"CyrillicSorting", "ТВЕРЬ СЦ", "ТВЕРЬ_SC"},
		{"CyrillicWarehouse", "МОСКВА СКЛАД", "МОСКВА_WH"},
		{"WhitespaceRuns", "MAIN   CENTRAL\tDEPOT", "MAIN_CENTRAL_DEPOT"},
		{"StripsPunctuation", "EAST-7 (MAIN)", "EAST-7_MAIN"},
		{"TrailingSeparators", "DOCK_-_", "DOCK"},
		{"NoSuffixMatch", "CENTRAL_HUB", "CENTRAL_HUB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Rewrite(tt.input))
		})
	}
}

func TestRewrite_Deterministic(t *testing.T) {
	inputs := []string{"MAIN WAREHOUSE", "КАЗАНЬ РФЦ", "EAST-7 (MAIN)", "CENTRAL_HUB"}
	for _, in := range inputs {
		first := normalize.Rewrite(in)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, normalize.Rewrite(in), "input %q must rewrite identically every time", in)
		}
	}
}
