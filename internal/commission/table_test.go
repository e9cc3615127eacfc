package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
)

func testConfig() config.CommissionConfig {
	return config.CommissionConfig{
		Chef:      "0.15",
		Pharmacy:  "0.12",
		Vendor:    "0.10",
		TopVendor: "0.08",
		Default:   "0.10",
	}
}

func TestNewTableRejectsBadRates(t *testing.T) {
	cfg := testConfig()
	cfg.Chef = "fifteen percent"
	_, err := NewTable(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.Pharmacy = "1.2"
	_, err = NewTable(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.Default = "-0.05"
	_, err = NewTable(cfg)
	require.Error(t, err)
}

func TestRateFallsBackToDefault(t *testing.T) {
	table, err := NewTable(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "0.15", table.Rate(enums.VendorRoleChef).String())
	assert.Equal(t, "0.12", table.Rate(enums.VendorRolePharmacy).String())
	assert.Equal(t, "0.1", table.Rate(enums.VendorRole("unknown")).String())
}

func TestSplit(t *testing.T) {
	table, err := NewTable(testConfig())
	require.NoError(t, err)

	cases := []struct {
		name       string
		role       enums.VendorRole
		subtotal   int64
		commission int64
		payout     int64
	}{
		{"chef order", enums.VendorRoleChef, 10_000_00, 1_500_00, 8_500_00},
		{"pharmacy order", enums.VendorRolePharmacy, 4_000_00, 480_00, 3_520_00},
		{"vendor order", enums.VendorRoleVendor, 999, 100, 899},
		{"rounds half up", enums.VendorRoleChef, 3, 0, 3}, // 0.45 rounds to 0
		{"single kobo", enums.VendorRoleChef, 7, 1, 6},    // 1.05 rounds to 1
		{"zero subtotal", enums.VendorRoleChef, 0, 0, 0},
		{"negative subtotal", enums.VendorRoleChef, -500, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commission, payout := table.Split(tc.role, tc.subtotal)
			assert.Equal(t, tc.commission, commission)
			assert.Equal(t, tc.payout, payout)
			if tc.subtotal > 0 {
				assert.Equal(t, tc.subtotal, commission+payout, "split must conserve the subtotal")
			}
		})
	}
}
